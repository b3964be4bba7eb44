// Package verrors defines the wire-facing error kinds of the validation
// protocol (spec §7) as a closed, typed error rather than the untyped
// status strings the source passes around.
package verrors

import "fmt"

// Kind is one of the verbatim wire status names.
type Kind string

const (
	BadOTP            Kind = "BAD_OTP"
	ReplayedOTP       Kind = "REPLAYED_OTP"
	ReplayedRequest   Kind = "REPLAYED_REQUEST"
	DelayedOTP        Kind = "DELAYED_OTP"
	NoSuchClient      Kind = "NO_SUCH_CLIENT"
	DisabledToken     Kind = "DISABLED_TOKEN"
	MissingParameter  Kind = "MISSING_PARAMETER"
	InvalidParameter  Kind = "INVALID_PARAMETER"
	NotEnoughAnswers  Kind = "NOT_ENOUGH_ANSWERS"
	BackendError      Kind = "BACKEND_ERROR"
)

// Error is a validation failure that terminates a verify (or sync) call
// with a specific wire status, optionally naming the offending parameter.
type Error struct {
	Kind  Kind
	Param string
	Err   error // wrapped cause, if any; never part of the wire response
}

func (e *Error) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("%s: parameter %q", e.Kind, e.Param)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a bare Error of the given kind.
func New(k Kind) *Error { return &Error{Kind: k} }

// Param builds an Error naming the offending request parameter, for
// MISSING_PARAMETER / INVALID_PARAMETER.
func Param(k Kind, param string) *Error { return &Error{Kind: k, Param: param} }

// Wrap builds a BACKEND_ERROR (or any kind) carrying an underlying cause
// for logging; the cause is never echoed on the wire.
func Wrap(k Kind, err error) *Error { return &Error{Kind: k, Err: err} }
