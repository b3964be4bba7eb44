// Package validator implements C6, the Validator: the six-step verify
// pipeline of spec §4.5 that accepts an OTP, decrypts it, reconciles its
// counters against the Counter Store, replicates to siblings, runs the
// phishing/timing test, and signs the response.
package validator

import (
	"context"
	"errors"
	"net/url"
	"time"

	"cosmossdk.io/log"

	"github.com/timhilliard/yubistack/internal/clock"
	"github.com/timhilliard/yubistack/internal/counterstore"
	"github.com/timhilliard/yubistack/internal/ksm"
	"github.com/timhilliard/yubistack/internal/signer"
	"github.com/timhilliard/yubistack/internal/sync"
	"github.com/timhilliard/yubistack/internal/verrors"
)

// Config holds the tunables spec §6 enumerates for the Validator: the
// default sync quorum and the phishing/timing test's constants.
type Config struct {
	// DefaultSyncLevel is used when a request omits "sl" (SUPPLEMENTED
	// FEATURE 3: falls back to server config, not 0).
	DefaultSyncLevel int
	// TSSec is the on-token clock's tick duration in seconds (1/8s).
	TSSec float64
	// TSRelTolerance and TSAbsTolerance bound the phishing/timing test
	// (spec §4.5 Step 5).
	TSRelTolerance float64
	TSAbsTolerance float64
}

// DefaultConfig returns the spec's stated constants (spec §6).
func DefaultConfig() Config {
	return Config{
		DefaultSyncLevel: 0,
		TSSec:            1.0 / 8.0,
		TSRelTolerance:   0.3,
		TSAbsTolerance:   20,
	}
}

// Validator is C6, wired to its collaborators: C1 (Counters), C3 (KSM), C5
// (Sync), the externally-managed client registry, and C7 (Clock).
type Validator struct {
	Clients  ClientLookup
	Counters counterstore.CounterStore
	KSM      ksm.Decryptor
	Sync     *sync.Engine
	Siblings sync.Siblings
	Clock    clock.Source
	Logger   log.Logger
	Config   Config
}

// New builds a Validator from its collaborators.
func New(clients ClientLookup, counters counterstore.CounterStore, decryptor ksm.Decryptor, engine *sync.Engine, siblings sync.Siblings, logger log.Logger, cfg Config) *Validator {
	return &Validator{
		Clients:  clients,
		Counters: counters,
		KSM:      decryptor,
		Sync:     engine,
		Siblings: siblings,
		Clock:    clock.Real{},
		Logger:   logger,
		Config:   cfg,
	}
}

// Verify runs the six-step pipeline of spec §4.5 (plus the supplemented
// Step 0 client check) against a raw verify request's query parameters.
// On failure it still returns a fully signed Response (spec §7: "all
// errors bubble to the Validator boundary and are converted to signed
// responses"); the caller should log/report err but transmit Response as
// the wire body regardless.
func (v *Validator) Verify(ctx context.Context, q url.Values) (Response, error) {
	var otpStr, nonce string
	var secret []byte

	s, err := v.sanitize(q)
	if err != nil {
		return v.errorResponse(err, otpStr, nonce, secret), err
	}
	otpStr, nonce = s.Req.OTP, s.EffectiveNonce

	c, err := v.checkClient(ctx, s, q)
	if err != nil {
		return v.errorResponse(err, otpStr, nonce, secret), err
	}
	if c.HasClient {
		secret = c.Client.Secret
	}

	d, err := v.decrypt(ctx, c)
	if err != nil {
		return v.errorResponse(err, otpStr, nonce, secret), err
	}

	a, err := v.checkReplay(ctx, d)
	if err != nil {
		return v.errorResponse(err, otpStr, nonce, secret), err
	}

	r, err := v.replicate(ctx, a)
	if err != nil {
		return v.errorResponse(err, otpStr, nonce, secret), err
	}

	p, err := v.checkTiming(r)
	if err != nil {
		return v.errorResponse(err, otpStr, nonce, secret), err
	}

	return v.sign(p, secret), nil
}

// Resync delegates to the Sync engine's §4.6 implementation.
func (v *Validator) Resync(ctx context.Context, target string) error {
	return v.Sync.Resync(ctx, target, v.Siblings)
}

// classifyError extracts the wire Kind/Param from err, defaulting to
// BACKEND_ERROR for anything not already a *verrors.Error (spec §7:
// "unexpected failure" is BACKEND_ERROR).
func classifyError(err error) (verrors.Kind, string) {
	var ve *verrors.Error
	if errors.As(err, &ve) {
		return ve.Kind, ve.Param
	}
	return verrors.BackendError, ""
}

// errorResponse builds the signed error response for a failed pipeline
// step, using whatever otp/nonce/secret context was established before
// the failure.
func (v *Validator) errorResponse(err error, otpStr, nonce string, secret []byte) Response {
	kind, param := classifyError(err)
	resp := Response{
		Status: string(kind),
		Time:   nowISO(v.now()),
		OTP:    otpStr,
		Nonce:  nonce,
		Param:  param,
	}
	resp.H = signer.Sign(resp.Fields(), secret)
	return resp
}

func (v *Validator) now() int64 {
	if v.Clock != nil {
		return v.Clock.Now()
	}
	return time.Now().Unix()
}
