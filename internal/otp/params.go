// Package otp parses and validates OTP verify requests, and defines the
// typed parameter records that flow through the Validator and Sync engine.
package otp

import (
	"fmt"

	"github.com/timhilliard/yubistack/internal/counter"
)

// TokenLen is the length of the encrypted OTP payload appended after the
// public_name.
const TokenLen = 32

// MaxLen is the longest an OTP may be (public_name up to 16 chars plus the
// 32-char encrypted payload).
const MaxLen = 48

// Params is the typed OTP parameter record carried through a verify call,
// replacing the source's untyped parameter dict (Design Note "Dynamic
// parameter dicts").
type Params struct {
	Modified   int64
	OTP        string
	Nonce      string
	PublicName string
	YkCounter  uint16
	YkUse      uint8
	YkHigh     uint16
	YkLow      uint16
}

// Tuple extracts the (yk_counter, yk_use) ordering pair from p, per spec
// §4.1.
func (p Params) Tuple() counter.Tuple {
	return counter.Tuple{Counter: int64(p.YkCounter), Use: int64(p.YkUse)}
}

// Timestamp reassembles the on-token 24-bit, 1/8s-resolution session clock.
func (p Params) Timestamp() uint32 {
	return uint32(p.YkHigh)<<16 | uint32(p.YkLow)
}

func (p Params) String() string {
	return fmt.Sprintf("Params{public_name=%s counter=%d use=%d high=%d low=%d nonce=%s modified=%d}",
		p.PublicName, p.YkCounter, p.YkUse, p.YkHigh, p.YkLow, p.Nonce, p.Modified)
}

// SplitPublicName splits an OTP into its public_name and ciphertext
// portions, per the GLOSSARY: public_name = otp[:-TokenLen].
func SplitPublicName(otpStr string) (publicName, ciphertext string, err error) {
	if len(otpStr) < TokenLen {
		return "", "", ErrBadOTP
	}
	split := len(otpStr) - TokenLen
	return otpStr[:split], otpStr[split:], nil
}
