// Package ksm implements C3, the Key Security Module client: it decrypts
// an OTP ciphertext into its embedded counters. Two capability variants are
// supported behind one interface (spec §4.2, Design Note "KSM backend
// selection"): an in-process AES decryptor and a remote HTTP KSM.
package ksm

import (
	"context"

	"github.com/timhilliard/yubistack/internal/verrors"
)

// Tokens is the decrypted OTP payload (spec §4.2).
type Tokens struct {
	Counter uint16
	Use     uint8
	High    uint16
	Low     uint16
}

// Decryptor decrypts an OTP's ciphertext into its embedded counters.
type Decryptor interface {
	Decrypt(ctx context.Context, publicName, otp string) (Tokens, error)
}

// ErrBadOTP is returned when no configured KSM can decode the token.
var ErrBadOTP = verrors.New(verrors.BadOTP)

// ErrBackend is returned when no KSM is configured at all.
var ErrBackend = verrors.New(verrors.BackendError)
