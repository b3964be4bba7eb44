package otp

import "github.com/timhilliard/yubistack/internal/verrors"

// ErrBadOTP is returned by SplitPublicName when the OTP is too short to
// contain a full encrypted payload.
var ErrBadOTP = verrors.New(verrors.BadOTP)
