package otp

import (
	"net/url"
	"regexp"
	"strconv"

	"github.com/timhilliard/yubistack/internal/modhex"
	"github.com/timhilliard/yubistack/internal/verrors"
)

var nonceRe = regexp.MustCompile(`^[A-Za-z0-9]{16,40}$`)

// VerifyRequest is the sanitized, typed form of an incoming verify call
// (spec §4.5 Step 1), built from raw query parameters.
type VerifyRequest struct {
	ClientID     int // 0 if not supplied
	HasClientID  bool
	OTP          string
	Nonce        string
	HasNonce     bool
	Timeout      int
	HasTimeout   bool
	SyncLevel    int
	HasSyncLevel bool
	Signature    string
	HasSignature bool
	// WantTimestamp is the request's "timestamp=1" flag (spec §4.5 Step 6):
	// when set, the response echoes the session timestamp/counter/use.
	WantTimestamp bool
}

// Sanitize validates raw query parameters against spec §4.5 Step 1 and
// returns a typed VerifyRequest, or a *verrors.Error naming the violated
// parameter.
func Sanitize(q url.Values) (VerifyRequest, error) {
	var req VerifyRequest

	if idStr := q.Get("id"); idStr != "" {
		id, err := strconv.Atoi(idStr)
		if err != nil || id <= 0 {
			return req, verrors.Param(verrors.InvalidParameter, "id")
		}
		req.ClientID = id
		req.HasClientID = true
	}

	otpStr := q.Get("otp")
	if otpStr == "" {
		return req, verrors.Param(verrors.MissingParameter, "otp")
	}
	if len(otpStr) < TokenLen || len(otpStr) > MaxLen || !modhex.Valid(otpStr) {
		return req, verrors.New(verrors.BadOTP)
	}
	req.OTP = otpStr

	nonce := q.Get("nonce")
	if nonce == "" {
		if req.HasClientID {
			return req, verrors.Param(verrors.MissingParameter, "nonce")
		}
	} else {
		if !nonceRe.MatchString(nonce) {
			return req, verrors.Param(verrors.InvalidParameter, "nonce")
		}
		req.Nonce = nonce
		req.HasNonce = true
	}

	if t := q.Get("timeout"); t != "" {
		v, err := strconv.Atoi(t)
		if err != nil {
			return req, verrors.Param(verrors.InvalidParameter, "timeout")
		}
		req.Timeout = v
		req.HasTimeout = true
	}

	if sl := q.Get("sl"); sl != "" {
		v, err := strconv.Atoi(sl)
		if err != nil || v < 0 || v > 100 {
			return req, verrors.Param(verrors.InvalidParameter, "sl")
		}
		req.SyncLevel = v
		req.HasSyncLevel = true
	}

	if ts := q.Get("timestamp"); ts != "" {
		v, err := strconv.Atoi(ts)
		if err != nil {
			return req, verrors.Param(verrors.InvalidParameter, "timestamp")
		}
		req.WantTimestamp = v == 1
	}

	if h := q.Get("h"); h != "" {
		req.Signature = h
		req.HasSignature = true
	}

	return req, nil
}
