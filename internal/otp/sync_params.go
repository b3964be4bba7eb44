package otp

import (
	"net/url"
	"strconv"

	"github.com/timhilliard/yubistack/internal/verrors"
)

// requiredSyncKeys are the REQUIRED keys of a sync message (spec §3 "OTP
// Parameters").
var requiredSyncKeys = []string{"modified", "otp", "nonce", "yk_publicname", "yk_counter", "yk_use", "yk_high", "yk_low"}

// ParseSyncParams validates presence and type of every REQUIRED sync key
// (spec §4.4 Inbound step 1) and returns a typed Params.
func ParseSyncParams(q url.Values) (Params, error) {
	for _, k := range requiredSyncKeys {
		if q.Get(k) == "" {
			return Params{}, verrors.Param(verrors.MissingParameter, k)
		}
	}

	modified, err := strconv.ParseInt(q.Get("modified"), 10, 64)
	if err != nil {
		return Params{}, verrors.Param(verrors.InvalidParameter, "modified")
	}
	counterVal, err := parseSyncInt(q.Get("yk_counter"), 16)
	if err != nil {
		return Params{}, verrors.Param(verrors.InvalidParameter, "yk_counter")
	}
	useVal, err := parseSyncInt(q.Get("yk_use"), 8)
	if err != nil {
		return Params{}, verrors.Param(verrors.InvalidParameter, "yk_use")
	}
	highVal, err := parseSyncInt(q.Get("yk_high"), 16)
	if err != nil {
		return Params{}, verrors.Param(verrors.InvalidParameter, "yk_high")
	}
	lowVal, err := parseSyncInt(q.Get("yk_low"), 16)
	if err != nil {
		return Params{}, verrors.Param(verrors.InvalidParameter, "yk_low")
	}

	return Params{
		Modified:   modified,
		OTP:        q.Get("otp"),
		Nonce:      q.Get("nonce"),
		PublicName: q.Get("yk_publicname"),
		YkCounter:  uint16(counterVal),
		YkUse:      uint8(useVal),
		YkHigh:     uint16(highVal),
		YkLow:      uint16(lowVal),
	}, nil
}

// parseSyncInt parses a numeric sync field that is either the -1 sentinel
// or a non-negative integer fitting in bitSize bits (spec §4.4 Inbound
// step 1: "numeric fields either -1 sentinel or integer").
func parseSyncInt(s string, bitSize int) (int64, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	if v == -1 {
		return 0, nil
	}
	if v < 0 || v >= (1<<uint(bitSize)) {
		return 0, verrors.New(verrors.InvalidParameter)
	}
	return v, nil
}
