package otp

import (
	"net/url"
	"strconv"
)

// SyncFields are the counter values bound into an outbox row's "info"
// column (spec §3 "Queue Entry"). Unlike Params, fields are int64 so the
// -1 "never seen" sentinel (invariant I2) can be carried honestly when
// Resync seeds a sibling that has no real decrypted OTP to report.
type SyncFields struct {
	Nonce      string
	PublicName string
	YkCounter  int64
	YkUse      int64
	YkHigh     int64
	YkLow      int64
}

// EncodeSyncInfo renders f as a canonical key=value&... query fragment,
// the outbox's "info" column. The result is safe to append directly after
// a "?...&" prefix, and parses back via ParseSyncParams (which already
// treats -1 as the sentinel, spec §4.4 Inbound step 1).
func EncodeSyncInfo(f SyncFields) string {
	v := url.Values{}
	v.Set("nonce", f.Nonce)
	v.Set("yk_publicname", f.PublicName)
	v.Set("yk_counter", strconv.FormatInt(f.YkCounter, 10))
	v.Set("yk_use", strconv.FormatInt(f.YkUse, 10))
	v.Set("yk_high", strconv.FormatInt(f.YkHigh, 10))
	v.Set("yk_low", strconv.FormatInt(f.YkLow, 10))
	return v.Encode()
}
