package validator

import (
	"strconv"
	"time"

	"github.com/timhilliard/yubistack/internal/wire"
)

// Response is the signed wire response of a verify call (spec §4.5 Step 6,
// §6). Status carries either "OK" or one of the verrors.Kind wire names.
type Response struct {
	Status         string
	Time           string
	OTP            string
	Nonce          string
	SL             int
	HasSL          bool
	Timestamp      uint32
	SessionCounter uint16
	SessionUse     uint8
	HasTimestamp   bool
	H              string
	Param          string // set alongside MISSING_PARAMETER/INVALID_PARAMETER
}

// Fields renders r as the key=value field map the wire block / signature
// canonicalization operate on, per spec §4.3 and §6.
func (r Response) Fields() map[string]string {
	fields := map[string]string{
		"status": r.Status,
		"t":      r.Time,
		"otp":    r.OTP,
		"nonce":  r.Nonce,
	}
	if r.HasSL {
		fields["sl"] = strconv.Itoa(r.SL)
	}
	if r.Param != "" {
		fields["param"] = r.Param
	}
	if r.HasTimestamp {
		fields["timestamp"] = strconv.FormatUint(uint64(r.Timestamp), 10)
		fields["sessioncounter"] = strconv.FormatUint(uint64(r.SessionCounter), 10)
		fields["sessionuse"] = strconv.FormatUint(uint64(r.SessionUse), 10)
	}
	return fields
}

// Encode renders r as the newline-delimited key=value wire block (spec
// §6), with h included among the other fields in sorted key order.
func (r Response) Encode() string {
	fields := r.Fields()
	fields["h"] = r.H
	return wire.EncodeBlock(fields)
}

// nowISO formats a unix-second timestamp as the UTC ISO-8601 string the
// original implementation emits (seconds precision with a trailing 'Z',
// no fractional-second remainder), per spec §4.5 Step 6.
func nowISO(unixSeconds int64) string {
	return time.Unix(unixSeconds, 0).UTC().Format("2006-01-02T15:04:05Z")
}
