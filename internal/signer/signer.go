// Package signer implements the canonical HMAC-SHA1 signing scheme shared
// by client-facing verify responses and sibling sync calls (spec §4.3).
package signer

import (
	"crypto/hmac"
	"crypto/sha1" //nolint:gosec // wire-mandated primitive, not our choice
	"encoding/base64"
	"sort"
	"strings"
)

// Canonicalize sorts params by key (ASCII lexicographic) and joins them as
// "k=v" pairs separated by "&", with no URL encoding.
func Canonicalize(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+params[k])
	}
	return strings.Join(parts, "&")
}

// Sign computes the base64 HMAC-SHA1 signature of params under secret. A
// nil or empty secret signs to the empty string, per spec §4.3 ("a client
// with empty/zero secret signs to the empty string").
func Sign(params map[string]string, secret []byte) string {
	if len(secret) == 0 {
		return ""
	}
	mac := hmac.New(sha1.New, secret)
	mac.Write([]byte(Canonicalize(params)))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Verify reports whether sig is the correct signature of params under
// secret.
func Verify(params map[string]string, secret []byte, sig string) bool {
	expected := Sign(params, secret)
	return hmac.Equal([]byte(expected), []byte(sig))
}

// AppendQuerySig applies the legacy "+"->"%B" substitution (a compatibility
// wart, not standard URL encoding) and returns the "h=<sig>" fragment ready
// to append to a query string, per spec §4.3 step 5.
func AppendQuerySig(sig string) string {
	return "h=" + strings.ReplaceAll(sig, "+", "%B")
}
