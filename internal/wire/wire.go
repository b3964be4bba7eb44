// Package wire implements the legacy key=value wire encoding shared by
// verify responses and sync responses (spec §6).
package wire

import (
	"sort"
	"strings"
)

// ParseBlock parses a newline-delimited key=value block (the wire response
// format, spec §6) into a field map.
func ParseBlock(body string) map[string]string {
	fields := make(map[string]string)
	for _, line := range strings.Split(strings.TrimSpace(body), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		kv := strings.SplitN(line, "=", 2)
		if len(kv) != 2 {
			continue
		}
		fields[kv[0]] = kv[1]
	}
	return fields
}

// EncodeBlock renders fields as a newline-delimited key=value block, keys
// sorted for deterministic output (not required by the wire format, but
// matches the canonical ordering used for signing, spec §4.3).
func EncodeBlock(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(fields[k])
		sb.WriteByte('\n')
	}
	return sb.String()
}
