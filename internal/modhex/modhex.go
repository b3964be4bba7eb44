// Package modhex implements the ModHex alphabet used to encode YubiKey
// output over keyboard input channels.
package modhex

import "strings"

// Alphabet is the 16-character ModHex character set, in the order the
// YubiKey firmware emits it.
const Alphabet = "cbdefghijklnrtuv"

// MaxPublicNameLen is the longest a public_name may be.
const MaxPublicNameLen = 16

// Valid reports whether s contains only ModHex characters. The empty
// string is valid (a zero-length public_name is permitted by the data
// model).
func Valid(s string) bool {
	for _, r := range s {
		if strings.IndexRune(Alphabet, r) < 0 {
			return false
		}
	}
	return true
}

var nibble = func() map[rune]uint8 {
	m := make(map[rune]uint8, len(Alphabet))
	for i, r := range Alphabet {
		m[r] = uint8(i)
	}
	return m
}()

// DecodeNibbles converts a ModHex string into its raw nibble values, one
// per character. The in-process KSM decryptor does not use it; it decodes
// ciphertext with DecodeBytes.
func DecodeNibbles(s string) ([]byte, error) {
	out := make([]byte, len(s))
	for i, r := range s {
		v, ok := nibble[r]
		if !ok {
			return nil, ErrInvalidChar
		}
		out[i] = v
	}
	return out, nil
}

// EncodeBytes encodes raw bytes as ModHex, two characters per byte (high
// nibble first), mirroring the on-token encoding.
func EncodeBytes(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b) * 2)
	for _, by := range b {
		sb.WriteByte(Alphabet[by>>4])
		sb.WriteByte(Alphabet[by&0x0f])
	}
	return sb.String()
}

// DecodeBytes is the inverse of EncodeBytes.
func DecodeBytes(s string) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, ErrOddLength
	}
	out := make([]byte, len(s)/2)
	for i := 0; i < len(out); i++ {
		hi, ok := nibble[rune(s[2*i])]
		if !ok {
			return nil, ErrInvalidChar
		}
		lo, ok := nibble[rune(s[2*i+1])]
		if !ok {
			return nil, ErrInvalidChar
		}
		out[i] = hi<<4 | lo
	}
	return out, nil
}
