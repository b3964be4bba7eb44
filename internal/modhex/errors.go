package modhex

import "errors"

var (
	// ErrInvalidChar is returned when a byte outside the ModHex alphabet
	// is encountered during decoding.
	ErrInvalidChar = errors.New("modhex: invalid character")
	// ErrOddLength is returned when a byte-decode is attempted on a
	// string of odd length.
	ErrOddLength = errors.New("modhex: odd-length string")
)
