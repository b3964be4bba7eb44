package ksm

import (
	"context"
	"crypto/aes"
	"encoding/binary"
	"fmt"

	"github.com/timhilliard/yubistack/internal/modhex"
)

// blockLen is the fixed size of a Yubico OTP ciphertext block:
// uid(6) + counter(2) + tstpl/low(2) + tstph/high(1) + use(1) + rnd(2) + crc(2).
const blockLen = 16

// crcOKResidual is the fixed CRC16 residual over a correctly-decrypted
// 16-byte block (standard Yubico CRC16-CCITT check value).
const crcOKResidual = 0xf0b8

// AESDecryptor decrypts OTP ciphertexts in-process against a per-key AES
// key table, per spec §4.2(a). It does not perform network I/O.
type AESDecryptor struct {
	// keys maps public_name to its raw AES-128 key.
	keys map[string][]byte
}

// NewAESDecryptor builds an AESDecryptor over the given public_name -> key
// table.
func NewAESDecryptor(keys map[string][]byte) *AESDecryptor {
	return &AESDecryptor{keys: keys}
}

var _ Decryptor = (*AESDecryptor)(nil)

// Decrypt implements Decryptor.
func (d *AESDecryptor) Decrypt(_ context.Context, publicName, otpCiphertext string) (Tokens, error) {
	key, ok := d.keys[publicName]
	if !ok {
		return Tokens{}, ErrBadOTP
	}

	raw, err := modhex.DecodeBytes(otpCiphertext)
	if err != nil || len(raw) != blockLen {
		return Tokens{}, ErrBadOTP
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return Tokens{}, fmt.Errorf("ksm: bad key for %s: %w", publicName, err)
	}

	plain := make([]byte, blockLen)
	block.Decrypt(plain, raw) // single block, no chaining: legacy ECB format

	if crc16(plain) != crcOKResidual {
		return Tokens{}, ErrBadOTP
	}

	counter := binary.LittleEndian.Uint16(plain[6:8])
	low := binary.LittleEndian.Uint16(plain[8:10])
	high := uint16(plain[10])
	use := plain[11]

	return Tokens{Counter: counter, Use: use, High: high, Low: low}, nil
}

// crc16 computes the Yubico CRC16-CCITT variant (poly 0x8408, init 0xffff)
// used to validate a decrypted token block.
func crc16(data []byte) uint16 {
	crc := uint16(0xffff)
	for _, b := range data {
		crc ^= uint16(b)
		for i := 0; i < 8; i++ {
			if crc&1 != 0 {
				crc = (crc >> 1) ^ 0x8408
			} else {
				crc >>= 1
			}
		}
	}
	return crc
}
