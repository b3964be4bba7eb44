package ksm

import (
	"context"
	"crypto/aes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/timhilliard/yubistack/internal/modhex"
)

// encryptFixture builds a valid ciphertext block for (counter, use, high,
// low) under key, mirroring what a real YubiKey would emit, for use as a
// test fixture.
func encryptFixture(t *testing.T, key []byte, counter uint16, use uint8, high, low uint16) string {
	t.Helper()
	plain := make([]byte, blockLen)
	// uid left zero; not checked by this decryptor.
	binary.LittleEndian.PutUint16(plain[6:8], counter)
	binary.LittleEndian.PutUint16(plain[8:10], low)
	plain[10] = byte(high)
	plain[11] = use
	// rnd left zero.
	crc := crc16(plain[:14])
	binary.LittleEndian.PutUint16(plain[14:16], crc)
	// Re-verify full-block residual matches what Decrypt checks.
	require.Equal(t, uint16(crcOKResidual), crc16(plain))

	block, err := aes.NewCipher(key)
	require.NoError(t, err)
	cipher := make([]byte, blockLen)
	block.Encrypt(cipher, plain)

	return modhex.EncodeBytes(cipher)
}

func TestAESDecryptorRoundtrip(t *testing.T) {
	key := make([]byte, 16)
	for i := range key {
		key[i] = byte(i)
	}
	ct := encryptFixture(t, key, 1, 0, 0, 0)

	d := NewAESDecryptor(map[string][]byte{"ccccccbchvth": key})
	tok, err := d.Decrypt(context.Background(), "ccccccbchvth", ct)
	require.NoError(t, err)
	require.Equal(t, uint16(1), tok.Counter)
	require.Equal(t, uint8(0), tok.Use)
}

func TestAESDecryptorUnknownKey(t *testing.T) {
	d := NewAESDecryptor(map[string][]byte{})
	_, err := d.Decrypt(context.Background(), "unknownkey", "cccccccccccccccccccccccccccccccc")
	require.ErrorIs(t, err, ErrBadOTP)
}

func TestAESDecryptorBadCiphertextLength(t *testing.T) {
	key := make([]byte, 16)
	d := NewAESDecryptor(map[string][]byte{"pub": key})
	_, err := d.Decrypt(context.Background(), "pub", "cccc")
	require.ErrorIs(t, err, ErrBadOTP)
}
