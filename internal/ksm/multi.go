package ksm

import "context"

// MultiDecryptor tries the in-process decryptor first (cheaper, and the
// preferred order in the original implementation), falling back to the
// remote KSM servers.
type MultiDecryptor struct {
	Native *AESDecryptor
	Remote *RemoteDecryptor
}

var _ Decryptor = (*MultiDecryptor)(nil)

// Decrypt implements Decryptor.
func (d *MultiDecryptor) Decrypt(ctx context.Context, publicName, otp string) (Tokens, error) {
	if d.Native == nil && d.Remote == nil {
		return Tokens{}, ErrBackend
	}
	if d.Native != nil {
		if tok, err := d.Native.Decrypt(ctx, publicName, otp); err == nil {
			return tok, nil
		}
	}
	if d.Remote != nil {
		return d.Remote.Decrypt(ctx, publicName, otp)
	}
	return Tokens{}, ErrBadOTP
}
