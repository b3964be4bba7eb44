package sync

import (
	"context"

	"github.com/google/uuid"

	"github.com/timhilliard/yubistack/internal/otp"
	"github.com/timhilliard/yubistack/internal/queuestore"
	"github.com/timhilliard/yubistack/internal/verrors"
)

// sentinelOTP is the placeholder ciphertext used to force a counter
// comparison against "all public names" (spec §4.6: "constructs a sentinel
// OTP ('c'x32)").
const sentinelOTP = "cccccccccccccccccccccccccccccccc"

// Siblings is every other replica's sync endpoint URL, configured at
// startup (spec §6 SYNC_SERVERS).
type Siblings []string

// Resync implements spec §4.6: for target ("all" or a single public_name),
// enumerate active identities and enqueue one outbox row per (key,
// sibling) pair under a single server_nonce, returning an advisory
// acknowledgement to the caller. A background drainer (out of scope)
// consumes the outbox.
func (e *Engine) Resync(ctx context.Context, target string, siblings Siblings) error {
	if len(siblings) == 0 {
		return nil
	}

	names, err := e.Counters.ListActive(ctx, target)
	if err != nil {
		return verrors.Wrap(verrors.BackendError, err)
	}

	now := e.Clock.Now()
	serverNonce := uuid.NewString()

	for _, publicName := range names {
		rec, err := e.Counters.Get(ctx, publicName, now)
		if err != nil {
			return verrors.Wrap(verrors.BackendError, err)
		}

		info := otp.EncodeSyncInfo(otp.SyncFields{
			Nonce:      serverNonce,
			PublicName: rec.PublicName,
			YkCounter:  rec.YkCounter,
			YkUse:      rec.YkUse,
			YkHigh:     rec.YkHigh,
			YkLow:      rec.YkLow,
		})

		for _, sibling := range siblings {
			entry := queuestore.Entry{
				Modified:    now,
				OTP:         publicName + sentinelOTP,
				Server:      sibling,
				ServerNonce: serverNonce,
				Info:        info,
			}
			if err := e.Queue.Enqueue(ctx, entry); err != nil {
				return verrors.Wrap(verrors.BackendError, err)
			}
		}
	}
	return nil
}
