package sync

import (
	"context"

	"github.com/timhilliard/yubistack/internal/counter"
	"github.com/timhilliard/yubistack/internal/counterstore"
	"github.com/timhilliard/yubistack/internal/otp"
	"github.com/timhilliard/yubistack/internal/verrors"
)

// Inbound implements spec §4.4 Inbound: a sibling asking this node to apply
// and report on a counter tuple it just accepted. syncParams has already
// passed otp.ParseSyncParams.
func (e *Engine) Inbound(ctx context.Context, syncParams otp.Params) (counterstore.Record, error) {
	local, err := e.Counters.Get(ctx, syncParams.PublicName, syncParams.Modified)
	if err != nil {
		return counterstore.Record{}, verrors.Wrap(verrors.BackendError, err)
	}

	localTuple := local.Tuple()
	syncTuple := syncParams.Tuple()

	switch {
	case counter.Gte(localTuple, syncTuple) && !counter.Eq(localTuple, syncTuple):
		e.Logger.Warn("remote out of sync: local counters ahead of incoming sync", "public_name", syncParams.PublicName)
	case counter.Eq(localTuple, syncTuple) && local.Nonce == syncParams.Nonce && local.Modified == syncParams.Modified:
		e.Logger.Info("duplicate sync retransmit", "public_name", syncParams.PublicName)
	case counter.Eq(localTuple, syncTuple) && local.Nonce == syncParams.Nonce && !withinOneSecond(local.Modified, syncParams.Modified):
		e.Logger.Warn("potential replay: same counters and nonce observed at different times", "public_name", syncParams.PublicName)
	case counter.Eq(localTuple, syncTuple) && local.Nonce != syncParams.Nonce:
		e.Logger.Warn("sibling accepted a revalidation of the same counters under a new nonce", "public_name", syncParams.PublicName)
	}

	rec := counterstore.Record{
		PublicName: syncParams.PublicName,
		YkCounter:  int64(syncParams.YkCounter),
		YkUse:      int64(syncParams.YkUse),
		YkHigh:     int64(syncParams.YkHigh),
		YkLow:      int64(syncParams.YkLow),
		Nonce:      syncParams.Nonce,
		Modified:   syncParams.Modified,
	}
	if _, err := e.Counters.ConditionalUpdate(ctx, rec); err != nil {
		return counterstore.Record{}, verrors.Wrap(verrors.BackendError, err)
	}

	updated, err := e.Counters.Get(ctx, syncParams.PublicName, syncParams.Modified)
	if err != nil {
		return counterstore.Record{}, verrors.Wrap(verrors.BackendError, err)
	}
	if !updated.Active {
		return updated, verrors.New(verrors.DisabledToken)
	}
	return updated, nil
}

// withinOneSecond reports whether two unix-second timestamps are at most
// 1s apart.
func withinOneSecond(a, b int64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= 1
}
