package sync

import (
	"context"
	"testing"
	"time"

	"cosmossdk.io/log"
	"github.com/stretchr/testify/require"

	"github.com/timhilliard/yubistack/internal/clock"
	"github.com/timhilliard/yubistack/internal/counterstore"
	"github.com/timhilliard/yubistack/internal/counterstore/memstore"
	"github.com/timhilliard/yubistack/internal/otp"
	qmemstore "github.com/timhilliard/yubistack/internal/queuestore/memstore"
	"github.com/timhilliard/yubistack/internal/verrors"
)

func newInboundEngine() (*Engine, *memstore.Store) {
	counters := memstore.New()
	queue := qmemstore.New()
	return &Engine{
		Counters: counters,
		Queue:    queue,
		Clock:    clock.Fixed(1000),
		Logger:   log.NewNopLogger(),
		Timeout:  time.Second,
	}, counters
}

func TestInboundAppliesAdvancingSyncCounters(t *testing.T) {
	engine, counters := newInboundEngine()

	_, err := counters.Get(context.Background(), "ccccccbtbhln", 1000)
	require.NoError(t, err)

	rec, err := engine.Inbound(context.Background(), otp.Params{
		PublicName: "ccccccbtbhln",
		Nonce:      "n1",
		Modified:   1000,
		YkCounter:  3,
		YkUse:      1,
	})
	require.NoError(t, err)
	require.Equal(t, int64(3), rec.YkCounter)
	require.Equal(t, int64(1), rec.YkUse)
}

func TestInboundRejectsDisabledToken(t *testing.T) {
	engine, counters := newInboundEngine()
	_, err := counters.Get(context.Background(), "ccccccbtbhln", 1000)
	require.NoError(t, err)
	counters.SetActive("ccccccbtbhln", false)

	_, err = engine.Inbound(context.Background(), otp.Params{
		PublicName: "ccccccbtbhln",
		Nonce:      "n1",
		Modified:   1000,
		YkCounter:  3,
		YkUse:      1,
	})
	require.Error(t, err)
	var verr *verrors.Error
	require.ErrorAs(t, err, &verr)
	require.Equal(t, verrors.DisabledToken, verr.Kind)
}

func TestInboundNoopUpdateStillSucceeds(t *testing.T) {
	engine, counters := newInboundEngine()

	rec := counterstore.Record{
		Active:     true,
		PublicName: "ccccccbtbhln",
		YkCounter:  5,
		YkUse:      1,
		Nonce:      "n1",
		Modified:   1000,
	}
	_, err := counters.ConditionalUpdate(context.Background(), rec)
	require.NoError(t, err)

	updated, err := engine.Inbound(context.Background(), otp.Params{
		PublicName: "ccccccbtbhln",
		Nonce:      "n1",
		Modified:   1000,
		YkCounter:  5,
		YkUse:      1,
	})
	require.NoError(t, err)
	require.Equal(t, int64(5), updated.YkCounter)
}
