package sync

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cosmossdk.io/log"
	"github.com/stretchr/testify/require"

	"github.com/timhilliard/yubistack/internal/clock"
	"github.com/timhilliard/yubistack/internal/counterstore/memstore"
	"github.com/timhilliard/yubistack/internal/otp"
	"github.com/timhilliard/yubistack/internal/queuestore"
	qmemstore "github.com/timhilliard/yubistack/internal/queuestore/memstore"
	"github.com/timhilliard/yubistack/internal/verrors"
	"github.com/timhilliard/yubistack/internal/wire"
)

func newTestEngine(t *testing.T) (*Engine, *memstore.Store, *qmemstore.Store) {
	t.Helper()
	counters := memstore.New()
	queue := qmemstore.New()
	return &Engine{
		Counters: counters,
		Queue:    queue,
		Client:   &http.Client{},
		Clock:    clock.Fixed(1000),
		Logger:   log.NewNopLogger(),
		Timeout:  200 * time.Millisecond,
	}, counters, queue
}

func siblingServer(t *testing.T, status int, fields map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		if fields != nil {
			_, _ = w.Write([]byte(wire.EncodeBlock(fields)))
		}
	}))
}

func TestOutboundNoQueuedEntriesReturnsZeroResult(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	result, err := engine.Outbound(context.Background(), otp.Params{Modified: 1000}, otp.Params{}, "nonce1", 1)
	require.NoError(t, err)
	require.Equal(t, Result{}, result)
}

func TestOutboundQuorumMetReturnsSuccess(t *testing.T) {
	engine, _, queue := newTestEngine(t)

	sibling := siblingServer(t, http.StatusOK, map[string]string{
		"modified":      "1000",
		"otp":           "anything",
		"nonce":         "n1",
		"yk_publicname": "ccccccbtbhln",
		"yk_counter":    "1",
		"yk_use":        "1",
		"yk_high":       "0",
		"yk_low":        "0",
	})
	defer sibling.Close()

	require.NoError(t, queue.Enqueue(context.Background(), queuestore.Entry{
		Modified:    1000,
		OTP:         "otp",
		Server:      sibling.URL,
		ServerNonce: "batch1",
		Info:        "yk_publicname=ccccccbtbhln",
	}))

	otpParams := otp.Params{Modified: 1000, Nonce: "n1", PublicName: "ccccccbtbhln", YkCounter: 1, YkUse: 1}
	localParams := otp.Params{Nonce: "n1", PublicName: "ccccccbtbhln"}

	result, err := engine.Outbound(context.Background(), otpParams, localParams, "batch1", 1)
	require.NoError(t, err)
	require.Equal(t, 1, result.Answers)
	require.Equal(t, 1, result.ValidAnswers)
	require.Equal(t, 0, queue.Len())
}

func TestOutboundSiblingProvesReplay(t *testing.T) {
	engine, _, queue := newTestEngine(t)

	sibling := siblingServer(t, http.StatusOK, map[string]string{
		"modified":      "1000",
		"otp":           "anything",
		"nonce":         "different-nonce",
		"yk_publicname": "ccccccbtbhln",
		"yk_counter":    "5",
		"yk_use":        "1",
		"yk_high":       "0",
		"yk_low":        "0",
	})
	defer sibling.Close()

	require.NoError(t, queue.Enqueue(context.Background(), queuestore.Entry{
		Modified:    1000,
		OTP:         "otp",
		Server:      sibling.URL,
		ServerNonce: "batch2",
		Info:        "yk_publicname=ccccccbtbhln",
	}))

	otpParams := otp.Params{Modified: 1000, Nonce: "n1", PublicName: "ccccccbtbhln", YkCounter: 1, YkUse: 1}
	localParams := otp.Params{Nonce: "n1", PublicName: "ccccccbtbhln"}

	_, err := engine.Outbound(context.Background(), otpParams, localParams, "batch2", 1)
	require.Error(t, err)
	var verr *verrors.Error
	require.ErrorAs(t, err, &verr)
	require.Equal(t, verrors.ReplayedOTP, verr.Kind)
}

func TestOutboundNotEnoughAnswersWhenSiblingFails(t *testing.T) {
	engine, _, queue := newTestEngine(t)
	engine.Timeout = 50 * time.Millisecond

	sibling := siblingServer(t, http.StatusInternalServerError, nil)
	defer sibling.Close()

	require.NoError(t, queue.Enqueue(context.Background(), queuestore.Entry{
		Modified:    1000,
		OTP:         "otp",
		Server:      sibling.URL,
		ServerNonce: "batch3",
		Info:        "yk_publicname=ccccccbtbhln",
	}))

	otpParams := otp.Params{Modified: 1000, PublicName: "ccccccbtbhln"}
	result, err := engine.Outbound(context.Background(), otpParams, otp.Params{}, "batch3", 1)
	require.Error(t, err)
	var verr *verrors.Error
	require.ErrorAs(t, err, &verr)
	require.Equal(t, verrors.NotEnoughAnswers, verr.Kind)
	require.Equal(t, 0, result.ValidAnswers)
}
