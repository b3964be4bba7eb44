package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"cosmossdk.io/log"
	"github.com/stretchr/testify/require"

	"github.com/timhilliard/yubistack/internal/clock"
	"github.com/timhilliard/yubistack/internal/counterstore/memstore"
	"github.com/timhilliard/yubistack/internal/ksm"
	qmemstore "github.com/timhilliard/yubistack/internal/queuestore/memstore"
	syncengine "github.com/timhilliard/yubistack/internal/sync"
	"github.com/timhilliard/yubistack/internal/validator"
)

type fakeDecryptor struct {
	tokens map[string]ksm.Tokens
}

func (d *fakeDecryptor) Decrypt(_ context.Context, _ string, ciphertext string) (ksm.Tokens, error) {
	tok, ok := d.tokens[ciphertext]
	if !ok {
		return ksm.Tokens{}, ksm.ErrBadOTP
	}
	return tok, nil
}

type noClients struct{}

func (noClients) Lookup(context.Context, int) (validator.Client, error) {
	return validator.Client{}, validator.ErrClientNotFound
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	counters := memstore.New()
	queue := qmemstore.New()
	now := clock.Fixed(1000)
	engine := &syncengine.Engine{
		Counters: counters,
		Queue:    queue,
		Client:   &http.Client{},
		Clock:    now,
		Logger:   log.NewNopLogger(),
		Timeout:  200 * time.Millisecond,
	}
	v := &validator.Validator{
		Clients:  noClients{},
		Counters: counters,
		KSM: &fakeDecryptor{tokens: map[string]ksm.Tokens{
			"dvgtiblfkbgturecfllberrvkinnctnn": {Counter: 1, Use: 0, High: 0, Low: 0},
		}},
		Sync:   engine,
		Clock:  now,
		Logger: log.NewNopLogger(),
		Config: validator.DefaultConfig(),
	}

	srv := NewServer(DefaultConfig(), v, engine, log.NewNopLogger())
	return httptest.NewServer(srv.router)
}

func TestHandleVerifyFreshToken(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	q := url.Values{}
	q.Set("otp", "ccccccbchvth"+"dvgtiblfkbgturecfllberrvkinnctnn")
	q.Set("nonce", "aaaaaaaaaaaaaaaaaaaa")

	resp, err := http.Get(ts.URL + "/wsapi/2.0/verify?" + q.Encode())
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHandleHealth(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHandleMetrics(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
