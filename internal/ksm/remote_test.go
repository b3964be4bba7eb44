package ksm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRemoteDecryptorJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"counter":"1","use":"0","high":"0","low":"0"}`))
	}))
	defer srv.Close()

	d := NewRemoteDecryptor([]string{srv.URL}, 2*time.Second)
	tok, err := d.Decrypt(context.Background(), "pub", "otpciphertext")
	require.NoError(t, err)
	require.Equal(t, uint16(1), tok.Counter)
}

func TestRemoteDecryptorPlaintext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("OK counter=a low=0 high=0 use=5"))
	}))
	defer srv.Close()

	d := NewRemoteDecryptor([]string{srv.URL}, 2*time.Second)
	tok, err := d.Decrypt(context.Background(), "pub", "otpciphertext")
	require.NoError(t, err)
	require.Equal(t, uint16(0xa), tok.Counter)
	require.Equal(t, uint8(5), tok.Use)
}

func TestRemoteDecryptorFallsThroughOnFailure(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("OK counter=2 low=0 high=0 use=0"))
	}))
	defer good.Close()

	d := NewRemoteDecryptor([]string{bad.URL, good.URL}, 2*time.Second)
	tok, err := d.Decrypt(context.Background(), "pub", "otpciphertext")
	require.NoError(t, err)
	require.Equal(t, uint16(2), tok.Counter)
}

func TestRemoteDecryptorNoServersIsBackendError(t *testing.T) {
	d := NewRemoteDecryptor(nil, time.Second)
	_, err := d.Decrypt(context.Background(), "pub", "otp")
	require.ErrorIs(t, err, ErrBackend)
}

func TestRemoteDecryptorAllFailIsBadOTP(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer bad.Close()

	d := NewRemoteDecryptor([]string{bad.URL}, 2*time.Second)
	_, err := d.Decrypt(context.Background(), "pub", "otp")
	require.ErrorIs(t, err, ErrBadOTP)
}
