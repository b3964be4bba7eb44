package ksm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RemoteDecryptor calls one or more remote HTTP KSM servers in order until
// one successfully decodes the OTP, per spec §4.2(b) and §6.
type RemoteDecryptor struct {
	Servers []string
	Client  *http.Client
	Timeout time.Duration
}

// NewRemoteDecryptor builds a RemoteDecryptor over the given server list.
func NewRemoteDecryptor(servers []string, timeout time.Duration) *RemoteDecryptor {
	return &RemoteDecryptor{
		Servers: servers,
		Client:  &http.Client{Timeout: timeout},
		Timeout: timeout,
	}
}

var _ Decryptor = (*RemoteDecryptor)(nil)

// Decrypt implements Decryptor: tries each configured server in order,
// accepting either a JSON body or the legacy plaintext "OK k=v ..." form.
func (d *RemoteDecryptor) Decrypt(ctx context.Context, _ string, otp string) (Tokens, error) {
	if len(d.Servers) == 0 {
		return Tokens{}, ErrBackend
	}

	for _, server := range d.Servers {
		tok, err := d.tryServerWithRetry(ctx, server, otp)
		if err == nil {
			return tok, nil
		}
	}
	return Tokens{}, ErrBadOTP
}

// tryServerWithRetry retries transient failures against a single server
// with a short exponential backoff before this replica falls through to
// the next configured server; a malformed/non-OK response is not
// transient and returns immediately.
func (d *RemoteDecryptor) tryServerWithRetry(ctx context.Context, server, otp string) (Tokens, error) {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = 20 * time.Millisecond
	eb.MaxInterval = 100 * time.Millisecond
	bo := backoff.WithContext(backoff.WithMaxRetries(eb, 2), ctx)

	var tok Tokens
	err := backoff.Retry(func() error {
		var err error
		tok, err = d.tryServer(ctx, server, otp)
		return err
	}, bo)
	return tok, err
}

func (d *RemoteDecryptor) tryServer(ctx context.Context, server, otp string) (Tokens, error) {
	u := server + "?otp=" + url.QueryEscape(otp)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Tokens{}, err
	}

	resp, err := d.Client.Do(req)
	if err != nil {
		return Tokens{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Tokens{}, backoff.Permanent(fmt.Errorf("ksm: remote status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return Tokens{}, err
	}

	var tok Tokens
	if strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		tok, err = parseJSONTokens(body)
	} else {
		tok, err = parsePlaintextTokens(body)
	}
	if err != nil {
		return Tokens{}, backoff.Permanent(err)
	}
	return tok, nil
}

type jsonTokens struct {
	Counter string `json:"counter"`
	Use     string `json:"use"`
	High    string `json:"high"`
	Low     string `json:"low"`
}

func parseJSONTokens(body []byte) (Tokens, error) {
	var j jsonTokens
	if err := json.Unmarshal(body, &j); err != nil {
		return Tokens{}, err
	}
	return hexFieldsToTokens(j.Counter, j.Use, j.High, j.Low)
}

// parsePlaintextTokens parses the legacy "OK counter=.. low=.. high=.. use=.."
// response form (order of fields is not guaranteed).
func parsePlaintextTokens(body []byte) (Tokens, error) {
	fields := make(map[string]string)
	for _, tok := range strings.Fields(string(body)) {
		if tok == "OK" {
			continue
		}
		kv := strings.SplitN(tok, "=", 2)
		if len(kv) != 2 {
			continue
		}
		fields[kv[0]] = kv[1]
	}
	if !strings.Contains(string(body), "OK") {
		return Tokens{}, fmt.Errorf("ksm: remote response not OK: %s", body)
	}
	return hexFieldsToTokens(fields["counter"], fields["use"], fields["high"], fields["low"])
}

func hexFieldsToTokens(counterHex, useHex, highHex, lowHex string) (Tokens, error) {
	counter, err := strconv.ParseUint(counterHex, 16, 16)
	if err != nil {
		return Tokens{}, err
	}
	use, err := strconv.ParseUint(useHex, 16, 8)
	if err != nil {
		return Tokens{}, err
	}
	high, err := strconv.ParseUint(highHex, 16, 16)
	if err != nil {
		return Tokens{}, err
	}
	low, err := strconv.ParseUint(lowHex, 16, 16)
	if err != nil {
		return Tokens{}, err
	}
	return Tokens{Counter: uint16(counter), Use: uint8(use), High: uint16(high), Low: uint16(low)}, nil
}
