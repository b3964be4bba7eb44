package sync

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"cosmossdk.io/log"

	"github.com/timhilliard/yubistack/internal/clock"
	"github.com/timhilliard/yubistack/internal/counter"
	"github.com/timhilliard/yubistack/internal/counterstore"
	"github.com/timhilliard/yubistack/internal/otp"
	"github.com/timhilliard/yubistack/internal/queuestore"
	"github.com/timhilliard/yubistack/internal/verrors"
	"github.com/timhilliard/yubistack/internal/wire"
)

// pollInterval is the collector loop's bounded wait granularity (spec §5:
// "blocks in short bounded waits (<=200 ms)").
const pollInterval = 200 * time.Millisecond

// Engine is C5, the Sync Engine.
type Engine struct {
	Counters counterstore.CounterStore
	Queue    queuestore.QueueStore
	Client   *http.Client
	Clock    clock.Source
	Logger   log.Logger

	// Timeout is T, the per-sibling fetch timeout (spec §4.4 step 2); the
	// overall collection deadline is 1.5*Timeout.
	Timeout time.Duration
}

// NewEngine builds an Engine.
func NewEngine(counters counterstore.CounterStore, queue queuestore.QueueStore, timeout time.Duration, logger log.Logger) *Engine {
	return &Engine{
		Counters: counters,
		Queue:    queue,
		Client:   &http.Client{Timeout: timeout},
		Clock:    clock.Real{},
		Logger:   logger,
		Timeout:  timeout,
	}
}

type siblingResult struct {
	entry queuestore.Entry
	resp  otp.Params
	err   error
}

// Outbound implements spec §4.4 Outbound. otpParams is the just-accepted
// OTP's counters, localParams is the local record's counters at decision
// time, serverNonce identifies this batch, and quorum is Q (required
// answers). Outbound returns on success the collected counts; it returns a
// non-nil *verrors.Error (REPLAYED_OTP or NOT_ENOUGH_ANSWERS) when
// replication fails to clear the token for acceptance.
func (e *Engine) Outbound(ctx context.Context, otpParams, localParams otp.Params, serverNonce string, quorum int) (Result, error) {
	entries, err := e.Queue.Dequeue(ctx, otpParams.Modified, serverNonce)
	if err != nil {
		return Result{}, verrors.Wrap(verrors.BackendError, err)
	}
	if len(entries) == 0 {
		return Result{}, nil
	}

	results := make(chan siblingResult, len(entries))
	for _, entry := range entries {
		go e.fetchSibling(ctx, entry, otpParams, results)
	}

	deadline := time.Now().Add(time.Duration(1.5 * float64(e.Timeout)))
	answers := 0
	validAnswers := 0
	replayProven := false
	received := 0

collectLoop:
	for received < len(entries) {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			break
		}
		wait := pollInterval
		if remaining < wait {
			wait = remaining
		}
		select {
		case r := <-results:
			received++
			if r.err != nil {
				e.Logger.Info("sibling fetch failed, counted as missing answer", "server", r.entry.Server, "err", r.err)
				continue
			}
			answers++
			proven := e.applyAndClassify(ctx, r, localParams, otpParams)
			if proven {
				replayProven = true
			} else {
				validAnswers++
			}
			if validAnswers == quorum {
				break collectLoop
			}
		case <-time.After(wait):
			continue
		}
	}

	// Regardless of early stop, NULL the queued timestamp for any outbox
	// remnants so a background drainer retries them (spec §4.4 step 6).
	if err := e.Queue.NullQueued(ctx, serverNonce); err != nil {
		e.Logger.Error("failed to null queued timestamps for retry", "err", err)
	}

	result := Result{Answers: answers, ValidAnswers: validAnswers}
	if replayProven {
		return result, verrors.New(verrors.ReplayedOTP)
	}
	if validAnswers < quorum {
		return result, verrors.New(verrors.NotEnoughAnswers)
	}
	return result, nil
}

func (e *Engine) fetchSibling(ctx context.Context, entry queuestore.Entry, otpParams otp.Params, results chan<- siblingResult) {
	reqCtx, cancel := context.WithTimeout(ctx, e.Timeout)
	defer cancel()

	u := entry.Server + "?otp=" + url.QueryEscape(otpParams.OTP) +
		"&modified=" + strconv.FormatInt(otpParams.Modified, 10) +
		"&" + entry.Info

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, u, nil)
	if err != nil {
		results <- siblingResult{entry: entry, err: err}
		return
	}

	resp, err := e.Client.Do(req)
	if err != nil {
		results <- siblingResult{entry: entry, err: err}
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		results <- siblingResult{entry: entry, err: errHTTPStatus(resp.StatusCode)}
		return
	}

	body := make([]byte, 0, 512)
	buf := make([]byte, 512)
	for {
		n, rerr := resp.Body.Read(buf)
		body = append(body, buf[:n]...)
		if rerr != nil {
			break
		}
	}

	fields := wire.ParseBlock(string(body))
	respParams, err := fieldsToParams(fields)
	if err != nil {
		results <- siblingResult{entry: entry, err: err}
		return
	}

	results <- siblingResult{entry: entry, resp: respParams}
}

// applyAndClassify applies resp's counters to the counter store and
// classifies the response per spec §4.4 step 4. Only the two
// replay-proving comparisons (resp ahead of the OTP, or equal counters
// with a mismatched nonce) determine validity; the local-vs-resp
// comparisons are independent out-of-sync/divergence warnings and never
// suppress a valid answer (mirroring the grounding source, where these
// are separate log-only checks alongside the if/elif/else that decides
// valid_answers).
func (e *Engine) applyAndClassify(ctx context.Context, r siblingResult, localParams, otpParams otp.Params) (proven bool) {
	rec := counterstore.Record{
		PublicName: r.resp.PublicName,
		YkCounter:  int64(r.resp.YkCounter),
		YkUse:      int64(r.resp.YkUse),
		YkHigh:     int64(r.resp.YkHigh),
		YkLow:      int64(r.resp.YkLow),
		Nonce:      r.resp.Nonce,
		Modified:   r.resp.Modified,
	}
	if _, err := e.Counters.ConditionalUpdate(ctx, rec); err != nil {
		e.Logger.Error("failed to apply sibling response counters", "err", err)
	}

	local := localParams.Tuple()
	resp := r.resp.Tuple()
	otpT := otpParams.Tuple()

	switch {
	case counter.Gt(resp, otpT):
		e.Logger.Warn("sibling proves OTP replay: sync response counters higher than OTP counters")
		proven = true
	case counter.Eq(resp, otpT) && r.resp.Nonce != otpParams.Nonce:
		e.Logger.Warn("sibling proves OTP replay: equal counters, different nonce")
		proven = true
	}

	switch {
	case counter.Gt(local, resp):
		e.Logger.Warn("remote out of sync", "server", r.entry.Server)
	case counter.Gt(resp, local):
		e.Logger.Warn("local out of sync", "server", r.entry.Server)
	case counter.Eq(resp, local) && (r.resp.Nonce != localParams.Nonce || r.resp.Modified != localParams.Modified):
		e.Logger.Warn("divergence detected between local and sibling state", "server", r.entry.Server)
	}

	if err := e.Queue.Remove(ctx, r.entry.Server, r.entry.Modified, r.entry.ServerNonce); err != nil {
		e.Logger.Error("failed to remove drained outbox row", "err", err)
	}

	return proven
}

func fieldsToParams(fields map[string]string) (otp.Params, error) {
	values := url.Values{}
	for k, v := range fields {
		values.Set(k, v)
	}
	return otp.ParseSyncParams(values)
}

type httpStatusError int

func (e httpStatusError) Error() string {
	return "sync: sibling returned HTTP " + strconv.Itoa(int(e))
}

func errHTTPStatus(code int) error { return httpStatusError(code) }
