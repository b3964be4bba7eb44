package validator

import (
	"context"
	"errors"
	"math"
	"net/url"

	"github.com/timhilliard/yubistack/internal/clock"
	"github.com/timhilliard/yubistack/internal/counter"
	"github.com/timhilliard/yubistack/internal/counterstore"
	"github.com/timhilliard/yubistack/internal/otp"
	"github.com/timhilliard/yubistack/internal/queuestore"
	"github.com/timhilliard/yubistack/internal/signer"
	"github.com/timhilliard/yubistack/internal/verrors"
)

// sanitize is Step 1 (spec §4.5 Step 1): validate the raw request and mint
// a server_nonce, substituting it for a missing client nonce (spec §4.7,
// Open Question on the nonce conflation).
func (v *Validator) sanitize(q url.Values) (sanitized, error) {
	req, err := otp.Sanitize(q)
	if err != nil {
		return sanitized{}, err
	}

	serverNonce, err := clock.GenerateNonce()
	if err != nil {
		return sanitized{}, verrors.Wrap(verrors.BackendError, err)
	}

	effectiveNonce := req.Nonce
	if !req.HasNonce {
		effectiveNonce = serverNonce
	}

	return sanitized{Req: req, ServerNonce: serverNonce, EffectiveNonce: effectiveNonce}, nil
}

// checkClient is the supplemented Step 0 (SPEC_FULL.md "Client
// existence/active check" and "Signature verification on the inbound
// request"): resolves client_id, if given, and verifies the request's own
// signature before any further processing.
func (v *Validator) checkClient(ctx context.Context, s sanitized, raw url.Values) (clientChecked, error) {
	if !s.Req.HasClientID {
		return clientChecked{sanitized: s}, nil
	}

	client, err := v.Clients.Lookup(ctx, s.Req.ClientID)
	if err != nil {
		if errors.Is(err, ErrClientNotFound) {
			return clientChecked{}, verrors.New(verrors.NoSuchClient)
		}
		return clientChecked{}, verrors.Wrap(verrors.BackendError, err)
	}
	if !client.Active {
		return clientChecked{}, verrors.New(verrors.NoSuchClient)
	}

	if s.Req.HasSignature && len(client.Secret) > 0 {
		if !signer.Verify(requestSignParams(raw), client.Secret, s.Req.Signature) {
			return clientChecked{}, verrors.Param(verrors.InvalidParameter, "h")
		}
	}

	return clientChecked{sanitized: s, Client: client, HasClient: true}, nil
}

// requestSignParams builds the canonical signing param map from the raw
// request query, excluding the signature itself (spec §4.3).
func requestSignParams(raw url.Values) map[string]string {
	params := make(map[string]string, len(raw))
	for k, vals := range raw {
		if k == "h" || len(vals) == 0 {
			continue
		}
		params[k] = vals[0]
	}
	return params
}

// decrypt is Step 2 (spec §4.5 Step 2): decrypt the OTP via C3 and stamp
// the decoded counters with the current wall time.
func (v *Validator) decrypt(ctx context.Context, c clientChecked) (decrypted, error) {
	publicName, ciphertext, err := otp.SplitPublicName(c.Req.OTP)
	if err != nil {
		return decrypted{}, err
	}

	tokens, err := v.KSM.Decrypt(ctx, publicName, ciphertext)
	if err != nil {
		return decrypted{}, err
	}

	params := otp.Params{
		Modified:   v.now(),
		OTP:        c.Req.OTP,
		Nonce:      c.EffectiveNonce,
		PublicName: publicName,
		YkCounter:  tokens.Counter,
		YkUse:      tokens.Use,
		YkHigh:     tokens.High,
		YkLow:      tokens.Low,
	}

	return decrypted{clientChecked: c, PublicName: publicName, OTPParams: params}, nil
}

// checkReplay is Step 3 (spec §4.5 Step 3): the replay check and the
// linearization point, ConditionalUpdate.
func (v *Validator) checkReplay(ctx context.Context, d decrypted) (acceptedLocal, error) {
	local, err := v.Counters.Get(ctx, d.PublicName, d.OTPParams.Modified)
	if err != nil {
		return acceptedLocal{}, verrors.Wrap(verrors.BackendError, err)
	}
	if !local.Active {
		return acceptedLocal{}, verrors.New(verrors.DisabledToken)
	}

	localTuple := local.Tuple()
	otpTuple := d.OTPParams.Tuple()

	if counter.Eq(localTuple, otpTuple) && local.Nonce == d.OTPParams.Nonce {
		return acceptedLocal{}, verrors.New(verrors.ReplayedRequest)
	}
	if counter.Gte(localTuple, otpTuple) {
		return acceptedLocal{}, verrors.New(verrors.ReplayedOTP)
	}

	rec := counterstore.Record{
		PublicName: d.PublicName,
		YkCounter:  int64(d.OTPParams.YkCounter),
		YkUse:      int64(d.OTPParams.YkUse),
		YkHigh:     int64(d.OTPParams.YkHigh),
		YkLow:      int64(d.OTPParams.YkLow),
		Nonce:      d.OTPParams.Nonce,
		Modified:   d.OTPParams.Modified,
	}
	ok, err := v.Counters.ConditionalUpdate(ctx, rec)
	if err != nil {
		return acceptedLocal{}, verrors.Wrap(verrors.BackendError, err)
	}
	if !ok {
		// Lost the race: a concurrent verify call for the same key already
		// advanced the stored tuple past ours.
		return acceptedLocal{}, verrors.New(verrors.ReplayedOTP)
	}

	syncLevel := v.Config.DefaultSyncLevel
	if d.Req.HasSyncLevel {
		syncLevel = d.Req.SyncLevel
	}
	n := len(v.Siblings)
	quorum := int(math.Round(float64(n) * float64(syncLevel) / 100))

	return acceptedLocal{decrypted: d, LocalParams: local, Quorum: quorum, SiblingN: n}, nil
}

// replicate is Step 4 (spec §4.5 Step 4): enqueue one outbox row per
// sibling, then invoke §4.4 Outbound when a quorum is required.
func (v *Validator) replicate(ctx context.Context, a acceptedLocal) (replicated, error) {
	info := otp.EncodeSyncInfo(otp.SyncFields{
		Nonce:      a.OTPParams.Nonce,
		PublicName: a.OTPParams.PublicName,
		YkCounter:  int64(a.OTPParams.YkCounter),
		YkUse:      int64(a.OTPParams.YkUse),
		YkHigh:     int64(a.OTPParams.YkHigh),
		YkLow:      int64(a.OTPParams.YkLow),
	})

	for _, sibling := range v.Siblings {
		entry := queuestore.Entry{
			Modified:    a.OTPParams.Modified,
			OTP:         a.OTPParams.OTP,
			Server:      sibling,
			ServerNonce: a.ServerNonce,
			Info:        info,
		}
		if err := v.Sync.Queue.Enqueue(ctx, entry); err != nil {
			return replicated{}, verrors.Wrap(verrors.BackendError, err)
		}
	}

	if a.Quorum == 0 || a.SiblingN == 0 {
		return replicated{acceptedLocal: a, SLSuccessRate: 0}, nil
	}

	result, err := v.Sync.Outbound(ctx, a.OTPParams, a.LocalParams, a.ServerNonce, a.Quorum)
	if err != nil {
		return replicated{}, err
	}

	slRate := 100 * result.ValidAnswers / a.SiblingN
	return replicated{acceptedLocal: a, SLSuccessRate: slRate}, nil
}

// checkTiming is Step 5 (spec §4.5 Step 5): the phishing/timing test, run
// only when the session counter did not advance.
func (v *Validator) checkTiming(r replicated) (phishChecked, error) {
	if int64(r.OTPParams.YkCounter) == r.LocalParams.YkCounter {
		newTS := float64(r.OTPParams.Timestamp())
		oldTS := float64(uint32(r.LocalParams.YkHigh)<<16 | uint32(r.LocalParams.YkLow))
		tokenDelta := (newTS - oldTS) * v.Config.TSSec
		wallElapsed := float64(r.OTPParams.Modified - r.LocalParams.Modified)

		deviation := math.Abs(wallElapsed - tokenDelta)
		percent := 1.0
		if wallElapsed != 0 {
			percent = deviation / wallElapsed
		}

		if deviation > v.Config.TSAbsTolerance && percent > v.Config.TSRelTolerance {
			return phishChecked{}, verrors.New(verrors.DelayedOTP)
		}
	}
	return phishChecked{replicated: r}, nil
}

// sign is Step 6 (spec §4.5 Step 6): build and sign the final response.
func (v *Validator) sign(p phishChecked, secret []byte) Response {
	resp := Response{
		Status: "OK",
		Time:   nowISO(p.OTPParams.Modified),
		OTP:    p.Req.OTP,
		Nonce:  p.EffectiveNonce,
		SL:     p.SLSuccessRate,
		HasSL:  true,
	}
	if p.Req.WantTimestamp {
		resp.HasTimestamp = true
		resp.Timestamp = p.OTPParams.Timestamp()
		resp.SessionCounter = p.OTPParams.YkCounter
		resp.SessionUse = p.OTPParams.YkUse
	}
	resp.H = signer.Sign(resp.Fields(), secret)
	return resp
}
