package validator

import (
	"github.com/timhilliard/yubistack/internal/counterstore"
	"github.com/timhilliard/yubistack/internal/otp"
)

// Each pipeline stage's output type is the only input the next stage
// accepts, so the sequence START -> SANITIZED -> DECRYPTED ->
// ACCEPTED-LOCAL -> REPLICATED -> PHISH-CHECKED -> SIGNED (spec §4.5) is
// enforced by the compiler: no private stage method can be called out of
// order, since there is no other way to construct its argument type.

// sanitized is Step 1's output: a validated request plus the server_nonce
// generated for this call (spec §4.5 Step 1, §4.7).
type sanitized struct {
	Req         otp.VerifyRequest
	ServerNonce string
	// EffectiveNonce is Req.Nonce, or ServerNonce when the client omitted
	// one (Open Question: server_nonce/missing-client-nonce conflation,
	// adopted as intentional).
	EffectiveNonce string
}

// clientChecked is the supplemented Step 0's output: the resolved,
// active client (if client_id was given) with its request signature
// already verified.
type clientChecked struct {
	sanitized
	Client    Client
	HasClient bool
}

// decrypted is Step 2's output: the OTP's embedded counters.
type decrypted struct {
	clientChecked
	PublicName string
	OTPParams  otp.Params
}

// acceptedLocal is Step 3's output: the OTP has won the linearization
// point at the Counter Store.
type acceptedLocal struct {
	decrypted
	LocalParams counterstore.Record
	Quorum      int
	SiblingN    int
}

// replicated is Step 4's output.
type replicated struct {
	acceptedLocal
	SLSuccessRate int
}

// phishChecked is Step 5's output; carries nothing new, only proof Step 5
// ran and raised no DELAYED_OTP.
type phishChecked struct {
	replicated
}
