// Package sync implements C5, the Sync Engine: outbound fan-out of a
// freshly-accepted OTP's counters to sibling replicas, and the inbound
// apply/divergence-detection path siblings invoke on each other (spec
// §4.4).
package sync

// Result is the outcome of an outbound replication round (spec §4.4
// Outbound, final "Return {answers, valid_answers}").
type Result struct {
	Answers      int
	ValidAnswers int
}
