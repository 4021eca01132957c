// Package voteledger implements the authoritative vote record inside the
// election-trust context.
//
// The module owns vote casting with one-shot nonce and vote hash sealing,
// the per-vote confirmation consensus (pending logs upserted for selected
// nodes, confirmed by a pluggable confirmation source, exactly-once
// finalization on quorum), and the background workers that drive rounds:
// a vote.cast consumer, a consensus sweeper, and the outbox relay.
package voteledger
