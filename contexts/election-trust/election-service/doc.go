// Package electionservice implements election lifecycle management inside the
// election-trust context.
//
// The module owns the election state machine (upcoming, active, completed,
// with suspended as an exceptional branch off active), creation-time block
// hash chaining across elections, candidate registration with one-shot
// verification hashes, and the registry of confirmation nodes that the vote
// ledger's consensus rounds draw from.
package electionservice
