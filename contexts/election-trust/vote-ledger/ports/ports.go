package ports

import (
	"context"
	"time"

	"electra/contexts/election-trust/vote-ledger/domain/entities"
	"electra/internal/shared/events"
)

type VoteRepository interface {
	// CreateVote surfaces a unique (voter_id, election_id) violation as
	// ErrAlreadyVoted so race-lost inserts map to the same outcome as a
	// prior-vote precheck. vote_hash is unique across all votes; a
	// colliding hash surfaces as ErrConflict.
	CreateVote(ctx context.Context, vote entities.Vote) error
	GetVote(ctx context.Context, voteID string) (entities.Vote, error)
	HasVoted(ctx context.Context, voterID string, electionID string) (bool, error)
	// MarkConsensusPending moves pending/verified votes into
	// consensus_pending without touching the sealed hash fields.
	MarkConsensusPending(ctx context.Context, voteID string, at time.Time) error
	// FinalizeVote flips the vote to finalized only when it is not already
	// finalized; the bool result reports whether this caller won. A non-nil
	// event is appended to the outbox atomically with the status flip, so a
	// finalized vote is never missing its finalization event.
	FinalizeVote(ctx context.Context, voteID string, confirmationCount int, event *events.Envelope, at time.Time) (bool, error)
	// ListVotesAwaitingConsensus feeds the sweeper: pending, verified and
	// consensus_pending votes in cast order.
	ListVotesAwaitingConsensus(ctx context.Context, limit int) ([]entities.Vote, error)
}

type ConsensusLogRepository interface {
	// UpsertConsensusLog is idempotent on (vote_id, node_id, round); an
	// existing row keeps its status.
	UpsertConsensusLog(ctx context.Context, log entities.ConsensusLog) error
	MarkLogConfirmed(ctx context.Context, voteID string, nodeID string, round int, at time.Time) error
	CountConfirmedLogs(ctx context.Context, voteID string, round int) (int, error)
	ListLogsByVote(ctx context.Context, voteID string) ([]entities.ConsensusLog, error)
}

// VoterDirectory reads the voter projection maintained by identity systems.
type VoterDirectory interface {
	GetVoter(ctx context.Context, voterID string) (entities.VoterProjection, error)
}

// ElectionReader reads the election projection owned by the election service.
type ElectionReader interface {
	GetElectionProjection(ctx context.Context, electionID string) (entities.ElectionProjection, error)
}

// CandidateReader reads the candidate projection owned by the election
// service.
type CandidateReader interface {
	GetCandidateProjection(ctx context.Context, candidateID string) (entities.CandidateProjection, error)
}

// NodeSelector picks confirmation authorities for a round, healthiest first.
type NodeSelector interface {
	SelectActiveNodes(ctx context.Context, electionID string, limit int) ([]string, error)
}

// ConfirmationSource decides whether a node confirms its pending log. The
// production source will call out to the node; the simulated source confirms
// after an optional delay.
type ConfirmationSource interface {
	Confirm(ctx context.Context, log entities.ConsensusLog) (bool, error)
}

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	Status       string
	CreatedAt    time.Time
	PublishedAt  *time.Time
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, event events.Envelope) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event events.Envelope) error
}

type EventSubscriber interface {
	Subscribe(
		ctx context.Context,
		topic string,
		consumerGroup string,
		handler func(context.Context, events.Envelope) error,
	) error
}

// ProcessedEventStore deduplicates consumed events so the at-least-once bus
// does not double-drive consensus rounds.
type ProcessedEventStore interface {
	AlreadyProcessed(ctx context.Context, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, eventID string, at time.Time) error
}

// AuditRecorder appends to the tamper-evident audit chain owned by the
// audit-trail module.
type AuditRecorder interface {
	AppendAuditEntry(
		ctx context.Context,
		logType string,
		actorID string,
		electionID string,
		details map[string]any,
	) error
}

// Cache is a best-effort invalidation layer; misses and failures are
// indistinguishable to callers.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key string, value string, ttl time.Duration)
	Delete(ctx context.Context, key string)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
