package ports

import (
	"context"
	"time"

	"electra/contexts/election-trust/election-service/domain/entities"
	"electra/internal/shared/events"
)

type ElectionRepository interface {
	CreateElection(ctx context.Context, election entities.Election) error
	GetElection(ctx context.Context, electionID string) (entities.Election, error)
	// GetLatestElection returns the most recently created election, the chain
	// predecessor for block hashing.
	GetLatestElection(ctx context.Context) (entities.Election, bool, error)
	// UpdateElectionStatus applies the transition only when the stored status
	// still equals from; the bool result reports whether this caller won.
	UpdateElectionStatus(
		ctx context.Context,
		electionID string,
		from entities.ElectionStatus,
		to entities.ElectionStatus,
		updatedAt time.Time,
	) (bool, error)
	ListElections(ctx context.Context) ([]entities.Election, error)
}

type CandidateRepository interface {
	CreateCandidate(ctx context.Context, candidate entities.Candidate) error
	GetCandidate(ctx context.Context, candidateID string) (entities.Candidate, error)
	// MarkCandidateVerified flips is_verified without touching the
	// verification hash columns.
	MarkCandidateVerified(ctx context.Context, candidateID string) error
	ListCandidatesByElection(ctx context.Context, electionID string) ([]entities.Candidate, error)
}

type NodeRegistry interface {
	UpsertNode(ctx context.Context, node entities.ElectionNode) error
	GetNode(ctx context.Context, nodeID string) (entities.ElectionNode, error)
	UpdateNodeStatus(ctx context.Context, nodeID string, status entities.NodeStatus, at time.Time) error
	RecordNodeHeartbeat(ctx context.Context, nodeID string, at time.Time, responseTime float64) error
	ListNodesByElection(ctx context.Context, electionID string) ([]entities.ElectionNode, error)
}

// CandidateTally is a read-side projection over finalized votes, restricted to
// verified candidates.
type CandidateTally struct {
	CandidateID string
	Name        string
	Party       string
	VoteCount   int
}

type TallyReader interface {
	TallyFinalizedVotes(ctx context.Context, electionID string) ([]CandidateTally, error)
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
