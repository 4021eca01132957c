package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"electra/contexts/election-trust/election-service/domain/entities"
	domainerrors "electra/contexts/election-trust/election-service/domain/errors"
	"electra/contexts/election-trust/election-service/ports"
	"electra/internal/shared/events"

	"github.com/google/uuid"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

// Store is the in-memory adapter backing tests and dev wiring. It satisfies
// every port the election service declares.
type Store struct {
	mu sync.RWMutex

	elections  map[string]entities.Election
	prevHashes map[string]string
	candidates map[string]entities.Candidate
	nodes      map[string]entities.ElectionNode
	tallies    map[string][]ports.CandidateTally
	outbox     map[string]outboxRecord
}

func NewStore() *Store {
	return &Store{
		elections:  make(map[string]entities.Election),
		prevHashes: make(map[string]string),
		candidates: make(map[string]entities.Candidate),
		nodes:      make(map[string]entities.ElectionNode),
		tallies:    make(map[string][]ports.CandidateTally),
		outbox:     make(map[string]outboxRecord),
	}
}

// SetTally seeds the finalized-vote projection for status reads.
func (s *Store) SetTally(electionID string, tallies []ports.CandidateTally) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tallies[strings.TrimSpace(electionID)] = tallies
}

func (s *Store) CreateElection(_ context.Context, election entities.Election) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.elections[election.ElectionID]; exists {
		return domainerrors.ErrConflict
	}
	// One successor per block: a second election chaining onto the same
	// predecessor would fork the chain.
	if _, exists := s.prevHashes[election.PreviousBlockHash]; exists {
		return domainerrors.ErrConflict
	}
	s.elections[election.ElectionID] = election
	s.prevHashes[election.PreviousBlockHash] = election.ElectionID
	return nil
}

func (s *Store) GetElection(_ context.Context, electionID string) (entities.Election, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	election, ok := s.elections[strings.TrimSpace(electionID)]
	if !ok {
		return entities.Election{}, domainerrors.ErrElectionNotFound
	}
	return election, nil
}

func (s *Store) GetLatestElection(_ context.Context) (entities.Election, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest entities.Election
	found := false
	for _, election := range s.elections {
		if !found || election.CreatedAt.After(latest.CreatedAt) {
			latest = election
			found = true
		}
	}
	return latest, found, nil
}

func (s *Store) UpdateElectionStatus(
	_ context.Context,
	electionID string,
	from entities.ElectionStatus,
	to entities.ElectionStatus,
	updatedAt time.Time,
) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	election, ok := s.elections[strings.TrimSpace(electionID)]
	if !ok {
		return false, domainerrors.ErrElectionNotFound
	}
	if election.Status != from {
		return false, nil
	}
	election.Status = to
	election.UpdatedAt = updatedAt.UTC()
	s.elections[election.ElectionID] = election
	return true, nil
}

func (s *Store) ListElections(_ context.Context) ([]entities.Election, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Election, 0, len(s.elections))
	for _, election := range s.elections {
		items = append(items, election)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) CreateCandidate(_ context.Context, candidate entities.Candidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.candidates[candidate.CandidateID]; exists {
		return domainerrors.ErrConflict
	}
	s.candidates[candidate.CandidateID] = candidate
	return nil
}

func (s *Store) GetCandidate(_ context.Context, candidateID string) (entities.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	candidate, ok := s.candidates[strings.TrimSpace(candidateID)]
	if !ok {
		return entities.Candidate{}, domainerrors.ErrCandidateNotFound
	}
	return candidate, nil
}

func (s *Store) MarkCandidateVerified(_ context.Context, candidateID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	candidate, ok := s.candidates[strings.TrimSpace(candidateID)]
	if !ok {
		return domainerrors.ErrCandidateNotFound
	}
	candidate.IsVerified = true
	s.candidates[candidate.CandidateID] = candidate
	return nil
}

func (s *Store) ListCandidatesByElection(_ context.Context, electionID string) ([]entities.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Candidate, 0)
	for _, candidate := range s.candidates {
		if candidate.ElectionID == strings.TrimSpace(electionID) {
			items = append(items, candidate)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) UpsertNode(_ context.Context, node entities.ElectionNode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes[node.NodeID] = node
	return nil
}

func (s *Store) GetNode(_ context.Context, nodeID string) (entities.ElectionNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	node, ok := s.nodes[strings.TrimSpace(nodeID)]
	if !ok {
		return entities.ElectionNode{}, domainerrors.ErrNodeNotFound
	}
	return node, nil
}

func (s *Store) UpdateNodeStatus(_ context.Context, nodeID string, status entities.NodeStatus, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	node, ok := s.nodes[strings.TrimSpace(nodeID)]
	if !ok {
		return domainerrors.ErrNodeNotFound
	}
	node.Status = status
	node.LastHeartbeatAt = at.UTC()
	s.nodes[node.NodeID] = node
	return nil
}

func (s *Store) RecordNodeHeartbeat(_ context.Context, nodeID string, at time.Time, responseTime float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	node, ok := s.nodes[strings.TrimSpace(nodeID)]
	if !ok {
		return domainerrors.ErrNodeNotFound
	}
	node.LastHeartbeatAt = at.UTC()
	node.ResponseTime = responseTime
	s.nodes[node.NodeID] = node
	return nil
}

func (s *Store) ListNodesByElection(_ context.Context, electionID string) ([]entities.ElectionNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.ElectionNode, 0)
	for _, node := range s.nodes {
		if node.ElectionID == strings.TrimSpace(electionID) {
			items = append(items, node)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].RegisteredAt.Before(items[j].RegisteredAt)
	})
	return items, nil
}

func (s *Store) TallyFinalizedVotes(_ context.Context, electionID string) ([]ports.CandidateTally, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ports.CandidateTally(nil), s.tallies[strings.TrimSpace(electionID)]...), nil
}

func (s *Store) AppendOutbox(_ context.Context, event events.Envelope) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outbox[event.EventID] = outboxRecord{
		message: ports.OutboxMessage{
			OutboxID:     event.EventID,
			EventType:    event.EventType,
			PartitionKey: event.PartitionKey,
			Payload:      payload,
			Status:       "pending",
			CreatedAt:    event.OccurredAt.UTC(),
		},
	}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]ports.OutboxMessage, 0)
	for _, record := range s.outbox {
		if record.published {
			continue
		}
		items = append(items, record.message)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, publishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return nil
	}
	record.published = true
	at := publishedAt.UTC()
	record.message.Status = "published"
	record.message.PublishedAt = &at
	s.outbox[record.message.OutboxID] = record
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

var _ ports.ElectionRepository = (*Store)(nil)
var _ ports.CandidateRepository = (*Store)(nil)
var _ ports.NodeRegistry = (*Store)(nil)
var _ ports.TallyReader = (*Store)(nil)
var _ ports.OutboxWriter = (*Store)(nil)
var _ ports.OutboxRepository = (*Store)(nil)
