package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"electra/contexts/election-trust/vote-ledger/domain/entities"
	domainerrors "electra/contexts/election-trust/vote-ledger/domain/errors"
	"electra/contexts/election-trust/vote-ledger/ports"
	"electra/internal/shared/events"

	"github.com/google/uuid"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

type logKey struct {
	voteID string
	nodeID string
	round  int
}

// Store is the in-memory adapter backing tests and dev wiring. It satisfies
// every port the vote ledger declares, with Seed* helpers standing in for
// the projections other services maintain.
type Store struct {
	mu sync.Mutex

	votes      map[string]entities.Vote
	voterVotes map[string]string
	voteHashes map[string]string
	logs       map[logKey]entities.ConsensusLog
	voters     map[string]entities.VoterProjection
	elections  map[string]entities.ElectionProjection
	candidates map[string]entities.CandidateProjection
	nodes      map[string][]string
	processed  map[string]time.Time
	outbox     map[string]outboxRecord
}

func NewStore() *Store {
	return &Store{
		votes:      make(map[string]entities.Vote),
		voterVotes: make(map[string]string),
		voteHashes: make(map[string]string),
		logs:       make(map[logKey]entities.ConsensusLog),
		voters:     make(map[string]entities.VoterProjection),
		elections:  make(map[string]entities.ElectionProjection),
		candidates: make(map[string]entities.CandidateProjection),
		nodes:      make(map[string][]string),
		processed:  make(map[string]time.Time),
		outbox:     make(map[string]outboxRecord),
	}
}

func (s *Store) SeedVoter(voter entities.VoterProjection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voters[voter.VoterID] = voter
}

func (s *Store) SeedElection(election entities.ElectionProjection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.elections[election.ElectionID] = election
}

func (s *Store) SeedCandidate(candidate entities.CandidateProjection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.candidates[candidate.CandidateID] = candidate
}

// SeedActiveNodes fixes the selection order for an election.
func (s *Store) SeedActiveNodes(electionID string, nodeIDs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes[strings.TrimSpace(electionID)] = append([]string(nil), nodeIDs...)
}

func (s *Store) CreateVote(_ context.Context, vote entities.Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	uniqueKey := vote.VoterID + "|" + vote.ElectionID
	if _, exists := s.voterVotes[uniqueKey]; exists {
		return domainerrors.ErrAlreadyVoted
	}
	if _, exists := s.votes[vote.VoteID]; exists {
		return domainerrors.ErrConflict
	}
	// vote_hash is unique across all votes, not just per election.
	if _, exists := s.voteHashes[vote.VoteHash]; exists {
		return domainerrors.ErrConflict
	}
	s.votes[vote.VoteID] = vote
	s.voterVotes[uniqueKey] = vote.VoteID
	s.voteHashes[vote.VoteHash] = vote.VoteID
	return nil
}

func (s *Store) GetVote(_ context.Context, voteID string) (entities.Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	vote, ok := s.votes[strings.TrimSpace(voteID)]
	if !ok {
		return entities.Vote{}, domainerrors.ErrVoteNotFound
	}
	return vote, nil
}

func (s *Store) HasVoted(_ context.Context, voterID string, electionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.voterVotes[strings.TrimSpace(voterID)+"|"+strings.TrimSpace(electionID)]
	return ok, nil
}

func (s *Store) MarkConsensusPending(_ context.Context, voteID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	vote, ok := s.votes[strings.TrimSpace(voteID)]
	if !ok {
		return domainerrors.ErrVoteNotFound
	}
	if vote.Status == entities.VoteStatusFinalized {
		return nil
	}
	vote.Status = entities.VoteStatusConsensusPending
	vote.UpdatedAt = at.UTC()
	s.votes[vote.VoteID] = vote
	return nil
}

func (s *Store) FinalizeVote(_ context.Context, voteID string, confirmationCount int, event *events.Envelope, at time.Time) (bool, error) {
	var payload []byte
	if event != nil {
		marshaled, err := json.Marshal(event)
		if err != nil {
			return false, err
		}
		payload = marshaled
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	vote, ok := s.votes[strings.TrimSpace(voteID)]
	if !ok {
		return false, domainerrors.ErrVoteNotFound
	}
	if vote.Status == entities.VoteStatusFinalized {
		return false, nil
	}
	vote.Status = entities.VoteStatusFinalized
	vote.ConfirmationCount = confirmationCount
	vote.UpdatedAt = at.UTC()
	s.votes[vote.VoteID] = vote
	// The winner's event lands in the outbox under the same lock as the
	// status flip.
	if event != nil {
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
	}
	return true, nil
}

func (s *Store) ListVotesAwaitingConsensus(_ context.Context, limit int) ([]entities.Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]entities.Vote, 0)
	for _, vote := range s.votes {
		if vote.AwaitingConsensus() {
			items = append(items, vote)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CastAt.Before(items[j].CastAt)
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) UpsertConsensusLog(_ context.Context, log entities.ConsensusLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := logKey{voteID: log.VoteID, nodeID: log.NodeID, round: log.ConsensusRound}
	if _, exists := s.logs[key]; exists {
		return nil
	}
	s.logs[key] = log
	return nil
}

func (s *Store) MarkLogConfirmed(_ context.Context, voteID string, nodeID string, round int, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := logKey{voteID: strings.TrimSpace(voteID), nodeID: strings.TrimSpace(nodeID), round: round}
	log, ok := s.logs[key]
	if !ok {
		return domainerrors.ErrVoteNotFound
	}
	log.Status = entities.ConsensusLogStatusConfirmed
	log.RecordedAt = at.UTC()
	s.logs[key] = log
	return nil
}

func (s *Store) CountConfirmedLogs(_ context.Context, voteID string, round int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for key, log := range s.logs {
		if key.voteID == strings.TrimSpace(voteID) && key.round == round &&
			log.Status == entities.ConsensusLogStatusConfirmed {
			count++
		}
	}
	return count, nil
}

func (s *Store) ListLogsByVote(_ context.Context, voteID string) ([]entities.ConsensusLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]entities.ConsensusLog, 0)
	for key, log := range s.logs {
		if key.voteID == strings.TrimSpace(voteID) {
			items = append(items, log)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].NodeID < items[j].NodeID
	})
	return items, nil
}

func (s *Store) GetVoter(_ context.Context, voterID string) (entities.VoterProjection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	voter, ok := s.voters[strings.TrimSpace(voterID)]
	if !ok {
		return entities.VoterProjection{}, domainerrors.ErrVoterNotFound
	}
	return voter, nil
}

func (s *Store) GetElectionProjection(_ context.Context, electionID string) (entities.ElectionProjection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	election, ok := s.elections[strings.TrimSpace(electionID)]
	if !ok {
		return entities.ElectionProjection{}, domainerrors.ErrElectionNotFound
	}
	return election, nil
}

func (s *Store) GetCandidateProjection(_ context.Context, candidateID string) (entities.CandidateProjection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	candidate, ok := s.candidates[strings.TrimSpace(candidateID)]
	if !ok {
		return entities.CandidateProjection{}, domainerrors.ErrCandidateNotFound
	}
	return candidate, nil
}

func (s *Store) SelectActiveNodes(_ context.Context, electionID string, limit int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	nodeIDs := append([]string(nil), s.nodes[strings.TrimSpace(electionID)]...)
	if limit > 0 && len(nodeIDs) > limit {
		nodeIDs = nodeIDs[:limit]
	}
	return nodeIDs, nil
}

func (s *Store) AlreadyProcessed(_ context.Context, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.processed[strings.TrimSpace(eventID)]
	return ok, nil
}

func (s *Store) MarkProcessed(_ context.Context, eventID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processed[strings.TrimSpace(eventID)] = at.UTC()
	return nil
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
	s.mu.Lock()
	defer s.mu.Unlock()
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

var _ ports.VoteRepository = (*Store)(nil)
var _ ports.ConsensusLogRepository = (*Store)(nil)
var _ ports.VoterDirectory = (*Store)(nil)
var _ ports.ElectionReader = (*Store)(nil)
var _ ports.CandidateReader = (*Store)(nil)
var _ ports.NodeSelector = (*Store)(nil)
var _ ports.ProcessedEventStore = (*Store)(nil)
var _ ports.OutboxWriter = (*Store)(nil)
var _ ports.OutboxRepository = (*Store)(nil)
