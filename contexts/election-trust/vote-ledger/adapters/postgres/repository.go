package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"electra/contexts/election-trust/vote-ledger/domain/entities"
	domainerrors "electra/contexts/election-trust/vote-ledger/domain/errors"
	"electra/contexts/election-trust/vote-ledger/ports"
	"electra/internal/shared/events"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{db: db, logger: logger}
}

func (r *Repository) CreateVote(ctx context.Context, vote entities.Vote) error {
	row := voteModelFromEntity(vote)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if pgErr, ok := uniqueViolation(err); ok {
			// The composite (voter_id, election_id) index is the arbiter of
			// concurrent double casts; a colliding vote_hash is a distinct
			// conflict, not a repeat ballot.
			if pgErr.ConstraintName == "idx_votes_voter_election" {
				return domainerrors.ErrAlreadyVoted
			}
			return domainerrors.ErrConflict
		}
		return r.logError("vote_repo_create_failed", err,
			"vote_id", vote.VoteID,
			"election_id", vote.ElectionID,
		)
	}
	return nil
}

func (r *Repository) GetVote(ctx context.Context, voteID string) (entities.Vote, error) {
	var row voteModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(voteID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Vote{}, domainerrors.ErrVoteNotFound
		}
		return entities.Vote{}, r.logError("vote_repo_get_failed", err,
			"vote_id", strings.TrimSpace(voteID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) HasVoted(ctx context.Context, voterID string, electionID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&voteModel{}).
		Where("voter_id = ?", strings.TrimSpace(voterID)).
		Where("election_id = ?", strings.TrimSpace(electionID)).
		Count(&count).
		Error
	if err != nil {
		return false, r.logError("vote_repo_has_voted_failed", err,
			"election_id", strings.TrimSpace(electionID),
		)
	}
	return count > 0, nil
}

func (r *Repository) MarkConsensusPending(ctx context.Context, voteID string, at time.Time) error {
	// Hash columns stay out of the update set; they are sealed at cast time.
	result := r.db.WithContext(ctx).Model(&voteModel{}).
		Where("id = ?", strings.TrimSpace(voteID)).
		Where("status <> ?", string(entities.VoteStatusFinalized)).
		Updates(map[string]any{
			"status":     string(entities.VoteStatusConsensusPending),
			"updated_at": at.UTC(),
		})
	if result.Error != nil {
		return r.logError("vote_repo_mark_consensus_pending_failed", result.Error,
			"vote_id", strings.TrimSpace(voteID),
		)
	}
	return nil
}

func (r *Repository) FinalizeVote(ctx context.Context, voteID string, confirmationCount int, event *events.Envelope, at time.Time) (bool, error) {
	// Conditional update gives exactly-once finalization: the second caller
	// matches zero rows. The winner's outbox row commits in the same
	// transaction as the status flip.
	won := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&voteModel{}).
			Where("id = ?", strings.TrimSpace(voteID)).
			Where("status <> ?", string(entities.VoteStatusFinalized)).
			Updates(map[string]any{
				"status":             string(entities.VoteStatusFinalized),
				"confirmation_count": confirmationCount,
				"updated_at":         at.UTC(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		won = true
		if event == nil {
			return nil
		}
		payload, err := json.Marshal(event)
		if err != nil {
			return err
		}
		row := outboxModel{
			OutboxID:     event.EventID,
			EventType:    event.EventType,
			PartitionKey: event.PartitionKey,
			Payload:      payload,
			Status:       outboxStatusPending,
			CreatedAt:    event.OccurredAt.UTC(),
		}
		return tx.Create(&row).Error
	})
	if err != nil {
		return false, r.logError("vote_repo_finalize_failed", err,
			"vote_id", strings.TrimSpace(voteID),
		)
	}
	return won, nil
}

func (r *Repository) ListVotesAwaitingConsensus(ctx context.Context, limit int) ([]entities.Vote, error) {
	var rows []voteModel
	statuses := []string{
		string(entities.VoteStatusPending),
		string(entities.VoteStatusVerified),
		string(entities.VoteStatusConsensusPending),
	}
	if err := r.db.WithContext(ctx).
		Where("status IN ?", statuses).
		Order("cast_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("vote_repo_list_awaiting_failed", err)
	}
	items := make([]entities.Vote, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) UpsertConsensusLog(ctx context.Context, log entities.ConsensusLog) error {
	row := consensusLogModelFromEntity(log)
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "vote_id"}, {Name: "node_id"}, {Name: "consensus_round"},
		},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.logError("vote_repo_upsert_log_failed", create.Error,
			"vote_id", log.VoteID,
			"node_id", log.NodeID,
		)
	}
	return nil
}

func (r *Repository) MarkLogConfirmed(ctx context.Context, voteID string, nodeID string, round int, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&consensusLogModel{}).
		Where("vote_id = ?", strings.TrimSpace(voteID)).
		Where("node_id = ?", strings.TrimSpace(nodeID)).
		Where("consensus_round = ?", round).
		Updates(map[string]any{
			"status":      string(entities.ConsensusLogStatusConfirmed),
			"recorded_at": at.UTC(),
		})
	if result.Error != nil {
		return r.logError("vote_repo_mark_log_confirmed_failed", result.Error,
			"vote_id", strings.TrimSpace(voteID),
			"node_id", strings.TrimSpace(nodeID),
		)
	}
	return nil
}

func (r *Repository) CountConfirmedLogs(ctx context.Context, voteID string, round int) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&consensusLogModel{}).
		Where("vote_id = ?", strings.TrimSpace(voteID)).
		Where("consensus_round = ?", round).
		Where("status = ?", string(entities.ConsensusLogStatusConfirmed)).
		Count(&count).
		Error
	if err != nil {
		return 0, r.logError("vote_repo_count_confirmed_failed", err,
			"vote_id", strings.TrimSpace(voteID),
		)
	}
	return int(count), nil
}

func (r *Repository) ListLogsByVote(ctx context.Context, voteID string) ([]entities.ConsensusLog, error) {
	var rows []consensusLogModel
	if err := r.db.WithContext(ctx).
		Where("vote_id = ?", strings.TrimSpace(voteID)).
		Order("node_id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("vote_repo_list_logs_failed", err,
			"vote_id", strings.TrimSpace(voteID),
		)
	}
	items := make([]entities.ConsensusLog, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) GetVoter(ctx context.Context, voterID string) (entities.VoterProjection, error) {
	var row voterProjectionModel
	err := r.db.WithContext(ctx).
		Where("voter_id = ?", strings.TrimSpace(voterID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.VoterProjection{}, domainerrors.ErrVoterNotFound
		}
		return entities.VoterProjection{}, r.logError("vote_repo_get_voter_failed", err)
	}
	return entities.VoterProjection{
		VoterID:  row.VoterID,
		State:    row.State,
		City:     row.City,
		District: row.District,
		Approved: row.Approved,
	}, nil
}

func (r *Repository) GetElectionProjection(ctx context.Context, electionID string) (entities.ElectionProjection, error) {
	type electionRow struct {
		ID                string `gorm:"column:id"`
		ElectionType      string `gorm:"column:election_type"`
		Status            string `gorm:"column:status"`
		State             string `gorm:"column:state"`
		City              string `gorm:"column:city"`
		District          string `gorm:"column:district"`
		ReplicationFactor int    `gorm:"column:replication_factor"`
	}
	var row electionRow
	err := r.db.WithContext(ctx).
		Table("elections").
		Where("id = ?", strings.TrimSpace(electionID)).
		Take(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.ElectionProjection{}, domainerrors.ErrElectionNotFound
		}
		return entities.ElectionProjection{}, r.logError("vote_repo_get_election_failed", err,
			"election_id", strings.TrimSpace(electionID),
		)
	}
	return entities.ElectionProjection{
		ElectionID:        row.ID,
		Type:              row.ElectionType,
		Status:            row.Status,
		State:             row.State,
		City:              row.City,
		District:          row.District,
		ReplicationFactor: row.ReplicationFactor,
	}, nil
}

func (r *Repository) GetCandidateProjection(ctx context.Context, candidateID string) (entities.CandidateProjection, error) {
	type candidateRow struct {
		ID         string `gorm:"column:id"`
		ElectionID string `gorm:"column:election_id"`
		IsVerified bool   `gorm:"column:is_verified"`
	}
	var row candidateRow
	err := r.db.WithContext(ctx).
		Table("candidates").
		Where("id = ?", strings.TrimSpace(candidateID)).
		Take(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.CandidateProjection{}, domainerrors.ErrCandidateNotFound
		}
		return entities.CandidateProjection{}, r.logError("vote_repo_get_candidate_failed", err,
			"candidate_id", strings.TrimSpace(candidateID),
		)
	}
	return entities.CandidateProjection{
		CandidateID: row.ID,
		ElectionID:  row.ElectionID,
		IsVerified:  row.IsVerified,
	}, nil
}

func (r *Repository) SelectActiveNodes(ctx context.Context, electionID string, limit int) ([]string, error) {
	var nodeIDs []string
	err := r.db.WithContext(ctx).
		Table("election_nodes").
		Where("election_id = ?", strings.TrimSpace(electionID)).
		Where("status = ?", "active").
		Order("response_time ASC").
		Limit(limit).
		Pluck("node_id", &nodeIDs).
		Error
	if err != nil {
		return nil, r.logError("vote_repo_select_nodes_failed", err,
			"election_id", strings.TrimSpace(electionID),
		)
	}
	return nodeIDs, nil
}

func (r *Repository) AlreadyProcessed(ctx context.Context, eventID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&processedEventModel{}).
		Where("event_id = ?", strings.TrimSpace(eventID)).
		Count(&count).
		Error
	if err != nil {
		return false, r.logError("vote_repo_dedup_check_failed", err,
			"event_id", strings.TrimSpace(eventID),
		)
	}
	return count > 0, nil
}

func (r *Repository) MarkProcessed(ctx context.Context, eventID string, at time.Time) error {
	row := processedEventModel{
		EventID:     strings.TrimSpace(eventID),
		ProcessedAt: at.UTC(),
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}).Create(&row).Error
	if err != nil {
		return r.logError("vote_repo_mark_processed_failed", err,
			"event_id", strings.TrimSpace(eventID),
		)
	}
	return nil
}

func (r *Repository) AppendOutbox(ctx context.Context, event events.Envelope) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	row := outboxModel{
		OutboxID:     event.EventID,
		EventType:    event.EventType,
		PartitionKey: event.PartitionKey,
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    event.OccurredAt.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return r.logError("vote_repo_append_outbox_failed", err,
			"event_id", event.EventID,
			"event_type", event.EventType,
		)
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("vote_repo_list_pending_outbox_failed", err)
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      row.Payload,
			Status:       row.Status,
			CreatedAt:    row.CreatedAt.UTC(),
			PublishedAt:  row.PublishedAt,
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	at := publishedAt.UTC()
	result := r.db.WithContext(ctx).Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": &at,
		})
	if result.Error != nil {
		return r.logError("vote_repo_mark_outbox_published_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "election-trust/vote-ledger",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("vote repository operation failed", fields...)
	return err
}

type voteModel struct {
	ID                    string    `gorm:"column:id;primaryKey"`
	VoterID               string    `gorm:"column:voter_id;uniqueIndex:idx_votes_voter_election"`
	ElectionID            string    `gorm:"column:election_id;uniqueIndex:idx_votes_voter_election"`
	CandidateID           string    `gorm:"column:candidate_id"`
	VoteHash              string    `gorm:"column:vote_hash;uniqueIndex:idx_votes_vote_hash"`
	Nonce                 string    `gorm:"column:nonce"`
	Status                string    `gorm:"column:status"`
	ConfirmationCount     int       `gorm:"column:confirmation_count"`
	RequiredConfirmations int       `gorm:"column:required_confirmations"`
	CastAt                time.Time `gorm:"column:cast_at"`
	UpdatedAt             time.Time `gorm:"column:updated_at"`
}

func (voteModel) TableName() string {
	return "votes"
}

func voteModelFromEntity(vote entities.Vote) voteModel {
	return voteModel{
		ID:                    vote.VoteID,
		VoterID:               vote.VoterID,
		ElectionID:            vote.ElectionID,
		CandidateID:           vote.CandidateID,
		VoteHash:              vote.VoteHash,
		Nonce:                 vote.Nonce,
		Status:                string(vote.Status),
		ConfirmationCount:     vote.ConfirmationCount,
		RequiredConfirmations: vote.RequiredConfirmations,
		CastAt:                vote.CastAt.UTC(),
		UpdatedAt:             vote.UpdatedAt.UTC(),
	}
}

func (m voteModel) toEntity() entities.Vote {
	return entities.Vote{
		VoteID:                m.ID,
		VoterID:               m.VoterID,
		ElectionID:            m.ElectionID,
		CandidateID:           m.CandidateID,
		VoteHash:              m.VoteHash,
		Nonce:                 m.Nonce,
		Status:                entities.VoteStatus(m.Status),
		ConfirmationCount:     m.ConfirmationCount,
		RequiredConfirmations: m.RequiredConfirmations,
		CastAt:                m.CastAt.UTC(),
		UpdatedAt:             m.UpdatedAt.UTC(),
	}
}

type consensusLogModel struct {
	ID             string    `gorm:"column:id;primaryKey"`
	VoteID         string    `gorm:"column:vote_id;uniqueIndex:idx_logs_vote_node_round"`
	NodeID         string    `gorm:"column:node_id;uniqueIndex:idx_logs_vote_node_round"`
	ConsensusRound int       `gorm:"column:consensus_round;uniqueIndex:idx_logs_vote_node_round"`
	Status         string    `gorm:"column:status"`
	Signature      string    `gorm:"column:signature"`
	RecordedAt     time.Time `gorm:"column:recorded_at"`
}

func (consensusLogModel) TableName() string {
	return "consensus_logs"
}

func consensusLogModelFromEntity(log entities.ConsensusLog) consensusLogModel {
	return consensusLogModel{
		ID:             log.LogID,
		VoteID:         log.VoteID,
		NodeID:         log.NodeID,
		ConsensusRound: log.ConsensusRound,
		Status:         string(log.Status),
		Signature:      log.Signature,
		RecordedAt:     log.RecordedAt.UTC(),
	}
}

func (m consensusLogModel) toEntity() entities.ConsensusLog {
	return entities.ConsensusLog{
		LogID:          m.ID,
		VoteID:         m.VoteID,
		NodeID:         m.NodeID,
		ConsensusRound: m.ConsensusRound,
		Status:         entities.ConsensusLogStatus(m.Status),
		Signature:      m.Signature,
		RecordedAt:     m.RecordedAt.UTC(),
	}
}

type voterProjectionModel struct {
	VoterID  string `gorm:"column:voter_id;primaryKey"`
	State    string `gorm:"column:state"`
	City     string `gorm:"column:city"`
	District string `gorm:"column:district"`
	Approved bool   `gorm:"column:approved"`
}

func (voterProjectionModel) TableName() string {
	return "voter_projections"
}

type processedEventModel struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	ProcessedAt time.Time `gorm:"column:processed_at"`
}

func (processedEventModel) TableName() string {
	return "vote_processed_events"
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "vote_outbox"
}

func uniqueViolation(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return pgErr, true
	}
	return nil, false
}

var _ ports.VoteRepository = (*Repository)(nil)
var _ ports.ConsensusLogRepository = (*Repository)(nil)
var _ ports.VoterDirectory = (*Repository)(nil)
var _ ports.ElectionReader = (*Repository)(nil)
var _ ports.CandidateReader = (*Repository)(nil)
var _ ports.NodeSelector = (*Repository)(nil)
var _ ports.ProcessedEventStore = (*Repository)(nil)
var _ ports.OutboxWriter = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
