package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"electra/contexts/election-trust/election-service/domain/entities"
	domainerrors "electra/contexts/election-trust/election-service/domain/errors"
	"electra/contexts/election-trust/election-service/ports"
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

func (r *Repository) CreateElection(ctx context.Context, election entities.Election) error {
	row := electionModelFromEntity(election)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return r.logError("election_repo_create_election_failed", err,
			"election_id", election.ElectionID,
		)
	}
	return nil
}

func (r *Repository) GetElection(ctx context.Context, electionID string) (entities.Election, error) {
	var row electionModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(electionID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Election{}, domainerrors.ErrElectionNotFound
		}
		return entities.Election{}, r.logError("election_repo_get_election_failed", err,
			"election_id", strings.TrimSpace(electionID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) GetLatestElection(ctx context.Context) (entities.Election, bool, error) {
	var row electionModel
	err := r.db.WithContext(ctx).Order("created_at DESC").First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Election{}, false, nil
		}
		return entities.Election{}, false, r.logError("election_repo_get_latest_failed", err)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) UpdateElectionStatus(
	ctx context.Context,
	electionID string,
	from entities.ElectionStatus,
	to entities.ElectionStatus,
	updatedAt time.Time,
) (bool, error) {
	// Conditional update: the WHERE clause on the current status makes the
	// transition race-safe without an explicit lock.
	result := r.db.WithContext(ctx).Model(&electionModel{}).
		Where("id = ?", strings.TrimSpace(electionID)).
		Where("status = ?", string(from)).
		Updates(map[string]any{
			"status":     string(to),
			"updated_at": updatedAt.UTC(),
		})
	if result.Error != nil {
		return false, r.logError("election_repo_update_status_failed", result.Error,
			"election_id", strings.TrimSpace(electionID),
			"from", string(from),
			"to", string(to),
		)
	}
	return result.RowsAffected > 0, nil
}

func (r *Repository) ListElections(ctx context.Context) ([]entities.Election, error) {
	var rows []electionModel
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, r.logError("election_repo_list_elections_failed", err)
	}
	items := make([]entities.Election, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) CreateCandidate(ctx context.Context, candidate entities.Candidate) error {
	row := candidateModelFromEntity(candidate)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return r.logError("election_repo_create_candidate_failed", err,
			"candidate_id", candidate.CandidateID,
			"election_id", candidate.ElectionID,
		)
	}
	return nil
}

func (r *Repository) GetCandidate(ctx context.Context, candidateID string) (entities.Candidate, error) {
	var row candidateModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(candidateID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Candidate{}, domainerrors.ErrCandidateNotFound
		}
		return entities.Candidate{}, r.logError("election_repo_get_candidate_failed", err,
			"candidate_id", strings.TrimSpace(candidateID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) MarkCandidateVerified(ctx context.Context, candidateID string) error {
	// verification_hash is deliberately absent from the update set; it is
	// frozen at registration.
	result := r.db.WithContext(ctx).Model(&candidateModel{}).
		Where("id = ?", strings.TrimSpace(candidateID)).
		Update("is_verified", true)
	if result.Error != nil {
		return r.logError("election_repo_verify_candidate_failed", result.Error,
			"candidate_id", strings.TrimSpace(candidateID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrCandidateNotFound
	}
	return nil
}

func (r *Repository) ListCandidatesByElection(ctx context.Context, electionID string) ([]entities.Candidate, error) {
	var rows []candidateModel
	if err := r.db.WithContext(ctx).
		Where("election_id = ?", strings.TrimSpace(electionID)).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("election_repo_list_candidates_failed", err,
			"election_id", strings.TrimSpace(electionID),
		)
	}
	items := make([]entities.Candidate, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) UpsertNode(ctx context.Context, node entities.ElectionNode) error {
	row := nodeModelFromEntity(node)
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "node_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"election_id":       row.ElectionID,
			"address":           row.Address,
			"status":            row.Status,
			"last_heartbeat_at": row.LastHeartbeatAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		return r.logError("election_repo_upsert_node_failed", create.Error,
			"node_id", node.NodeID,
			"election_id", node.ElectionID,
		)
	}
	return nil
}

func (r *Repository) GetNode(ctx context.Context, nodeID string) (entities.ElectionNode, error) {
	var row nodeModel
	err := r.db.WithContext(ctx).
		Where("node_id = ?", strings.TrimSpace(nodeID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.ElectionNode{}, domainerrors.ErrNodeNotFound
		}
		return entities.ElectionNode{}, r.logError("election_repo_get_node_failed", err,
			"node_id", strings.TrimSpace(nodeID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) UpdateNodeStatus(ctx context.Context, nodeID string, status entities.NodeStatus, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&nodeModel{}).
		Where("node_id = ?", strings.TrimSpace(nodeID)).
		Updates(map[string]any{
			"status":            string(status),
			"last_heartbeat_at": at.UTC(),
		})
	if result.Error != nil {
		return r.logError("election_repo_update_node_status_failed", result.Error,
			"node_id", strings.TrimSpace(nodeID),
			"status", string(status),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNodeNotFound
	}
	return nil
}

func (r *Repository) RecordNodeHeartbeat(ctx context.Context, nodeID string, at time.Time, responseTime float64) error {
	result := r.db.WithContext(ctx).Model(&nodeModel{}).
		Where("node_id = ?", strings.TrimSpace(nodeID)).
		Updates(map[string]any{
			"last_heartbeat_at": at.UTC(),
			"response_time":     responseTime,
		})
	if result.Error != nil {
		return r.logError("election_repo_node_heartbeat_failed", result.Error,
			"node_id", strings.TrimSpace(nodeID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNodeNotFound
	}
	return nil
}

func (r *Repository) ListNodesByElection(ctx context.Context, electionID string) ([]entities.ElectionNode, error) {
	var rows []nodeModel
	if err := r.db.WithContext(ctx).
		Where("election_id = ?", strings.TrimSpace(electionID)).
		Order("registered_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("election_repo_list_nodes_failed", err,
			"election_id", strings.TrimSpace(electionID),
		)
	}
	items := make([]entities.ElectionNode, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) TallyFinalizedVotes(ctx context.Context, electionID string) ([]ports.CandidateTally, error) {
	type tallyRow struct {
		CandidateID string `gorm:"column:candidate_id"`
		Name        string `gorm:"column:name"`
		Party       string `gorm:"column:party"`
		VoteCount   int    `gorm:"column:vote_count"`
	}
	var rows []tallyRow
	err := r.db.WithContext(ctx).
		Table("votes AS v").
		Select("c.id AS candidate_id, c.name AS name, c.party AS party, COUNT(v.id) AS vote_count").
		Joins("JOIN candidates AS c ON c.id = v.candidate_id").
		Where("v.election_id = ?", strings.TrimSpace(electionID)).
		Where("v.status = ?", "finalized").
		Where("c.is_verified = ?", true).
		Group("c.id, c.name, c.party").
		Order("vote_count DESC").
		Scan(&rows).
		Error
	if err != nil {
		return nil, r.logError("election_repo_tally_failed", err,
			"election_id", strings.TrimSpace(electionID),
		)
	}
	items := make([]ports.CandidateTally, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.CandidateTally{
			CandidateID: row.CandidateID,
			Name:        row.Name,
			Party:       row.Party,
			VoteCount:   row.VoteCount,
		})
	}
	return items, nil
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
		return r.logError("election_repo_append_outbox_failed", err,
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
		return nil, r.logError("election_repo_list_pending_outbox_failed", err)
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
		return r.logError("election_repo_mark_outbox_published_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "election-trust/election-service",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("election repository operation failed", fields...)
	return err
}

type electionModel struct {
	ID                 string    `gorm:"column:id;primaryKey"`
	Name               string    `gorm:"column:name"`
	State              string    `gorm:"column:state"`
	City               string    `gorm:"column:city"`
	District           string    `gorm:"column:district"`
	ElectionType       string    `gorm:"column:election_type"`
	Year               int       `gorm:"column:year"`
	StartsAt           time.Time `gorm:"column:starts_at"`
	EndsAt             time.Time `gorm:"column:ends_at"`
	Status             string    `gorm:"column:status"`
	ConsensusThreshold int       `gorm:"column:consensus_threshold"`
	ReplicationFactor  int       `gorm:"column:replication_factor"`
	BlockHash          string    `gorm:"column:block_hash"`
	PreviousBlockHash  string    `gorm:"column:previous_block_hash;uniqueIndex:idx_elections_previous_block_hash"`
	CreatedAt          time.Time `gorm:"column:created_at"`
	UpdatedAt          time.Time `gorm:"column:updated_at"`
}

func (electionModel) TableName() string {
	return "elections"
}

func electionModelFromEntity(election entities.Election) electionModel {
	return electionModel{
		ID:                 strings.TrimSpace(election.ElectionID),
		Name:               election.Name,
		State:              election.State,
		City:               election.City,
		District:           election.District,
		ElectionType:       string(election.Type),
		Year:               election.Year,
		StartsAt:           election.StartsAt.UTC(),
		EndsAt:             election.EndsAt.UTC(),
		Status:             string(election.Status),
		ConsensusThreshold: election.ConsensusThreshold,
		ReplicationFactor:  election.ReplicationFactor,
		BlockHash:          election.BlockHash,
		PreviousBlockHash:  election.PreviousBlockHash,
		CreatedAt:          election.CreatedAt.UTC(),
		UpdatedAt:          election.UpdatedAt.UTC(),
	}
}

func (m electionModel) toEntity() entities.Election {
	return entities.Election{
		ElectionID:         m.ID,
		Name:               m.Name,
		State:              m.State,
		City:               m.City,
		District:           m.District,
		Type:               entities.ElectionType(m.ElectionType),
		Year:               m.Year,
		StartsAt:           m.StartsAt.UTC(),
		EndsAt:             m.EndsAt.UTC(),
		Status:             entities.ElectionStatus(m.Status),
		ConsensusThreshold: m.ConsensusThreshold,
		ReplicationFactor:  m.ReplicationFactor,
		BlockHash:          m.BlockHash,
		PreviousBlockHash:  m.PreviousBlockHash,
		CreatedAt:          m.CreatedAt.UTC(),
		UpdatedAt:          m.UpdatedAt.UTC(),
	}
}

type candidateModel struct {
	ID               string    `gorm:"column:id;primaryKey"`
	ElectionID       string    `gorm:"column:election_id"`
	Name             string    `gorm:"column:name"`
	Party            string    `gorm:"column:party"`
	Constituency     string    `gorm:"column:constituency"`
	Symbol           string    `gorm:"column:symbol"`
	VerificationHash string    `gorm:"column:verification_hash"`
	IsVerified       bool      `gorm:"column:is_verified"`
	CreatedAt        time.Time `gorm:"column:created_at"`
}

func (candidateModel) TableName() string {
	return "candidates"
}

func candidateModelFromEntity(candidate entities.Candidate) candidateModel {
	return candidateModel{
		ID:               strings.TrimSpace(candidate.CandidateID),
		ElectionID:       strings.TrimSpace(candidate.ElectionID),
		Name:             candidate.Name,
		Party:            candidate.Party,
		Constituency:     candidate.Constituency,
		Symbol:           candidate.Symbol,
		VerificationHash: candidate.VerificationHash,
		IsVerified:       candidate.IsVerified,
		CreatedAt:        candidate.CreatedAt.UTC(),
	}
}

func (m candidateModel) toEntity() entities.Candidate {
	return entities.Candidate{
		CandidateID:      m.ID,
		ElectionID:       m.ElectionID,
		Name:             m.Name,
		Party:            m.Party,
		Constituency:     m.Constituency,
		Symbol:           m.Symbol,
		VerificationHash: m.VerificationHash,
		IsVerified:       m.IsVerified,
		CreatedAt:        m.CreatedAt.UTC(),
	}
}

type nodeModel struct {
	NodeID           string    `gorm:"column:node_id;primaryKey"`
	ElectionID       string    `gorm:"column:election_id"`
	Address          string    `gorm:"column:address"`
	Status           string    `gorm:"column:status"`
	ResponseTime     float64   `gorm:"column:response_time"`
	UptimePercentage float64   `gorm:"column:uptime_percentage"`
	LastHeartbeatAt  time.Time `gorm:"column:last_heartbeat_at"`
	RegisteredAt     time.Time `gorm:"column:registered_at"`
}

func (nodeModel) TableName() string {
	return "election_nodes"
}

func nodeModelFromEntity(node entities.ElectionNode) nodeModel {
	return nodeModel{
		NodeID:           strings.TrimSpace(node.NodeID),
		ElectionID:       strings.TrimSpace(node.ElectionID),
		Address:          node.Address,
		Status:           string(node.Status),
		ResponseTime:     node.ResponseTime,
		UptimePercentage: node.UptimePercentage,
		LastHeartbeatAt:  node.LastHeartbeatAt.UTC(),
		RegisteredAt:     node.RegisteredAt.UTC(),
	}
}

func (m nodeModel) toEntity() entities.ElectionNode {
	return entities.ElectionNode{
		NodeID:           m.NodeID,
		ElectionID:       m.ElectionID,
		Address:          m.Address,
		Status:           entities.NodeStatus(m.Status),
		ResponseTime:     m.ResponseTime,
		UptimePercentage: m.UptimePercentage,
		LastHeartbeatAt:  m.LastHeartbeatAt.UTC(),
		RegisteredAt:     m.RegisteredAt.UTC(),
	}
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
	return "election_outbox"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.ElectionRepository = (*Repository)(nil)
var _ ports.CandidateRepository = (*Repository)(nil)
var _ ports.NodeRegistry = (*Repository)(nil)
var _ ports.TallyReader = (*Repository)(nil)
var _ ports.OutboxWriter = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
