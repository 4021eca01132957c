package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"electra/contexts/election-trust/audit-trail/domain/entities"
	domainerrors "electra/contexts/election-trust/audit-trail/domain/errors"
	"electra/contexts/election-trust/audit-trail/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
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

func (r *Repository) CreateEntry(ctx context.Context, entry entities.Entry) error {
	row, err := entryModelFromEntity(entry)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrChainConflict
		}
		return r.logError("audit_repo_create_entry_failed", err,
			"entry_id", entry.EntryID,
			"seq", entry.Seq,
		)
	}
	return nil
}

func (r *Repository) GetTail(ctx context.Context) (entities.Entry, bool, error) {
	var row auditEntryModel
	err := r.db.WithContext(ctx).Order("seq DESC").First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Entry{}, false, nil
		}
		return entities.Entry{}, false, r.logError("audit_repo_get_tail_failed", err)
	}
	entry, err := row.toEntity()
	if err != nil {
		return entities.Entry{}, false, err
	}
	return entry, true, nil
}

func (r *Repository) ListEntries(ctx context.Context, filter ports.EntryFilter) ([]entities.Entry, error) {
	tx := r.db.WithContext(ctx).Model(&auditEntryModel{})
	if strings.TrimSpace(filter.LogType) != "" {
		tx = tx.Where("log_type = ?", strings.TrimSpace(filter.LogType))
	}
	if strings.TrimSpace(filter.ElectionID) != "" {
		tx = tx.Where("election_id = ?", strings.TrimSpace(filter.ElectionID))
	}
	if filter.Limit > 0 {
		tx = tx.Limit(filter.Limit)
	}

	var rows []auditEntryModel
	if err := tx.Order("seq ASC").Find(&rows).Error; err != nil {
		return nil, r.logError("audit_repo_list_entries_failed", err,
			"log_type", strings.TrimSpace(filter.LogType),
			"election_id", strings.TrimSpace(filter.ElectionID),
		)
	}

	items := make([]entities.Entry, 0, len(rows))
	for _, row := range rows {
		entry, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		items = append(items, entry)
	}
	return items, nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "election-trust/audit-trail",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("audit repository operation failed", fields...)
	return err
}

type auditEntryModel struct {
	ID           string    `gorm:"column:id;primaryKey"`
	Seq          int64     `gorm:"column:seq;uniqueIndex"`
	LogType      string    `gorm:"column:log_type"`
	ActorID      *string   `gorm:"column:actor_id"`
	ElectionID   *string   `gorm:"column:election_id"`
	Details      []byte    `gorm:"column:details"`
	RecordedAt   time.Time `gorm:"column:recorded_at"`
	HashChain    string    `gorm:"column:hash_chain"`
	PreviousHash string    `gorm:"column:previous_hash"`
}

func (auditEntryModel) TableName() string {
	return "audit_entries"
}

func entryModelFromEntity(entry entities.Entry) (auditEntryModel, error) {
	details, err := json.Marshal(entry.Details)
	if err != nil {
		return auditEntryModel{}, err
	}
	row := auditEntryModel{
		ID:           strings.TrimSpace(entry.EntryID),
		Seq:          entry.Seq,
		LogType:      string(entry.LogType),
		Details:      details,
		RecordedAt:   entry.RecordedAt.UTC(),
		HashChain:    entry.HashChain,
		PreviousHash: entry.PreviousHash,
	}
	// Actor/election columns nullify on entity deletion; the chain must outlive
	// the rows it describes.
	if actor := strings.TrimSpace(entry.ActorID); actor != "" {
		row.ActorID = &actor
	}
	if election := strings.TrimSpace(entry.ElectionID); election != "" {
		row.ElectionID = &election
	}
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	return row, nil
}

func (m auditEntryModel) toEntity() (entities.Entry, error) {
	var details map[string]any
	if len(m.Details) > 0 {
		if err := json.Unmarshal(m.Details, &details); err != nil {
			return entities.Entry{}, err
		}
	}
	entry := entities.Entry{
		EntryID:      m.ID,
		Seq:          m.Seq,
		LogType:      entities.LogType(m.LogType),
		Details:      details,
		RecordedAt:   m.RecordedAt.UTC(),
		HashChain:    m.HashChain,
		PreviousHash: m.PreviousHash,
	}
	if m.ActorID != nil {
		entry.ActorID = strings.TrimSpace(*m.ActorID)
	}
	if m.ElectionID != nil {
		entry.ElectionID = strings.TrimSpace(*m.ElectionID)
	}
	return entry, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.EntryRepository = (*Repository)(nil)
