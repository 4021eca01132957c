package ports

import (
	"context"
	"time"

	"electra/contexts/election-trust/audit-trail/domain/entities"
)

type EntryFilter struct {
	LogType    string
	ElectionID string
	Limit      int
}

// EntryRepository persists chain entries. CreateEntry must reject a duplicate
// Seq with ErrChainConflict so a lost append race surfaces as a retry instead
// of a fork; ordered retrieval is always by Seq.
type EntryRepository interface {
	CreateEntry(ctx context.Context, entry entities.Entry) error
	GetTail(ctx context.Context) (entities.Entry, bool, error)
	ListEntries(ctx context.Context, filter EntryFilter) ([]entities.Entry, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
