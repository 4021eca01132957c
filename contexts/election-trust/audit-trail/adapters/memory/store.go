package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"electra/contexts/election-trust/audit-trail/domain/entities"
	domainerrors "electra/contexts/election-trust/audit-trail/domain/errors"
	"electra/contexts/election-trust/audit-trail/ports"

	"github.com/google/uuid"
)

// Store is the in-memory entry repository used by tests and dev wiring.
type Store struct {
	mu      sync.RWMutex
	entries map[int64]entities.Entry
}

func NewStore() *Store {
	return &Store{entries: make(map[int64]entities.Entry)}
}

func (s *Store) CreateEntry(_ context.Context, entry entities.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[entry.Seq]; exists {
		return domainerrors.ErrChainConflict
	}
	s.entries[entry.Seq] = entry
	return nil
}

func (s *Store) GetTail(_ context.Context) (entities.Entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var tail entities.Entry
	found := false
	for _, entry := range s.entries {
		if !found || entry.Seq > tail.Seq {
			tail = entry
			found = true
		}
	}
	return tail, found, nil
}

func (s *Store) ListEntries(_ context.Context, filter ports.EntryFilter) ([]entities.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Entry, 0, len(s.entries))
	for _, entry := range s.entries {
		if filter.LogType != "" && string(entry.LogType) != strings.TrimSpace(filter.LogType) {
			continue
		}
		if filter.ElectionID != "" && entry.ElectionID != strings.TrimSpace(filter.ElectionID) {
			continue
		}
		items = append(items, entry)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Seq < items[j].Seq })
	if filter.Limit > 0 && len(items) > filter.Limit {
		items = items[:filter.Limit]
	}
	return items, nil
}

// Corrupt overwrites a stored entry in place. Only tests use it to simulate
// tampering with the persisted chain.
func (s *Store) Corrupt(seq int64, mutate func(entities.Entry) entities.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.entries[seq]; ok {
		s.entries[seq] = mutate(entry)
	}
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

var _ ports.EntryRepository = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
