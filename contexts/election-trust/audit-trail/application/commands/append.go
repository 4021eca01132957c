package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	application "electra/contexts/election-trust/audit-trail/application"
	"electra/contexts/election-trust/audit-trail/domain/entities"
	domainerrors "electra/contexts/election-trust/audit-trail/domain/errors"
	"electra/contexts/election-trust/audit-trail/ports"
)

// AppendEntryInput is the write-model input for one chain append.
type AppendEntryInput struct {
	LogType    entities.LogType
	ActorID    string
	ElectionID string
	Details    map[string]any
}

// Appender owns all chain appends for the process. A mutex serializes the
// read-tail/compute-hash/insert critical section so concurrent appends cannot
// observe the same tail; the repository's unique Seq index covers the
// cross-process race, which the appender absorbs with a bounded retry.
type Appender struct {
	mu sync.Mutex

	Entries     ports.EntryRepository
	Clock       ports.Clock
	IDGen       ports.IDGenerator
	MaxAttempts int
	Logger      *slog.Logger
}

// Append links a new entry onto the current chain tail.
func (a *Appender) Append(ctx context.Context, input AppendEntryInput) (entities.Entry, error) {
	logger := application.ResolveLogger(a.Logger)
	if !input.LogType.Valid() {
		logger.Warn("audit append validation failed",
			"event", "audit_append_validation_failed",
			"module", "election-trust/audit-trail",
			"layer", "application",
			"log_type", string(input.LogType),
		)
		return entities.Entry{}, domainerrors.ErrInvalidEntryInput
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	attempts := a.MaxAttempts
	if attempts <= 0 {
		attempts = 5
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		tail, found, err := a.Entries.GetTail(ctx)
		if err != nil {
			return entities.Entry{}, err
		}
		seq := int64(1)
		previousHash := ""
		if found {
			seq = tail.Seq + 1
			previousHash = tail.HashChain
		}

		entryID, err := a.IDGen.NewID(ctx)
		if err != nil {
			return entities.Entry{}, err
		}
		entry := entities.NewEntry(
			entryID,
			seq,
			input.LogType,
			strings.TrimSpace(input.ActorID),
			strings.TrimSpace(input.ElectionID),
			input.Details,
			a.now(),
			previousHash,
		)

		if err := a.Entries.CreateEntry(ctx, entry); err != nil {
			if errors.Is(err, domainerrors.ErrChainConflict) {
				logger.Warn("audit append lost tail race; retrying",
					"event", "audit_append_conflict",
					"module", "election-trust/audit-trail",
					"layer", "application",
					"seq", seq,
					"attempt", attempt,
				)
				continue
			}
			return entities.Entry{}, err
		}

		logger.Info("audit entry appended",
			"event", "audit_entry_appended",
			"module", "election-trust/audit-trail",
			"layer", "application",
			"entry_id", entry.EntryID,
			"seq", entry.Seq,
			"log_type", string(entry.LogType),
			"election_id", entry.ElectionID,
		)
		return entry, nil
	}

	logger.Error("audit append exhausted retries",
		"event", "audit_append_exhausted",
		"module", "election-trust/audit-trail",
		"layer", "application",
		"attempts", attempts,
	)
	return entities.Entry{}, domainerrors.ErrAppendExhausted
}

// AppendAuditEntry adapts Append to the recorder signature sibling services
// declare in their ports, keeping them decoupled from this module's types.
func (a *Appender) AppendAuditEntry(
	ctx context.Context,
	logType string,
	actorID string,
	electionID string,
	details map[string]any,
) error {
	_, err := a.Append(ctx, AppendEntryInput{
		LogType:    entities.LogType(logType),
		ActorID:    actorID,
		ElectionID: electionID,
		Details:    details,
	})
	return err
}

func (a *Appender) now() time.Time {
	if a.Clock != nil {
		return a.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
