package entities

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

type LogType string

const (
	LogTypeVoteCast          LogType = "vote_cast"
	LogTypeVoteVerified      LogType = "vote_verified"
	LogTypeConsensusAchieved LogType = "consensus_achieved"
	LogTypeNodeFailure       LogType = "node_failure"
	LogTypeElectionCreated   LogType = "election_created"
	LogTypeElectionStarted   LogType = "election_started"
	LogTypeElectionEnded     LogType = "election_ended"
	LogTypeAdminAction       LogType = "admin_action"
	LogTypeSecurityEvent     LogType = "security_event"
)

func (t LogType) Valid() bool {
	switch t {
	case LogTypeVoteCast, LogTypeVoteVerified, LogTypeConsensusAchieved,
		LogTypeNodeFailure, LogTypeElectionCreated, LogTypeElectionStarted,
		LogTypeElectionEnded, LogTypeAdminAction, LogTypeSecurityEvent:
		return true
	default:
		return false
	}
}

// Entry is one link of the audit chain. Seq is a dense monotonic position
// assigned at append time; HashChain is frozen at creation and never
// recomputed by any save path, so tampering is detectable only by external
// recomputation (see ChainUseCase.VerifyChain).
type Entry struct {
	EntryID      string
	Seq          int64
	LogType      LogType
	ActorID      string
	ElectionID   string
	Details      map[string]any
	RecordedAt   time.Time
	HashChain    string
	PreviousHash string
}

// NewEntry builds an entry and seals its hash. The genesis entry carries an
// empty PreviousHash.
func NewEntry(
	entryID string,
	seq int64,
	logType LogType,
	actorID string,
	electionID string,
	details map[string]any,
	recordedAt time.Time,
	previousHash string,
) Entry {
	entry := Entry{
		EntryID:      entryID,
		Seq:          seq,
		LogType:      logType,
		ActorID:      actorID,
		ElectionID:   electionID,
		Details:      details,
		RecordedAt:   recordedAt.UTC(),
		PreviousHash: previousHash,
	}
	entry.HashChain = entry.ComputeHash()
	return entry
}

// ComputeHash digests the entry's chained fields. json.Marshal emits map keys
// in sorted order, which keeps the details serialization canonical.
func (e Entry) ComputeHash() string {
	payload, _ := json.Marshal(e.Details)
	data := string(e.LogType) + e.ActorID + e.RecordedAt.UTC().Format(time.RFC3339Nano) +
		string(payload) + e.PreviousHash
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}

// LinksTo reports whether this entry correctly chains onto prev.
func (e Entry) LinksTo(prev Entry) bool {
	return e.PreviousHash == prev.HashChain
}
