package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type AppendEntryRequest struct {
	LogType    string         `json:"log_type"`
	ActorID    string         `json:"actor_id,omitempty"`
	ElectionID string         `json:"election_id,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
}

type EntryResponse struct {
	EntryID      string         `json:"entry_id"`
	Seq          int64          `json:"seq"`
	LogType      string         `json:"log_type"`
	ActorID      string         `json:"actor_id,omitempty"`
	ElectionID   string         `json:"election_id,omitempty"`
	Details      map[string]any `json:"details,omitempty"`
	RecordedAt   string         `json:"recorded_at"`
	HashChain    string         `json:"hash_chain"`
	PreviousHash string         `json:"previous_hash"`
}

type EntriesResponse struct {
	Items []EntryResponse `json:"items"`
}

type VerificationResponse struct {
	Valid      bool   `json:"valid"`
	EntryCount int    `json:"entry_count"`
	BrokenSeq  int64  `json:"broken_seq,omitempty"`
	Reason     string `json:"reason,omitempty"`
}
