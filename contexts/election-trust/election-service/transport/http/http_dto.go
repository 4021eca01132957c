package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateElectionRequest struct {
	Name               string `json:"name"`
	State              string `json:"state,omitempty"`
	City               string `json:"city,omitempty"`
	District           string `json:"district,omitempty"`
	Type               string `json:"type"`
	Year               int    `json:"year"`
	StartsAt           string `json:"starts_at"`
	EndsAt             string `json:"ends_at"`
	ConsensusThreshold int    `json:"consensus_threshold,omitempty"`
	ReplicationFactor  int    `json:"replication_factor,omitempty"`
	ActorID            string `json:"actor_id,omitempty"`
}

type TransitionRequest struct {
	ActorID string `json:"actor_id,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

type ElectionResponse struct {
	ElectionID         string `json:"election_id"`
	Name               string `json:"name"`
	State              string `json:"state,omitempty"`
	City               string `json:"city,omitempty"`
	District           string `json:"district,omitempty"`
	Type               string `json:"type"`
	Year               int    `json:"year"`
	StartsAt           string `json:"starts_at"`
	EndsAt             string `json:"ends_at"`
	Status             string `json:"status"`
	ConsensusThreshold int    `json:"consensus_threshold"`
	ReplicationFactor  int    `json:"replication_factor"`
	BlockHash          string `json:"block_hash"`
	PreviousBlockHash  string `json:"previous_block_hash"`
	CreatedAt          string `json:"created_at"`
}

type ElectionsResponse struct {
	Items []ElectionResponse `json:"items"`
}

type RegisterCandidateRequest struct {
	Name         string `json:"name"`
	Party        string `json:"party"`
	Constituency string `json:"constituency,omitempty"`
	Symbol       string `json:"symbol,omitempty"`
	ActorID      string `json:"actor_id,omitempty"`
}

type CandidateResponse struct {
	CandidateID      string `json:"candidate_id"`
	ElectionID       string `json:"election_id"`
	Name             string `json:"name"`
	Party            string `json:"party"`
	Constituency     string `json:"constituency,omitempty"`
	Symbol           string `json:"symbol,omitempty"`
	VerificationHash string `json:"verification_hash"`
	IsVerified       bool   `json:"is_verified"`
}

type CandidatesResponse struct {
	Items []CandidateResponse `json:"items"`
}

type RegisterNodeRequest struct {
	NodeID     string `json:"node_id"`
	ElectionID string `json:"election_id"`
	Address    string `json:"address,omitempty"`
	ActorID    string `json:"actor_id,omitempty"`
}

type NodeHeartbeatRequest struct {
	ResponseTime float64 `json:"response_time,omitempty"`
}

type NodeStatusRequest struct {
	Status  string `json:"status"`
	ActorID string `json:"actor_id,omitempty"`
}

type NodeResponse struct {
	NodeID           string  `json:"node_id"`
	ElectionID       string  `json:"election_id"`
	Address          string  `json:"address,omitempty"`
	Status           string  `json:"status"`
	ResponseTime     float64 `json:"response_time"`
	UptimePercentage float64 `json:"uptime_percentage"`
	LastHeartbeatAt  string  `json:"last_heartbeat_at"`
}

type NodesResponse struct {
	Items []NodeResponse `json:"items"`
}

type CandidateTallyResponse struct {
	CandidateID string `json:"candidate_id"`
	Name        string `json:"name"`
	Party       string `json:"party"`
	VoteCount   int    `json:"vote_count"`
}

type ElectionStatusResponse struct {
	ElectionID         string                   `json:"election_id"`
	Name               string                   `json:"name"`
	Type               string                   `json:"type"`
	Status             string                   `json:"status"`
	ConsensusThreshold int                      `json:"consensus_threshold"`
	BlockHash          string                   `json:"block_hash"`
	PreviousBlockHash  string                   `json:"previous_block_hash"`
	CandidateCount     int                      `json:"candidate_count"`
	TotalNodes         int                      `json:"total_nodes"`
	ActiveNodes        int                      `json:"active_nodes"`
	Tallies            []CandidateTallyResponse `json:"tallies"`
}
