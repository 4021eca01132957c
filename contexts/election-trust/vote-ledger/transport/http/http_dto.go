package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CastVoteRequest struct {
	CandidateID string `json:"candidate_id"`
	ElectionID  string `json:"election_id"`
}

type VoteResponse struct {
	VoteID                string `json:"vote_id"`
	ElectionID            string `json:"election_id"`
	Status                string `json:"status"`
	VoteHash              string `json:"vote_hash"`
	RequiredConfirmations int    `json:"required_confirmations"`
	CastAt                string `json:"cast_at"`
}

type VoteStatusResponse struct {
	VoteID                string `json:"vote_id"`
	ElectionID            string `json:"election_id"`
	Status                string `json:"status"`
	VoteHash              string `json:"vote_hash"`
	ConfirmationCount     int    `json:"confirmation_count"`
	RequiredConfirmations int    `json:"required_confirmations"`
	ConfirmedLogs         int    `json:"confirmed_logs"`
	CastAt                string `json:"cast_at"`
}
