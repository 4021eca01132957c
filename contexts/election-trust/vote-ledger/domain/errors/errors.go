package errors

import "errors"

var (
	ErrInvalidVoteInput  = errors.New("invalid vote input")
	ErrAlreadyVoted      = errors.New("voter already voted in this election")
	ErrElectionNotFound  = errors.New("election not found")
	ErrElectionNotActive = errors.New("election is not accepting votes")
	ErrVoterNotFound     = errors.New("voter not found")
	ErrVoterNotApproved  = errors.New("voter is not approved")
	ErrVoterNotEligible  = errors.New("voter is not eligible for this election")
	ErrCandidateNotFound = errors.New("candidate not found")
	ErrCandidateMismatch = errors.New("candidate does not belong to this election")
	ErrVoteNotFound      = errors.New("vote not found")
	ErrConsensusDeferred = errors.New("consensus round deferred")
	ErrConflict          = errors.New("vote ledger conflict")
)
