package errors

import "errors"

var (
	ErrInvalidElectionInput  = errors.New("invalid election input")
	ErrElectionNotFound      = errors.New("election not found")
	ErrInvalidTransition     = errors.New("invalid election status transition")
	ErrInvalidCandidateInput = errors.New("invalid candidate input")
	ErrCandidateNotFound     = errors.New("candidate not found")
	ErrInvalidNodeInput      = errors.New("invalid node input")
	ErrNodeNotFound          = errors.New("election node not found")
	ErrConflict              = errors.New("election conflict")
)
