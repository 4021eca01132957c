package errors

import "errors"

var (
	ErrInvalidEntryInput = errors.New("invalid audit entry input")
	ErrEntryNotFound     = errors.New("audit entry not found")
	ErrChainConflict     = errors.New("audit chain append conflict")
	ErrAppendExhausted   = errors.New("audit chain append retries exhausted")
)
