package table

import (
	"errors"
	"fmt"
)

// ErrMissingAPIKey is returned when no LLM API key is configured.
var ErrMissingAPIKey = errors.New("LLM API key is not configured")

// ValidationError reports malformed consultation input.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// MentorError is one mentor's generation failure. It never escapes
// aggregation; it is logged and replaced by a fallback reply.
type MentorError struct {
	MentorID string
	Err      error
}

func (e *MentorError) Error() string {
	return fmt.Sprintf("mentor %s: %v", e.MentorID, e.Err)
}

func (e *MentorError) Unwrap() error { return e.Err }
