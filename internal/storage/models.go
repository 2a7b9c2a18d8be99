package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Consultation is one stored mentor table exchange.
type Consultation struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"createdAt"`
	Language     string    `json:"language"`
	Problem      string    `json:"problem"`
	MentorIDs    []string  `json:"mentorIds"`
	Provider     string    `json:"provider"`
	Model        string    `json:"model"`
	ResponseJSON string    `json:"-"`
}
