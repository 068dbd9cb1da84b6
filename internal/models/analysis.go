package models

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound          = errors.New("analysis not found")
	ErrIllegalTransition = errors.New("illegal status transition")
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

func (s Status) String() string {
	return string(s)
}

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// legalTransitions is the whole lifecycle:
// pending -> processing -> completed | failed.
var legalTransitions = map[Status][]Status{
	StatusPending:    {StatusProcessing},
	StatusProcessing: {StatusCompleted, StatusFailed},
}

// Transition validates a status change. It is the single place where
// lifecycle legality is decided; repositories re-enforce the same rule
// with conditional updates so concurrent workers cannot race past it.
func (s Status) Transition(to Status) (Status, error) {
	for _, next := range legalTransitions[s] {
		if next == to {
			return to, nil
		}
	}
	return s, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, s, to)
}

// Analysis is the persisted record of one document audit job.
type Analysis struct {
	ID            string            `json:"id" db:"id"`
	SourceLocator string            `json:"source_locator" db:"source_locator"`
	ContentType   string            `json:"content_type" db:"content_type"`
	Status        Status            `json:"status" db:"status"`
	Forensic      *ForensicResult   `json:"forensic,omitempty" db:"forensic"`
	Similarity    *SimilarityResult `json:"similarity,omitempty" db:"similarity"`
	ErrorReason   *string           `json:"error_reason,omitempty" db:"error_reason"`
	CreatedAt     time.Time         `json:"created_at" db:"created_at"`
	StartedAt     *time.Time        `json:"started_at,omitempty" db:"started_at"`
	CompletedAt   *time.Time        `json:"completed_at,omitempty" db:"completed_at"`
	UpdatedAt     time.Time         `json:"updated_at" db:"updated_at"`
}

// CorpusDocument is the stored extracted text of a previously completed
// analysis, as returned by the corpus repository for similarity checks.
type CorpusDocument struct {
	AnalysisID string `json:"analysis_id" db:"analysis_id"`
	Text       string `json:"text" db:"text"`
}
