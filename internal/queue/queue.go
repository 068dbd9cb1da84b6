// Package queue provides the analysis job queue behind one interface
// with two interchangeable backends: a durable RabbitMQ queue for
// multi-process deployments and an in-process fallback with the same
// add-job / register-handler / bounded-concurrency contract. The backend
// is selected once at startup, not per job.
package queue

import (
	"context"
	"errors"
)

// Payload is the job submitted for one document analysis.
type Payload struct {
	AnalysisID    string `json:"analysis_id"`
	SourceLocator string `json:"source_locator"`
	ContentType   string `json:"content_type"`
}

// Handler processes one job. Returning nil or a permanent error settles
// the job; any other error asks the backend to redeliver where it can.
type Handler func(ctx context.Context, p Payload) error

type JobQueue interface {
	// Enqueue submits a job, fire-and-forget.
	Enqueue(ctx context.Context, p Payload) error
	// RegisterHandler attaches the single handler for this job type and
	// starts consuming with at most concurrency simultaneous executions.
	RegisterHandler(ctx context.Context, h Handler, concurrency int) error
	// Mode names the active backend ("rabbitmq" or "memory").
	Mode() string
	Close() error
}

type permanentError struct {
	err error
}

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

// Permanent marks an error as non-retryable: the job is settled and
// must not be redelivered.
func Permanent(err error) error {
	return permanentError{err: err}
}

func IsPermanent(err error) bool {
	var p permanentError
	return errors.As(err, &p)
}
