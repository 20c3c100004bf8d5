package domain

import (
	"errors"
	"fmt"
)

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates authentication failed or missing
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the caller lacks permission for this action
	ErrForbidden = errors.New("forbidden")

	// ErrTokenExpired indicates the auth token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid indicates the auth token is malformed or invalid
	ErrTokenInvalid = errors.New("token invalid")

	// ErrReindexInProgress indicates another reindex or teardown holds the tenant
	ErrReindexInProgress = errors.New("reindex already in progress")
)

// Indexing pipeline errors
var (
	// ErrStoreUnavailable indicates the relational content store could not be read.
	// Fatal for a reindex.
	ErrStoreUnavailable = errors.New("content store unavailable")

	// ErrEmbeddingService indicates the embedding service returned a non-success response.
	// Recorded per item.
	ErrEmbeddingService = errors.New("embedding service error")

	// ErrVectorUpsert indicates a single record could not be written to the vector store.
	// Recorded per item.
	ErrVectorUpsert = errors.New("vector upsert failed")

	// ErrIndexCleanupFailed indicates a wipe step failed. Fatal, no writes happen after it.
	ErrIndexCleanupFailed = errors.New("index cleanup failed")

	// ErrRegistryUpdateFailed indicates the namespace registry row could not be written.
	ErrRegistryUpdateFailed = errors.New("namespace registry update failed")
)

// StageError reports the reindex stage at which a run failed.
type StageError struct {
	Stage ReindexStage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("reindex failed at stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// TeardownError reports the teardown step that failed. Cascade is set when the
// failure happened inside the relational cascade.
type TeardownError struct {
	Step    TeardownStep
	Cascade CascadeStep
	Err     error
}

func (e *TeardownError) Error() string {
	if e.Cascade != "" {
		return fmt.Sprintf("teardown failed at step %s (%s): %v", e.Step, e.Cascade, e.Err)
	}
	return fmt.Sprintf("teardown failed at step %s: %v", e.Step, e.Err)
}

func (e *TeardownError) Unwrap() error {
	return e.Err
}

// FailedStage extracts the stage from a reindex error, or "" if err carries none.
func FailedStage(err error) ReindexStage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}

// FailedStep extracts the step from a teardown error, or "" if err carries none.
func FailedStep(err error) TeardownStep {
	var te *TeardownError
	if errors.As(err, &te) {
		return te.Step
	}
	return ""
}
