package engine

import (
	"fmt"

	"github.com/bianoble/snapkeep/internal/archive"
)

// AttemptStatus classifies the outcome of one create+verify attempt.
type AttemptStatus string

const (
	// StatusSuccess means the archive was created and verified.
	StatusSuccess AttemptStatus = "success"
	// StatusVerificationFailed means the archive was created but its
	// content diverges from the source.
	StatusVerificationFailed AttemptStatus = "verification_failed"
	// StatusError means creation or verification failed outright.
	StatusError AttemptStatus = "error"
)

// AttemptOutcome records one attempt of the retry loop. Immutable once
// emitted.
type AttemptOutcome struct {
	Attempt     int
	ArchivePath string // empty if archive creation failed
	Status      AttemptStatus
	Message     string
}

// RunResult holds the outcome of a backup run. It is populated even when
// the run fails, so callers can inspect every attempt.
type RunResult struct {
	Archive  *archive.Archive // nil unless the run succeeded
	Outcomes []AttemptOutcome
	Rotated  []string // names deleted by retention after success
}

// ExhaustedError is the terminal state after every attempt failed. It is
// a normal outcome for the caller to surface as a failed run, not a
// crash.
type ExhaustedError struct {
	Source   string
	Attempts int
	LastErr  error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("backup of %s failed after %d attempt(s): %v", e.Source, e.Attempts, e.LastErr)
}

func (e *ExhaustedError) Unwrap() error {
	return e.LastErr
}
