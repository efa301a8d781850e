package snapkeep

import (
	"github.com/bianoble/snapkeep/internal/archive"
	"github.com/bianoble/snapkeep/internal/engine"
)

// Type aliases re-export internal result types as the public API.

type Archive = archive.Archive
type Format = archive.Format
type AttemptStatus = engine.AttemptStatus
type AttemptOutcome = engine.AttemptOutcome
type RunResult = engine.RunResult
type ExhaustedError = engine.ExhaustedError

const (
	StatusSuccess            = engine.StatusSuccess
	StatusVerificationFailed = engine.StatusVerificationFailed
	StatusError              = engine.StatusError
)
