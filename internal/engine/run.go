// Package engine drives the create, verify, retry, rotate pipeline.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/juju/clock"
	"github.com/juju/retry"

	"github.com/bianoble/snapkeep/internal/archive"
	"github.com/bianoble/snapkeep/internal/auditlog"
	"github.com/bianoble/snapkeep/internal/rotate"
)

// Defaults for the reference pipeline behavior.
const (
	DefaultMaxRetries = 2
	DefaultKeep       = 7
	DefaultDelay      = 5 * time.Second
)

// Archiver creates one artifact per call.
type Archiver interface {
	Create(source, destDir string, compress bool) (*archive.Archive, error)
}

// Verifier proves an artifact reproduces its source.
type Verifier interface {
	Verify(source string, art *archive.Archive) (bool, error)
}

// Recorder appends attempt records to the audit log.
type Recorder interface {
	Record(e auditlog.Entry) error
}

// errMismatch carries a verification-false result through the retry loop
// so mismatches share the attempt budget with real errors.
var errMismatch = errors.New("checksum mismatch")

// BackupEngine runs archive attempts under a bounded retry budget. It is
// the single place that converts errors and verification mismatches into
// attempt outcomes; the leaf components only surface them.
type BackupEngine struct {
	Archiver Archiver
	Verifier Verifier
	Log      Recorder
	Clock    clock.Clock // nil means the wall clock
}

// RunOptions configures one backup run.
type RunOptions struct {
	Compress   bool
	MaxRetries int           // retries after the initial attempt
	Keep       int           // archives retained after success
	Delay      time.Duration // wait between attempts

	// OnAttempt, if set, observes each outcome as it is emitted.
	OnAttempt func(AttemptOutcome)
}

// Run executes up to MaxRetries+1 create+verify attempts against source,
// emitting exactly one outcome per attempt to the audit log. Retention is
// applied only after a verified success. Exhausting the budget returns a
// *ExhaustedError; the RunResult is returned in every case.
func (b *BackupEngine) Run(ctx context.Context, source, destDir string, opts RunOptions) (*RunResult, error) {
	if opts.MaxRetries < 0 {
		return nil, fmt.Errorf("max retries must be >= 0, got %d", opts.MaxRetries)
	}
	clk := b.Clock
	if clk == nil {
		clk = clock.WallClock
	}
	delay := opts.Delay
	if delay <= 0 {
		// retry.Call needs a positive delay.
		delay = time.Millisecond
	}

	result := &RunResult{}
	var logErr error

	emit := func(o AttemptOutcome) {
		result.Outcomes = append(result.Outcomes, o)
		status := auditlog.StatusFailure
		if o.Status == StatusSuccess {
			status = auditlog.StatusSuccess
		}
		err := b.Log.Record(auditlog.Entry{
			Timestamp:  clk.Now(),
			Source:     source,
			BackupPath: o.ArchivePath,
			Status:     status,
			Attempt:    o.Attempt,
			Message:    o.Message,
		})
		if err != nil && logErr == nil {
			logErr = err
		}
		if opts.OnAttempt != nil {
			opts.OnAttempt(o)
		}
	}

	attempt := 0
	lastPath := ""
	callErr := retry.Call(retry.CallArgs{
		Clock:    clk,
		Delay:    delay,
		Attempts: opts.MaxRetries + 1,
		Stop:     ctx.Done(),
		Func: func() error {
			attempt++
			lastPath = ""
			art, err := b.Archiver.Create(source, destDir, opts.Compress)
			if err != nil {
				return err
			}
			lastPath = art.Path
			ok, err := b.Verifier.Verify(source, art)
			if err != nil {
				return err
			}
			if !ok {
				return errMismatch
			}
			result.Archive = art
			emit(AttemptOutcome{Attempt: attempt, ArchivePath: art.Path, Status: StatusSuccess})
			return nil
		},
		NotifyFunc: func(lastError error, n int) {
			o := AttemptOutcome{
				Attempt:     n,
				ArchivePath: lastPath,
				Status:      StatusError,
				Message:     lastError.Error(),
			}
			if errors.Is(lastError, errMismatch) {
				o.Status = StatusVerificationFailed
			}
			emit(o)
		},
	})

	switch {
	case callErr == nil:
	case retry.IsRetryStopped(callErr):
		return result, fmt.Errorf("backup of %s cancelled: %w", source, ctx.Err())
	default:
		return result, &ExhaustedError{Source: source, Attempts: attempt, LastErr: retry.LastError(callErr)}
	}

	// Retention runs only after a verified success. A rotation failure is
	// not fixable by archiving again, so it stays outside the retry loop.
	rotated, err := rotate.Apply(destDir, opts.Keep)
	result.Rotated = rotated
	if err != nil {
		return result, fmt.Errorf("rotating backups in %s: %w", destDir, err)
	}

	if logErr != nil {
		return result, fmt.Errorf("recording audit log: %w", logErr)
	}
	return result, nil
}
