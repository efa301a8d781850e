// Package snapkeep provides the public Go library API for snapkeep.
//
// snapkeep produces verified, rotated archival copies of a file or
// directory tree. This package wraps the internal engines for embedding
// snapkeep in other Go programs.
//
// # Basic usage
//
//	client := snapkeep.New(snapkeep.Options{
//	    DestDir: "/var/backups",
//	    Compress: true,
//	})
//
//	result, err := client.Backup(ctx, "/var/log/myapp")
//	if err != nil {
//	    // result still carries the per-attempt outcomes
//	}
package snapkeep

import (
	"context"
	"time"

	"github.com/juju/clock"

	"github.com/bianoble/snapkeep/internal/archive"
	"github.com/bianoble/snapkeep/internal/auditlog"
	"github.com/bianoble/snapkeep/internal/engine"
	"github.com/bianoble/snapkeep/internal/verify"
)

// Options configures a snapkeep Client.
type Options struct {
	// DestDir is the directory archives are written to.
	DestDir string

	// Compress selects gzip-compressed artifacts.
	Compress bool

	// MaxRetries is the number of retries after the initial attempt.
	// Zero means a single attempt with no retries.
	MaxRetries int

	// Keep is the number of archives retained after a verified success.
	// Zero means the default of 7.
	Keep int

	// Delay is the wait between attempts. Zero means the default of 5s.
	Delay time.Duration

	// LogPath is the CSV audit log location.
	// Empty means ./logs/backup_log.csv.
	LogPath string

	// Clock overrides the wall clock, for tests.
	Clock clock.Clock
}

// Client runs verified backups and unverified restores.
type Client struct {
	opts Options
	eng  *engine.BackupEngine
}

// New creates a snapkeep Client.
func New(opts Options) *Client {
	if opts.Keep == 0 {
		opts.Keep = engine.DefaultKeep
	}
	if opts.Delay == 0 {
		opts.Delay = engine.DefaultDelay
	}
	return &Client{
		opts: opts,
		eng: &engine.BackupEngine{
			Archiver: &archive.Archiver{},
			Verifier: &verify.Verifier{},
			Log:      auditlog.New(opts.LogPath),
			Clock:    opts.Clock,
		},
	}
}

// Backup archives source into the configured destination, verifies the
// result and rotates old archives. The RunResult is returned even when
// the run fails, so callers can inspect the attempt outcomes.
func (c *Client) Backup(ctx context.Context, source string) (*RunResult, error) {
	return c.eng.Run(ctx, source, c.opts.DestDir, engine.RunOptions{
		Compress:   c.opts.Compress,
		MaxRetries: c.opts.MaxRetries,
		Keep:       c.opts.Keep,
		Delay:      c.opts.Delay,
	})
}

// Restore extracts an archive into targetDir with no verification.
func (c *Client) Restore(archivePath, targetDir string) error {
	return archive.Restore(archivePath, targetDir)
}
