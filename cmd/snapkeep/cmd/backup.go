package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bianoble/snapkeep/internal/archive"
	"github.com/bianoble/snapkeep/internal/auditlog"
	"github.com/bianoble/snapkeep/internal/engine"
	"github.com/bianoble/snapkeep/internal/verify"
)

var (
	backupSource   string
	backupDest     string
	backupCompress bool
	backupRetries  int
	backupKeep     int
	backupDelay    int
	backupLogfile  string
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Create a verified backup and rotate old archives",
	Long: `Archives the source into the destination directory, verifies the archive
by extracting it and comparing content digests against the source, and
retries on failure with a fixed delay. After a verified success, archives
beyond the retention count are deleted, most recent kept first. Every
attempt is recorded in the audit log.

Exits nonzero when all attempts are exhausted without a verified backup.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		// Flags win over config file values; config wins over defaults.
		if !cmd.Flags().Changed("compress") {
			backupCompress = cfg.Compress
		}
		if !cmd.Flags().Changed("retries") {
			backupRetries = cfg.Retries
		}
		if !cmd.Flags().Changed("keep") {
			backupKeep = cfg.Keep
		}
		if !cmd.Flags().Changed("delay") {
			backupDelay = cfg.DelaySeconds
		}
		if !cmd.Flags().Changed("logfile") {
			backupLogfile = cfg.Logfile
		}
		if backupSource == "" {
			backupSource = cfg.Source
		}
		if backupDest == "" {
			backupDest = cfg.Dest
		}

		if backupSource == "" {
			return fmt.Errorf("a source is required (--source or the config file)")
		}
		if backupDest == "" {
			return fmt.Errorf("a destination is required (--dest or the config file)")
		}

		eng := &engine.BackupEngine{
			Archiver: &archive.Archiver{},
			Verifier: &verify.Verifier{},
			Log:      auditlog.New(backupLogfile),
		}

		opts := engine.RunOptions{
			Compress:   backupCompress,
			MaxRetries: backupRetries,
			Keep:       backupKeep,
			Delay:      time.Duration(backupDelay) * time.Second,
			OnAttempt: func(o engine.AttemptOutcome) {
				switch o.Status {
				case engine.StatusSuccess:
					info("Backup verified successfully: %s", o.ArchivePath)
				case engine.StatusVerificationFailed:
					info("Attempt %d: verification failed", o.Attempt)
				default:
					errorf("attempt %d: %s", o.Attempt, o.Message)
				}
			},
		}

		result, err := eng.Run(cmd.Context(), backupSource, backupDest, opts)
		if result != nil {
			for _, name := range result.Rotated {
				detail("rotated out %s", name)
			}
		}
		return err
	},
}

func init() {
	backupCmd.Flags().StringVar(&backupSource, "source", "", "file or directory to back up")
	backupCmd.Flags().StringVar(&backupDest, "dest", "", "destination directory for archives")
	backupCmd.Flags().BoolVar(&backupCompress, "compress", false, "gzip-compress the archive")
	backupCmd.Flags().IntVar(&backupRetries, "retries", engine.DefaultMaxRetries, "retries after the initial attempt")
	backupCmd.Flags().IntVar(&backupKeep, "keep", engine.DefaultKeep, "archives to retain after a verified success")
	backupCmd.Flags().IntVar(&backupDelay, "delay", int(engine.DefaultDelay/time.Second), "seconds to wait between attempts")
	backupCmd.Flags().StringVar(&backupLogfile, "logfile", auditlog.DefaultPath, "path to the CSV audit log")
	rootCmd.AddCommand(backupCmd)
}
