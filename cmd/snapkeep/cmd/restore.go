package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bianoble/snapkeep/internal/archive"
)

var (
	restoreBackup string
	restoreTarget string
)

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Extract an archive without verification",
	Long: `Extracts the given archive fully into the target directory. No digest
comparison is performed: restore is intentionally simpler than the
verified backup path.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if restoreBackup == "" || restoreTarget == "" {
			return fmt.Errorf("restore requires both --backup and --target")
		}
		if err := archive.Restore(restoreBackup, restoreTarget); err != nil {
			return err
		}
		info("Restore completed.")
		return nil
	},
}

func init() {
	restoreCmd.Flags().StringVar(&restoreBackup, "backup", "", "path of the archive to restore")
	restoreCmd.Flags().StringVar(&restoreTarget, "target", "", "directory to extract into")
	rootCmd.AddCommand(restoreCmd)
}
