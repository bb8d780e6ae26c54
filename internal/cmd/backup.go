package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrison/baseline/internal/store"
)

// NewBackupCommand creates the backup command group.
func NewBackupCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Back up and restore the local database",
	}
	cmd.AddCommand(newBackupCreateCommand())
	cmd.AddCommand(newBackupRestoreCommand())
	return cmd
}

func newBackupCreateCommand() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Write all clients and sessions to a JSON backup file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, s, cleanup, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			backup, err := s.CreateBackup(cmd.Context())
			if err != nil {
				return err
			}

			path := out
			if path == "" {
				path = filepath.Join(cfg.ExportDir,
					fmt.Sprintf("baseline-backup-%s.json", time.Now().Format("20060102-150405")))
			}
			if err := store.WriteBackupFile(path, backup); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Backed up %d clients and %d sessions to %s\n",
				len(backup.Clients), len(backup.Sessions), path)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "backup file path (default: export dir)")
	return cmd
}

func newBackupRestoreCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <backup-file>",
		Short: "Restore clients and sessions from a backup file",
		Long: `Reads a backup envelope and re-upserts every record by id. Existing
records with matching ids are overwritten; records not present in the backup
are left untouched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, s, cleanup, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			backup, err := store.ReadBackupFile(args[0])
			if err != nil {
				return err
			}
			if err := s.RestoreBackup(cmd.Context(), backup); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored %d clients and %d sessions\n",
				len(backup.Clients), len(backup.Sessions))
			return nil
		},
	}
}
