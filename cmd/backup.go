package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/chenguangwei/ominiclipper-all-sub003/cmd/config"
)

// NewBackupCmd manages library snapshots
func NewBackupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Manage library backups",
	}

	cmd.AddCommand(newBackupCreateCmd())
	cmd.AddCommand(newBackupListCmd())
	cmd.AddCommand(newBackupRestoreCmd())
	cmd.AddCommand(newBackupCleanupCmd())
	return cmd
}

func newBackupCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Snapshot the current library document",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := config.NewLogger()
			svc, err := config.InitService(logger)
			if err != nil {
				return err
			}
			defer svc.Close()

			doc, err := svc.Document()
			if err != nil {
				return fmt.Errorf("read library: %w", err)
			}

			backups, err := config.NewBackupManager(logger)
			if err != nil {
				return err
			}
			path, err := backups.Create(doc)
			if err != nil {
				return fmt.Errorf("create backup: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

func newBackupListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List backups, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			backups, err := config.NewBackupManager(config.NewLogger())
			if err != nil {
				return err
			}
			records, err := backups.List()
			if err != nil {
				return fmt.Errorf("list backups: %w", err)
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No backups found.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TIMESTAMP\tITEMS\tSIZE\tFILE")
			for _, r := range records {
				fmt.Fprintf(w, "%s\t%d\t%d\t%s\n",
					r.Timestamp.Format("2006-01-02 15:04:05"), r.ItemCount, r.Size, r.FileName)
			}
			return w.Flush()
		},
	}
}

func newBackupRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <file>",
		Short: "Restore the library from a backup file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := config.NewLogger()
			backups, err := config.NewBackupManager(logger)
			if err != nil {
				return err
			}
			doc, err := backups.Restore(args[0])
			if err != nil {
				return fmt.Errorf("restore backup: %w", err)
			}

			svc, err := config.InitService(logger)
			if err != nil {
				return err
			}
			defer svc.Close()

			if err := svc.ReplaceDocument(doc); err != nil {
				return fmt.Errorf("commit restored library: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored %d items from %s\n", len(doc.Items), args[0])
			return nil
		},
	}
}

func newBackupCleanupCmd() *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete old backups beyond the retention count",
		RunE: func(cmd *cobra.Command, args []string) error {
			if keep == 0 {
				keep = config.BackupKeepCount()
			}
			backups, err := config.NewBackupManager(config.NewLogger())
			if err != nil {
				return err
			}
			if err := backups.Cleanup(keep); err != nil {
				return fmt.Errorf("cleanup backups: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Kept the %d newest backups.\n", keep)
			return nil
		},
	}

	cmd.Flags().IntVar(&keep, "keep", 0, "Number of backups to keep (default from config)")
	return cmd
}
