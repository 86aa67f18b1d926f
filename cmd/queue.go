package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/chenguangwei/ominiclipper-all-sub003/cmd/config"
	"github.com/chenguangwei/ominiclipper-all-sub003/pkg/bridge"
	"github.com/chenguangwei/ominiclipper-all-sub003/pkg/queue"
)

// NewQueueCmd manages the capture agent's outbound sync queue
func NewQueueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Manage the capture sync queue",
	}

	cmd.AddCommand(newQueueListCmd())
	cmd.AddCommand(newQueueRunCmd())
	cmd.AddCommand(newQueueRetryCmd())
	cmd.AddCommand(newQueueClearCmd())
	return cmd
}

func newQueueListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show queued captures, oldest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := queue.New(config.QueuePath())
			items, err := q.Items()
			if err != nil {
				return fmt.Errorf("read queue: %w", err)
			}
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTATUS\tRETRIES\tQUEUED\tLAST ERROR")
			for _, item := range items {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
					item.ID, item.Status, item.RetryCount,
					item.QueuedAt.Format("2006-01-02 15:04:05"), item.LastError)
			}
			return w.Flush()
		},
	}
}

func newQueueRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Attempt delivery of all pending captures",
		RunE: func(cmd *cobra.Command, args []string) error {
			portFile, err := bridge.DefaultPortFilePath()
			if err != nil {
				return err
			}

			q := queue.New(config.QueuePath())
			deliverer := queue.NewHTTPDeliverer(portFile)
			scheduler := queue.NewScheduler(q, deliverer, config.QueueConfig(),
				logrus.NewEntry(config.NewLogger()))

			delivered, err := scheduler.ProcessOnce()
			if err != nil {
				return fmt.Errorf("process queue: %w", err)
			}
			remaining, err := q.Len()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Delivered %d, %d remaining.\n", delivered, remaining)
			return nil
		},
	}
}

func newQueueRetryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "retry <id>",
		Short: "Re-arm a failed capture for delivery",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := queue.New(config.QueuePath())
			if err := q.Retry(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Entry %s is pending again.\n", args[0])
			return nil
		},
	}
}

func newQueueClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Drop every queued capture",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := queue.New(config.QueuePath())
			if err := q.Clear(); err != nil {
				return fmt.Errorf("clear queue: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Queue cleared.")
			return nil
		},
	}
}
