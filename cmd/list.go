package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/chenguangwei/ominiclipper-all-sub003/cmd/config"
	"github.com/chenguangwei/ominiclipper-all-sub003/pkg/models"
)

// NewListCmd lists library items
func NewListCmd() *cobra.Command {
	var (
		folderID   string
		listJSON   bool
		searchTerm string
	)

	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List library items",
		Aliases: []string{"ls"},
		Long: `List library items.

Examples:
  omniclipper list                   # All items
  omniclipper list --folder starred  # Starred items
  omniclipper list --folder trash    # Trashed items
  omniclipper list --search golang   # Full-text search`,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := config.InitService(config.NewLogger())
			if err != nil {
				return fmt.Errorf("initialize service: %w", err)
			}
			defer svc.Close()

			var items []models.ResourceItem
			if searchTerm != "" {
				items, err = svc.Search(searchTerm, 50)
			} else {
				items, err = svc.ListItems(folderID)
			}
			if err != nil {
				return fmt.Errorf("list items: %w", err)
			}

			if listJSON {
				data, err := json.MarshalIndent(items, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}

			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No items found.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTYPE\tTITLE\tFOLDER\tUPDATED")
			for _, item := range items {
				star := ""
				if item.IsStarred {
					star = "* "
				}
				fmt.Fprintf(w, "%s\t%s\t%s%s\t%s\t%s\n",
					item.ID, item.Type, star, item.Title, item.FolderID,
					item.UpdatedAt.Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&folderID, "folder", models.FolderAll, "Folder view to list")
	cmd.Flags().BoolVar(&listJSON, "json", false, "Output as JSON")
	cmd.Flags().StringVar(&searchTerm, "search", "", "Full-text search instead of a folder view")
	return cmd
}
