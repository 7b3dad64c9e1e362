package notifications

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"nathanbeddoewebdev/eventwatch/internal/notifylog"

	"github.com/spf13/cobra"
)

func ListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent completion notifications",
		Long: `List recent completion notifications stored locally, newest first.

Examples:
  eventwatch notifications list
  eventwatch notifications list --limit 50
  eventwatch notifications list --action linode_reboot
  eventwatch notifications list -o json`,
		RunE:         runList,
		SilenceUsage: true,
	}

	cmd.Flags().Int("limit", 25, "Number of entries to display")
	cmd.Flags().String("action", "", "Filter by exact event action")
	cmd.Flags().StringP("output", "o", "table", "Output format: table or json")

	return cmd
}

func runList(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	if limit <= 0 {
		return fmt.Errorf("limit must be greater than 0")
	}

	action, _ := cmd.Flags().GetString("action")
	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		output = "table"
	}
	if output != "table" && output != "json" {
		return fmt.Errorf("unsupported output format %q", output)
	}

	repo, err := openRepo()
	if err != nil {
		return err
	}
	defer repo.Close()

	var records []notifylog.Record
	if action != "" {
		records, err = repo.ListByAction(action, limit)
	} else {
		records, err = repo.List(limit)
	}
	if err != nil {
		return err
	}

	if output == "json" {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(records)
	}

	if len(records) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No notifications found.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NOTIFIED\tPROVIDER\tEVENT\tACTION\tENTITY\tSTATUS\tTOOK")
	fmt.Fprintln(w, "--------\t--------\t-----\t------\t------\t------\t----")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
			r.NotifiedAt.Local().Format("2006-01-02 15:04:05"),
			r.Provider,
			r.EventID,
			r.Action,
			r.Entity,
			r.Status,
			formatLag(r.NotifiedAt.Sub(r.CompletedAt)),
		)
	}
	w.Flush()
	return nil
}

// formatLag renders how long after completion a notification went out.
func formatLag(d time.Duration) string {
	if d < 0 {
		return "-"
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	return fmt.Sprintf("%dh", int(d.Hours()))
}
