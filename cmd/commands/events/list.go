package events

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"nathanbeddoewebdev/eventwatch/internal/config"
	"nathanbeddoewebdev/eventwatch/internal/events/domain"
	"nathanbeddoewebdev/eventwatch/internal/events/providers"
	"nathanbeddoewebdev/eventwatch/internal/events/queue"
	eventstui "nathanbeddoewebdev/eventwatch/internal/events/tui"
	"nathanbeddoewebdev/eventwatch/internal/services/auth"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// interactive reports whether a spinner can be drawn. Tests replace it.
var interactive = func() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}

func ListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent account events",
		Long: `Fetch account events once and print them newest first.

--since accepts a timestamp (2024-05-01T12:00:00 or RFC 3339) or a
duration relative to now (e.g. 90m, 2h).

Examples:
  eventwatch events list
  eventwatch events list --provider hetzner --since 2h
  eventwatch events list --pages 3 -o json`,
		Args:         cobra.NoArgs,
		RunE:         runList,
		SilenceUsage: true,
	}

	cmd.Flags().String("provider", "", "Events provider (default from config, else linode)")
	cmd.Flags().String("since", "", "Only list events created after this time")
	cmd.Flags().Int("pages", 1, "Number of pages to read")
	cmd.Flags().Bool("in-progress", false, "Only list events that are still running")
	cmd.Flags().StringP("output", "o", "table", "Output format: table or json")

	return cmd
}

func runList(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")
	if output != "table" && output != "json" {
		return fmt.Errorf("unsupported output format %q", output)
	}

	pages, _ := cmd.Flags().GetInt("pages")
	if pages <= 0 {
		return fmt.Errorf("pages must be greater than 0")
	}

	sinceRaw, _ := cmd.Flags().GetString("since")
	since, err := parseSince(sinceRaw, time.Now())
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	providerName, _ := cmd.Flags().GetString("provider")
	providerName = config.StringOr(providerName, config.StringOr(cfg.DefaultProvider, "linode"))

	fetcher, err := providers.Get(providerName, auth.DefaultStore(), providers.Settings{BaseURL: cfg.APIURL})
	if err != nil {
		return err
	}

	req := domain.FetchRequest{Since: since, MaxPages: pages}
	var batch *domain.Batch
	if interactive() {
		batch, err = eventstui.FetchWithSpinner(cmd.Context(), cmd.ErrOrStderr(), fetcher, req)
	} else {
		batch, err = fetcher.FetchEvents(cmd.Context(), req)
	}
	if err != nil {
		return fmt.Errorf("failed to list events: %w", err)
	}

	events := queue.UniqueEvents(batch.Events)
	domain.SortByCreatedDesc(events)
	if onlyRunning, _ := cmd.Flags().GetBool("in-progress"); onlyRunning {
		events = filterInProgress(events)
	}

	if output == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(events)
	}

	if len(events) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No events found.")
		return nil
	}
	printEventsTable(cmd, events)
	return nil
}

// parseSince accepts a timestamp or a duration back from now. Empty means
// no bound.
func parseSince(raw string, now time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if d, err := time.ParseDuration(raw); err == nil {
		if d <= 0 {
			return time.Time{}, fmt.Errorf("--since duration must be positive")
		}
		return now.Add(-d).UTC().Truncate(time.Second), nil
	}
	ts, err := domain.ParseTimestamp(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --since %q: expected a timestamp or a duration", raw)
	}
	return ts.Time(), nil
}

func filterInProgress(events []domain.Event) []domain.Event {
	out := make([]domain.Event, 0, len(events))
	for _, e := range events {
		if domain.IsInProgress(e) {
			out = append(out, e)
		}
	}
	return out
}

func printEventsTable(cmd *cobra.Command, events []domain.Event) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED\tACTION\tENTITY\tSTATUS\tPROGRESS\tUSER")
	fmt.Fprintln(w, "--\t-------\t------\t------\t------\t--------\t----")

	for _, e := range events {
		user := e.Username
		if user == "" {
			user = "-"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			e.ID,
			e.Created.Time().Local().Format("2006-01-02 15:04:05"),
			e.Action,
			e.EntityLabel(),
			e.Status,
			formatPercent(e.PercentComplete),
			user,
		)
	}

	w.Flush()
}

func formatPercent(p *int) string {
	if p == nil {
		return "-"
	}
	return strconv.Itoa(*p) + "%"
}
