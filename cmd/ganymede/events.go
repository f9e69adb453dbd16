package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"mercator-hq/ganymede/pkg/events"
	"mercator-hq/ganymede/pkg/events/storage"

	"github.com/spf13/cobra"
)

var (
	eventsDB    string
	eventsKind  string
	eventsSince time.Duration
	eventsLimit int
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Query the journaled pool events",
	Long: `Query the SQLite event journal written by a manager configured with the
sqlite events backend. Events are printed newest first.`,
	RunE: runEvents,
}

func init() {
	eventsCmd.Flags().StringVar(&eventsDB, "db", "data/events.db", "path to the event journal database")
	eventsCmd.Flags().StringVar(&eventsKind, "kind", "", "filter by event kind (proxy_selected, proxy_failed, dispatch_exhausted, probe_result, health_tick)")
	eventsCmd.Flags().DurationVar(&eventsSince, "since", 0, "only events newer than this age, e.g. 1h")
	eventsCmd.Flags().IntVar(&eventsLimit, "limit", 50, "maximum number of events to print")
	rootCmd.AddCommand(eventsCmd)
}

func runEvents(cmd *cobra.Command, args []string) error {
	backend, err := storage.NewSQLiteStorage(storage.SQLiteConfig{Path: eventsDB})
	if err != nil {
		return err
	}
	defer backend.Close()

	q := &events.Query{
		Kind:  events.Kind(eventsKind),
		Limit: eventsLimit,
	}
	if eventsSince > 0 {
		q.Since = time.Now().Add(-eventsSince)
	}

	records, err := backend.Query(cmd.Context(), q)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tKIND\tDETAILS")
	for _, ev := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\n",
			ev.Time.Format(time.RFC3339),
			ev.Kind,
			formatDetails(ev.Details),
		)
	}
	return w.Flush()
}

func formatDetails(details map[string]string) string {
	if len(details) == 0 {
		return "-"
	}
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%s", k, details[k]))
	}
	return strings.Join(pairs, " ")
}
