// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/clause-engine/internal/store"
	"github.com/pdiddy/clause-engine/pkg/types"
)

const defaultDB = "events.db"

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Manage the event store (ingest, tally, runs)",
	Long: `Events manages a local SQLite store of trigger/event pairs. Events files
written by extract or collect are ingested line by line; tally aggregates
the positive and negative counts of every event lemma.`,
}

// --- ingest subcommand ---

var eventsIngestCmd = &cobra.Command{
	Use:   "ingest <events-file>...",
	Short: "Load events files into the event store",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runEventsIngest,
}

func runEventsIngest(cmd *cobra.Command, args []string) error {
	cfg := storeConfig()
	for _, path := range args {
		if err := ingestEvents(context.Background(), cfg, path); err != nil {
			return err
		}
	}
	return nil
}

// ingestEvents stores every line of an events file as one run.
func ingestEvents(ctx context.Context, cfg types.StoreConfig, path string) error {
	st, err := store.Open(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening events file: %w", err)
	}
	defer f.Close()

	summary, err := st.IngestLines(ctx, f, filepath.Base(path), os.Stdout)
	if err != nil {
		return err
	}
	fmt.Printf("Stored %d events from %s (%d skipped), run %s\n",
		summary.Stored, path, summary.Skipped, summary.RunID)
	return nil
}

// --- tally subcommand ---

var eventsTallyCmd = &cobra.Command{
	Use:   "tally",
	Short: "Count positive and negative occurrences per event lemma",
	Long: `Tally groups the stored events by event lemma and prints how often each
appeared with a positive and a negative trigger, plus the dominant sign.
Events seen fewer than --min-count times are left out.

With --export the tally is also written to a YAML or JSON file, chosen by
--format or by the file extension.`,
	RunE: runEventsTally,
}

func runEventsTally(cmd *cobra.Command, args []string) error {
	cfg := storeConfig()
	exportPath, _ := cmd.Flags().GetString("export")
	format, _ := cmd.Flags().GetString("format")

	st, err := store.Open(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	tallies, err := st.Tally(ctx, cfg.MinCount)
	if err != nil {
		return err
	}
	fmt.Printf("%-24s %8s %8s  %s\n", "EVENT", "POS", "NEG", "DOM")
	for _, t := range tallies {
		fmt.Printf("%-24s %8d %8d  %s\n", t.Event, t.Positive, t.Negative, t.Dominant)
	}
	fmt.Printf("%d events\n", len(tallies))

	if exportPath == "" {
		return nil
	}
	if format == "" {
		format = strings.TrimPrefix(filepath.Ext(exportPath), ".")
	}
	switch format {
	case "yaml", "yml":
		err = st.ExportYAML(ctx, exportPath, cfg.MinCount)
	case "json":
		err = st.ExportJSON(ctx, exportPath, cfg.MinCount)
	default:
		return fmt.Errorf("unknown export format %q (want yaml or json)", format)
	}
	if err != nil {
		return err
	}
	fmt.Printf("Exported to %s\n", exportPath)
	return nil
}

// --- runs subcommand ---

var eventsRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List the runs recorded in the event store",
	RunE:  runEventsRuns,
}

func runEventsRuns(cmd *cobra.Command, args []string) error {
	st, err := store.Open(storeConfig())
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.Runs(context.Background())
	if err != nil {
		return err
	}
	for _, r := range runs {
		fmt.Printf("%s  %s  worker %d  %s\n",
			r.ID, r.StartedAt.Format("2006-01-02 15:04:05"), r.WorkerID, r.Source)
	}
	return nil
}

func init() {
	eventsCmd.PersistentFlags().String("db", defaultDB, "SQLite event store")

	eventsTallyCmd.Flags().Int("min-count", store.DefaultMinCount, "leave out events seen fewer times")
	eventsTallyCmd.Flags().String("export", "", "also write the tally to this file")
	eventsTallyCmd.Flags().String("format", "", "export format: yaml or json (default from the file extension)")

	eventsCmd.AddCommand(eventsIngestCmd)
	eventsCmd.AddCommand(eventsTallyCmd)
	eventsCmd.AddCommand(eventsRunsCmd)
	rootCmd.AddCommand(eventsCmd)
}
