// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/clause-engine/internal/shard"
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Concatenate numbered worker outputs into single files",
	Long: `Collect appends candidates0.ltmp, candidates1.ltmp, ... into candidates.ltmp
and does the same for the events and opinions files. The worker count is
taken from --workers or, when zero, from the consecutive worker files found
in the output directory. With --db the collected events are also ingested
into the event store.`,
	RunE: runCollect,
}

func runCollect(cmd *cobra.Command, args []string) error {
	out := outputConfig()
	workers, _ := cmd.Flags().GetInt("workers")
	if workers <= 0 {
		for _, kind := range shard.Kinds {
			workers = max(workers, shard.CountWorkers(out.Dir, kind))
		}
	}
	if workers == 0 {
		return fmt.Errorf("no worker output found in %s", out.Dir)
	}

	summary, err := shard.Collect(out.Dir, workers, os.Stdout)
	if err != nil {
		return err
	}
	fmt.Printf("Collected %d files from %d workers (%d missing)\n", summary.Files, workers, summary.Missing)

	if cfg := storeConfig(); cfg.Path != "" {
		return ingestEvents(context.Background(), cfg, shard.OutputPath(out.Dir, shard.KindEvents, -1))
	}
	return nil
}

func init() {
	collectCmd.Flags().String("output-dir", ".", "directory holding the worker files")
	collectCmd.Flags().Int("workers", 0, "number of workers (0 counts the worker files)")
	collectCmd.Flags().String("db", "", "ingest the collected events into this SQLite event store")

	rootCmd.AddCommand(collectCmd)
}
