// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/clause-engine/internal/conll"
	"github.com/pdiddy/clause-engine/internal/shard"
	"github.com/pdiddy/clause-engine/pkg/types"
)

var parallelCmd = &cobra.Command{
	Use:   "parallel [corpus-dir]",
	Short: "Run extract over the corpus in parallel worker processes",
	Long: `Parallel splits the sorted shard list into groups of --files-per-process
shards and starts one extract worker per group. Every worker writes its own
numbered files (candidates3.ltmp, events3.ltmp). When all workers have exited
the numbered files are concatenated in worker order into candidates.ltmp,
events.ltmp and opinions.ltmp.

A failed worker does not stop the others; the run reports it and exits with
an error after collecting. With --db the collected events are ingested into
the event store.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runParallel,
}

func runParallel(cmd *cobra.Command, args []string) error {
	cfg, err := extractConfig()
	if err != nil {
		return err
	}
	if len(args) > 0 {
		cfg.Corpus.Dir = args[0]
	}
	if cfg.Corpus.Dir == "" {
		return fmt.Errorf("no corpus directory: pass --corpus or set corpus.dir")
	}
	pc := parallelConfig()
	maxParallel, _ := cmd.Flags().GetInt("max-parallel")

	shards, err := conll.ListShards(cfg.Corpus.Dir, conll.ShardRange{})
	if err != nil {
		return err
	}
	if len(shards) == 0 {
		return fmt.Errorf("no shards in %s", cfg.Corpus.Dir)
	}
	assignments := shard.Partition(len(shards), pc.FilesPerProcess)

	if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := shard.Clean(cfg.Output.Dir, len(assignments)); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sup := &shard.Supervisor{
		Binary:       pc.Binary,
		Args:         workerBaseArgs(cmd, cfg),
		MaxParallel:  maxParallel,
		PollInterval: pc.PollInterval,
		Stdout:       os.Stdout,
		Stderr:       os.Stderr,
		Log:          logger,
	}
	logger.Info("parallel run started",
		zap.Int("shards", len(shards)),
		zap.Int("workers", len(assignments)),
		zap.Int("max_parallel", maxParallel),
	)

	result, err := sup.Run(ctx, assignments)
	if err != nil {
		return fmt.Errorf("parallel run interrupted: %w", err)
	}

	if _, err := shard.Collect(cfg.Output.Dir, len(assignments), os.Stdout); err != nil {
		return err
	}
	if cfg.Store.Path != "" {
		events := shard.OutputPath(cfg.Output.Dir, shard.KindEvents, -1)
		if err := ingestEvents(ctx, cfg.Store, events); err != nil {
			return err
		}
	}

	if result.HasFailures() {
		return fmt.Errorf("%d of %d workers failed", result.Failed(), len(result.Workers))
	}
	return nil
}

// workerBaseArgs is the extract command line shared by every worker. The
// supervisor appends the shard range and worker number. Workers never get
// the event store; the collected events are ingested once at the end.
func workerBaseArgs(cmd *cobra.Command, cfg types.ExtractConfig) []string {
	args := []string{"extract",
		"--corpus", cfg.Corpus.Dir,
		"--output-dir", cfg.Output.Dir,
		"--log-level", viper.GetString("log.level"),
		"--log-format", viper.GetString("log.format"),
	}
	if cfg.Lexicon.Triggers != "" {
		args = append(args, "--triggers", cfg.Lexicon.Triggers)
	}
	if cfg.Lexicon.GFBF != "" {
		args = append(args, "--gfbf", cfg.Lexicon.GFBF)
	}
	if p := viper.GetString("pipeline_file"); p != "" {
		args = append(args, "--pipeline", p)
	}
	if allow, _ := cmd.Flags().GetBool("allow-subject-only"); allow {
		args = append(args, "--allow-subject-only")
	}
	if cfgFile, _ := cmd.Flags().GetString("config"); cfgFile != "" {
		args = append(args, "--config", cfgFile)
	}
	return args
}

func init() {
	// Worker flags, passed through to every extract worker.
	parallelCmd.Flags().String("corpus", "", "directory of parsed corpus shards")
	parallelCmd.Flags().String("triggers", "", "trigger lexicon file")
	parallelCmd.Flags().String("gfbf", "", "GFBF event lexicon; enables opinion output")
	parallelCmd.Flags().String("output-dir", ".", "directory for worker and collected output files")
	parallelCmd.Flags().String("pipeline", "", "YAML pipeline spec replacing the default stage chain")
	parallelCmd.Flags().Bool("allow-subject-only", false, "accept tuples without an object")

	// Supervisor flags.
	parallelCmd.Flags().Int("files-per-process", shard.DefaultFilesPerProcess, "shards per worker process")
	parallelCmd.Flags().Int("max-parallel", 0, "maximum concurrently running workers (0 for all)")
	parallelCmd.Flags().String("binary", "", "worker executable (default: this binary)")
	parallelCmd.Flags().Duration("poll-interval", 0, "how often the number of live workers is logged")
	parallelCmd.Flags().String("db", "", "ingest the collected events into this SQLite event store")

	rootCmd.AddCommand(parallelCmd)
}
