// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/clause-engine/internal/conll"
	"github.com/pdiddy/clause-engine/internal/pipeline"
	"github.com/pdiddy/clause-engine/internal/stages"
)

var detectCmd = &cobra.Command{
	Use:   "detect [file-or-dir]",
	Short: "Count sentences with a single subject and no personal pronoun",
	Long: `Detect is the first-pass sentence filter. It reads one shard file or every
shard of a corpus directory and counts the sentences that have at most one
subject and no personal pronoun.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDetect,
}

func runDetect(cmd *cobra.Command, args []string) error {
	path := viper.GetString("corpus.dir")
	if len(args) > 0 {
		path = args[0]
	}
	if path == "" {
		return fmt.Errorf("no input: pass a shard file or corpus directory")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chain, err := stages.Build(stages.DetectSpec(), stages.Deps{Log: logger})
	if err != nil {
		return err
	}
	proc := pipeline.New(chain.Stages, pipeline.WithLogger(logger))
	handle := func(s conll.Sentence) bool {
		return proc.Process(ctx, pipeline.Item{Shard: s.Shard, Sentence: s.Index, Forest: s.Forest})
	}
	onMalformed := func(name string, err error) {
		logger.Warn("malformed block skipped", zap.String("shard", name), zap.Error(err))
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	if info.IsDir() {
		opts := conll.WalkOptions{
			OnMalformed: onMalformed,
			OnShardError: func(name string, err error) {
				logger.Warn("shard abandoned", zap.String("shard", name), zap.Error(err))
			},
		}
		_, err = conll.Walk(ctx, path, opts, handle)
	} else {
		err = detectFile(path, onMalformed, handle)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Sentence Count: %d\tSuccesses: %d\n",
		chain.Count(stages.CounterSentences), chain.Count(stages.CounterSuccesses))
	return nil
}

func detectFile(path string, onMalformed func(string, error), h conll.Handler) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	r, err := conll.OpenStream(f)
	if err != nil {
		return err
	}
	defer r.Close()

	var summary conll.WalkSummary
	return conll.Stream(r, filepath.Base(path), onMalformed, h, &summary)
}

func init() {
	detectCmd.Flags().String("corpus", "", "corpus directory, used when no argument is given")

	rootCmd.AddCommand(detectCmd)
}
