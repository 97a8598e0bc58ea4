// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gosuri/uiprogress"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/clause-engine/internal/conll"
	"github.com/pdiddy/clause-engine/internal/lexicon"
	"github.com/pdiddy/clause-engine/internal/metrics"
	"github.com/pdiddy/clause-engine/internal/pipeline"
	"github.com/pdiddy/clause-engine/internal/shard"
	"github.com/pdiddy/clause-engine/internal/stages"
	"github.com/pdiddy/clause-engine/internal/store"
	"github.com/pdiddy/clause-engine/pkg/types"
)

const defaultProgressEvery = 10000

var extractCmd = &cobra.Command{
	Use:   "extract [corpus-dir]",
	Short: "Extract candidate sentences and trigger events from corpus shards",
	Long: `Extract reads the shards of a parsed corpus, analyses every sentence into
a clause tuple and keeps complex sentences whose subject is a named entity and
whose predicate is in the trigger lexicon. Kept sentences are appended to
candidates.ltmp, their trigger/event pairs to events.ltmp and, when a GFBF
lexicon is given, opinion blocks to opinions.ltmp.

With --pid the file names carry the worker number (events3.ltmp); this is
how the parallel command runs its workers. --pipeline replaces the default
stage chain with one read from a YAML file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExtract,
}

func runExtract(cmd *cobra.Command, args []string) error {
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
	pipelineFile := viper.GetString("pipeline_file")
	customPipeline := pipelineFile != "" || len(cfg.Pipeline.Stages) > 0
	if cfg.Lexicon.Triggers == "" && !customPipeline {
		return fmt.Errorf("no trigger lexicon: pass --triggers or set lexicon.triggers")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shards, err := conll.ListShards(cfg.Corpus.Dir, shardRange(cfg.Corpus))
	if err != nil {
		return err
	}

	triggers, err := loadLexicon(cfg.Lexicon.Triggers)
	if err != nil {
		return err
	}
	gfbf, err := loadLexicon(cfg.Lexicon.GFBF)
	if err != nil {
		return err
	}

	m := metrics.New()
	deps := stages.Deps{
		Triggers: triggers,
		GFBF:     gfbf,
		Stdout:   os.Stdout,
		Metrics:  m,
		Log:      logger,
	}

	if cfg.Store.Path != "" {
		st, err := store.Open(cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()
		run, err := st.BeginRun(ctx, cfg.Corpus.Dir, cfg.Output.WorkerID)
		if err != nil {
			return err
		}
		deps.Sink = run
		logger.Info("recording events", zap.String("db", cfg.Store.Path), zap.String("run", run.Info().ID))
	}

	spec, err := resolveSpec(cmd, pipelineFile, cfg, deps)
	if err != nil {
		return err
	}

	outputs, err := openOutputs(cfg.Output, outputKinds(spec))
	if err != nil {
		return err
	}
	defer outputs.Close()
	outputs.attach(&deps)

	chain, err := stages.Build(spec, deps)
	if err != nil {
		return fmt.Errorf("building pipeline: %w", err)
	}

	proc := pipeline.New(chain.Stages,
		pipeline.WithLogger(logger),
		pipeline.WithFaultHandler(func(f *pipeline.StageFault) { m.Fault(f.Stage) }),
	)
	logger.Info("extract started",
		zap.String("corpus", cfg.Corpus.Dir),
		zap.Int("shards", len(shards)),
		zap.Int("worker", cfg.Output.WorkerID),
		zap.Strings("stages", proc.Stages()),
	)

	if cfg.Metrics.Addr != "" {
		go func() {
			if err := m.Serve(ctx, cfg.Metrics.Addr, logger); err != nil {
				logger.Error("metrics listener failed", zap.Error(err))
			}
		}()
	}

	opts := conll.WalkOptions{
		Range: shardRange(cfg.Corpus),
		OnMalformed: func(name string, err error) {
			m.Shard("malformed")
			logger.Warn("malformed block skipped", zap.String("shard", name), zap.Error(err))
		},
		OnShardError: func(name string, err error) {
			m.Shard("failed")
			logger.Warn("shard abandoned", zap.String("shard", name), zap.Error(err))
		},
	}

	var bar *uiprogress.Bar
	if !cfg.NoUI && len(shards) > 0 {
		uiprogress.Start()
		bar = uiprogress.AddBar(len(shards))
		bar.AppendCompleted()
		bar.PrependElapsed()
	}
	opts.OnShard = func(i, total int, name string) {
		m.Shard("read")
		logger.Debug("reading shard", zap.String("shard", name), zap.Int("index", i), zap.Int("total", total))
		if bar != nil && i > 0 {
			bar.Incr()
		}
	}

	summary, walkErr := conll.Walk(ctx, cfg.Corpus.Dir, opts, func(s conll.Sentence) bool {
		return proc.Process(ctx, pipeline.Item{Shard: s.Shard, Sentence: s.Index, Forest: s.Forest})
	})
	if bar != nil {
		_ = bar.Set(summary.Shards + summary.FailedShards)
		uiprogress.Stop()
	}

	if err := outputs.Flush(); err != nil {
		return err
	}

	stats := proc.Stats()
	fmt.Printf("Found %d candidates out of %d sentences\n",
		chain.Count(stages.CounterCandidates), chain.Count(stages.CounterSentences))
	fmt.Printf("Batch summary: %d shards, %d failed shards, %d sentences, %d empty, %d malformed, %d faulted\n",
		summary.Shards, summary.FailedShards, summary.Sentences, summary.Empty, summary.Malformed, stats.Faulted)

	if walkErr != nil && !errors.Is(walkErr, context.Canceled) {
		return walkErr
	}
	if ctx.Err() != nil {
		return fmt.Errorf("extract interrupted after %d shards", summary.Shards)
	}
	return nil
}

// resolveSpec returns the pipeline read from file, the inline pipeline of
// the config file, or the default chain shaped by the flags and the
// collaborators that are available.
func resolveSpec(cmd *cobra.Command, file string, cfg types.ExtractConfig, deps stages.Deps) (types.PipelineSpec, error) {
	allowSubjectOnly, _ := cmd.Flags().GetBool("allow-subject-only")
	if file != "" || len(cfg.Pipeline.Stages) > 0 {
		spec := cfg.Pipeline
		if file != "" {
			var err error
			if spec, err = stages.LoadSpec(file); err != nil {
				return types.PipelineSpec{}, err
			}
		}
		if cmd.Flags().Changed("allow-subject-only") {
			spec.AllowSubjectOnly = allowSubjectOnly
		}
		return spec, nil
	}

	printTuples, _ := cmd.Flags().GetBool("print")
	limit, _ := cmd.Flags().GetInt("limit")
	progressEvery, _ := cmd.Flags().GetInt("progress-every")
	if !cfg.NoUI {
		progressEvery = 0
	}

	return stages.DefaultSpec(stages.Features{
		Opinions:         deps.GFBF != nil,
		Record:           deps.Sink != nil,
		Print:            printTuples,
		ProgressEvery:    progressEvery,
		Limit:            limit,
		AllowSubjectOnly: allowSubjectOnly,
	}), nil
}

func shardRange(c types.CorpusConfig) conll.ShardRange {
	return conll.ShardRange{Start: c.StartShard, Count: c.MaxShards}
}

// loadLexicon loads the lexicon at path; an empty path yields nil.
func loadLexicon(path string) (*lexicon.Lexicon, error) {
	if path == "" {
		return nil, nil
	}
	lex, err := lexicon.Load(path)
	if err != nil {
		return nil, err
	}
	logger.Info("lexicon loaded", zap.String("path", path), zap.Int("entries", lex.Len()))
	return lex, nil
}

// outputFile is an append-mode output with a write buffer.
type outputFile struct {
	*bufio.Writer
	f *os.File
}

func openOutput(dir, kind string, pid int) (*outputFile, error) {
	path := shard.OutputPath(dir, kind, pid)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening output %s: %w", path, err)
	}
	return &outputFile{Writer: bufio.NewWriter(f), f: f}, nil
}

// writerKinds maps writer stages to the output kind they append to.
var writerKinds = map[types.StageKind]string{
	types.StageWriteCandidates: shard.KindCandidates,
	types.StageWriteEvents:     shard.KindEvents,
	types.StageWriteOpinions:   shard.KindOpinions,
}

// outputKinds returns the output kinds the writer stages of spec need.
func outputKinds(spec types.PipelineSpec) map[string]bool {
	kinds := make(map[string]bool)
	for _, ss := range spec.Stages {
		if kind, ok := writerKinds[ss.Kind]; ok {
			kinds[kind] = true
		}
	}
	return kinds
}

// workerOutputs holds the files one extract run appends to. A file is only
// created for the kinds some writer stage uses.
type workerOutputs struct {
	candidates *outputFile
	events     *outputFile
	opinions   *outputFile
}

func openOutputs(cfg types.OutputConfig, kinds map[string]bool) (*workerOutputs, error) {
	o := &workerOutputs{}
	if len(kinds) == 0 {
		return o, nil
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	targets := []struct {
		kind string
		dst  **outputFile
	}{
		{shard.KindCandidates, &o.candidates},
		{shard.KindEvents, &o.events},
		{shard.KindOpinions, &o.opinions},
	}
	for _, t := range targets {
		if !kinds[t.kind] {
			continue
		}
		f, err := openOutput(cfg.Dir, t.kind, cfg.WorkerID)
		if err != nil {
			o.Close()
			return nil, err
		}
		*t.dst = f
	}
	return o, nil
}

// attach hands the open files to deps. Nil files are left unset so the
// builder reports a writer stage without output.
func (o *workerOutputs) attach(deps *stages.Deps) {
	if o.candidates != nil {
		deps.Candidates = o.candidates
	}
	if o.events != nil {
		deps.Events = o.events
	}
	if o.opinions != nil {
		deps.Opinions = o.opinions
	}
}

func (o *workerOutputs) files() []*outputFile {
	var out []*outputFile
	for _, f := range []*outputFile{o.candidates, o.events, o.opinions} {
		if f != nil {
			out = append(out, f)
		}
	}
	return out
}

// Flush writes buffered output to disk.
func (o *workerOutputs) Flush() error {
	for _, f := range o.files() {
		if err := f.Flush(); err != nil {
			return fmt.Errorf("flushing %s: %w", f.f.Name(), err)
		}
	}
	return nil
}

// Close flushes and closes every open file.
func (o *workerOutputs) Close() {
	for _, f := range o.files() {
		_ = f.Flush()
		_ = f.f.Close()
	}
}

func init() {
	// Input.
	extractCmd.Flags().String("corpus", "", "directory of parsed corpus shards")
	extractCmd.Flags().Int("start-split", 0, "index of the first shard to read")
	extractCmd.Flags().Int("splitn", 0, "number of shards to read (0 reads to the end)")
	extractCmd.Flags().String("triggers", "", "trigger lexicon file (lemma and +/- per line)")
	extractCmd.Flags().String("gfbf", "", "GFBF event lexicon; enables opinion output")

	// Output.
	extractCmd.Flags().String("output-dir", ".", "directory for candidates, events and opinions files")
	extractCmd.Flags().Int("pid", -1, "worker number appended to output file names (-1 for none)")
	extractCmd.Flags().String("db", "", "SQLite event store to record every event in")
	extractCmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address while running")

	// Pipeline.
	extractCmd.Flags().String("pipeline", "", "YAML pipeline spec replacing the default stage chain")
	extractCmd.Flags().Bool("allow-subject-only", false, "accept tuples without an object")
	extractCmd.Flags().Bool("print", false, "print every candidate tuple")
	extractCmd.Flags().Int("limit", 0, "stop after this many sentences (0 for no limit)")

	// Display.
	extractCmd.Flags().Bool("no-ui", false, "disable the progress bar")
	extractCmd.Flags().Int("progress-every", defaultProgressEvery, "with --no-ui, print the sentence count at this interval")

	rootCmd.AddCommand(extractCmd)
}
