// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/clause-engine/pkg/types"
)

// flagKeys maps command-line flags to their viper keys. The same key is
// reachable from the config file (nested YAML) and from the environment
// (CLAUSE_ENGINE_LEXICON_TRIGGERS and so on).
var flagKeys = map[string]string{
	"log-level":  "log.level",
	"log-format": "log.format",
	"log-file":   "log.file",

	"corpus":      "corpus.dir",
	"start-split": "corpus.start_shard",
	"splitn":      "corpus.max_shards",

	"triggers": "lexicon.triggers",
	"gfbf":     "lexicon.gfbf",

	"output-dir": "output.dir",
	"pid":        "output.worker_id",

	"db":        "store.path",
	"min-count": "store.min_count",

	"metrics-addr": "metrics.addr",

	"files-per-process": "parallel.files_per_process",
	"binary":            "parallel.binary",
	"poll-interval":     "parallel.poll_interval",

	"pipeline": "pipeline_file",
	"no-ui":    "no_ui",
}

// bindFlags binds the flags of the running command only. Several commands
// share a key, and viper keeps a single flag per key.
func bindFlags(cmd *cobra.Command) error {
	for name, key := range flagKeys {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			continue
		}
		if err := viper.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding flag --%s: %w", name, err)
		}
	}
	return nil
}

func logConfig() types.LogConfig {
	return types.LogConfig{
		Level:      viper.GetString("log.level"),
		Format:     viper.GetString("log.format"),
		File:       viper.GetString("log.file"),
		MaxSizeMB:  viper.GetInt("log.max_size_mb"),
		MaxBackups: viper.GetInt("log.max_backups"),
		MaxAgeDays: viper.GetInt("log.max_age_days"),
		Compress:   viper.GetBool("log.compress"),
	}
}

func corpusConfig() types.CorpusConfig {
	return types.CorpusConfig{
		Dir:        viper.GetString("corpus.dir"),
		StartShard: viper.GetInt("corpus.start_shard"),
		MaxShards:  viper.GetInt("corpus.max_shards"),
	}
}

func lexiconConfig() types.LexiconConfig {
	return types.LexiconConfig{
		Triggers: viper.GetString("lexicon.triggers"),
		GFBF:     viper.GetString("lexicon.gfbf"),
	}
}

func outputConfig() types.OutputConfig {
	dir := viper.GetString("output.dir")
	if dir == "" {
		dir = "."
	}
	return types.OutputConfig{Dir: dir, WorkerID: viper.GetInt("output.worker_id")}
}

func storeConfig() types.StoreConfig {
	return types.StoreConfig{
		Path:     viper.GetString("store.path"),
		MinCount: viper.GetInt("store.min_count"),
	}
}

func parallelConfig() types.ParallelConfig {
	return types.ParallelConfig{
		FilesPerProcess: viper.GetInt("parallel.files_per_process"),
		Binary:          viper.GetString("parallel.binary"),
		PollInterval:    viper.GetDuration("parallel.poll_interval"),
	}
}

// extractConfig assembles the worker configuration. Pipeline is only set
// when the config file carries an inline pipeline; otherwise the chain is
// resolved later from --pipeline or the defaults.
func extractConfig() (types.ExtractConfig, error) {
	var spec types.PipelineSpec
	if viper.IsSet("pipeline.stages") {
		err := viper.UnmarshalKey("pipeline", &spec, func(c *mapstructure.DecoderConfig) {
			c.TagName = "yaml"
		})
		if err != nil {
			return types.ExtractConfig{}, fmt.Errorf("reading pipeline from config: %w", err)
		}
	}
	return types.ExtractConfig{
		Corpus:  corpusConfig(),
		Lexicon: lexiconConfig(),
		Output:  outputConfig(),
		Store:   storeConfig(),
		Metrics: types.MetricsConfig{Addr: viper.GetString("metrics.addr")},
		NoUI:    viper.GetBool("no_ui"),

		Pipeline: spec,
	}, nil
}
