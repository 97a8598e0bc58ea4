package types

import "time"

// CorpusConfig selects the shard files one run reads.
type CorpusConfig struct {
	// Dir is the directory of (optionally gzip-compressed) record shards.
	Dir string `json:"dir" yaml:"dir"`

	// StartShard is the index of the first shard, in sorted file-name order.
	StartShard int `json:"start_shard" yaml:"start_shard"`

	// MaxShards caps the number of shards read; 0 reads to the end.
	MaxShards int `json:"max_shards" yaml:"max_shards"`
}

// LexiconConfig points at the lexicon files loaded at startup.
type LexiconConfig struct {
	// Triggers is the predicate trigger lexicon (lemma and +/- per line).
	Triggers string `json:"triggers" yaml:"triggers"`

	// GFBF is the optional goal-fulfilling/blocking event lexicon. When set,
	// the default pipeline also classifies opinions.
	GFBF string `json:"gfbf,omitempty" yaml:"gfbf,omitempty"`
}

// OutputConfig controls where writers put their files.
type OutputConfig struct {
	// Dir is the directory receiving candidates, events and opinions files.
	Dir string `json:"dir" yaml:"dir"`

	// WorkerID suffixes every output file name (e.g. "events3.ltmp").
	// A negative value writes unsuffixed files.
	WorkerID int `json:"worker_id" yaml:"worker_id"`
}

// LogConfig configures the structured logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error (default info).
	Level string `json:"level" yaml:"level"`

	// Format is console or json (default console).
	Format string `json:"format" yaml:"format"`

	// File, when set, receives log output through a rotating writer
	// instead of stderr.
	File string `json:"file,omitempty" yaml:"file,omitempty"`

	MaxSizeMB  int  `json:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int  `json:"max_backups" yaml:"max_backups"`
	MaxAgeDays int  `json:"max_age_days" yaml:"max_age_days"`
	Compress   bool `json:"compress" yaml:"compress"`
}

// MetricsConfig configures the optional Prometheus listener.
type MetricsConfig struct {
	// Addr is the listen address for /metrics (e.g. ":9102"). Empty disables it.
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"`
}

// StoreConfig configures the SQLite event store.
type StoreConfig struct {
	// Path is the database file. Empty disables recording.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// MinCount drops events seen fewer times than this from tallies (default 5).
	MinCount int `json:"min_count" yaml:"min_count"`
}

// ParallelConfig configures the process-level fan-out.
type ParallelConfig struct {
	// FilesPerProcess is the number of shards given to each worker (default 5).
	FilesPerProcess int `json:"files_per_process" yaml:"files_per_process"`

	// Binary is the worker executable; empty re-executes the running binary.
	Binary string `json:"binary,omitempty" yaml:"binary,omitempty"`

	// PollInterval is how often worker liveness is reported (default 500ms).
	PollInterval time.Duration `json:"poll_interval" yaml:"poll_interval"`
}

// ExtractConfig groups everything one extraction worker needs.
type ExtractConfig struct {
	Corpus   CorpusConfig  `json:"corpus" yaml:"corpus"`
	Lexicon  LexiconConfig `json:"lexicon" yaml:"lexicon"`
	Output   OutputConfig  `json:"output" yaml:"output"`
	Store    StoreConfig   `json:"store" yaml:"store"`
	Metrics  MetricsConfig `json:"metrics" yaml:"metrics"`
	Pipeline PipelineSpec  `json:"pipeline" yaml:"pipeline"`

	// NoUI disables the interactive shard progress bar.
	NoUI bool `json:"no_ui" yaml:"no_ui"`
}
