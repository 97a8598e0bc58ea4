// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package conll

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"

	"github.com/pdiddy/clause-engine/internal/deptree"
)

// Sentence is one decoded block together with its origin.
type Sentence struct {
	Shard  string
	Index  string
	Forest deptree.Forest
}

// Handler receives every decoded sentence. Returning false stops the walk.
type Handler func(s Sentence) bool

// ShardRange selects a contiguous slice of the sorted shard list. Count 0
// means every shard from Start on.
type ShardRange struct {
	Start int
	Count int
}

// WalkOptions tunes a corpus walk. All callbacks are optional.
type WalkOptions struct {
	Range ShardRange

	// OnShard is called before each shard is opened.
	OnShard func(i, total int, name string)

	// OnMalformed is called for every block skipped because of a bad record.
	OnMalformed func(shard string, err error)

	// OnShardError is called when a shard cannot be read to its end, e.g. a
	// truncated gzip member. Sentences decoded before the failure are kept.
	OnShardError func(shard string, err error)
}

// WalkSummary holds the counts of a corpus walk.
type WalkSummary struct {
	Shards    int
	Sentences int
	Empty     int
	Malformed int
	Stopped   bool

	// FailedShards counts shards abandoned because of a read error.
	FailedShards int
}

// ListShards returns the regular files of dir, sorted by name, restricted to
// r. An unreadable directory is an error.
func ListShards(dir string, r ShardRange) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading shard directory %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}

	if r.Start < 0 {
		r.Start = 0
	}
	if r.Start >= len(files) {
		return nil, nil
	}
	files = files[r.Start:]
	if r.Count > 0 && r.Count < len(files) {
		files = files[:r.Count]
	}
	return files, nil
}

// Walk decodes every shard selected by opts.Range and hands each sentence to
// h. When h returns false no further sentences or shards are processed.
// Blocks without a root are counted as empty and not passed to h. A shard
// that fails to read is counted in FailedShards and the walk moves on; only
// an unreadable directory or a cancelled ctx ends it with an error.
func Walk(ctx context.Context, dir string, opts WalkOptions, h Handler) (WalkSummary, error) {
	shards, err := ListShards(dir, opts.Range)
	if err != nil {
		return WalkSummary{}, err
	}

	var summary WalkSummary
	for i, path := range shards {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if opts.OnShard != nil {
			opts.OnShard(i, len(shards), filepath.Base(path))
		}

		if err := walkShard(path, opts, h, &summary); err != nil {
			summary.FailedShards++
			if opts.OnShardError != nil {
				opts.OnShardError(filepath.Base(path), err)
			}
			continue
		}
		summary.Shards++
		if summary.Stopped {
			break
		}
	}
	return summary, nil
}

func walkShard(path string, opts WalkOptions, h Handler, summary *WalkSummary) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening shard: %w", err)
	}
	defer f.Close()

	r, err := OpenStream(f)
	if err != nil {
		return fmt.Errorf("shard %s: %w", filepath.Base(path), err)
	}
	defer r.Close()

	return Stream(r, filepath.Base(path), opts.OnMalformed, h, summary)
}

// Stream decodes r until end of stream, updating summary as it goes.
func Stream(r io.Reader, shard string, onMalformed func(string, error), h Handler, summary *WalkSummary) error {
	dec := NewDecoder(r)
	for {
		forest, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			return nil
		}
		var recErr *RecordError
		if errors.As(err, &recErr) {
			summary.Malformed++
			if onMalformed != nil {
				onMalformed(shard, recErr)
			}
			continue
		}
		if err != nil {
			return fmt.Errorf("shard %s: %w", shard, err)
		}

		if len(forest) == 0 {
			summary.Empty++
			continue
		}
		summary.Sentences++
		if !h(Sentence{Shard: shard, Index: dec.Index(), Forest: forest}) {
			summary.Stopped = true
			return nil
		}
	}
}

// OpenStream returns a reader over the decompressed contents of r. Gzip
// input is detected by its magic bytes; anything else is read as is.
func OpenStream(r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(2)
	if err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("opening gzip stream: %w", err)
		}
		return zr, nil
	}
	return io.NopCloser(br), nil
}
