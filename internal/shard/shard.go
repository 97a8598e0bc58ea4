// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package shard splits a corpus across worker processes, supervises the
// workers and concatenates their outputs.
package shard

import (
	"fmt"
	"path/filepath"
)

// DefaultFilesPerProcess is the number of shards one worker reads.
const DefaultFilesPerProcess = 5

// Output kinds written by every worker.
const (
	KindCandidates = "candidates"
	KindEvents     = "events"
	KindOpinions   = "opinions"
)

// Kinds lists the output kinds in collection order.
var Kinds = []string{KindCandidates, KindEvents, KindOpinions}

const outputExt = ".ltmp"

// Assignment is the shard range given to one worker.
type Assignment struct {
	PID   int
	Start int
	Count int
}

// Partition splits total shards into consecutive ranges of perWorker
// shards. The last range may be shorter.
func Partition(total, perWorker int) []Assignment {
	if perWorker <= 0 {
		perWorker = DefaultFilesPerProcess
	}
	var out []Assignment
	for start, pid := 0, 0; start < total; start, pid = start+perWorker, pid+1 {
		count := perWorker
		if start+count > total {
			count = total - start
		}
		out = append(out, Assignment{PID: pid, Start: start, Count: count})
	}
	return out
}

// OutputName returns the file name of one output kind: "events3.ltmp" for
// worker 3, "events.ltmp" for a negative pid (the collected file).
func OutputName(kind string, pid int) string {
	if pid < 0 {
		return kind + outputExt
	}
	return fmt.Sprintf("%s%d%s", kind, pid, outputExt)
}

// OutputPath joins dir and OutputName.
func OutputPath(dir, kind string, pid int) string {
	return filepath.Join(dir, OutputName(kind, pid))
}
