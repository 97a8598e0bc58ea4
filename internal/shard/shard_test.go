// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package shard

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeExecutor records worker command lines and fails the configured pids.
type fakeExecutor struct {
	mu     sync.Mutex
	calls  [][]string
	failOn map[string]bool // value of --pid
}

func (f *fakeExecutor) Run(_ context.Context, name string, args []string, _, _ io.Writer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, append([]string{name}, args...))
	if f.failOn[flagValue(args, "--pid")] {
		return errors.New("exit status 1")
	}
	return nil
}

func flagValue(args []string, flag string) string {
	for i, a := range args {
		if a == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func TestPartition(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		perWorker int
		want      []Assignment
	}{
		{name: "empty", total: 0, perWorker: 5, want: nil},
		{name: "exact", total: 10, perWorker: 5, want: []Assignment{{0, 0, 5}, {1, 5, 5}}},
		{name: "remainder", total: 11, perWorker: 5, want: []Assignment{{0, 0, 5}, {1, 5, 5}, {2, 10, 1}}},
		{name: "fewer than one group", total: 3, perWorker: 5, want: []Assignment{{0, 0, 3}}},
		{name: "default size", total: 6, perWorker: 0, want: []Assignment{{0, 0, 5}, {1, 5, 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Partition(tt.total, tt.perWorker))
		})
	}
}

func TestOutputName(t *testing.T) {
	assert.Equal(t, "events3.ltmp", OutputName(KindEvents, 3))
	assert.Equal(t, "candidates0.ltmp", OutputName(KindCandidates, 0))
	assert.Equal(t, "opinions.ltmp", OutputName(KindOpinions, -1))
	assert.Equal(t, filepath.Join("out", "events.ltmp"), OutputPath("out", KindEvents, -1))
}

func TestSupervisorRun(t *testing.T) {
	fake := &fakeExecutor{failOn: map[string]bool{"1": true}}
	var out bytes.Buffer
	s := &Supervisor{
		Binary:      "/usr/local/bin/clause-engine",
		Args:        []string{"extract", "--corpus", "/data/sdewac"},
		MaxParallel: 2,
		Stdout:      &out,
		Stderr:      io.Discard,
		exec:        fake,
	}

	summary, err := s.Run(context.Background(), Partition(12, 5))
	require.NoError(t, err)

	require.Len(t, summary.Workers, 3)
	assert.Equal(t, 1, summary.Failed())
	assert.True(t, summary.HasFailures())
	assert.NoError(t, summary.Workers[0].Err)
	assert.Error(t, summary.Workers[1].Err)
	assert.Equal(t, 2, summary.Workers[2].Count)

	require.Len(t, fake.calls, 3)
	sort.Slice(fake.calls, func(i, j int) bool {
		return flagValue(fake.calls[i], "--pid") < flagValue(fake.calls[j], "--pid")
	})
	assert.Equal(t, []string{
		"/usr/local/bin/clause-engine", "extract", "--corpus", "/data/sdewac",
		"--start-split", "10", "--splitn", "2", "--pid", "2", "--no-ui",
	}, fake.calls[2])

	assert.Contains(t, out.String(), "worker 0 finished")
	assert.Contains(t, out.String(), "worker 1 failed (exit status 1)")
	assert.Contains(t, out.String(), "Workers: 3, failed: 1")
}

func TestSupervisorCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := &Supervisor{Binary: "worker", Stdout: io.Discard, exec: &fakeExecutor{}}

	_, err := s.Run(ctx, Partition(1, 1))
	assert.ErrorIs(t, err, context.Canceled)
}

func writeWorkerFile(t *testing.T, dir, kind string, pid int, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(OutputPath(dir, kind, pid), []byte(content), 0o644))
}

func TestCollect(t *testing.T) {
	dir := t.TempDir()
	writeWorkerFile(t, dir, KindCandidates, 0, "1_1\ta\n\n")
	writeWorkerFile(t, dir, KindCandidates, 1, "1_1\tb\n\n")
	writeWorkerFile(t, dir, KindEvents, 0, "glauben\t+\thelfen\n")
	writeWorkerFile(t, dir, KindEvents, 1, "hoffen\t-\tschaden\n")
	writeWorkerFile(t, dir, KindEvents, 2, "")
	writeWorkerFile(t, dir, KindCandidates, 2, "1_1\tc\n\n")

	var out bytes.Buffer
	summary, err := Collect(dir, 3, &out)
	require.NoError(t, err)

	assert.Equal(t, 6, summary.Files)
	assert.Equal(t, 3, summary.Missing)
	assert.Equal(t, []string{
		OutputPath(dir, KindCandidates, -1),
		OutputPath(dir, KindEvents, -1),
	}, summary.Outputs)

	data, err := os.ReadFile(OutputPath(dir, KindCandidates, -1))
	require.NoError(t, err)
	assert.Equal(t, "1_1\ta\n\n1_1\tb\n\n1_1\tc\n\n", string(data))

	data, err = os.ReadFile(OutputPath(dir, KindEvents, -1))
	require.NoError(t, err)
	assert.Equal(t, "glauben\t+\thelfen\nhoffen\t-\tschaden\n", string(data))

	_, err = os.Stat(OutputPath(dir, KindOpinions, -1))
	assert.True(t, os.IsNotExist(err))
	assert.Equal(t, 3, strings.Count(out.String(), "missing opinions"))
}

func TestCollectOverwritesPreviousResult(t *testing.T) {
	dir := t.TempDir()
	writeWorkerFile(t, dir, KindEvents, 0, "glauben\t+\thelfen\n")
	require.NoError(t, os.WriteFile(OutputPath(dir, KindEvents, -1), []byte("stale\n"), 0o644))

	_, err := Collect(dir, 1, io.Discard)
	require.NoError(t, err)

	data, err := os.ReadFile(OutputPath(dir, KindEvents, -1))
	require.NoError(t, err)
	assert.Equal(t, "glauben\t+\thelfen\n", string(data))
}

func TestCountWorkers(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, 0, CountWorkers(dir, KindEvents))

	writeWorkerFile(t, dir, KindEvents, 0, "")
	writeWorkerFile(t, dir, KindEvents, 1, "")
	writeWorkerFile(t, dir, KindEvents, 3, "")
	assert.Equal(t, 2, CountWorkers(dir, KindEvents))
}

func TestClean(t *testing.T) {
	dir := t.TempDir()
	writeWorkerFile(t, dir, KindEvents, 0, "stale\n")
	writeWorkerFile(t, dir, KindCandidates, 1, "stale\n")
	writeWorkerFile(t, dir, KindEvents, 5, "keep\n")

	require.NoError(t, Clean(dir, 2))

	assert.Equal(t, 0, CountWorkers(dir, KindEvents))
	assert.Equal(t, 0, CountWorkers(dir, KindCandidates))
	_, err := os.Stat(OutputPath(dir, KindEvents, 5))
	assert.NoError(t, err)
}
