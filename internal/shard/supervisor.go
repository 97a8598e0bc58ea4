// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package shard

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultPollInterval = 500 * time.Millisecond
	stopGrace           = 30 * time.Second
)

// executor abstracts process execution for testing.
type executor interface {
	Run(ctx context.Context, name string, args []string, stdout, stderr io.Writer) error
}

// osExecutor runs workers with os/exec. On cancellation a worker gets
// SIGTERM so it can finish its current sentence; it is killed only if it
// outlives the grace period.
type osExecutor struct{}

func (osExecutor) Run(ctx context.Context, name string, args []string, stdout, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.Cancel = func() error { return cmd.Process.Signal(syscall.SIGTERM) }
	cmd.WaitDelay = stopGrace
	return cmd.Run()
}

// WorkerResult is the outcome of one worker process.
type WorkerResult struct {
	Assignment
	Duration time.Duration
	Err      error
}

// RunSummary holds the outcome of a supervised run.
type RunSummary struct {
	Workers []WorkerResult
}

// Failed returns the number of workers that exited with an error.
func (s RunSummary) Failed() int {
	n := 0
	for _, w := range s.Workers {
		if w.Err != nil {
			n++
		}
	}
	return n
}

// HasFailures reports whether any worker failed.
func (s RunSummary) HasFailures() bool { return s.Failed() > 0 }

// Supervisor launches one worker process per assignment and waits for all
// of them. A failing worker does not stop its siblings.
type Supervisor struct {
	// Binary is the worker executable. Empty means the running binary.
	Binary string

	// Args precede the per-worker shard flags on every worker command line.
	Args []string

	// MaxParallel caps concurrently running workers; 0 runs all at once.
	MaxParallel int

	// PollInterval is how often the number of live workers is logged.
	PollInterval time.Duration

	Stdout io.Writer
	Stderr io.Writer
	Log    *zap.Logger

	exec executor
}

// WorkerArgs returns the command line of the worker for a.
func (s *Supervisor) WorkerArgs(a Assignment) []string {
	args := make([]string, 0, len(s.Args)+7)
	args = append(args, s.Args...)
	return append(args,
		"--start-split", strconv.Itoa(a.Start),
		"--splitn", strconv.Itoa(a.Count),
		"--pid", strconv.Itoa(a.PID),
		"--no-ui",
	)
}

// Run starts the workers and blocks until every one has exited. Progress
// lines ("worker N finished") go to Stdout.
func (s *Supervisor) Run(ctx context.Context, assignments []Assignment) (RunSummary, error) {
	bin, err := s.binary()
	if err != nil {
		return RunSummary{}, err
	}
	ex := s.exec
	if ex == nil {
		ex = osExecutor{}
	}
	log := s.Log
	if log == nil {
		log = zap.NewNop()
	}
	out := writerOr(s.Stdout, os.Stdout)
	errOut := writerOr(s.Stderr, os.Stderr)

	results := make([]WorkerResult, len(assignments))
	var (
		mu      sync.Mutex
		running int
	)

	var g errgroup.Group
	if s.MaxParallel > 0 {
		g.SetLimit(s.MaxParallel)
	}

	done := make(chan struct{})
	go s.poll(done, log, &mu, &running)

	for i, a := range assignments {
		g.Go(func() error {
			mu.Lock()
			running++
			mu.Unlock()

			log.Info("worker started", zap.Int("pid", a.PID), zap.Int("start", a.Start), zap.Int("count", a.Count))
			begin := time.Now()
			runErr := ex.Run(ctx, bin, s.WorkerArgs(a), out, errOut)
			results[i] = WorkerResult{Assignment: a, Duration: time.Since(begin), Err: runErr}

			mu.Lock()
			running--
			if runErr != nil {
				fmt.Fprintf(out, "worker %d failed (%v)\n", a.PID, runErr)
			} else {
				fmt.Fprintf(out, "worker %d finished\n", a.PID)
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	close(done)

	summary := RunSummary{Workers: results}
	fmt.Fprintf(out, "Workers: %d, failed: %d\n", len(results), summary.Failed())
	return summary, ctx.Err()
}

func (s *Supervisor) poll(done <-chan struct{}, log *zap.Logger, mu *sync.Mutex, running *int) {
	interval := s.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			mu.Lock()
			n := *running
			mu.Unlock()
			log.Debug("workers running", zap.Int("count", n))
		}
	}
}

func (s *Supervisor) binary() (string, error) {
	if s.Binary != "" {
		return s.Binary, nil
	}
	bin, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locating worker binary: %w", err)
	}
	return bin, nil
}

func writerOr(w, fallback io.Writer) io.Writer {
	if w != nil {
		return w
	}
	return fallback
}
