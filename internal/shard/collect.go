// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package shard

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// CollectSummary holds counts from concatenating worker outputs.
type CollectSummary struct {
	// Files is the number of worker files appended.
	Files int

	// Missing is the number of expected worker files that did not exist.
	Missing int

	// Outputs lists the collected files written, in Kinds order.
	Outputs []string
}

// Collect concatenates, for every output kind, the files of workers
// 0..workers-1 in pid order into the unsuffixed file in dir. A kind no
// worker produced is skipped; individual missing files are reported to w.
func Collect(dir string, workers int, w io.Writer) (CollectSummary, error) {
	var summary CollectSummary
	for _, kind := range Kinds {
		var parts []string
		for pid := 0; pid < workers; pid++ {
			path := OutputPath(dir, kind, pid)
			if _, err := os.Stat(path); err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					fmt.Fprintf(w, "missing %s\n", OutputName(kind, pid))
					summary.Missing++
					continue
				}
				return summary, fmt.Errorf("checking %s: %w", path, err)
			}
			parts = append(parts, path)
		}
		if len(parts) == 0 {
			continue
		}

		dest := OutputPath(dir, kind, -1)
		if err := concat(dest, parts); err != nil {
			return summary, err
		}
		summary.Files += len(parts)
		summary.Outputs = append(summary.Outputs, dest)
		fmt.Fprintf(w, "collected %s (%d files)\n", OutputName(kind, -1), len(parts))
	}
	return summary, nil
}

func concat(dest string, parts []string) (err error) {
	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dest, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing %s: %w", dest, cerr)
		}
	}()

	for _, part := range parts {
		if err := appendFile(out, part); err != nil {
			return err
		}
	}
	return nil
}

func appendFile(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("copying %s: %w", path, err)
	}
	return nil
}

// CountWorkers returns the number of consecutive worker files of kind in
// dir, starting at pid 0.
func CountWorkers(dir, kind string) int {
	n := 0
	for {
		if _, err := os.Stat(OutputPath(dir, kind, n)); err != nil {
			return n
		}
		n++
	}
}

// Clean removes the worker files of pids 0..workers-1 left by an earlier
// run. Workers append to their files, so stale ones would be duplicated.
func Clean(dir string, workers int) error {
	for _, kind := range Kinds {
		for pid := 0; pid < workers; pid++ {
			err := os.Remove(OutputPath(dir, kind, pid))
			if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("removing stale worker output: %w", err)
			}
		}
	}
	return nil
}
