//go:build mage

package main

import (
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Default locations used by the extraction targets. Override them in
// clause-engine.yaml for real runs.
const (
	corpusDir   = "corpus"
	triggerFile = "lexicons/triggers.txt"
	outputDir   = "output"
	eventsDB    = "index/events.db"
)

// Extract runs a single-process extraction over corpus/ into output/.
func Extract() error {
	mg.Deps(Build, Init)
	return sh.RunV(filepath.Join(binDir, binName), "extract",
		"--corpus", corpusDir,
		"--triggers", triggerFile,
		"--output-dir", outputDir,
	)
}

// Parallel runs the multi-process extraction and ingests the events.
func Parallel() error {
	mg.Deps(Build, Init)
	return sh.RunV(filepath.Join(binDir, binName), "parallel",
		"--corpus", corpusDir,
		"--triggers", triggerFile,
		"--output-dir", outputDir,
		"--db", eventsDB,
	)
}

// Tally prints the per-event polarity counts from the event store.
func Tally() error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binDir, binName), "events", "tally", "--db", eventsDB)
}
