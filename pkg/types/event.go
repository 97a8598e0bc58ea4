// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// EventRecord is one trigger/event observation: an attitude predicate with
// its effective sign and the lemma of the embedded event predicate.
type EventRecord struct {
	Trigger  string `json:"trigger" yaml:"trigger"`
	Polarity int    `json:"polarity" yaml:"polarity"`
	Event    string `json:"event" yaml:"event"`
}

// Sign renders the polarity as "+" or "-".
func (e EventRecord) Sign() string {
	if e.Polarity < 0 {
		return "-"
	}
	return "+"
}

// Run describes one recorded extraction or ingestion.
type Run struct {
	ID        string    `json:"id" yaml:"id"`
	Source    string    `json:"source" yaml:"source"`
	WorkerID  int       `json:"worker_id" yaml:"worker_id"`
	StartedAt time.Time `json:"started_at" yaml:"started_at"`
}

// EventTally aggregates the observations of one event lemma.
type EventTally struct {
	Event    string `json:"event" yaml:"event"`
	Positive int    `json:"positive" yaml:"positive"`
	Negative int    `json:"negative" yaml:"negative"`

	// Dominant is "+" or "-" by majority, "=" on a tie.
	Dominant string `json:"dominant" yaml:"dominant"`
}

// Total returns the number of observations.
func (t EventTally) Total() int {
	return t.Positive + t.Negative
}
