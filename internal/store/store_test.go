// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/clause-engine/pkg/types"
)

func testStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(types.StoreConfig{Path: filepath.Join(dir, "index", "events.db")})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, dir
}

const eventsFile = "glauben\t+\thelfen\n" +
	"bezweifeln\t-\thelfen\n" +
	"glauben\t+\thelfen\n" +
	"\n" +
	"glauben\t?\tschaden\n" +
	"hoffen\t+\tschaden\n" +
	"only two\tfields\n"

func TestParseEventLine(t *testing.T) {
	tests := []struct {
		line    string
		want    types.EventRecord
		wantErr bool
	}{
		{line: "glauben\t+\thelfen", want: types.EventRecord{Trigger: "glauben", Polarity: 1, Event: "helfen"}},
		{line: "bezweifeln\t-\tschaden", want: types.EventRecord{Trigger: "bezweifeln", Polarity: -1, Event: "schaden"}},
		{line: "glauben\t*\thelfen", wantErr: true},
		{line: "glauben helfen", wantErr: true},
		{line: "\t+\thelfen", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := ParseEventLine(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIngestLinesAndTally(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()

	var out bytes.Buffer
	summary, err := s.IngestLines(ctx, strings.NewReader(eventsFile), "events.ltmp", &out)
	require.NoError(t, err)
	assert.Equal(t, 4, summary.Stored)
	assert.Equal(t, 2, summary.Skipped)
	assert.Equal(t, 6, summary.Total())
	assert.NotEmpty(t, summary.RunID)
	assert.Contains(t, out.String(), "skipped events.ltmp:5")
	assert.Contains(t, out.String(), "skipped events.ltmp:7")

	tallies, err := s.Tally(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []types.EventTally{
		{Event: "helfen", Positive: 2, Negative: 1, Dominant: "+"},
		{Event: "schaden", Positive: 1, Negative: 0, Dominant: "+"},
	}, tallies)

	tallies, err = s.Tally(ctx, 2)
	require.NoError(t, err)
	require.Len(t, tallies, 1)
	assert.Equal(t, 3, tallies[0].Total())

	// Default threshold of 5 drops everything here.
	tallies, err = s.Tally(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, tallies)
}

func TestRunRecord(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()

	run, err := s.BeginRun(ctx, "corpus/sdewac", 3)
	require.NoError(t, err)
	require.NoError(t, run.Record(ctx, types.EventRecord{Trigger: "glauben", Polarity: -1, Event: "schaden"}))
	require.NoError(t, run.Record(ctx, types.EventRecord{Trigger: "hoffen", Polarity: 1, Event: "schaden"}))
	assert.Error(t, run.Record(ctx, types.EventRecord{Trigger: "hoffen", Polarity: 0, Event: "schaden"}))

	tallies, err := s.Tally(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []types.EventTally{{Event: "schaden", Positive: 1, Negative: 1, Dominant: "="}}, tallies)

	runs, err := s.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run.Info().ID, runs[0].ID)
	assert.Equal(t, "corpus/sdewac", runs[0].Source)
	assert.Equal(t, 3, runs[0].WorkerID)
	assert.False(t, runs[0].StartedAt.IsZero())
}

func TestReopenKeepsEvents(t *testing.T) {
	dir := t.TempDir()
	cfg := types.StoreConfig{Path: filepath.Join(dir, "events.db"), MinCount: 1}
	ctx := context.Background()

	s, err := Open(cfg)
	require.NoError(t, err)
	_, err = s.IngestLines(ctx, strings.NewReader("glauben\t+\thelfen\n"), "a", &bytes.Buffer{})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(cfg)
	require.NoError(t, err)
	defer s.Close()
	tallies, err := s.Tally(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, tallies, 1)
}

func TestOpenWithoutPath(t *testing.T) {
	_, err := Open(types.StoreConfig{})
	assert.Error(t, err)
}

func TestExport(t *testing.T) {
	s, dir := testStore(t)
	ctx := context.Background()
	_, err := s.IngestLines(ctx, strings.NewReader(eventsFile), "events.ltmp", &bytes.Buffer{})
	require.NoError(t, err)

	yamlPath := filepath.Join(dir, "tally.yaml")
	require.NoError(t, s.ExportYAML(ctx, yamlPath, 2))
	data, err := os.ReadFile(yamlPath)
	require.NoError(t, err)
	var fromYAML Export
	require.NoError(t, yaml.Unmarshal(data, &fromYAML))
	assert.Equal(t, 2, fromYAML.MinCount)
	require.Len(t, fromYAML.Events, 1)
	assert.Equal(t, "helfen", fromYAML.Events[0].Event)

	jsonPath := filepath.Join(dir, "tally.json")
	require.NoError(t, s.ExportJSON(ctx, jsonPath, 0))
	data, err = os.ReadFile(jsonPath)
	require.NoError(t, err)
	var fromJSON Export
	require.NoError(t, json.Unmarshal(data, &fromJSON))
	assert.Equal(t, DefaultMinCount, fromJSON.MinCount)
	assert.NotNil(t, fromJSON.Events)
	assert.Empty(t, fromJSON.Events)
}
