// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/clause-engine/pkg/types"
)

// Export is the document written by ExportYAML and ExportJSON.
type Export struct {
	MinCount int                `json:"min_count" yaml:"min_count"`
	Events   []types.EventTally `json:"events" yaml:"events"`
}

// ExportYAML writes the tally to path as YAML.
func (s *Store) ExportYAML(ctx context.Context, path string, minCount int) error {
	doc, err := s.export(ctx, minCount)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ExportJSON writes the tally to path as indented JSON.
func (s *Store) ExportJSON(ctx context.Context, path string, minCount int) error {
	doc, err := s.export(ctx, minCount)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func (s *Store) export(ctx context.Context, minCount int) (Export, error) {
	if minCount <= 0 {
		minCount = s.minCount
	}
	tallies, err := s.Tally(ctx, minCount)
	if err != nil {
		return Export{}, fmt.Errorf("querying for export: %w", err)
	}
	if tallies == nil {
		tallies = []types.EventTally{}
	}
	return Export{MinCount: minCount, Events: tallies}, nil
}
