// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// StageKind names a stage implementation in a PipelineSpec.
type StageKind string

const (
	StageCount           StageKind = "count"
	StageLimit           StageKind = "limit"
	StageProgress        StageKind = "progress"
	StageAnalyse         StageKind = "analyse"
	StageFilter          StageKind = "filter"
	StageForestFilter    StageKind = "forest_filter"
	StageEvents          StageKind = "events"
	StageOpinion         StageKind = "opinion"
	StagePrint           StageKind = "print"
	StageWriteCandidates StageKind = "write_candidates"
	StageWriteEvents     StageKind = "write_events"
	StageWriteOpinions   StageKind = "write_opinions"
	StageRecord          StageKind = "record"
)

// StageSpec configures one stage. Only the fields relevant to Kind are read.
type StageSpec struct {
	Kind StageKind `json:"kind" yaml:"kind"`

	// Name identifies a counter; progress stages name the counter they watch.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Conditions lists filter conditions, all of which must hold.
	Conditions []string `json:"conditions,omitempty" yaml:"conditions,omitempty"`

	// MinDepth and MaxDepth bound the depth_between condition, inclusive.
	MinDepth int `json:"min_depth,omitempty" yaml:"min_depth,omitempty"`
	MaxDepth int `json:"max_depth,omitempty" yaml:"max_depth,omitempty"`

	// Limit is the item budget of a limit stage.
	Limit int `json:"limit,omitempty" yaml:"limit,omitempty"`

	// Every is the reporting interval of a progress stage, in counted items.
	Every int `json:"every,omitempty" yaml:"every,omitempty"`
}

// PipelineSpec is the declarative description of a stage chain.
type PipelineSpec struct {
	// AllowSubjectOnly makes the analyser accept predicates that have a
	// subject but no object.
	AllowSubjectOnly bool `json:"allow_subject_only" yaml:"allow_subject_only"`

	Stages []StageSpec `json:"stages" yaml:"stages"`
}
