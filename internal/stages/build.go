// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package stages is the library of pipeline stages and the single place
// where a stage chain is assembled from a declarative PipelineSpec.
package stages

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/clause-engine/internal/clause"
	"github.com/pdiddy/clause-engine/internal/lexicon"
	"github.com/pdiddy/clause-engine/internal/metrics"
	"github.com/pdiddy/clause-engine/internal/pipeline"
	"github.com/pdiddy/clause-engine/pkg/types"
)

// Counter names used by the built-in pipelines.
const (
	CounterSentences  = "sentences"
	CounterCandidates = "candidates"
	CounterSuccesses  = "successes"
)

// Deps are the collaborators stages may need. Only the ones the stage list
// refers to must be set.
type Deps struct {
	Triggers *lexicon.Lexicon
	GFBF     *lexicon.Lexicon

	Candidates io.Writer
	Events     io.Writer
	Opinions   io.Writer

	// Stdout receives printer and progress output.
	Stdout io.Writer

	Sink    EventSink
	Metrics *metrics.Metrics
	Log     *zap.Logger
}

// Chain is a built stage list plus the counters it contains.
type Chain struct {
	Stages   []pipeline.Stage
	counters map[string]*Counter
}

// Counter returns the named counter of the chain.
func (c *Chain) Counter(name string) (*Counter, bool) {
	ctr, ok := c.counters[name]
	return ctr, ok
}

// Count returns the value of the named counter, or 0 when absent.
func (c *Chain) Count(name string) int {
	if ctr, ok := c.counters[name]; ok {
		return ctr.Value()
	}
	return 0
}

// Build turns spec into a stage chain. Every configuration problem, such as
// an unknown kind or condition or a missing dependency, is reported here
// before any item is processed.
func Build(spec types.PipelineSpec, deps Deps) (*Chain, error) {
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}

	analyser := &clause.Analyser{AllowSubjectOnly: spec.AllowSubjectOnly}
	if deps.Triggers != nil {
		analyser.Triggers = deps.Triggers
	}

	chain := &Chain{counters: make(map[string]*Counter)}
	for i, ss := range spec.Stages {
		stage, err := build(ss, deps, analyser, chain)
		if err != nil {
			return nil, fmt.Errorf("stage %d (%s): %w", i, ss.Kind, err)
		}
		chain.Stages = append(chain.Stages, stage)
	}

	deps.Log.Debug("pipeline built", zap.Int("stages", len(chain.Stages)))
	return chain, nil
}

func build(ss types.StageSpec, deps Deps, analyser *clause.Analyser, chain *Chain) (pipeline.Stage, error) {
	switch ss.Kind {
	case types.StageCount:
		if ss.Name == "" {
			return nil, fmt.Errorf("count stage needs a name")
		}
		if _, dup := chain.counters[ss.Name]; dup {
			return nil, fmt.Errorf("duplicate counter %q", ss.Name)
		}
		c := NewCounter(ss.Name, deps.Metrics.Counter(ss.Name))
		chain.counters[ss.Name] = c
		return c, nil

	case types.StageLimit:
		if ss.Limit <= 0 {
			return nil, fmt.Errorf("limit must be positive, got %d", ss.Limit)
		}
		return NewLimiter(ss.Limit), nil

	case types.StageProgress:
		c, ok := chain.counters[ss.Name]
		if !ok {
			return nil, fmt.Errorf("progress refers to unknown counter %q", ss.Name)
		}
		return NewProgress(c, ss.Every, deps.Stdout), nil

	case types.StageAnalyse:
		return NewAnalyse(analyser), nil

	case types.StageFilter:
		return buildFilter(ss, deps)

	case types.StageForestFilter:
		return NewForestFilter(ss.Conditions...)

	case types.StageEvents:
		if deps.Triggers == nil {
			return nil, fmt.Errorf("events stage needs a trigger lexicon")
		}
		return Events{}, nil

	case types.StageOpinion:
		if deps.Triggers == nil || deps.GFBF == nil {
			return nil, fmt.Errorf("opinion stage needs trigger and GFBF lexicons")
		}
		return NewOpinion(deps.GFBF), nil

	case types.StagePrint:
		return NewPrinter(deps.Stdout), nil

	case types.StageWriteCandidates:
		if deps.Candidates == nil {
			return nil, fmt.Errorf("no candidates output configured")
		}
		return NewCandidateWriter(deps.Candidates), nil

	case types.StageWriteEvents:
		if deps.Events == nil {
			return nil, fmt.Errorf("no events output configured")
		}
		return NewEventWriter(deps.Events), nil

	case types.StageWriteOpinions:
		if deps.Opinions == nil {
			return nil, fmt.Errorf("no opinions output configured")
		}
		return NewOpinionWriter(deps.Opinions), nil

	case types.StageRecord:
		if deps.Sink == nil {
			return nil, fmt.Errorf("no event store configured")
		}
		return NewRecorder(deps.Sink), nil
	}
	return nil, fmt.Errorf("unknown stage kind %q", ss.Kind)
}

func buildFilter(ss types.StageSpec, deps Deps) (*Filter, error) {
	if len(ss.Conditions) == 0 {
		return nil, fmt.Errorf("filter stage has no conditions")
	}
	conds := make([]Condition, 0, len(ss.Conditions))
	for _, name := range ss.Conditions {
		if name == depthBetween {
			if ss.MaxDepth < ss.MinDepth {
				return nil, fmt.Errorf("depth_between: max %d below min %d", ss.MaxDepth, ss.MinDepth)
			}
			conds = append(conds, DepthBetween(ss.MinDepth, ss.MaxDepth))
			continue
		}
		if name == "has_trigger" && deps.Triggers == nil {
			return nil, fmt.Errorf("has_trigger needs a trigger lexicon")
		}
		c, err := LookupCondition(name)
		if err != nil {
			return nil, err
		}
		conds = append(conds, c)
	}
	return NewFilter(conds...), nil
}

// Features toggles the optional parts of DefaultSpec.
type Features struct {
	// Opinions adds opinion classification and its writer.
	Opinions bool

	// Record stores every event in the event store.
	Record bool

	// Print echoes every candidate tuple.
	Print bool

	// ProgressEvery, when positive, reports the sentence count at this interval.
	ProgressEvery int

	// Limit, when positive, stops the run after this many sentences.
	Limit int

	AllowSubjectOnly bool
}

// DefaultSpec is the standard extraction chain: count every sentence,
// analyse it, keep complex sentences with a named-entity subject, a trigger
// predicate and no pronoun, then write candidates and events.
func DefaultSpec(f Features) types.PipelineSpec {
	var s []types.StageSpec
	if f.Limit > 0 {
		s = append(s, types.StageSpec{Kind: types.StageLimit, Limit: f.Limit})
	}
	s = append(s, types.StageSpec{Kind: types.StageCount, Name: CounterSentences})
	if f.ProgressEvery > 0 {
		s = append(s, types.StageSpec{Kind: types.StageProgress, Name: CounterSentences, Every: f.ProgressEvery})
	}
	s = append(s,
		types.StageSpec{Kind: types.StageAnalyse},
		types.StageSpec{Kind: types.StageFilter, Conditions: []string{
			"complex", "named_entity_subject", "has_trigger", "no_unresolved_pronoun",
		}},
		types.StageSpec{Kind: types.StageCount, Name: CounterCandidates},
	)
	if f.Print {
		s = append(s, types.StageSpec{Kind: types.StagePrint})
	}
	s = append(s,
		types.StageSpec{Kind: types.StageWriteCandidates},
		types.StageSpec{Kind: types.StageEvents},
		types.StageSpec{Kind: types.StageWriteEvents},
	)
	if f.Record {
		s = append(s, types.StageSpec{Kind: types.StageRecord})
	}
	if f.Opinions {
		s = append(s,
			types.StageSpec{Kind: types.StageOpinion},
			types.StageSpec{Kind: types.StageWriteOpinions},
		)
	}
	return types.PipelineSpec{AllowSubjectOnly: f.AllowSubjectOnly, Stages: s}
}

// DetectSpec counts sentences with at most one subject and no personal
// pronoun.
func DetectSpec() types.PipelineSpec {
	return types.PipelineSpec{Stages: []types.StageSpec{
		{Kind: types.StageCount, Name: CounterSentences},
		{Kind: types.StageForestFilter, Conditions: []string{"single_subject", "no_pronoun"}},
		{Kind: types.StageCount, Name: CounterSuccesses},
	}}
}

// LoadSpec reads a PipelineSpec from a YAML file.
func LoadSpec(path string) (types.PipelineSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.PipelineSpec{}, fmt.Errorf("reading pipeline spec: %w", err)
	}
	var spec types.PipelineSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return types.PipelineSpec{}, fmt.Errorf("parsing pipeline spec %s: %w", path, err)
	}
	if len(spec.Stages) == 0 {
		return types.PipelineSpec{}, fmt.Errorf("pipeline spec %s has no stages", path)
	}
	return spec, nil
}
