// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package stages

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/pdiddy/clause-engine/internal/clause"
	"github.com/pdiddy/clause-engine/internal/deptree"
	"github.com/pdiddy/clause-engine/internal/pipeline"
)

// Analyse extracts the clause tuple of the main root and stores it under
// pipeline.KeySentence. Items without a tuple are discarded.
type Analyse struct {
	analyser *clause.Analyser
}

// NewAnalyse returns an analyse stage around a.
func NewAnalyse(a *clause.Analyser) *Analyse {
	return &Analyse{analyser: a}
}

func (a *Analyse) Name() string { return "analyse" }

func (a *Analyse) Process(_ context.Context, item *pipeline.Item, s *pipeline.Scratch) (pipeline.Status, error) {
	t := a.analyser.AnalyseForest(item.Forest)
	if t == nil {
		return pipeline.Discard, nil
	}
	s.Set(pipeline.KeySentence, t)
	return pipeline.Continue, nil
}

// Condition is a named predicate over a clause tuple.
type Condition struct {
	Name string
	Test func(t *clause.Tuple) bool
}

// Tuple conditions available to filter stages by name.
var conditions = map[string]func(t *clause.Tuple) bool{
	"complex":               (*clause.Tuple).IsComplex,
	"named_entity_subject":  hasNamedEntitySubject,
	"has_trigger":           hasTrigger,
	"no_unresolved_pronoun": func(t *clause.Tuple) bool { return !t.HasUnresolvedPronoun() },
	"unmodified_predicate":  hasUnmodifiedPredicate,
	"not_reflexive_object":  hasNonReflexiveObject,
}

// ConditionNames lists the tuple conditions in sorted order, including
// depth_between.
func ConditionNames() []string {
	names := make([]string, 0, len(conditions)+1)
	for name := range conditions {
		names = append(names, name)
	}
	names = append(names, depthBetween)
	sort.Strings(names)
	return names
}

const depthBetween = "depth_between"

// LookupCondition returns the named condition. depth_between is built by
// DepthBetween since it takes bounds.
func LookupCondition(name string) (Condition, error) {
	test, ok := conditions[name]
	if !ok {
		return Condition{}, fmt.Errorf("unknown filter condition %q", name)
	}
	return Condition{Name: name, Test: test}, nil
}

// DepthBetween accepts tuples whose embedding depth lies in [lo, hi].
func DepthBetween(lo, hi int) Condition {
	return Condition{
		Name: fmt.Sprintf("%s(%d,%d)", depthBetween, lo, hi),
		Test: func(t *clause.Tuple) bool {
			d := t.EmbeddingDepth()
			return lo <= d && d <= hi
		},
	}
}

func hasNamedEntitySubject(t *clause.Tuple) bool {
	return t.Subject != nil && t.Subject.POS == clause.POSNamedEntity
}

func hasTrigger(t *clause.Tuple) bool {
	return t.Trigger != nil
}

func hasUnmodifiedPredicate(t *clause.Tuple) bool {
	return len(t.Predicate.FindChildrenByLabel(clause.LabelModifier)) == 0
}

// hasNonReflexiveObject follows the embedding chain to the terminal object.
func hasNonReflexiveObject(t *clause.Tuple) bool {
	for cur := t; cur != nil; cur = cur.Embedded() {
		if cur.Object.Kind() == clause.ObjectNode {
			return cur.Object.Node().POS != clause.POSReflexive
		}
	}
	return true
}

// Filter discards items whose tuple fails any of its conditions.
type Filter struct {
	conds []Condition
}

// NewFilter returns a filter requiring every condition.
func NewFilter(conds ...Condition) *Filter {
	return &Filter{conds: conds}
}

func (f *Filter) Name() string { return "filter" }

func (f *Filter) Process(_ context.Context, _ *pipeline.Item, s *pipeline.Scratch) (pipeline.Status, error) {
	t, err := pipeline.Get[*clause.Tuple](s, pipeline.KeySentence)
	if err != nil {
		return pipeline.Continue, err
	}
	for _, c := range f.conds {
		if !c.Test(t) {
			return pipeline.Discard, nil
		}
	}
	return pipeline.Continue, nil
}

// Forest conditions look at raw tokens and need no tuple.
var forestConditions = map[string]func(f deptree.Forest) bool{
	"single_subject": func(f deptree.Forest) bool { return countTokens(f, isSubject) <= 1 },
	"no_pronoun":     func(f deptree.Forest) bool { return countTokens(f, isPronoun) == 0 },
}

func isSubject(n *deptree.Node) bool { return n.Relation() == clause.LabelSubject }
func isPronoun(n *deptree.Node) bool { return n.POS == clause.POSPronoun }

func countTokens(f deptree.Forest, match func(*deptree.Node) bool) int {
	count := 0
	for _, n := range f.Nodes() {
		if match(n) {
			count++
		}
	}
	return count
}

// ForestFilter discards items whose forest fails any named token condition.
type ForestFilter struct {
	names []string
	tests []func(deptree.Forest) bool
}

// NewForestFilter resolves names against the forest conditions.
func NewForestFilter(names ...string) (*ForestFilter, error) {
	ff := &ForestFilter{names: names}
	for _, name := range names {
		test, ok := forestConditions[name]
		if !ok {
			return nil, fmt.Errorf("unknown forest condition %q", name)
		}
		ff.tests = append(ff.tests, test)
	}
	return ff, nil
}

func (f *ForestFilter) Name() string { return "forest_filter(" + strings.Join(f.names, ",") + ")" }

func (f *ForestFilter) Process(_ context.Context, item *pipeline.Item, _ *pipeline.Scratch) (pipeline.Status, error) {
	for _, test := range f.tests {
		if !test(item.Forest) {
			return pipeline.Discard, nil
		}
	}
	return pipeline.Continue, nil
}
