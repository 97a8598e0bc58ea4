// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package stages

import (
	"context"

	"github.com/pdiddy/clause-engine/internal/clause"
	"github.com/pdiddy/clause-engine/internal/deptree"
	"github.com/pdiddy/clause-engine/internal/lexicon"
	"github.com/pdiddy/clause-engine/internal/pipeline"
	"github.com/pdiddy/clause-engine/pkg/types"
)

// CombinePolarity returns the attitude of an opinion over an event: each
// side is flipped when its clause is negated, then equal signs give
// Positive and differing signs Negative.
func CombinePolarity(outer, inner lexicon.Polarity, outerNegated, innerNegated bool) lexicon.Polarity {
	if outerNegated {
		outer = outer.Flip()
	}
	if innerNegated {
		inner = inner.Flip()
	}
	if outer == inner {
		return lexicon.Positive
	}
	return lexicon.Negative
}

// Events turns a complex tuple with a trigger predicate into an
// EventRecord under pipeline.KeyEvent. The record carries the trigger
// polarity, flipped when the trigger clause is negated, and the lemma of
// the embedded predicate. Other items are discarded.
type Events struct{}

func (Events) Name() string { return "events" }

func (Events) Process(_ context.Context, _ *pipeline.Item, s *pipeline.Scratch) (pipeline.Status, error) {
	t, err := pipeline.Get[*clause.Tuple](s, pipeline.KeySentence)
	if err != nil {
		return pipeline.Continue, err
	}
	if !t.IsComplex() || t.Trigger == nil {
		return pipeline.Discard, nil
	}

	polarity := t.Trigger.Polarity
	if t.IsNegated() {
		polarity = polarity.Flip()
	}
	s.Set(pipeline.KeyEvent, types.EventRecord{
		Trigger:  t.Trigger.Lemma,
		Polarity: int(polarity),
		Event:    t.Embedded().Predicate.Lemma,
	})
	return pipeline.Continue, nil
}

// Opinion classifies the attitude of the outer subject towards the
// participant of an embedded goal-fulfilling/blocking event. It needs a
// complex tuple whose outer predicate is a trigger and whose embedded
// predicate is in the GFBF lexicon; other items are discarded.
//
// On success it sets the holder and target nodes, the combined mood and the
// matched GFBF lemma.
type Opinion struct {
	gfbf clause.TriggerLookup
}

// NewOpinion returns an opinion stage over the given event lexicon.
func NewOpinion(gfbf clause.TriggerLookup) *Opinion {
	return &Opinion{gfbf: gfbf}
}

func (o *Opinion) Name() string { return "opinion" }

func (o *Opinion) Process(_ context.Context, _ *pipeline.Item, s *pipeline.Scratch) (pipeline.Status, error) {
	t, err := pipeline.Get[*clause.Tuple](s, pipeline.KeySentence)
	if err != nil {
		return pipeline.Continue, err
	}
	if !t.IsComplex() || t.Trigger == nil || t.Subject == nil {
		return pipeline.Discard, nil
	}

	inner := t.Embedded()
	event, ok := o.gfbf.Lookup(inner.Predicate.Lemma)
	if !ok {
		return pipeline.Discard, nil
	}
	target := opinionTarget(inner)
	if target == nil {
		return pipeline.Discard, nil
	}

	s.Set(pipeline.KeyOpinionHolder, t.Subject)
	s.Set(pipeline.KeyOpinionTarget, target)
	s.Set(pipeline.KeyOpinionMood, CombinePolarity(t.Trigger.Polarity, event.Polarity, t.IsNegated(), inner.IsNegated()))
	s.Set(pipeline.KeyGFBFEvent, event.Lemma)
	return pipeline.Continue, nil
}

// opinionTarget is the entity affected by the embedded event: its terminal
// object when present, else its subject.
func opinionTarget(inner *clause.Tuple) *deptree.Node {
	if inner.Object.Kind() == clause.ObjectNode {
		return inner.Object.Node()
	}
	return inner.Subject
}
