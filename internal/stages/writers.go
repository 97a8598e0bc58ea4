// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package stages

import (
	"context"
	"fmt"
	"io"

	"github.com/pdiddy/clause-engine/internal/clause"
	"github.com/pdiddy/clause-engine/internal/conll"
	"github.com/pdiddy/clause-engine/internal/deptree"
	"github.com/pdiddy/clause-engine/internal/lexicon"
	"github.com/pdiddy/clause-engine/internal/pipeline"
	"github.com/pdiddy/clause-engine/pkg/types"
)

// CandidateWriter re-serializes surviving forests in the input record
// format, numbering sentences from 1.
type CandidateWriter struct {
	enc *conll.Encoder
}

// NewCandidateWriter returns a writer appending to w.
func NewCandidateWriter(w io.Writer) *CandidateWriter {
	return &CandidateWriter{enc: conll.NewEncoder(w)}
}

func (c *CandidateWriter) Name() string { return "write_candidates" }

func (c *CandidateWriter) Process(_ context.Context, item *pipeline.Item, _ *pipeline.Scratch) (pipeline.Status, error) {
	if err := c.enc.Encode(item.Forest); err != nil {
		return pipeline.Continue, fmt.Errorf("writing candidate: %w", err)
	}
	return pipeline.Continue, nil
}

// Written returns the number of sentences written.
func (c *CandidateWriter) Written() int { return c.enc.Count() }

// EventWriter writes one "trigger<TAB>sign<TAB>event" line per item.
type EventWriter struct {
	w io.Writer
}

// NewEventWriter returns a writer appending to w.
func NewEventWriter(w io.Writer) *EventWriter {
	return &EventWriter{w: w}
}

func (e *EventWriter) Name() string { return "write_events" }

func (e *EventWriter) Process(_ context.Context, _ *pipeline.Item, s *pipeline.Scratch) (pipeline.Status, error) {
	rec, err := pipeline.Get[types.EventRecord](s, pipeline.KeyEvent)
	if err != nil {
		return pipeline.Continue, err
	}
	if _, err := fmt.Fprintf(e.w, "%s\t%s\t%s\n", rec.Trigger, rec.Sign(), rec.Event); err != nil {
		return pipeline.Continue, fmt.Errorf("writing event: %w", err)
	}
	return pipeline.Continue, nil
}

// OpinionWriter writes a free-text block per item:
//
//	<sentence text>
//	<holder> -(<sign>)-> <target>
//	trigger: <trigger lemma>
//	event: <event lemma>
//	<blank line>
type OpinionWriter struct {
	w io.Writer
}

// NewOpinionWriter returns a writer appending to w.
func NewOpinionWriter(w io.Writer) *OpinionWriter {
	return &OpinionWriter{w: w}
}

func (o *OpinionWriter) Name() string { return "write_opinions" }

func (o *OpinionWriter) Process(_ context.Context, item *pipeline.Item, s *pipeline.Scratch) (pipeline.Status, error) {
	t, err := pipeline.Get[*clause.Tuple](s, pipeline.KeySentence)
	if err != nil {
		return pipeline.Continue, err
	}
	holder, err := pipeline.Get[*deptree.Node](s, pipeline.KeyOpinionHolder)
	if err != nil {
		return pipeline.Continue, err
	}
	target, err := pipeline.Get[*deptree.Node](s, pipeline.KeyOpinionTarget)
	if err != nil {
		return pipeline.Continue, err
	}
	mood, err := pipeline.Get[lexicon.Polarity](s, pipeline.KeyOpinionMood)
	if err != nil {
		return pipeline.Continue, err
	}
	event, err := pipeline.Get[string](s, pipeline.KeyGFBFEvent)
	if err != nil {
		return pipeline.Continue, err
	}

	trigger := ""
	if t.Trigger != nil {
		trigger = t.Trigger.Lemma
	}

	_, err = fmt.Fprintf(o.w, "%s\n%s -(%s)-> %s\ntrigger: %s\nevent: %s\n\n",
		item.Forest.FlatText(), holder.Word, mood, target.Word, trigger, event)
	if err != nil {
		return pipeline.Continue, fmt.Errorf("writing opinion: %w", err)
	}
	return pipeline.Continue, nil
}

// Printer writes the tuple of every item as one line.
type Printer struct {
	w io.Writer
}

// NewPrinter returns a printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

func (p *Printer) Name() string { return "print" }

func (p *Printer) Process(_ context.Context, _ *pipeline.Item, s *pipeline.Scratch) (pipeline.Status, error) {
	t, err := pipeline.Get[*clause.Tuple](s, pipeline.KeySentence)
	if err != nil {
		return pipeline.Continue, err
	}
	fmt.Fprintln(p.w, t)
	return pipeline.Continue, nil
}

// EventSink persists event records.
type EventSink interface {
	Record(ctx context.Context, e types.EventRecord) error
}

// Recorder hands the item's event record to a sink.
type Recorder struct {
	sink EventSink
}

// NewRecorder returns a recorder over sink.
func NewRecorder(sink EventSink) *Recorder {
	return &Recorder{sink: sink}
}

func (r *Recorder) Name() string { return "record" }

func (r *Recorder) Process(ctx context.Context, _ *pipeline.Item, s *pipeline.Scratch) (pipeline.Status, error) {
	rec, err := pipeline.Get[types.EventRecord](s, pipeline.KeyEvent)
	if err != nil {
		return pipeline.Continue, err
	}
	if err := r.sink.Record(ctx, rec); err != nil {
		return pipeline.Continue, fmt.Errorf("recording event: %w", err)
	}
	return pipeline.Continue, nil
}
