// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline drives sentence forests through an ordered chain of
// stages. Each stage may continue, discard the current item, or stop the
// whole run. Errors and panics raised by a stage only discard the item
// they occurred on.
package pipeline

import (
	"context"
	"fmt"
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/pdiddy/clause-engine/internal/deptree"
)

// Status is a stage's verdict on the current item.
type Status int

const (
	// Continue passes the item to the next stage.
	Continue Status = iota
	// Discard drops the item; the run moves on to the next one.
	Discard
	// Stop ends the run.
	Stop
)

func (s Status) String() string {
	switch s {
	case Continue:
		return "continue"
	case Discard:
		return "discard"
	case Stop:
		return "stop"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Item is one sentence forest plus the identity used in fault reports.
type Item struct {
	Shard    string
	Sentence string
	Forest   deptree.Forest
}

// Stage is one step of the chain.
type Stage interface {
	Name() string
	Process(ctx context.Context, item *Item, s *Scratch) (Status, error)
}

// StageFunc adapts a function to Stage.
type StageFunc struct {
	StageName string
	Fn        func(ctx context.Context, item *Item, s *Scratch) (Status, error)
}

// Name returns the stage name.
func (f StageFunc) Name() string { return f.StageName }

// Process calls Fn.
func (f StageFunc) Process(ctx context.Context, item *Item, s *Scratch) (Status, error) {
	return f.Fn(ctx, item, s)
}

// StageFault describes an item abandoned because a stage failed on it.
type StageFault struct {
	Stage    string
	Shard    string
	Sentence string
	Err      error
}

func (f *StageFault) Error() string {
	return fmt.Sprintf("stage %s failed on %s:%s: %v", f.Stage, f.Shard, f.Sentence, f.Err)
}

func (f *StageFault) Unwrap() error { return f.Err }

// Stats counts item outcomes.
type Stats struct {
	Items     int
	Completed int
	Discarded int
	Faulted   int
	Stopped   bool
}

// Processor runs items through its stages in order.
type Processor struct {
	stages  []Stage
	log     *zap.Logger
	onFault func(*StageFault)
	stats   Stats
}

// Option configures a Processor.
type Option func(*Processor)

// WithLogger sets the logger used for fault reports.
func WithLogger(log *zap.Logger) Option {
	return func(p *Processor) { p.log = log }
}

// WithFaultHandler registers a callback invoked for every stage fault.
func WithFaultHandler(fn func(*StageFault)) Option {
	return func(p *Processor) { p.onFault = fn }
}

// New returns a Processor over stages.
func New(stages []Stage, opts ...Option) *Processor {
	p := &Processor{
		stages: stages,
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Stages returns the configured stage names in order.
func (p *Processor) Stages() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name()
	}
	return names
}

// Stats returns the outcome counts so far.
func (p *Processor) Stats() Stats {
	return p.stats
}

// Process runs item through the chain with a fresh Scratch. It returns false
// once a stage asked to stop or ctx is done; the caller should then stop
// feeding items.
func (p *Processor) Process(ctx context.Context, item Item) bool {
	if p.stats.Stopped {
		return false
	}
	if ctx.Err() != nil {
		p.stats.Stopped = true
		return false
	}

	p.stats.Items++
	scratch := NewScratch()

	for _, stage := range p.stages {
		status, err := p.run(ctx, stage, &item, scratch)
		if err != nil {
			p.fault(&StageFault{Stage: stage.Name(), Shard: item.Shard, Sentence: item.Sentence, Err: err})
			return true
		}

		switch status {
		case Continue:
			continue
		case Discard:
			p.stats.Discarded++
			return true
		case Stop:
			p.stats.Stopped = true
			p.log.Info("stage stopped the run", zap.String("stage", stage.Name()), zap.Int("items", p.stats.Items))
			return false
		default:
			p.fault(&StageFault{Stage: stage.Name(), Shard: item.Shard, Sentence: item.Sentence,
				Err: fmt.Errorf("invalid status %v", status)})
			return true
		}
	}

	p.stats.Completed++
	return true
}

// run invokes one stage, converting a panic into an error.
func (p *Processor) run(ctx context.Context, stage Stage, item *Item, s *Scratch) (status Status, err error) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Debug("stage panic", zap.String("stage", stage.Name()), zap.ByteString("stack", debug.Stack()))
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return stage.Process(ctx, item, s)
}

func (p *Processor) fault(f *StageFault) {
	p.stats.Faulted++
	p.log.Warn("item discarded after stage fault",
		zap.String("stage", f.Stage),
		zap.String("shard", f.Shard),
		zap.String("sentence", f.Sentence),
		zap.Error(f.Err),
	)
	if p.onFault != nil {
		p.onFault(f)
	}
}
