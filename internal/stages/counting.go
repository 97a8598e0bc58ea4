// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package stages

import (
	"context"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pdiddy/clause-engine/internal/pipeline"
)

// Counter counts the items that reach it.
type Counter struct {
	name string
	n    int
	prom prometheus.Counter
}

// NewCounter returns a counter mirrored into prom when prom is not nil.
func NewCounter(name string, prom prometheus.Counter) *Counter {
	return &Counter{name: name, prom: prom}
}

func (c *Counter) Name() string { return "count(" + c.name + ")" }

// Process increments the count.
func (c *Counter) Process(context.Context, *pipeline.Item, *pipeline.Scratch) (pipeline.Status, error) {
	c.n++
	if c.prom != nil {
		c.prom.Inc()
	}
	return pipeline.Continue, nil
}

// Value returns the number of items counted.
func (c *Counter) Value() int { return c.n }

// Limiter stops the run once more than limit items have reached it.
type Limiter struct {
	limit int
	n     int
}

// NewLimiter returns a limiter letting limit items through.
func NewLimiter(limit int) *Limiter {
	return &Limiter{limit: limit}
}

func (l *Limiter) Name() string { return fmt.Sprintf("limit(%d)", l.limit) }

func (l *Limiter) Process(context.Context, *pipeline.Item, *pipeline.Scratch) (pipeline.Status, error) {
	l.n++
	if l.n > l.limit {
		return pipeline.Stop, nil
	}
	return pipeline.Continue, nil
}

// Progress prints the value of a counter every time it advanced by at least
// every items since the last line. It never affects flow.
type Progress struct {
	counter *Counter
	every   int
	w       io.Writer
	last    int
}

// NewProgress returns a reporter on c writing to w.
func NewProgress(c *Counter, every int, w io.Writer) *Progress {
	if every <= 0 {
		every = 1
	}
	return &Progress{counter: c, every: every, w: w}
}

func (p *Progress) Name() string { return "progress(" + p.counter.name + ")" }

func (p *Progress) Process(context.Context, *pipeline.Item, *pipeline.Scratch) (pipeline.Status, error) {
	if n := p.counter.Value(); n-p.last >= p.every {
		p.last = n
		fmt.Fprintf(p.w, "%s: %d\n", p.counter.name, n)
	}
	return pipeline.Continue, nil
}
