// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package conll

import (
	"bufio"
	"fmt"
	"io"

	"github.com/pdiddy/clause-engine/internal/deptree"
)

const blank = "_"

// Encoder writes forests back in the 14-column record format. Each forest
// gets the next value of a running counter as its sentence index, so the
// output of one encoder is a valid stream for Decoder.
type Encoder struct {
	w     *bufio.Writer
	count int
}

// NewEncoder returns an Encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: bufio.NewWriter(w)}
}

// Count returns the number of forests written so far.
func (e *Encoder) Count() int {
	return e.count
}

// Encode writes f followed by a blank line and flushes.
func (e *Encoder) Encode(f deptree.Forest) error {
	e.count++
	for _, n := range f.Nodes() {
		rel := n.Relation()
		if rel == "" {
			rel = blank
		}
		_, err := fmt.Fprintf(e.w, "%d_%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
			e.count, n.ID, n.Word, blank, n.Lemma, blank, n.POS, blank, blank, blank,
			n.ParentID(), blank, rel, blank, blank)
		if err != nil {
			return fmt.Errorf("writing record %d_%d: %w", e.count, n.ID, err)
		}
	}
	if _, err := e.w.WriteString("\n"); err != nil {
		return fmt.Errorf("writing sentence terminator: %w", err)
	}
	return e.w.Flush()
}
