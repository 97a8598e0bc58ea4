// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package conll reads and writes the columnar dependency record format
// produced by the corpus parser, and walks directories of compressed
// record shards.
//
// One token per line, whitespace separated; a blank line ends a sentence.
// Column 0 is "<sentence>_<token>", 1 the word, 3 the lemma, 5 the POS tag,
// 9 the parent token id (0 for roots) and 11 the relation label.
package conll

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pdiddy/clause-engine/internal/deptree"
)

// Column positions of the 14-column record.
const (
	ColID       = 0
	ColWord     = 1
	ColLemma    = 3
	ColPOS      = 5
	ColParent   = 9
	ColRelation = 11

	// NumColumns is the width of a full record.
	NumColumns = 14

	minColumns = ColRelation + 1
	maxLineLen = 1 << 20
)

// RecordError reports a malformed line. The block containing it is skipped;
// blocks before and after it decode normally.
type RecordError struct {
	Line   int
	Reason string
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

type rawRecord struct {
	node  *deptree.Node
	label string
}

// Decoder reads sentence blocks from a record stream.
type Decoder struct {
	sc    *bufio.Scanner
	line  int
	index string
}

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineLen)
	return &Decoder{sc: sc}
}

// Index returns the sentence index (the part of column 0 before the
// underscore) of the most recently decoded block.
func (d *Decoder) Index() string {
	return d.index
}

// Decode reads the next block and assembles its forest. It returns io.EOF
// once the stream holds no more records. Blank lines between blocks are
// skipped. A block without any parent-0 record yields an empty forest and a
// nil error. A malformed record yields a *RecordError after the rest of its
// block has been consumed.
func (d *Decoder) Decode() (deptree.Forest, error) {
	groups := make(map[int][]rawRecord)
	read := 0
	var recErr error

	for d.sc.Scan() {
		d.line++
		text := d.sc.Text()
		if strings.TrimSpace(text) == "" {
			if read == 0 && recErr == nil {
				continue
			}
			break
		}
		read++
		if recErr != nil {
			continue
		}

		parent, rec, index, err := parseRecord(text)
		if err != nil {
			recErr = &RecordError{Line: d.line, Reason: err.Error()}
			continue
		}
		if read == 1 {
			d.index = index
		}
		groups[parent] = append(groups[parent], rec)
	}
	if err := d.sc.Err(); err != nil {
		return nil, fmt.Errorf("reading records: %w", err)
	}

	if recErr != nil {
		return nil, recErr
	}
	if read == 0 {
		return nil, io.EOF
	}

	return assemble(groups), nil
}

// assemble links grouped records into trees starting from the parent-0
// group. Each group is consumed once, so duplicate ids cannot loop.
func assemble(groups map[int][]rawRecord) deptree.Forest {
	forest := deptree.Forest{}
	for _, rec := range groups[0] {
		forest.AddRoot(rec.node, rec.label)
	}
	delete(groups, 0)

	for _, root := range forest {
		pending := []*deptree.Node{root}
		for len(pending) > 0 {
			node := pending[len(pending)-1]
			pending = pending[:len(pending)-1]

			children, ok := groups[node.ID]
			if !ok {
				continue
			}
			delete(groups, node.ID)
			for _, c := range children {
				node.AddChild(c.node, c.label)
				pending = append(pending, c.node)
			}
		}
	}
	return forest
}

func parseRecord(line string) (parent int, rec rawRecord, index string, err error) {
	cols := strings.Fields(line)
	if len(cols) < minColumns {
		return 0, rawRecord{}, "", fmt.Errorf("expected at least %d columns, got %d", minColumns, len(cols))
	}

	sep := strings.LastIndexByte(cols[ColID], '_')
	if sep < 0 {
		return 0, rawRecord{}, "", fmt.Errorf("id %q is not <sentence>_<token>", cols[ColID])
	}
	id, err := strconv.Atoi(cols[ColID][sep+1:])
	if err != nil {
		return 0, rawRecord{}, "", fmt.Errorf("token id %q: %w", cols[ColID], err)
	}
	parent, err = strconv.Atoi(cols[ColParent])
	if err != nil {
		return 0, rawRecord{}, "", fmt.Errorf("parent id %q: %w", cols[ColParent], err)
	}

	node := deptree.NewNode(id, cols[ColWord], cols[ColLemma], cols[ColPOS])
	return parent, rawRecord{node: node, label: cols[ColRelation]}, cols[ColID][:sep], nil
}
