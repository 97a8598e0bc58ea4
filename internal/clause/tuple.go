// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package clause extracts predicate/subject/object tuples from dependency
// trees and resolves clausal complements into nested tuples, so that
// "A claims [B did C]" becomes a tuple whose object is another tuple.
package clause

import (
	"fmt"
	"strings"

	"github.com/pdiddy/clause-engine/internal/deptree"
	"github.com/pdiddy/clause-engine/internal/lexicon"
)

// Relation labels and POS tags of the TIGER/STTS scheme used by the corpus.
const (
	LabelSubject    = "SB"
	LabelObject     = "OA"
	LabelComplement = "OC"
	LabelModifier   = "MO"

	POSAdverb      = "ADV"
	POSNegation    = "PTKNEG"
	POSPronoun     = "PPER"
	POSReflexive   = "PRF"
	POSNamedEntity = "NE"
)

const blankSlot = "_"

// ObjectKind tells which variant an Object holds.
type ObjectKind int

const (
	ObjectNone ObjectKind = iota
	ObjectNode
	ObjectClause
)

func (k ObjectKind) String() string {
	switch k {
	case ObjectNode:
		return "node"
	case ObjectClause:
		return "clause"
	}
	return "none"
}

// Object is the object slot of a Tuple: a terminal node, an embedded
// clause, or nothing.
type Object struct {
	kind   ObjectKind
	node   *deptree.Node
	clause *Tuple
}

// NoObject returns the empty object.
func NoObject() Object { return Object{} }

// NodeObject wraps a terminal object node.
func NodeObject(n *deptree.Node) Object { return Object{kind: ObjectNode, node: n} }

// ClauseObject wraps an embedded clause.
func ClauseObject(t *Tuple) Object { return Object{kind: ObjectClause, clause: t} }

// Kind returns the variant held by o.
func (o Object) Kind() ObjectKind { return o.kind }

// Node returns the terminal node, or nil unless Kind is ObjectNode.
func (o Object) Node() *deptree.Node { return o.node }

// Clause returns the embedded tuple, or nil unless Kind is ObjectClause.
func (o Object) Clause() *Tuple { return o.clause }

// Trigger is a lexicon match for a predicate.
type Trigger struct {
	Lemma    string
	Polarity lexicon.Polarity
}

// Tuple is one predicate with its arguments.
type Tuple struct {
	Predicate *deptree.Node
	Subject   *deptree.Node
	Object    Object
	Modifiers []*deptree.Node

	// Trigger is set when the predicate lemma matched the trigger lexicon.
	Trigger *Trigger
}

// IsComplex reports whether the object is an embedded clause.
func (t *Tuple) IsComplex() bool {
	return t.Object.Kind() == ObjectClause
}

// EmbeddingDepth counts nested clause links below t: 0 for a flat tuple.
func (t *Tuple) EmbeddingDepth() int {
	depth := 0
	for cur := t; cur.IsComplex(); cur = cur.Object.Clause() {
		depth++
	}
	return depth
}

// Embedded returns the directly embedded tuple, or nil.
func (t *Tuple) Embedded() *Tuple {
	return t.Object.Clause()
}

// HasUnresolvedPronoun reports whether the subject, or any subject or
// terminal object down the embedding chain, is a personal pronoun.
func (t *Tuple) HasUnresolvedPronoun() bool {
	if t.Subject != nil && t.Subject.POS == POSPronoun {
		return true
	}
	switch t.Object.Kind() {
	case ObjectClause:
		return t.Object.Clause().HasUnresolvedPronoun()
	case ObjectNode:
		return t.Object.Node().POS == POSPronoun
	}
	return false
}

// IsNegated reports whether a negation particle modifies the predicate.
func (t *Tuple) IsNegated() bool {
	for _, m := range t.Modifiers {
		if m.POS == POSNegation {
			return true
		}
	}
	return false
}

// String renders "pred, subj, obj, mods," followed by the embedded tuple,
// then the predicate's flattened text in quotes.
func (t *Tuple) String() string {
	return fmt.Sprintf("%s %q", t.slots(), t.Predicate.FlatText())
}

func (t *Tuple) slots() string {
	subject := blankSlot
	if t.Subject != nil {
		subject = t.Subject.Word
	}

	object := blankSlot
	if t.Object.Kind() == ObjectNode {
		object = t.Object.Node().Word
	}

	mods := make([]string, len(t.Modifiers))
	for i, m := range t.Modifiers {
		mods[i] = m.Word
	}

	s := fmt.Sprintf("%s, %s, %s, %s,", t.Predicate.Word, subject, object, strings.Join(mods, " "))
	if t.IsComplex() {
		s += t.Object.Clause().slots()
	}
	return s
}
