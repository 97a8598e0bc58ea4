// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package deptree holds the in-memory form of one dependency-parsed
// sentence: nodes connected by labeled edges, grouped into a Forest.
//
// Trees are assembled once by the stream decoder and are read-only
// afterwards. A child keeps a non-owning pointer to its parent for upward
// lookups; the root owns every descendant.
package deptree

import (
	"fmt"
	"sort"
	"strings"
)

// Node is a single token of a parsed sentence.
type Node struct {
	// ID is the token id, unique within one sentence. It is the ordering
	// key for text reconstruction.
	ID int

	// Word is the surface form.
	Word string

	// Lemma is the base form reported by the parser.
	Lemma string

	// POS is the part-of-speech tag (STTS for German corpora).
	POS string

	relation string
	children []Edge
	parent   *Node
}

// Edge connects a node to one of its children.
type Edge struct {
	Child *Node
	Label string
}

// NewNode creates a detached node.
func NewNode(id int, word, lemma, pos string) *Node {
	return &Node{ID: id, Word: word, Lemma: lemma, POS: pos}
}

// AddChild attaches child under n with the given relation label. It is only
// called while a tree is being assembled.
func (n *Node) AddChild(child *Node, label string) {
	child.parent = n
	child.relation = label
	n.children = append(n.children, Edge{Child: child, Label: label})
}

// IsRoot reports whether n has no parent.
func (n *Node) IsRoot() bool {
	return n.parent == nil
}

// Parent returns the parent node, or nil for a root.
func (n *Node) Parent() *Node {
	return n.parent
}

// ParentID returns the parent's token id, or 0 for a root.
func (n *Node) ParentID() int {
	if n.parent == nil {
		return 0
	}
	return n.parent.ID
}

// Relation returns the label of the edge from the parent to n. For roots it
// is the label the decoder read for the root record.
func (n *Node) Relation() string {
	return n.relation
}

// ChildCount returns the number of direct children.
func (n *Node) ChildCount() int {
	return len(n.children)
}

// Children returns the child edges in attachment order.
func (n *Node) Children() []Edge {
	out := make([]Edge, len(n.children))
	copy(out, n.children)
	return out
}

// FindChildrenByLabel returns every direct child attached with label.
func (n *Node) FindChildrenByLabel(label string) []*Node {
	var matches []*Node
	for _, e := range n.children {
		if e.Label == label {
			matches = append(matches, e.Child)
		}
	}
	return matches
}

// FindChildByLabel returns the child attached with label when exactly one
// such child exists. Zero or several matches both report false.
func (n *Node) FindChildByLabel(label string) (*Node, bool) {
	matches := n.FindChildrenByLabel(label)
	if len(matches) != 1 {
		return nil, false
	}
	return matches[0], true
}

// FindChildrenByPOS returns every direct child tagged with pos.
func (n *Node) FindChildrenByPOS(pos string) []*Node {
	var matches []*Node
	for _, e := range n.children {
		if e.Child.POS == pos {
			matches = append(matches, e.Child)
		}
	}
	return matches
}

// Nodes returns n and all of its descendants sorted by token id.
func (n *Node) Nodes() []*Node {
	var all []*Node
	n.collect(&all)
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all
}

func (n *Node) collect(all *[]*Node) {
	for _, e := range n.children {
		e.Child.collect(all)
	}
	*all = append(*all, n)
}

// FlatText joins the words of n's subtree in token order. Tree order follows
// grammatical attachment, so sorting by id restores the sentence order.
func (n *Node) FlatText() string {
	nodes := n.Nodes()
	words := make([]string, len(nodes))
	for i, node := range nodes {
		words[i] = node.Word
	}
	return strings.Join(words, " ")
}

// String renders the subtree one node per line, indented by depth.
func (n *Node) String() string {
	var b strings.Builder
	n.render(&b, 0, "")
	return b.String()
}

func (n *Node) render(b *strings.Builder, level int, label string) {
	if level > 0 {
		b.WriteByte('\n')
	}
	b.WriteString(strings.Repeat("\t", level))
	if label != "" {
		b.WriteString(label)
		b.WriteString(": ")
	}
	fmt.Fprintf(b, "%s (%s); %s", n.Word, n.Lemma, n.POS)

	edges := n.Children()
	sort.Slice(edges, func(i, j int) bool { return edges[i].Child.ID < edges[j].Child.ID })
	for _, e := range edges {
		e.Child.render(b, level+1, e.Label)
	}
}
