// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package deptree

import "sort"

// Forest is the list of root trees decoded from one sentence block. Most
// blocks have a single root; the parser sometimes splits a sentence into
// several parent-0 fragments.
type Forest []*Node

// AddRoot appends a root node. label is the relation column of the root
// record and is kept so the forest can be re-serialized unchanged.
func (f *Forest) AddRoot(root *Node, label string) {
	root.parent = nil
	root.relation = label
	*f = append(*f, root)
}

// Main returns the root with the most direct children, the first one on a
// tie. It returns nil for an empty forest.
func (f Forest) Main() *Node {
	var best *Node
	for _, root := range f {
		if best == nil || root.ChildCount() > best.ChildCount() {
			best = root
		}
	}
	return best
}

// Nodes returns every node of every tree sorted by token id.
func (f Forest) Nodes() []*Node {
	var all []*Node
	for _, root := range f {
		root.collect(&all)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all
}

// Len returns the total number of nodes in the forest.
func (f Forest) Len() int {
	return len(f.Nodes())
}

// FlatText joins the words of all trees in token order.
func (f Forest) FlatText() string {
	nodes := f.Nodes()
	words := make([]byte, 0, len(nodes)*8)
	for i, n := range nodes {
		if i > 0 {
			words = append(words, ' ')
		}
		words = append(words, n.Word...)
	}
	return string(words)
}
