// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package deptree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildSentence assembles "Peter glaubt , dass Maria Hans hilft" with the
// verb as root, so tree order differs from token order.
func buildSentence() *Node {
	glaubt := NewNode(2, "glaubt", "glauben", "VVFIN")
	peter := NewNode(1, "Peter", "Peter", "NE")
	comma := NewNode(3, ",", ",", "$,")
	hilft := NewNode(7, "hilft", "helfen", "VVFIN")
	dass := NewNode(4, "dass", "dass", "KOUS")
	maria := NewNode(5, "Maria", "Maria", "NE")
	hans := NewNode(6, "Hans", "Hans", "NE")

	glaubt.AddChild(hilft, "OC")
	glaubt.AddChild(comma, "PUNC")
	glaubt.AddChild(peter, "SB")
	hilft.AddChild(hans, "DA")
	hilft.AddChild(maria, "SB")
	hilft.AddChild(dass, "CP")
	return glaubt
}

func TestFlatTextRestoresTokenOrder(t *testing.T) {
	root := buildSentence()
	assert.Equal(t, "Peter glaubt , dass Maria Hans hilft", root.FlatText())

	hilft, ok := root.FindChildByLabel("OC")
	require.True(t, ok)
	assert.Equal(t, "dass Maria Hans hilft", hilft.FlatText())
}

func TestFindChildByLabel(t *testing.T) {
	root := NewNode(2, "sieht", "sehen", "VVFIN")
	root.AddChild(NewNode(1, "Anna", "Anna", "NE"), "SB")
	root.AddChild(NewNode(3, "heute", "heute", "ADV"), "MO")
	root.AddChild(NewNode(4, "dort", "dort", "ADV"), "MO")

	tests := []struct {
		name   string
		label  string
		wantOK bool
		wantID int
	}{
		{name: "exactly one match", label: "SB", wantOK: true, wantID: 1},
		{name: "no match", label: "OA", wantOK: false},
		{name: "ambiguous match", label: "MO", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := root.FindChildByLabel(tt.label)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				require.NotNil(t, got)
				assert.Equal(t, tt.wantID, got.ID)
			} else {
				assert.Nil(t, got)
			}
		})
	}

	assert.Len(t, root.FindChildrenByLabel("MO"), 2)
}

func TestFindChildrenByPOS(t *testing.T) {
	root := NewNode(2, "kommt", "kommen", "VVFIN")
	root.AddChild(NewNode(1, "er", "er", "PPER"), "SB")
	root.AddChild(NewNode(3, "nicht", "nicht", "PTKNEG"), "NG")
	root.AddChild(NewNode(4, "heute", "heute", "ADV"), "MO")

	adv := root.FindChildrenByPOS("ADV")
	require.Len(t, adv, 1)
	assert.Equal(t, "heute", adv[0].Word)
	assert.Empty(t, root.FindChildrenByPOS("NN"))
}

func TestParentLinks(t *testing.T) {
	root := buildSentence()
	assert.True(t, root.IsRoot())
	assert.Equal(t, 0, root.ParentID())

	peter, ok := root.FindChildByLabel("SB")
	require.True(t, ok)
	assert.False(t, peter.IsRoot())
	assert.Same(t, root, peter.Parent())
	assert.Equal(t, 2, peter.ParentID())
	assert.Equal(t, "SB", peter.Relation())
	assert.Equal(t, 3, root.ChildCount())
}

func TestNodesSortedByID(t *testing.T) {
	nodes := buildSentence().Nodes()
	require.Len(t, nodes, 7)
	for i, n := range nodes {
		assert.Equal(t, i+1, n.ID)
	}
}

func TestString(t *testing.T) {
	root := NewNode(2, "arbeitet", "arbeiten", "VVFIN")
	root.AddChild(NewNode(1, "Peter", "Peter", "NE"), "SB")

	want := "arbeitet (arbeiten); VVFIN\n\tSB: Peter (Peter); NE"
	assert.Equal(t, want, root.String())
}

func TestForestMain(t *testing.T) {
	small := NewNode(5, "ja", "ja", "PTKANT")
	big := buildSentence()

	var f Forest
	f.AddRoot(small, "--")
	f.AddRoot(big, "--")

	assert.Same(t, big, f.Main())
	assert.Equal(t, 8, f.Len())
	assert.Equal(t, "--", small.Relation())

	var empty Forest
	assert.Nil(t, empty.Main())
	assert.Equal(t, "", empty.FlatText())
}

func TestForestMainTieKeepsFirst(t *testing.T) {
	a := NewNode(1, "a", "a", "X")
	b := NewNode(2, "b", "b", "X")
	var f Forest
	f.AddRoot(a, "--")
	f.AddRoot(b, "--")
	assert.Same(t, a, f.Main())
	assert.Equal(t, "a b", f.FlatText())
}
