// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package clause

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/clause-engine/internal/conll"
	"github.com/pdiddy/clause-engine/internal/deptree"
	"github.com/pdiddy/clause-engine/internal/lexicon"
)

func decode(t *testing.T, input string) deptree.Forest {
	t.Helper()
	f, err := conll.NewDecoder(strings.NewReader(input)).Decode()
	require.NoError(t, err)
	return f
}

func triggers(t *testing.T) *lexicon.Lexicon {
	t.Helper()
	lex, err := lexicon.Read(strings.NewReader("glauben +\nbezweifeln -\n"), "triggers")
	require.NoError(t, err)
	return lex
}

// "Peter arbeitet"
const subjectOnly = "1_1\tPeter\t_\tPeter\t_\tNE\t_\t_\t_\t2\t_\tSB\t_\t_\n" +
	"1_2\tarbeitet\t_\tarbeiten\t_\tVVFIN\t_\t_\t_\t0\t_\t--\t_\t_\n\n"

// "Peter glaubt nicht , dass Maria Hans hilft"
const nested = "1_1\tPeter\t_\tPeter\t_\tNE\t_\t_\t_\t2\t_\tSB\t_\t_\n" +
	"1_2\tglaubt\t_\tglauben\t_\tVVFIN\t_\t_\t_\t0\t_\t--\t_\t_\n" +
	"1_3\tnicht\t_\tnicht\t_\tPTKNEG\t_\t_\t_\t2\t_\tNG\t_\t_\n" +
	"1_4\t,\t_\t,\t_\t$,\t_\t_\t_\t2\t_\tPUNC\t_\t_\n" +
	"1_5\tdass\t_\tdass\t_\tKOUS\t_\t_\t_\t8\t_\tCP\t_\t_\n" +
	"1_6\tMaria\t_\tMaria\t_\tNE\t_\t_\t_\t8\t_\tSB\t_\t_\n" +
	"1_7\tHans\t_\tHans\t_\tNE\t_\t_\t_\t8\t_\tOA\t_\t_\n" +
	"1_8\thilft\t_\thelfen\t_\tVVFIN\t_\t_\t_\t2\t_\tOC\t_\t_\n\n"

func TestAnalyseSubjectOnly(t *testing.T) {
	f := decode(t, subjectOnly)

	strict := &Analyser{}
	assert.Nil(t, strict.AnalyseForest(f))

	lenient := &Analyser{AllowSubjectOnly: true}
	tup := lenient.AnalyseForest(f)
	require.NotNil(t, tup)
	assert.Equal(t, "Peter", tup.Subject.Word)
	assert.Equal(t, ObjectNone, tup.Object.Kind())
	assert.Nil(t, tup.Object.Node())
	assert.False(t, tup.IsComplex())
	assert.Equal(t, 0, tup.EmbeddingDepth())
}

func TestAnalyseNested(t *testing.T) {
	f := decode(t, nested)
	a := &Analyser{Triggers: triggers(t)}

	outer := a.AnalyseForest(f)
	require.NotNil(t, outer)
	assert.Equal(t, "glaubt", outer.Predicate.Word)
	assert.Equal(t, "Peter", outer.Subject.Word)
	assert.True(t, outer.IsComplex())
	assert.Equal(t, 1, outer.EmbeddingDepth())
	require.NotNil(t, outer.Trigger)
	assert.Equal(t, Trigger{Lemma: "glauben", Polarity: lexicon.Positive}, *outer.Trigger)
	assert.True(t, outer.IsNegated())

	inner := outer.Embedded()
	require.NotNil(t, inner)
	assert.Equal(t, "hilft", inner.Predicate.Word)
	assert.Equal(t, "Maria", inner.Subject.Word)
	assert.Equal(t, "Hans", inner.Object.Node().Word)
	assert.False(t, inner.IsComplex())
	assert.Equal(t, 0, inner.EmbeddingDepth())
	assert.Nil(t, inner.Trigger)
	assert.False(t, inner.IsNegated())
}

func TestAnalyseFlatWinsOverComplement(t *testing.T) {
	root := deptree.NewNode(2, "sagt", "sagen", "VVFIN")
	root.AddChild(deptree.NewNode(1, "Anna", "Anna", "NE"), LabelSubject)
	root.AddChild(deptree.NewNode(3, "das", "das", "PDS"), LabelObject)
	comp := deptree.NewNode(5, "kommt", "kommen", "VVFIN")
	comp.AddChild(deptree.NewNode(4, "Ben", "Ben", "NE"), LabelSubject)
	comp.AddChild(deptree.NewNode(6, "Kuchen", "Kuchen", "NN"), LabelObject)
	root.AddChild(comp, LabelComplement)

	tup := (&Analyser{}).Analyse(root)
	require.NotNil(t, tup)
	assert.Equal(t, ObjectNode, tup.Object.Kind())
	assert.Equal(t, "das", tup.Object.Node().Word)
}

func TestAnalyseFailures(t *testing.T) {
	tests := []struct {
		name  string
		build func() *deptree.Node
	}{
		{
			name: "no subject",
			build: func() *deptree.Node {
				root := deptree.NewNode(1, "regnet", "regnen", "VVFIN")
				root.AddChild(deptree.NewNode(2, "Hunde", "Hund", "NN"), LabelObject)
				return root
			},
		},
		{
			name: "ambiguous subject",
			build: func() *deptree.Node {
				root := deptree.NewNode(3, "sehen", "sehen", "VVFIN")
				root.AddChild(deptree.NewNode(1, "Anna", "Anna", "NE"), LabelSubject)
				root.AddChild(deptree.NewNode(2, "Ben", "Ben", "NE"), LabelSubject)
				root.AddChild(deptree.NewNode(4, "ihn", "er", "PPER"), LabelObject)
				return root
			},
		},
		{
			name: "complement without subject at outer level",
			build: func() *deptree.Node {
				root := deptree.NewNode(1, "scheint", "scheinen", "VVFIN")
				comp := deptree.NewNode(3, "sieht", "sehen", "VVFIN")
				comp.AddChild(deptree.NewNode(2, "Anna", "Anna", "NE"), LabelSubject)
				comp.AddChild(deptree.NewNode(4, "Ben", "Ben", "NE"), LabelObject)
				root.AddChild(comp, LabelComplement)
				return root
			},
		},
		{
			name: "unresolvable complement",
			build: func() *deptree.Node {
				root := deptree.NewNode(2, "glaubt", "glauben", "VVFIN")
				root.AddChild(deptree.NewNode(1, "Anna", "Anna", "NE"), LabelSubject)
				root.AddChild(deptree.NewNode(3, "schlafen", "schlafen", "VVINF"), LabelComplement)
				return root
			},
		},
		{name: "nil node", build: func() *deptree.Node { return nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, (&Analyser{}).Analyse(tt.build()))
		})
	}
}

func TestAnalyseEmptyForest(t *testing.T) {
	assert.Nil(t, (&Analyser{AllowSubjectOnly: true}).AnalyseForest(deptree.Forest{}))
}

func TestEmbeddingDepthTwoLevels(t *testing.T) {
	// "Anna sagt , Ben glaubt , Carl mag Dora"
	inner := deptree.NewNode(9, "mag", "mögen", "VVFIN")
	inner.AddChild(deptree.NewNode(8, "Carl", "Carl", "NE"), LabelSubject)
	inner.AddChild(deptree.NewNode(10, "Dora", "Dora", "NE"), LabelObject)
	middle := deptree.NewNode(5, "glaubt", "glauben", "VVFIN")
	middle.AddChild(deptree.NewNode(4, "Ben", "Ben", "NE"), LabelSubject)
	middle.AddChild(inner, LabelComplement)
	outer := deptree.NewNode(2, "sagt", "sagen", "VVFIN")
	outer.AddChild(deptree.NewNode(1, "Anna", "Anna", "NE"), LabelSubject)
	outer.AddChild(middle, LabelComplement)

	tup := (&Analyser{}).Analyse(outer)
	require.NotNil(t, tup)
	assert.Equal(t, 2, tup.EmbeddingDepth())
	assert.Equal(t, 1+tup.Embedded().EmbeddingDepth(), tup.EmbeddingDepth())
	assert.Equal(t, 0, tup.Embedded().Embedded().EmbeddingDepth())
}

func TestHasUnresolvedPronoun(t *testing.T) {
	pronoun := func(id int) *deptree.Node { return deptree.NewNode(id, "er", "er", POSPronoun) }
	name := func(id int) *deptree.Node { return deptree.NewNode(id, "Anna", "Anna", POSNamedEntity) }
	pred := deptree.NewNode(0, "sieht", "sehen", "VVFIN")

	flat := func(subj, obj *deptree.Node) *Tuple {
		return &Tuple{Predicate: pred, Subject: subj, Object: NodeObject(obj)}
	}

	tests := []struct {
		name string
		tup  *Tuple
		want bool
	}{
		{name: "clean flat", tup: flat(name(1), name(2)), want: false},
		{name: "pronoun subject", tup: flat(pronoun(1), name(2)), want: true},
		{name: "pronoun object", tup: flat(name(1), pronoun(2)), want: true},
		{name: "subject only", tup: &Tuple{Predicate: pred, Subject: name(1)}, want: false},
		{
			name: "pronoun in embedded object",
			tup:  &Tuple{Predicate: pred, Subject: name(1), Object: ClauseObject(flat(name(3), pronoun(4)))},
			want: true,
		},
		{
			name: "clean embedded",
			tup:  &Tuple{Predicate: pred, Subject: name(1), Object: ClauseObject(flat(name(3), name(4)))},
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.tup.HasUnresolvedPronoun())
		})
	}
}

func TestTupleString(t *testing.T) {
	f := decode(t, nested)
	tup := (&Analyser{}).AnalyseForest(f)
	require.NotNil(t, tup)

	want := `glaubt, Peter, _, nicht,hilft, Maria, Hans, , "Peter glaubt nicht , dass Maria Hans hilft"`
	assert.Equal(t, want, tup.String())
}

func TestObjectKindString(t *testing.T) {
	assert.Equal(t, "none", ObjectNone.String())
	assert.Equal(t, "node", ObjectNode.String())
	assert.Equal(t, "clause", ObjectClause.String())
}
