// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package lexicon

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleLexicon = `# opinion triggers
glauben +
Bezweifeln -

hoffen	+
glauben -
`

func TestRead(t *testing.T) {
	lex, err := Read(strings.NewReader(sampleLexicon), "triggers.txt")
	require.NoError(t, err)
	assert.Equal(t, 3, lex.Len())

	tests := []struct {
		lemma  string
		want   Entry
		wantOK bool
	}{
		{lemma: "glauben", want: Entry{Lemma: "glauben", Polarity: Positive}, wantOK: true},
		{lemma: "GLAUBEN", want: Entry{Lemma: "glauben", Polarity: Positive}, wantOK: true},
		{lemma: "bezweifeln", want: Entry{Lemma: "bezweifeln", Polarity: Negative}, wantOK: true},
		{lemma: "hoffen", want: Entry{Lemma: "hoffen", Polarity: Positive}, wantOK: true},
		{lemma: "laufen", wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.lemma, func(t *testing.T) {
			got, ok := lex.Lookup(tt.lemma)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadKeepsFileOrder(t *testing.T) {
	lex, err := Read(strings.NewReader(sampleLexicon), "triggers.txt")
	require.NoError(t, err)

	var lemmas []string
	for _, e := range lex.Entries() {
		lemmas = append(lemmas, e.Lemma)
	}
	assert.Equal(t, []string{"glauben", "bezweifeln", "hoffen"}, lemmas)
}

func TestReadKeepsSharpS(t *testing.T) {
	lex, err := Read(strings.NewReader("Schließen +\nverhindern -\n"), "gfbf.txt")
	require.NoError(t, err)

	got, ok := lex.Lookup("schließen")
	require.True(t, ok)
	assert.Equal(t, Entry{Lemma: "schließen", Polarity: Positive}, got)

	_, ok = lex.Lookup("schliessen")
	assert.False(t, ok)
	assert.Equal(t, "schließen", lex.Entries()[0].Lemma)
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		line  int
	}{
		{name: "missing polarity", input: "glauben\n", line: 1},
		{name: "bad polarity", input: "# c\nglauben ?\n", line: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.input), "bad.txt")
			var perr *ParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.line, perr.Line)
			assert.Contains(t, perr.Error(), "bad.txt")
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gfbf.txt")
	require.NoError(t, os.WriteFile(path, []byte("helfen\t+\nschaden\t-\n"), 0o644))

	lex, err := Load(path)
	require.NoError(t, err)
	e, ok := lex.Lookup("Schaden")
	require.True(t, ok)
	assert.Equal(t, Negative, e.Polarity)

	_, err = Load(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestPolarity(t *testing.T) {
	assert.Equal(t, "+", Positive.String())
	assert.Equal(t, "-", Negative.String())
	assert.Equal(t, Negative, Positive.Flip())
	assert.Equal(t, Positive, Negative*Negative)

	_, err := ParsePolarity("x")
	assert.Error(t, err)
}
