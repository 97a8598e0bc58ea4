// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package lexicon loads curated predicate lexicons: one "<lemma> <polarity>"
// entry per line, polarity "+" or "-", lines starting with "#" ignored.
//
// The same format serves the opinion trigger lexicon and the
// goal-fulfillment/blocking (GFBF) event lexicon.
package lexicon

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Polarity is the sign attached to a lexicon entry.
type Polarity int8

const (
	Negative Polarity = -1
	Positive Polarity = 1
)

// String returns "+" or "-".
func (p Polarity) String() string {
	if p < 0 {
		return "-"
	}
	return "+"
}

// Flip returns the opposite sign.
func (p Polarity) Flip() Polarity {
	return -p
}

// ParsePolarity reads "+" or "-".
func ParsePolarity(s string) (Polarity, error) {
	switch s {
	case "+":
		return Positive, nil
	case "-":
		return Negative, nil
	}
	return 0, fmt.Errorf("polarity %q is neither + nor -", s)
}

// Entry is one lexicon line.
type Entry struct {
	Lemma    string
	Polarity Polarity
}

// ParseError reports an unusable lexicon line.
type ParseError struct {
	Path string
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %q: %v", e.Path, e.Line, e.Text, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Lexicon maps lowercased lemmas to entries. Lowercasing follows German
// rules, so ß is kept as is.
type Lexicon struct {
	entries map[string]Entry
	order   []string
	lower   cases.Caser
}

// New returns an empty lexicon.
func New() *Lexicon {
	return &Lexicon{
		entries: make(map[string]Entry),
		lower:   cases.Lower(language.German),
	}
}

// Load reads the lexicon at path. A missing or malformed file is an error.
func Load(path string) (*Lexicon, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening lexicon: %w", err)
	}
	defer f.Close()

	lex, err := Read(f, path)
	if err != nil {
		return nil, err
	}
	return lex, nil
}

// Read parses lexicon lines from r. name labels parse errors.
func Read(r io.Reader, name string) (*Lexicon, error) {
	lex := New()
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		if strings.HasPrefix(text, "#") || strings.TrimSpace(text) == "" {
			continue
		}

		fields := strings.Fields(text)
		if len(fields) < 2 {
			return nil, &ParseError{Path: name, Line: line, Text: text, Err: fmt.Errorf("expected <lemma> <polarity>")}
		}
		pol, err := ParsePolarity(fields[1])
		if err != nil {
			return nil, &ParseError{Path: name, Line: line, Text: text, Err: err}
		}
		lex.Add(Entry{Lemma: fields[0], Polarity: pol})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading lexicon %s: %w", name, err)
	}
	return lex, nil
}

// Add inserts e unless its lemma is already present; the first entry wins.
func (l *Lexicon) Add(e Entry) {
	key := l.key(e.Lemma)
	if _, ok := l.entries[key]; ok {
		return
	}
	e.Lemma = key
	l.entries[key] = e
	l.order = append(l.order, key)
}

// Lookup finds the entry for lemma, ignoring case.
func (l *Lexicon) Lookup(lemma string) (Entry, bool) {
	e, ok := l.entries[l.key(lemma)]
	return e, ok
}

// Len returns the number of entries.
func (l *Lexicon) Len() int {
	return len(l.order)
}

// Entries returns the entries in file order.
func (l *Lexicon) Entries() []Entry {
	out := make([]Entry, len(l.order))
	for i, k := range l.order {
		out[i] = l.entries[k]
	}
	return out
}

func (l *Lexicon) key(lemma string) string {
	return l.lower.String(strings.TrimSpace(lemma))
}
