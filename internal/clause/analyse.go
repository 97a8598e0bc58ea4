// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package clause

import (
	"github.com/pdiddy/clause-engine/internal/deptree"
	"github.com/pdiddy/clause-engine/internal/lexicon"
)

// TriggerLookup finds lexicon entries by lemma.
type TriggerLookup interface {
	Lookup(lemma string) (lexicon.Entry, bool)
}

// Analyser builds tuples from predicate nodes.
type Analyser struct {
	// Triggers, when set, is consulted for every analysed predicate.
	Triggers TriggerLookup

	// AllowSubjectOnly accepts a predicate with a subject but neither a
	// direct object nor a resolvable clausal complement.
	AllowSubjectOnly bool
}

// Analyse returns the tuple rooted at node, or nil when the node does not
// have the required arguments.
//
// A subject plus a direct object gives a flat tuple. Otherwise a unique
// clausal complement is analysed recursively and, with a subject present,
// becomes the object of the tuple.
func (a *Analyser) Analyse(node *deptree.Node) *Tuple {
	if node == nil {
		return nil
	}

	subject, hasSubject := node.FindChildByLabel(LabelSubject)
	object, hasObject := node.FindChildByLabel(LabelObject)

	t := &Tuple{
		Predicate: node,
		Subject:   subject,
		Modifiers: Modifiers(node),
		Trigger:   a.trigger(node),
	}

	if hasSubject && hasObject {
		t.Object = NodeObject(object)
		return t
	}

	if comp, ok := node.FindChildByLabel(LabelComplement); ok {
		if embedded := a.Analyse(comp); embedded != nil && hasSubject {
			t.Object = ClauseObject(embedded)
			return t
		}
	}

	if hasSubject && a.AllowSubjectOnly {
		t.Object = NoObject()
		return t
	}
	return nil
}

// AnalyseForest analyses the main root of f.
func (a *Analyser) AnalyseForest(f deptree.Forest) *Tuple {
	return a.Analyse(f.Main())
}

// Modifiers returns the adverbs followed by the negation particles directly
// under node.
func Modifiers(node *deptree.Node) []*deptree.Node {
	mods := node.FindChildrenByPOS(POSAdverb)
	return append(mods, node.FindChildrenByPOS(POSNegation)...)
}

func (a *Analyser) trigger(node *deptree.Node) *Trigger {
	if a.Triggers == nil {
		return nil
	}
	e, ok := a.Triggers.Lookup(node.Lemma)
	if !ok {
		return nil
	}
	return &Trigger{Lemma: e.Lemma, Polarity: e.Polarity}
}
