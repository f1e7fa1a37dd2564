// Package grammar implements user-defined operator precedence (spec.md
// §4.1): precedence groups, patterns, and their registration rules.
//
// New code: the teacher (internal/parser/expressions_*.go) hardcodes a
// fixed precedence-climbing table rather than exposing user-registrable
// operators. This generalizes that idea per spec.md's grammar, written in
// the teacher's validate-and-return-diag style rather than panicking.
package grammar

import (
	"github.com/google/uuid"

	"github.com/monoteny-lang/monoteny/internal/diag"
	"github.com/monoteny-lang/monoteny/internal/funcs"
)

// Associativity is drawn from spec.md §4.1's fixed set.
type Associativity int

const (
	LeftUnary Associativity = iota
	Left
	Right
	None
	LeftConjunctivePairs
)

// PrecedenceGroup has an id, a name, and an associativity.
type PrecedenceGroup struct {
	ID            uuid.UUID
	Name          string
	Associativity Associativity

	keywordToFunction map[string]*funcs.Head
}

func NewPrecedenceGroup(name string, assoc Associativity) *PrecedenceGroup {
	return &PrecedenceGroup{
		ID:                uuid.New(),
		Name:              name,
		Associativity:     assoc,
		keywordToFunction: map[string]*funcs.Head{},
	}
}

// Pattern is a keyword/parameter sequence of length 2 (unary) or 3
// (binary), associated with a function head.
type Pattern struct {
	Keywords []string // the literal keyword tokens, parameters interleaved implicitly
	Arity    int       // 2 = unary, 3 = binary
	Head     *funcs.Head
	Group    *PrecedenceGroup
}

// Grammar owns the precedence groups and the global keyword set every
// registered pattern contributes to.
type Grammar struct {
	Groups       []*PrecedenceGroup
	globalKeywords map[string]bool
}

func New() *Grammar {
	return &Grammar{globalKeywords: map[string]bool{}}
}

func (g *Grammar) AddGroup(pg *PrecedenceGroup) { g.Groups = append(g.Groups, pg) }

// Register appends a pattern to its group's keyword→function table and to
// the global keyword set, rejecting shapes spec.md §4.1 disallows:
// patterns of other shapes; unary patterns not in LeftUnary; binary
// patterns in LeftUnary.
func (g *Grammar) Register(p Pattern) error {
	if p.Arity != 2 && p.Arity != 3 {
		return diag.New(diag.Resolve, "pattern %v has invalid arity %d (must be 2 or 3)", p.Keywords, p.Arity)
	}
	if p.Arity == 2 && p.Group.Associativity != LeftUnary {
		return diag.New(diag.Resolve, "unary pattern %v must belong to a LeftUnary precedence group", p.Keywords)
	}
	if p.Arity == 3 && p.Group.Associativity == LeftUnary {
		return diag.New(diag.Resolve, "binary pattern %v cannot belong to a LeftUnary precedence group", p.Keywords)
	}
	for _, kw := range p.Keywords {
		p.Group.keywordToFunction[kw] = p.Head
		g.globalKeywords[kw] = true
	}
	return nil
}

// IsKeyword reports whether a token is registered as a pattern keyword in
// any group.
func (g *Grammar) IsKeyword(kw string) bool { return g.globalKeywords[kw] }

// Lookup returns the function head bound to a keyword within a specific
// precedence group.
func (pg *PrecedenceGroup) Lookup(kw string) (*funcs.Head, bool) {
	h, ok := pg.keywordToFunction[kw]
	return h, ok
}
