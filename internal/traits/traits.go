// Package traits implements Monoteny's trait and conformance model
// (spec.md §3/§4.4): named sets of abstract function slots over a
// generic Self plus optional parameters, conformance rules binding a
// trait to concrete functions, and a recursive, subgoal-introducing
// query over those rules.
//
// Grounded on internal/symbols/symbol_table_traits.go and
// symbol_table_dispatch.go's RegisterTraitMethodDispatch/
// GetTraitMethodDispatch outer-scope-chained lookup pattern.
package traits

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/monoteny-lang/monoteny/internal/funcs"
	"github.com/monoteny-lang/monoteny/internal/types"
)

// SelfParam is the mandatory generic parameter name every trait owns.
const SelfParam = "Self"

// Field is a trait-declared field (spec.md §3: "a field list").
type Field struct {
	ID   uuid.UUID
	Name string
	Type types.Type
}

// Trait has a stable identity, a name, an owned generic parameter list
// (one of which, Self, is mandatory), an ordered slot list of abstract
// function signatures, and a field list.
type Trait struct {
	ID         uuid.UUID
	Name       string
	Generics   []string // always includes SelfParam
	Slots      []*funcs.Head
	Fields     []Field
}

// NewTrait allocates a trait whose generics always include Self.
func NewTrait(name string, extraGenerics ...string) *Trait {
	return &Trait{
		ID:       uuid.New(),
		Name:     name,
		Generics: append([]string{SelfParam}, extraGenerics...),
	}
}

func (t *Trait) AddSlot(h *funcs.Head)  { t.Slots = append(t.Slots, h) }
func (t *Trait) AddField(f Field)       { t.Fields = append(t.Fields, f) }

// SlotIndex returns the position of a slot head within t.Slots, or -1.
func (t *Trait) SlotIndex(h *funcs.Head) int {
	for i, s := range t.Slots {
		if s.Equal(h) {
			return i
		}
	}
	return -1
}

// Rule is a conformance rule: it binds a trait plus concrete type
// arguments to a concrete function per slot. A rule is either "manual"
// (Requirements is empty, Bindings fully concrete) or generic, carrying
// its own trait requirements that must themselves be satisfied for the
// rule to apply.
type Rule struct {
	ID           uuid.UUID
	Trait        uuid.UUID
	Bindings     types.Subst      // Trait generics -> concrete/rigid types
	Functions    map[int]*funcs.Head // slot index -> implementing function
	Requirements []Requirement       // subgoals a generic rule introduces
}

// Requirement is "type variable X must satisfy trait T with these args",
// attached to a generic conformance rule's own parameters.
type Requirement struct {
	TypeVar string
	Trait   uuid.UUID
	Args    []types.Type
}

func (r *Rule) IsManual() bool { return len(r.Requirements) == 0 }

// Graph stores conformance rules and answers: given trait T with
// bindings B, find a rule R and a substitution S such that
// apply(R, S) ≡ (T, B). Lookup is recursive and may introduce further
// subgoals (spec.md §4.4).
type Graph struct {
	rules []*Rule
	// cache maps a (trait, bindings-string) query to its resolved rule +
	// substitution, per spec.md §4.4 "the resolver caches successful
	// bindings on the expression tree" — generalized here to a shared
	// cache since many call sites query the same (trait, bindings) pair.
	cache map[string]queryResult
}

type queryResult struct {
	rule  *Rule
	subst types.Subst
}

func NewGraph() *Graph {
	return &Graph{cache: map[string]queryResult{}}
}

func (g *Graph) AddRule(r *Rule) { g.rules = append(g.rules, r) }

// Rules returns every registered rule. Scope.Import does not use it; it
// adds the imported module's own ConformanceRules one by one.
func (g *Graph) Rules() []*Rule { return g.rules }

func cacheKey(trait uuid.UUID, bindings types.Subst) string {
	key := trait.String()
	for k, v := range bindings {
		key += "|" + k + "=" + v.String()
	}
	return key
}

// Query resolves (trait, bindings) against the rule set, recursively
// resolving any subgoals a generic rule introduces. depth guards against
// cyclic trait requirements.
func (g *Graph) Query(trait uuid.UUID, bindings types.Subst) (*Rule, types.Subst, bool) {
	return g.query(trait, bindings, 0)
}

func (g *Graph) query(trait uuid.UUID, bindings types.Subst, depth int) (*Rule, types.Subst, bool) {
	if depth > 64 {
		return nil, nil, false
	}
	key := cacheKey(trait, bindings)
	if cached, ok := g.cache[key]; ok {
		return cached.rule, cached.subst, cached.rule != nil
	}

	for _, rule := range g.rules {
		if rule.Trait != trait {
			continue
		}
		subst, ok := unifyBindings(rule.Bindings, bindings)
		if !ok {
			continue
		}
		if rule.IsManual() {
			g.cache[key] = queryResult{rule, subst}
			return rule, subst, true
		}
		// Generic rule: every requirement must itself resolve.
		allSatisfied := true
		for _, req := range rule.Requirements {
			argBindings := types.Subst{SelfParam: subst[req.TypeVar]}
			if _, _, ok := g.query(req.Trait, argBindings, depth+1); !ok {
				allSatisfied = false
				break
			}
		}
		if allSatisfied {
			g.cache[key] = queryResult{rule, subst}
			return rule, subst, true
		}
	}
	g.cache[key] = queryResult{nil, nil}
	return nil, nil, false
}

// unifyBindings checks that every concretely-bound generic in `want`
// (the call site's requested bindings) is consistent with `have` (the
// rule's own bindings), returning the merged substitution.
func unifyBindings(have, want types.Subst) (types.Subst, bool) {
	out := types.Subst{}
	for k, v := range have {
		out[k] = v
	}
	for k, wantType := range want {
		if haveType, ok := have[k]; ok {
			s, err := types.Unify(haveType, wantType)
			if err != nil {
				return nil, false
			}
			for v, t := range s {
				out[v] = t
			}
		} else {
			out[k] = wantType
		}
	}
	return out, true
}

func (r *Rule) String() string {
	return fmt.Sprintf("Rule(trait=%s, manual=%v)", r.Trait, r.IsManual())
}
