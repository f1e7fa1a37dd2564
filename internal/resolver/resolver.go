// Package resolver implements Monoteny's expression resolution (spec.md
// §4.3): building an unresolved ExpressionTree from a parsed AST, then
// driving a fixed-point loop over AmbiguousFunctionCall/
// AmbiguousNumberLiteral sites until every node's type forest entry is
// pinned or the loop proves it cannot make further progress.
//
// Grounded on the original Rust linker/ambiguous.rs LinkerAmbiguity trait
// (attempt_to_resolve, in a pass-until-no-progress driver) and the
// teacher's internal/analyzer/inference_solver.go fixed-point substitution
// loop.
package resolver

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/monoteny-lang/monoteny/internal/config"
	"github.com/monoteny-lang/monoteny/internal/diag"
	"github.com/monoteny-lang/monoteny/internal/funcs"
	"github.com/monoteny-lang/monoteny/internal/resolver/tree"
	"github.com/monoteny-lang/monoteny/internal/scope"
	"github.com/monoteny-lang/monoteny/internal/traits"
	"github.com/monoteny-lang/monoteny/internal/types"
)

// Context is the resolver's working state for one function body: the
// tree under construction, its parallel type forest, the enclosing
// scope, and any trait-requirement sets functions-with-generics carry.
type Context struct {
	tree        *tree.Tree
	forest      *forest
	sc          *scope.Scope
	traitGraph  *traits.Graph
	constraints map[string][]traits.Requirement // function id string -> generic constraints
	pending     []ambiguity

	allLocals    []*tree.ObjectReference
	localDefNode map[uuid.UUID]tree.NodeID

	gen int
}

// NewContext starts a resolver context over a scope; the scope supplies
// both name lookup (for calls) and the trait conformance graph (for
// requirement checks).
func NewContext(sc *scope.Scope) *Context {
	return &Context{
		tree:         tree.New(),
		forest:       newForest(0),
		sc:           sc,
		traitGraph:   sc.Traits(),
		constraints:  map[string][]traits.Requirement{},
		localDefNode: map[uuid.UUID]tree.NodeID{},
	}
}

// addNode appends a node to the tree and extends the forest to match.
func (c *Context) addNode(n tree.Node) tree.NodeID {
	id := c.tree.Add(n)
	c.forest.grow(len(c.tree.Nodes))
	return id
}

// Constrain records that function h's generic type variable tv must
// satisfy trait t with the given (possibly generic) arguments, consulted
// during AmbiguousFunctionCall resolution (spec.md §4.3/§4.4).
func (c *Context) Constrain(h *funcs.Head, req traits.Requirement) {
	c.constraints[h.ID.String()] = append(c.constraints[h.ID.String()], req)
}

func (c *Context) freshName() string {
	c.gen++
	return fmt.Sprintf("?%d", c.gen)
}

// constraintsForHead is a helper so ambiguity.go can look up a head's
// requirement set without poking at Context's string-keyed map directly.
func (c *Context) constraintsForHead(id fmt.Stringer) []traits.Requirement {
	return c.constraints[id.String()]
}

// Resolve drives the fixed-point loop spec.md §4.3 describes: repeatedly
// offer every still-pending ambiguity a chance to resolve, stopping when
// a full pass makes no progress. Ambiguities that fail outright
// (no viable candidate, a literal that can never match) end the loop
// immediately for that site's error, but unrelated sites still get a
// chance: every independent failure is collected into one diag.Bag.
func (c *Context) Resolve() (*tree.Tree, error) {
	var bag diag.Bag

	for iter := 0; iter < config.MaxSimplifyIterations; iter++ {
		if len(c.pending) == 0 {
			break
		}
		progressed := false
		remaining := c.pending[:0]
		for _, a := range c.pending {
			done, err := a.TryResolve(c)
			if err != nil {
				bag.Add(fmt.Errorf("%s: %w", a.Describe(), err))
				progressed = true
				continue // drop: this site is done (failed)
			}
			if done {
				progressed = true
				continue // drop: this site is done (resolved)
			}
			remaining = append(remaining, a)
		}
		c.pending = remaining
		if !progressed {
			break
		}
	}

	for _, a := range c.pending {
		bag.Addf(diag.Resolve, "unresolved: %s", a.Describe())
	}

	if err := bag.Err(); err != nil {
		return nil, err
	}

	for id := range c.tree.Nodes {
		nid := tree.NodeID(id)
		if ty := c.forest.TypeOf(nid); ty != nil {
			c.tree.SetType(nid, ty)
		}
	}
	for _, ref := range c.allLocals {
		if ref.Type != nil {
			continue
		}
		if defNode, ok := c.localDefNode[ref.ID]; ok {
			ref.Type = c.forest.TypeOf(defNode)
		}
	}
	return c.tree, nil
}

// TypeNames resolves a type annotation string to a concrete types.Type.
// Primitive names are built in; struct/trait names are looked up in the
// table a caller supplies (spec.md §6: builtin modules expose primitive
// type names as part of core).
type TypeNames map[string]types.Type

func BuiltinTypeNames() TypeNames {
	return TypeNames{
		"Bool":    types.Primitive{Tag: types.Bool},
		"Int8":    types.Primitive{Tag: types.Int8},
		"Int16":   types.Primitive{Tag: types.Int16},
		"Int32":   types.Primitive{Tag: types.Int32},
		"Int64":   types.Primitive{Tag: types.Int64},
		"UInt8":   types.Primitive{Tag: types.UInt8},
		"UInt16":  types.Primitive{Tag: types.UInt16},
		"UInt32":  types.Primitive{Tag: types.UInt32},
		"UInt64":  types.Primitive{Tag: types.UInt64},
		"Float32": types.Primitive{Tag: types.Float32},
		"Float64": types.Primitive{Tag: types.Float64},
		"String":  stringType,
	}
}

func (n TypeNames) Resolve(name string) (types.Type, error) {
	if t, ok := n[name]; ok {
		return t, nil
	}
	return nil, diag.New(diag.Resolve, "unknown type %q", name)
}
