package resolver

import (
	"fmt"

	"github.com/monoteny-lang/monoteny/internal/diag"
	"github.com/monoteny-lang/monoteny/internal/funcs"
	"github.com/monoteny-lang/monoteny/internal/resolver/tree"
	"github.com/monoteny-lang/monoteny/internal/types"
)

// ambiguity is an unresolved call or literal carrying its candidate set
// (spec.md §4.3's Ambiguity). TryResolve attempts progress in one
// iteration of the fixed-point loop; it returns done=true once the
// ambiguity is settled (either resolved or definitively failed, in which
// case err is non-nil).
type ambiguity interface {
	TryResolve(ctx *Context) (done bool, err error)
	Describe() string
}

// candidate is one viable overload for an AmbiguousFunctionCall: the
// function head plus the fresh type variables its generics were
// instantiated with for this call site (spec.md §4.3: "a fresh
// substitution").
type candidate struct {
	head  *funcs.Head
	fresh types.Subst
}

func freshSubst(h *funcs.Head, gen func() string) types.Subst {
	s := types.Subst{}
	for _, g := range h.Generics {
		s[g] = types.GenericParam{Name: gen()}
	}
	return s
}

// ambiguousFunctionCall holds the candidate set and argument nodes for a
// not-yet-resolved call site (spec.md §4.3).
type ambiguousFunctionCall struct {
	node       tree.NodeID
	name       string
	candidates []candidate
	args       []tree.NodeID
}

func (a *ambiguousFunctionCall) Describe() string {
	return fmt.Sprintf("call to %q (%d candidate(s))", a.name, len(a.candidates))
}

func (a *ambiguousFunctionCall) TryResolve(ctx *Context) (bool, error) {
	type viability struct {
		cand    candidate
		ok      bool
		unknown bool // at least one arg still unresolved, can't yet judge
	}

	viable := make([]viability, 0, len(a.candidates))
	for _, c := range a.candidates {
		if len(c.head.Params) != len(a.args) {
			continue // arity mismatch: never viable, drop silently
		}
		subst := types.Subst{}
		for k, v := range c.fresh {
			subst[k] = v
		}
		ok, unknown := true, false
		for i, argNode := range a.args {
			formal := c.head.Params[i].Type.Apply(subst)
			if argN := ctx.tree.Node(argNode); argN.Kind == tree.OpNumberLiteral {
				prim, isPrim := formal.(types.Primitive)
				// An integer-syntax literal (IsFloat=false) may still pin
				// to a float formal (1 + 2 'Float32, spec.md §4.3); only a
				// float-syntax literal against an integer formal is never
				// viable.
				if !isPrim || (argN.IsFloat && !prim.Tag.IsFloat()) {
					ok = false
				}
				continue
			}
			actual := ctx.forest.TypeOf(argNode)
			if actual == nil {
				unknown = true
				continue
			}
			s, err := types.Unify(formal, actual)
			if err != nil {
				ok = false
				continue
			}
			subst = s.Compose(subst)
		}
		if ok {
			viable = append(viable, viability{cand: candidate{head: c.head, fresh: subst}, ok: true, unknown: unknown})
		}
	}

	live := viable
	// Once the call node's own type is known (e.g. from an annotation),
	// only candidates whose result type unifies with it stay live.
	if ctxType := ctx.forest.TypeOf(a.node); ctxType != nil && len(live) > 1 {
		var narrowed []viability
		for _, v := range live {
			ret := v.cand.head.ReturnType
			if ret == nil {
				continue
			}
			if _, err := types.Unify(ret.Apply(v.cand.fresh), ctxType); err == nil {
				narrowed = append(narrowed, v)
			}
		}
		live = narrowed
	}

	if len(live) == 0 {
		return true, diag.New(diag.Resolve, "no matching overload for %q", a.name).At(nil)
	}

	if len(live) > 1 {
		return false, nil // keep waiting; maybe another pass narrows it
	}

	chosen := live[0]
	if chosen.unknown {
		return false, nil // still waiting on an argument's own ambiguity
	}

	if err := checkTraitRequirements(ctx, chosen.cand.head, chosen.cand.fresh); err != nil {
		return true, err
	}

	for i, argNode := range a.args {
		formal := chosen.cand.head.Params[i].Type.Apply(chosen.cand.fresh)
		if err := ctx.forest.Bind(argNode, formal); err != nil {
			return true, diag.New(diag.Resolve, "argument %d of %q: %v", i, a.name, err)
		}
	}
	retType := chosen.cand.head.ReturnType
	if retType != nil {
		retType = retType.Apply(chosen.cand.fresh)
		if err := ctx.forest.Bind(a.node, retType); err != nil {
			return true, diag.New(diag.Resolve, "return type of %q: %v", a.name, err)
		}
	}
	n := ctx.tree.Node(a.node)
	n.Binding = tree.Binding{Callee: chosen.cand.head.ID, Subst: chosen.cand.fresh}
	return true, nil
}

// checkTraitRequirements verifies every generic constraint a candidate's
// interface carries is satisfiable via the in-scope trait graph,
// including rules inherited transitively (spec.md §4.3/§4.4).
func checkTraitRequirements(ctx *Context, h *funcs.Head, subst types.Subst) error {
	for _, req := range ctx.constraintsForHead(h.ID) {
		bound := subst[req.TypeVar]
		if bound == nil {
			continue
		}
		if _, _, ok := ctx.traitGraph.Query(req.Trait, types.Subst{"Self": bound}); !ok {
			return diag.New(diag.Resolve, "type %s does not satisfy required trait for %q", bound, req.TypeVar)
		}
	}
	return nil
}

// ambiguousNumberLiteral is a not-yet-typed numeric literal (spec.md
// §4.3). It succeeds once its forest node is pinned to a concrete
// numeric primitive (by its use as a call argument, or by an explicit
// annotation applied during tree building).
type ambiguousNumberLiteral struct {
	node    tree.NodeID
	isFloat bool
}

func (a *ambiguousNumberLiteral) Describe() string {
	kind := "integer"
	if a.isFloat {
		kind = "float"
	}
	return fmt.Sprintf("%s literal of indeterminate type", kind)
}

func (a *ambiguousNumberLiteral) TryResolve(ctx *Context) (bool, error) {
	t := ctx.forest.TypeOf(a.node)
	if t == nil {
		return false, nil
	}
	prim, ok := t.(types.Primitive)
	// Mirrors ambiguousFunctionCall's viability check: an integer-syntax
	// literal may be pinned to a float primitive (it widens cleanly), but
	// a float-syntax literal can never be pinned to an integer primitive.
	if !ok || (a.isFloat && !prim.Tag.IsFloat()) {
		return true, diag.New(diag.Resolve, "%s", a.Describe())
	}
	return true, nil
}
