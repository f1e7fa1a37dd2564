package resolver

import (
	"github.com/monoteny-lang/monoteny/internal/resolver/tree"
	"github.com/monoteny-lang/monoteny/internal/types"
)

// forest is the union-find type forest spec.md §4.3 describes: every
// expression node starts in its own set; unifying two nodes (or binding a
// node to a concrete type) merges/sets the representative's type.
//
// Grounded conceptually on internal/analyzer/inference_solver.go's
// GlobalSubst-composition fixed-point loop, realized here as an explicit
// node-indexed union-find rather than a name-keyed substitution map,
// since spec.md §3/§4.3 names the structure "a parallel type_forest ...
// with union-find unification" over expression nodes specifically.
type forest struct {
	parent  []tree.NodeID
	binding []types.Type
}

// grow extends the forest to cover n nodes, leaving existing entries
// untouched. Used as the tree grows incrementally during building,
// rather than requiring its final size up front.
func (f *forest) grow(n int) {
	for len(f.parent) < n {
		f.parent = append(f.parent, tree.NodeID(len(f.parent)))
		f.binding = append(f.binding, nil)
	}
}

func newForest(n int) *forest {
	f := &forest{
		parent:  make([]tree.NodeID, n),
		binding: make([]types.Type, n),
	}
	for i := range f.parent {
		f.parent[i] = tree.NodeID(i)
	}
	return f
}

func (f *forest) find(id tree.NodeID) tree.NodeID {
	for f.parent[id] != id {
		f.parent[id] = f.parent[f.parent[id]]
		id = f.parent[id]
	}
	return id
}

// TypeOf returns the currently-known type of a node, or nil if still
// unresolved.
func (f *forest) TypeOf(id tree.NodeID) types.Type {
	return f.binding[f.find(id)]
}

// Bind sets the concrete type of a node's set, unifying with any
// existing binding. Returns an error if the existing binding conflicts.
func (f *forest) Bind(id tree.NodeID, t types.Type) error {
	root := f.find(id)
	if existing := f.binding[root]; existing != nil {
		if _, err := types.Unify(existing, t); err != nil {
			return err
		}
		// Keep the more concrete of the two (prefer the new binding if
		// the existing one still contains free generic placeholders).
		if len(existing.FreeVariables()) > 0 {
			f.binding[root] = t
		}
		return nil
	}
	f.binding[root] = t
	return nil
}

// Union merges two nodes' sets, unifying their bindings if both are set.
func (f *forest) Union(a, b tree.NodeID) error {
	ra, rb := f.find(a), f.find(b)
	if ra == rb {
		return nil
	}
	ba, bb := f.binding[ra], f.binding[rb]
	f.parent[rb] = ra
	if ba != nil && bb != nil {
		if _, err := types.Unify(ba, bb); err != nil {
			return err
		}
	} else if bb != nil {
		f.binding[ra] = bb
	}
	return nil
}
