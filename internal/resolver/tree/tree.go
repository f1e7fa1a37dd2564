// Package tree implements the resolved ExpressionTree (spec.md §3): a
// directed tree of typed operations plus a parallel type forest, and the
// ObjectReference local-variable-slot model.
//
// Kept free of the funcs/traits packages (which instead depend on it) so
// that a FunctionCall node names its callee and trait binding by uuid.UUID
// rather than by direct struct reference — the same arena-by-id discipline
// spec.md §9 recommends for cyclic ownership (function logic that
// references other functions via trait conformances).
package tree

import (
	"github.com/google/uuid"

	"github.com/monoteny-lang/monoteny/internal/types"
)

// ObjectReference is a local variable slot: identity, declared type, and
// mutability (spec.md §3).
type ObjectReference struct {
	ID      uuid.UUID
	Name    string
	Type    types.Type
	Mutable bool
}

func NewObjectReference(name string, t types.Type, mutable bool) *ObjectReference {
	return &ObjectReference{ID: uuid.New(), Name: name, Type: t, Mutable: mutable}
}

// NodeID identifies a node within one ExpressionTree.
type NodeID int

// OperationKind enumerates spec.md §3's ExpressionOperation variants.
type OperationKind int

const (
	OpBlock OperationKind = iota
	OpGetLocal
	OpSetLocal
	OpReturn
	OpFunctionCall
	OpPairwiseOperations
	OpArrayLiteral
	OpStringLiteral
	OpIfThenElse
	OpNumberLiteral // untyped numeric literal, pinned by AmbiguousNumberLiteral
)

// Binding describes a resolved call site: the callee function head id and
// the concrete type substitution the call was resolved under (empty for
// non-generic calls).
type Binding struct {
	Callee uuid.UUID
	Subst  types.Subst
}

// Node is one ExpressionTree node. Only the fields relevant to Kind are
// populated; callers are expected to know the shape from Kind.
type Node struct {
	Kind OperationKind

	Local   *ObjectReference // GetLocal / SetLocal
	Binding Binding          // FunctionCall
	Literal string           // StringLiteral text, or pairwise op symbol
	Int     int64            // AmbiguousNumberLiteral pinned integer value
	Float   float64          // pinned float value
	IsFloat bool

	Children []NodeID
}

// Tree is a directed tree of Nodes plus a parallel type forest mapping
// every node to its inferred type.
type Tree struct {
	Nodes []Node
	Types []types.Type // Types[i] is the type of Nodes[i], or nil if unset
	Root  NodeID
}

func New() *Tree {
	return &Tree{}
}

// Add appends a node and returns its id.
func (t *Tree) Add(n Node) NodeID {
	id := NodeID(len(t.Nodes))
	t.Nodes = append(t.Nodes, n)
	t.Types = append(t.Types, nil)
	return id
}

func (t *Tree) Type(id NodeID) types.Type { return t.Types[id] }

func (t *Tree) SetType(id NodeID, ty types.Type) { t.Types[id] = ty }

func (t *Tree) Node(id NodeID) *Node { return &t.Nodes[id] }

// Walk visits every node reachable from root in pre-order.
func (t *Tree) Walk(root NodeID, fn func(NodeID, *Node)) {
	n := t.Node(root)
	fn(root, n)
	for _, c := range n.Children {
		t.Walk(c, fn)
	}
}
