package resolver

import (
	"testing"

	"github.com/monoteny-lang/monoteny/internal/ast"
	"github.com/monoteny-lang/monoteny/internal/funcs"
	"github.com/monoteny-lang/monoteny/internal/scope"
	"github.com/monoteny-lang/monoteny/internal/types"
)

// overloadAdd registers `+` for one primitive type, enough for the
// ambiguity fixed point to have exactly one candidate to settle on.
func overloadAdd(sc *scope.Scope, tag types.PrimitiveTag) {
	numT := types.Primitive{Tag: tag}
	h := funcs.NewHead(funcs.Interface{
		Params:     []funcs.Param{{Internal: "lhs", External: "lhs", Type: numT}, {Internal: "rhs", External: "rhs", Type: numT}},
		ReturnType: numT,
		Rep:        funcs.Representation{Name: "+", Form: funcs.FormOperator, CallExplicity: false},
	})
	sc.OverloadFunction(h)
}

// TestAmbiguousNumberLiteralPinnedByAnnotation exercises spec.md §4.3's
// fixed point directly: two untyped int literals combined by `+`, with no
// context to pin them until an explicit annotation forces Float32.
func TestAmbiguousNumberLiteralPinnedByAnnotation(t *testing.T) {
	sc := scope.New()
	overloadAdd(sc, types.Float32)

	body := &ast.Block{Statements: []ast.Statement{
		&ast.ReturnStatement{Expr: &ast.TypeAnnotated{
			Expr: &ast.Call{Callee: "+", Args: []ast.Expression{
				&ast.IntLiteral{Value: 1},
				&ast.IntLiteral{Value: 2},
			}},
			TypeName: "Float32",
		}},
	}}

	ctx := NewContext(sc)
	root, _, err := ctx.BuildFunction(body, nil, BuiltinTypeNames())
	if err != nil {
		t.Fatalf("BuildFunction: %v", err)
	}
	tr, err := ctx.Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	returnID := tr.Node(root).Children[0]
	callID := tr.Node(returnID).Children[0]
	call := tr.Node(callID)
	if !types.Equal(tr.Type(callID), types.Primitive{Tag: types.Float32}) {
		t.Errorf("call node type = %v, want Float32", tr.Type(callID))
	}
	for _, argID := range call.Children {
		if !types.Equal(tr.Type(argID), types.Primitive{Tag: types.Float32}) {
			t.Errorf("literal node type = %v, want Float32", tr.Type(argID))
		}
	}
}

// TestAmbiguousNumberLiteralWithoutContextFails: with two equally valid
// overloads and nothing pinning either operand, resolution cannot
// converge and Resolve reports it rather than guessing.
func TestAmbiguousNumberLiteralWithoutContextFails(t *testing.T) {
	sc := scope.New()
	overloadAdd(sc, types.Int32)
	overloadAdd(sc, types.Float64)

	body := &ast.Block{Statements: []ast.Statement{
		&ast.ExprStatement{Expr: &ast.Call{Callee: "+", Args: []ast.Expression{
			&ast.IntLiteral{Value: 1},
			&ast.IntLiteral{Value: 2},
		}}},
	}}

	ctx := NewContext(sc)
	if _, _, err := ctx.BuildFunction(body, nil, BuiltinTypeNames()); err != nil {
		t.Fatalf("BuildFunction: %v", err)
	}
	if _, err := ctx.Resolve(); err == nil {
		t.Errorf("Resolve: expected an unresolved-ambiguity error, got nil")
	}
}

// TestUndeclaredCallIsAResolveError confirms a reference to a name with
// no overload at all fails immediately rather than being queued forever.
func TestUndeclaredCallIsAResolveError(t *testing.T) {
	sc := scope.New()
	body := &ast.Block{Statements: []ast.Statement{
		&ast.ExprStatement{Expr: &ast.Call{Callee: "nope", Args: []ast.Expression{&ast.IntLiteral{Value: 1}}}},
	}}

	ctx := NewContext(sc)
	_, _, err := ctx.BuildFunction(body, nil, BuiltinTypeNames())
	if err == nil {
		t.Errorf("BuildFunction: expected an undeclared-function error, got nil")
	}
}
