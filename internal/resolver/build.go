package resolver

import (
	"github.com/google/uuid"

	"github.com/monoteny-lang/monoteny/internal/ast"
	"github.com/monoteny-lang/monoteny/internal/diag"
	"github.com/monoteny-lang/monoteny/internal/funcs"
	"github.com/monoteny-lang/monoteny/internal/resolver/tree"
	"github.com/monoteny-lang/monoteny/internal/types"
)

// stringType is the builtin String struct type, referenced by every
// StringLiteral (spec.md's core.strings module provides its conformances;
// the resolver only needs a stable identity for it).
var stringType = types.StructRef{
	Struct: uuid.NewSHA1(uuid.NameSpaceOID, []byte("monoteny.core.String")),
	Name:   "String",
}

// localFrame is one block's name -> local bindings.
type localFrame map[string]*tree.ObjectReference

// localScope is a stack of localFrames, innermost last, mirroring the
// lexical nesting ast.Block introduces.
type localScope struct {
	frames []localFrame
}

func newLocalScope() *localScope {
	return &localScope{frames: []localFrame{{}}}
}

func (s *localScope) push() { s.frames = append(s.frames, localFrame{}) }
func (s *localScope) pop()  { s.frames = s.frames[:len(s.frames)-1] }

func (s *localScope) declare(ref *tree.ObjectReference) {
	s.frames[len(s.frames)-1][ref.Name] = ref
}

func (s *localScope) lookup(name string) (*tree.ObjectReference, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if ref, ok := s.frames[i][name]; ok {
			return ref, true
		}
	}
	return nil, false
}

// BuildFunction builds an ExpressionTree for a function body: params are
// declared as locals up front, the body's statements populate the tree,
// and every call/literal site found along the way is registered as a
// pending ambiguity for Resolve to settle. Returns the body's root node
// and the full local list (params plus every let-bound name), matching
// spec.md §3's Implementation{tree, locals}.
func (c *Context) BuildFunction(body *ast.Block, params []*tree.ObjectReference, names TypeNames) (tree.NodeID, []*tree.ObjectReference, error) {
	ls := newLocalScope()
	for _, p := range params {
		ls.declare(p)
		c.allLocals = append(c.allLocals, p)
	}
	root, err := c.buildBlock(body, ls, names)
	if err != nil {
		return 0, nil, err
	}
	c.tree.Root = root
	return root, c.allLocals, nil
}

func (c *Context) buildBlock(b *ast.Block, ls *localScope, names TypeNames) (tree.NodeID, error) {
	ls.push()
	defer ls.pop()

	var children []tree.NodeID
	for _, stmt := range b.Statements {
		id, err := c.buildStatement(stmt, ls, names)
		if err != nil {
			return 0, err
		}
		children = append(children, id)
	}
	return c.addNode(tree.Node{Kind: tree.OpBlock, Children: children}), nil
}

func (c *Context) buildStatement(stmt ast.Statement, ls *localScope, names TypeNames) (tree.NodeID, error) {
	switch s := stmt.(type) {
	case *ast.LetStatement:
		initID, err := c.buildExpr(s.Init, ls, names)
		if err != nil {
			return 0, err
		}
		ref := tree.NewObjectReference(s.Name, nil, true)
		setID := c.addNode(tree.Node{Kind: tree.OpSetLocal, Local: ref, Children: []tree.NodeID{initID}})
		if err := c.forest.Union(initID, setID); err != nil {
			return 0, diag.New(diag.Resolve, "let %s: %v", s.Name, err)
		}
		c.localDefNode[ref.ID] = setID
		c.allLocals = append(c.allLocals, ref)
		ls.declare(ref)
		return setID, nil

	case *ast.ReturnStatement:
		var children []tree.NodeID
		if s.Expr != nil {
			id, err := c.buildExpr(s.Expr, ls, names)
			if err != nil {
				return 0, err
			}
			children = []tree.NodeID{id}
		}
		return c.addNode(tree.Node{Kind: tree.OpReturn, Children: children}), nil

	case *ast.ExprStatement:
		return c.buildExpr(s.Expr, ls, names)

	case *ast.Block:
		return c.buildBlock(s, ls, names)

	default:
		return 0, diag.New(diag.Resolve, "unsupported statement %T", stmt)
	}
}

func (c *Context) buildExpr(e ast.Expression, ls *localScope, names TypeNames) (tree.NodeID, error) {
	switch ex := e.(type) {
	case *ast.Identifier:
		if ref, ok := ls.lookup(ex.Name); ok {
			id := c.addNode(tree.Node{Kind: tree.OpGetLocal, Local: ref})
			if ref.Type != nil {
				if err := c.forest.Bind(id, ref.Type); err != nil {
					return 0, err
				}
			} else if defNode, ok := c.localDefNode[ref.ID]; ok {
				if err := c.forest.Union(defNode, id); err != nil {
					return 0, err
				}
			}
			return id, nil
		}
		// Not a local: a bare name used as a value (spec.md §4.3's
		// implicit-form calls, e.g. `transpiler.add(main)`) can only name
		// a FormGlobalImplicit head — a zero-arg accessor or a function's
		// own getter (spec.md §3's "optional getter ... yields the
		// function as a value"). A plain call's own FormGlobalFunction/
		// FormOperator head is looked up by buildCall instead, so the two
		// never collide as candidates for the same node.
		return c.buildImplicitReference(ex.Name, ex.Pos())

	case *ast.IntLiteral:
		id := c.addNode(tree.Node{Kind: tree.OpNumberLiteral, Int: ex.Value, IsFloat: false})
		c.pending = append(c.pending, &ambiguousNumberLiteral{node: id, isFloat: false})
		return id, nil

	case *ast.FloatLiteral:
		id := c.addNode(tree.Node{Kind: tree.OpNumberLiteral, Float: ex.Value, IsFloat: true})
		c.pending = append(c.pending, &ambiguousNumberLiteral{node: id, isFloat: true})
		return id, nil

	case *ast.BoolLiteral:
		id := c.addNode(tree.Node{Kind: tree.OpNumberLiteral, Int: boolToInt(ex.Value)})
		if err := c.forest.Bind(id, types.Primitive{Tag: types.Bool}); err != nil {
			return 0, err
		}
		return id, nil

	case *ast.StringLiteral:
		id := c.addNode(tree.Node{Kind: tree.OpStringLiteral, Literal: ex.Value})
		if err := c.forest.Bind(id, stringType); err != nil {
			return 0, err
		}
		return id, nil

	case *ast.ArrayLiteral:
		var children []tree.NodeID
		for _, el := range ex.Elements {
			id, err := c.buildExpr(el, ls, names)
			if err != nil {
				return 0, err
			}
			children = append(children, id)
		}
		id := c.addNode(tree.Node{Kind: tree.OpArrayLiteral, Children: children})
		for i := 1; i < len(children); i++ {
			if err := c.forest.Union(children[0], children[i]); err != nil {
				return 0, diag.New(diag.Resolve, "array literal element %d: %v", i, err)
			}
		}
		return id, nil

	case *ast.IfThenElse:
		condID, err := c.buildExpr(ex.Cond, ls, names)
		if err != nil {
			return 0, err
		}
		if err := c.forest.Bind(condID, types.Primitive{Tag: types.Bool}); err != nil {
			return 0, diag.New(diag.Resolve, "if condition: %v", err)
		}
		thenID, err := c.buildExpr(ex.Then, ls, names)
		if err != nil {
			return 0, err
		}
		children := []tree.NodeID{condID, thenID}
		if ex.Else != nil {
			elseID, err := c.buildExpr(ex.Else, ls, names)
			if err != nil {
				return 0, err
			}
			children = append(children, elseID)
			if err := c.forest.Union(thenID, elseID); err != nil {
				return 0, diag.New(diag.Resolve, "if branches: %v", err)
			}
		}
		id := c.addNode(tree.Node{Kind: tree.OpIfThenElse, Children: children})
		if err := c.forest.Union(id, thenID); err != nil {
			return 0, err
		}
		return id, nil

	case *ast.TypeAnnotated:
		inner, err := c.buildExpr(ex.Expr, ls, names)
		if err != nil {
			return 0, err
		}
		ty, err := names.Resolve(ex.TypeName)
		if err != nil {
			return 0, diag.New(diag.Resolve, "%v", err).At(ex.Pos())
		}
		if err := c.forest.Bind(inner, ty); err != nil {
			return 0, diag.New(diag.Resolve, "annotation %s: %v", ex.TypeName, err)
		}
		return inner, nil

	case *ast.Call:
		return c.buildCall(ex, ls, names)

	default:
		return 0, diag.New(diag.Resolve, "unsupported expression %T", e)
	}
}

func (c *Context) buildCall(call *ast.Call, ls *localScope, names TypeNames) (tree.NodeID, error) {
	var argIDs []tree.NodeID
	for _, a := range call.Args {
		id, err := c.buildExpr(a, ls, names)
		if err != nil {
			return 0, err
		}
		argIDs = append(argIDs, id)
	}
	return c.buildCallByName(call.Callee, argIDs, call.Pos())
}

// buildImplicitReference resolves a bare identifier naming a
// FormGlobalImplicit head: a true zero-arg accessor, or a function's
// getter (always FormGlobalImplicit, spec.md §3). Explicit-form
// candidates sharing the name are never considered here, so a function
// and its own getter disambiguate by Form alone rather than requiring
// the surrounding call's argument-type unification to resolve first.
func (c *Context) buildImplicitReference(name string, pos *diag.Position) (tree.NodeID, error) {
	var heads []*funcs.Head
	for _, h := range c.sc.LookupByName(name) {
		if h.Rep.Form == funcs.FormGlobalImplicit {
			heads = append(heads, h)
		}
	}
	if len(heads) == 0 {
		return 0, diag.New(diag.Resolve, "undeclared local or value %q", name).At(pos)
	}

	candidates := make([]candidate, len(heads))
	for i, h := range heads {
		candidates[i] = candidate{head: h, fresh: freshSubst(h, c.freshName)}
	}
	id := c.addNode(tree.Node{Kind: tree.OpFunctionCall})
	c.pending = append(c.pending, &ambiguousFunctionCall{
		node:       id,
		name:       name,
		candidates: candidates,
	})
	return id, nil
}

// buildCallByName resolves name against every overload the scope knows
// under it (already-built argument nodes in hand) and registers the
// pending ambiguity for an explicit call (spec.md §4.3). Bare
// identifiers go through buildImplicitReference instead.
func (c *Context) buildCallByName(name string, argIDs []tree.NodeID, pos *diag.Position) (tree.NodeID, error) {
	heads := c.sc.LookupByName(name)
	if len(heads) == 0 {
		return 0, diag.New(diag.Resolve, "undeclared function %q", name).At(pos)
	}

	candidates := make([]candidate, len(heads))
	for i, h := range heads {
		candidates[i] = candidate{head: h, fresh: freshSubst(h, c.freshName)}
	}

	id := c.addNode(tree.Node{Kind: tree.OpFunctionCall, Children: argIDs})
	c.pending = append(c.pending, &ambiguousFunctionCall{
		node:       id,
		name:       name,
		candidates: candidates,
		args:       argIDs,
	})
	return id, nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
