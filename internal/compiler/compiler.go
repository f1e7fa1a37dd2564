// Package compiler implements Monoteny's bytecode compiler (spec.md
// §4.7): lowering a resolved, simplified FunctionImplementation into a
// vm.Chunk, plus descriptor-to-inline-emitter compilation for the
// declarative logic kinds.
//
// Grounded on the original Rust interpreter/compile/function_compiler.rs
// (compile_function, compile_expression, fix_jump_location_i32) and
// function_descriptor_compiler.rs's closure-per-descriptor table.
package compiler

import (
	"github.com/google/uuid"

	"github.com/monoteny-lang/monoteny/internal/diag"
	"github.com/monoteny-lang/monoteny/internal/funcs"
	"github.com/monoteny-lang/monoteny/internal/resolver/tree"
	"github.com/monoteny-lang/monoteny/internal/types"
	"github.com/monoteny-lang/monoteny/internal/vm"
)

// Emitter compiles one FunctionCall node directly to opcodes instead of
// via a CALL to a separate chunk — the design note's "dynamic dispatch
// of inline emitters" (spec.md §9).
type Emitter func(c *FunctionCompiler, node tree.NodeID) error

// FunctionCompiler holds the state of one in-progress chunk compilation.
type FunctionCompiler struct {
	emitters      map[uuid.UUID]Emitter
	impl          *funcs.Implementation
	chunk         *vm.Chunk
	allocedLocals []*tree.ObjectReference
}

// Compile lowers a resolved implementation to a chunk (spec.md §4.7).
// emitters is the process-wide inline-emitter table keyed by function id
// (built once by BuildEmitters and shared across every compiled chunk).
func Compile(impl *funcs.Implementation, emitters map[uuid.UUID]Emitter) (*vm.Chunk, error) {
	c := &FunctionCompiler{
		emitters: emitters,
		impl:     impl,
		chunk:    vm.NewChunk(),
	}

	var nonParamLocals []*tree.ObjectReference
	isParam := map[uuid.UUID]bool{}
	for _, l := range impl.Locals {
		if isParamRef(impl, l) {
			isParam[l.ID] = true
		}
	}
	for _, l := range impl.Locals {
		if !isParam[l.ID] {
			nonParamLocals = append(nonParamLocals, l)
		}
	}

	for range nonParamLocals {
		c.chunk.PushU64(vm.LOAD64, 0)
	}
	for _, l := range impl.Locals {
		if isParam[l.ID] {
			c.allocedLocals = append(c.allocedLocals, l)
		}
	}
	c.allocedLocals = append(c.allocedLocals, nonParamLocals...)
	c.chunk.LocalsCount = len(nonParamLocals)

	if err := c.compileExpression(impl.Tree.Root); err != nil {
		return nil, err
	}
	c.compileReturn()

	return c.chunk, nil
}

func isParamRef(impl *funcs.Implementation, ref *tree.ObjectReference) bool {
	for _, p := range impl.Head.Params {
		if p.Internal == ref.Name {
			return true
		}
	}
	return false
}

func (c *FunctionCompiler) compileReturn() {
	voidReturn := c.impl.Head.ReturnType == nil
	for i := len(c.allocedLocals) - 1; i >= 0; i-- {
		if !voidReturn {
			c.chunk.Push(vm.SWAP64)
		}
		c.chunk.Push(vm.POP64)
	}
	c.chunk.Push(vm.RETURN)
}

func (c *FunctionCompiler) compileExpression(id tree.NodeID) error {
	n := c.impl.Tree.Node(id)

	switch n.Kind {
	case tree.OpBlock:
		for _, child := range n.Children {
			if err := c.compileExpression(child); err != nil {
				return err
			}
			// OpSetLocal is unioned with its initializer's type for
			// unification (resolver/build.go's let handling), but
			// STORE_LOCAL_32 already consumes that value — a let
			// statement leaves nothing on the stack regardless of its
			// bound type, so it never needs a trailing pop.
			childKind := c.impl.Tree.Node(child).Kind
			if childKind != tree.OpSetLocal && c.impl.Tree.Type(child) != nil {
				c.chunk.Push(vm.POP64)
			}
		}
		return nil

	case tree.OpGetLocal:
		slot, err := c.variableSlot(n.Local)
		if err != nil {
			return err
		}
		c.chunk.PushI32(vm.LOAD_LOCAL_32, int32(slot))
		return nil

	case tree.OpSetLocal:
		if err := c.compileExpression(n.Children[0]); err != nil {
			return err
		}
		slot, err := c.variableSlot(n.Local)
		if err != nil {
			return err
		}
		c.chunk.PushI32(vm.STORE_LOCAL_32, int32(slot))
		return nil

	case tree.OpReturn:
		if len(n.Children) == 1 {
			if err := c.compileExpression(n.Children[0]); err != nil {
				return err
			}
		}
		c.compileReturn()
		return nil

	case tree.OpFunctionCall:
		return c.compileCall(id, n)

	case tree.OpStringLiteral:
		idx := c.chunk.PushConstant(n.Literal)
		c.chunk.PushU32(vm.LOAD_CONSTANT_32, idx)
		return nil

	case tree.OpNumberLiteral:
		return c.compileNumberLiteral(id, n)

	case tree.OpIfThenElse:
		return c.compileIfThenElse(n)

	case tree.OpArrayLiteral:
		return diag.New(diag.Compile, "array literal compilation is not implemented")

	case tree.OpPairwiseOperations:
		return diag.New(diag.Compile, "pairwise operator compilation is not implemented")

	default:
		return diag.New(diag.Compile, "unsupported operation kind %v", n.Kind)
	}
}

func (c *FunctionCompiler) compileCall(id tree.NodeID, n *tree.Node) error {
	if emit, ok := c.emitters[n.Binding.Callee]; ok {
		return emit(c, id)
	}
	for _, arg := range n.Children {
		if err := c.compileExpression(arg); err != nil {
			return err
		}
	}
	c.chunk.PushCallID(n.Binding.Callee)
	return nil
}

func (c *FunctionCompiler) compileNumberLiteral(id tree.NodeID, n *tree.Node) error {
	ty := c.impl.Tree.Type(id)
	prim, ok := ty.(types.Primitive)
	if !ok {
		return diag.New(diag.Compile, "number literal never pinned to a primitive type")
	}
	var bits uint64
	if n.IsFloat {
		bits = floatBits(n.Float, prim.Tag)
	} else {
		bits = intBits(n.Int, prim.Tag)
	}
	c.chunk.PushU64(vm.LOAD64, bits)
	return nil
}

func (c *FunctionCompiler) compileIfThenElse(n *tree.Node) error {
	if err := c.compileExpression(n.Children[0]); err != nil {
		return err
	}
	skipConsequent := c.chunk.Here()
	c.chunk.PushI32(vm.JUMP_IF_FALSE, 0)

	if err := c.compileExpression(n.Children[1]); err != nil {
		return err
	}

	if len(n.Children) == 3 {
		skipAlternative := c.chunk.Here()
		c.chunk.PushI32(vm.JUMP, 0)
		backpatch(c.chunk, skipConsequent)
		if err := c.compileExpression(n.Children[2]); err != nil {
			return err
		}
		backpatch(c.chunk, skipAlternative)
	} else {
		backpatch(c.chunk, skipConsequent)
	}
	return nil
}

// backpatch fills in a previously-emitted JUMP/JUMP_IF_FALSE's delta
// operand with the distance from just after its operand to the current
// write position (spec.md §4.7).
func backpatch(chunk *vm.Chunk, jumpInstrPos int) {
	distance := chunk.Here() - (jumpInstrPos + 5)
	chunk.ModifyU32(jumpInstrPos+1, uint32(int32(distance)))
}

func (c *FunctionCompiler) variableSlot(ref *tree.ObjectReference) (int, error) {
	for i, l := range c.allocedLocals {
		if l.ID == ref.ID {
			return i - len(c.impl.Head.Params), nil
		}
	}
	return 0, diag.New(diag.Compile, "local %q never allocated in this implementation", ref.Name)
}
