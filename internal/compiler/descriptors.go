package compiler

import (
	"github.com/google/uuid"

	"github.com/monoteny-lang/monoteny/internal/diag"
	"github.com/monoteny-lang/monoteny/internal/funcs"
	"github.com/monoteny-lang/monoteny/internal/layout"
	"github.com/monoteny-lang/monoteny/internal/resolver/tree"
	"github.com/monoteny-lang/monoteny/internal/traits"
	"github.com/monoteny-lang/monoteny/internal/vm"
)

// TraitLookup resolves a trait by id, the minimal surface descriptor
// compilation needs from Source without importing the whole package
// (source would otherwise import compiler transitively through runtime).
type TraitLookup interface {
	Trait(id uuid.UUID) (*traits.Trait, bool)
}

// BuildEmitters compiles every descriptor-logic function's declarative
// shape into an inline Emitter (spec.md §4.7's "descriptors compile to
// inline emitters where practical"). Stub descriptors produce a
// Compile-category error rather than an emitter, per spec.md §7
// ("todo-reached: a descriptor the backend cannot yet emit").
func BuildEmitters(descriptors map[uuid.UUID]*funcs.Descriptor, src TraitLookup, layouts *layout.Cache) (map[uuid.UUID]Emitter, error) {
	out := map[uuid.UUID]Emitter{}
	var bag diag.Bag

	for id, d := range descriptors {
		switch d.Kind {
		case funcs.Stub:
			bag.Addf(diag.Compile, "function %s has an unimplemented Stub body", id)
			continue

		case funcs.TraitProvider:
			trait := d.Trait
			out[id] = func(c *FunctionCompiler, node tree.NodeID) error {
				return emitIDConstant(c, trait)
			}

		case funcs.FunctionProvider:
			fn := d.Function.ID
			out[id] = func(c *FunctionCompiler, node tree.NodeID) error {
				return emitIDConstant(c, fn)
			}

		case funcs.PrimitiveOperation:
			emit, err := primitiveOperationEmitter(d)
			if err != nil {
				bag.Add(err)
				continue
			}
			out[id] = emit

		case funcs.Constructor:
			dl, err := structLayout(d.Struct, src, layouts)
			if err != nil {
				bag.Add(err)
				continue
			}
			out[id] = constructorEmitter(dl)

		case funcs.GetMemberField:
			dl, err := structLayout(d.Struct, src, layouts)
			if err != nil {
				bag.Add(err)
				continue
			}
			idx := dl.IndexOf(d.Field)
			if idx < 0 {
				bag.Addf(diag.Compile, "field %s not found in struct %s layout", d.Field, d.Struct)
				continue
			}
			out[id] = func(c *FunctionCompiler, node tree.NodeID) error {
				n := c.impl.Tree.Node(node)
				if err := c.compileExpression(n.Children[0]); err != nil {
					return err
				}
				c.chunk.PushU32(vm.GET_MEMBER_32, uint32(idx))
				return nil
			}

		case funcs.SetMemberField:
			dl, err := structLayout(d.Struct, src, layouts)
			if err != nil {
				bag.Add(err)
				continue
			}
			idx := dl.IndexOf(d.Field)
			if idx < 0 {
				bag.Addf(diag.Compile, "field %s not found in struct %s layout", d.Field, d.Struct)
				continue
			}
			out[id] = func(c *FunctionCompiler, node tree.NodeID) error {
				n := c.impl.Tree.Node(node)
				if err := c.compileExpression(n.Children[0]); err != nil {
					return err
				}
				if err := c.compileExpression(n.Children[1]); err != nil {
					return err
				}
				c.chunk.PushU32(vm.SET_MEMBER_32, uint32(idx))
				return nil
			}

		case funcs.Clone:
			dl, err := structLayout(d.Struct, src, layouts)
			if err != nil {
				bag.Add(err)
				continue
			}
			out[id] = cloneEmitter(dl)

		case funcs.Print:
			out[id] = printEmitter(d)

		case funcs.Panic:
			out[id] = func(c *FunctionCompiler, node tree.NodeID) error {
				args := c.impl.Tree.Node(node).Children
				if len(args) != 1 {
					return diag.New(diag.Compile, "panic takes exactly one argument")
				}
				if err := c.compileExpression(args[0]); err != nil {
					return err
				}
				c.chunk.Push(vm.PANIC)
				return nil
			}

		case funcs.TranspileAdd:
			out[id] = func(c *FunctionCompiler, node tree.NodeID) error {
				args := c.impl.Tree.Node(node).Children
				if len(args) != 1 {
					return diag.New(diag.Compile, "transpiler.add takes exactly one argument")
				}
				if err := c.compileExpression(args[0]); err != nil {
					return err
				}
				c.chunk.Push(vm.TRANSPILE_ADD)
				return nil
			}

		default:
			bag.Addf(diag.Compile, "unknown descriptor kind for function %s", id)
		}
	}

	if err := bag.Err(); err != nil {
		return out, err
	}
	return out, nil
}

func structLayout(structID uuid.UUID, src TraitLookup, layouts *layout.Cache) (*layout.DataLayout, error) {
	t, ok := src.Trait(structID)
	if !ok {
		return nil, diag.New(diag.Compile, "unknown struct %s", structID)
	}
	return layouts.Get(t), nil
}

func emitIDConstant(c *FunctionCompiler, id uuid.UUID) error {
	idx := c.chunk.PushConstant(id)
	c.chunk.PushU32(vm.LOAD_CONSTANT_32, idx)
	return nil
}

// constructorEmitter allocates one slot per field and fills each from the
// corresponding constructor argument (spec.md §4.7: "allocate a struct
// of N slots ... for each field, duplicate the pointer, evaluate the
// field expression, SET_MEMBER_32 i").
func constructorEmitter(dl *layout.DataLayout) Emitter {
	n := dl.SlotCount()
	return func(c *FunctionCompiler, node tree.NodeID) error {
		args := c.impl.Tree.Node(node).Children
		if len(args) != n {
			return diag.New(diag.Compile, "constructor arity mismatch: struct has %d fields, call has %d arguments", n, len(args))
		}
		c.chunk.PushU32(vm.ALLOC_32, uint32(n))
		for i, arg := range args {
			c.chunk.Push(vm.DUP64)
			if err := c.compileExpression(arg); err != nil {
				return err
			}
			c.chunk.PushU32(vm.SET_MEMBER_32, uint32(i))
		}
		return nil
	}
}

// cloneEmitter shallow bit-copies every field slot into a freshly
// allocated struct (see DESIGN.md's Clone decision: a bit-copy, since no
// field type in this core owns out-of-line memory other than by pointer,
// and pointer aliasing after a Clone matches this core's process-
// lifetime heap model).
func cloneEmitter(dl *layout.DataLayout) Emitter {
	n := dl.SlotCount()
	return func(c *FunctionCompiler, node tree.NodeID) error {
		args := c.impl.Tree.Node(node).Children
		if len(args) != 1 {
			return diag.New(diag.Compile, "clone takes exactly one argument")
		}
		if err := c.compileExpression(args[0]); err != nil {
			return err
		}
		c.chunk.PushU32(vm.ALLOC_32, uint32(n))
		for i := 0; i < n; i++ {
			c.chunk.Push(vm.SWAP64) // [new, src] -> bring src to top
			c.chunk.Push(vm.DUP64)
			c.chunk.PushU32(vm.GET_MEMBER_32, uint32(i))
			c.chunk.Push(vm.SWAP64) // [src, val] -> [val, src] keep src reachable under new
			c.chunk.Push(vm.SWAP64)
			c.chunk.PushU32(vm.SET_MEMBER_32, uint32(i))
		}
		c.chunk.Push(vm.SWAP64)
		c.chunk.Push(vm.POP64)
		return nil
	}
}

// printEmitter emits TO_STRING (unless the argument is already a String)
// followed by PRINT.
func printEmitter(d *funcs.Descriptor) Emitter {
	tag := primitiveTagOf(d.Primitive)
	isString := d.IsString
	return func(c *FunctionCompiler, node tree.NodeID) error {
		args := c.impl.Tree.Node(node).Children
		if len(args) != 1 {
			return diag.New(diag.Compile, "write_line takes exactly one argument")
		}
		if err := c.compileExpression(args[0]); err != nil {
			return err
		}
		if !isString {
			c.chunk.PushU8(vm.TO_STRING, byte(tag))
		}
		c.chunk.Push(vm.PRINT)
		return nil
	}
}

var primOpToOpcode = map[funcs.PrimitiveOp]vm.Opcode{
	funcs.OpAdd: vm.ADD, funcs.OpSub: vm.SUB, funcs.OpMul: vm.MUL,
	funcs.OpDiv: vm.DIV, funcs.OpMod: vm.MOD, funcs.OpExp: vm.EXP,
	funcs.OpLog: vm.LOG, funcs.OpNeg: vm.NEG,
	funcs.OpEq: vm.EQ, funcs.OpNeq: vm.NEQ, funcs.OpGr: vm.GR,
	funcs.OpGrEq: vm.GR_EQ, funcs.OpLe: vm.LE, funcs.OpLeEq: vm.LE_EQ,
}

// primitiveOperationEmitter emits the typed arithmetic/comparison
// opcodes, with AND/OR/NOT given the short-circuit treatment spec.md
// §4.7 calls for: "emit lhs, DUP64, JUMP_IF_FALSE (for AND) / NOT+
// JUMP_IF_FALSE (for OR) past the rhs, else emit rhs and combine."
func primitiveOperationEmitter(d *funcs.Descriptor) (Emitter, error) {
	tag := primitiveTagOf(d.Primitive)

	switch d.Op {
	case funcs.OpAnd, funcs.OpOr:
		isAnd := d.Op == funcs.OpAnd
		return func(c *FunctionCompiler, node tree.NodeID) error {
			args := c.impl.Tree.Node(node).Children
			if len(args) != 2 {
				return diag.New(diag.Compile, "boolean operator arity mismatch")
			}
			if err := c.compileExpression(args[0]); err != nil {
				return err
			}
			c.chunk.Push(vm.DUP64)
			if !isAnd {
				c.chunk.Push(vm.NOT)
			}
			jump := c.chunk.Here()
			c.chunk.PushI32(vm.JUMP_IF_FALSE, 0)
			c.chunk.Push(vm.POP64)
			if err := c.compileExpression(args[1]); err != nil {
				return err
			}
			backpatch(c.chunk, jump)
			return nil
		}, nil

	case funcs.OpNot:
		return func(c *FunctionCompiler, node tree.NodeID) error {
			args := c.impl.Tree.Node(node).Children
			if len(args) != 1 {
				return diag.New(diag.Compile, "not takes exactly one argument")
			}
			if err := c.compileExpression(args[0]); err != nil {
				return err
			}
			c.chunk.Push(vm.NOT)
			return nil
		}, nil

	case funcs.OpNeg:
		return func(c *FunctionCompiler, node tree.NodeID) error {
			args := c.impl.Tree.Node(node).Children
			if len(args) != 1 {
				return diag.New(diag.Compile, "neg takes exactly one argument")
			}
			if err := c.compileExpression(args[0]); err != nil {
				return err
			}
			c.chunk.PushU8(vm.NEG, byte(tag))
			return nil
		}, nil

	default:
		op, ok := primOpToOpcode[d.Op]
		if !ok {
			return nil, diag.New(diag.Compile, "unsupported primitive operation %v", d.Op)
		}
		return func(c *FunctionCompiler, node tree.NodeID) error {
			args := c.impl.Tree.Node(node).Children
			if len(args) != 2 {
				return diag.New(diag.Compile, "binary operator arity mismatch")
			}
			if err := c.compileExpression(args[0]); err != nil {
				return err
			}
			if err := c.compileExpression(args[1]); err != nil {
				return err
			}
			c.chunk.PushU8(op, byte(tag))
			return nil
		}, nil
	}
}
