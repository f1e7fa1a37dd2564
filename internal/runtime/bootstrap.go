package runtime

import (
	"github.com/monoteny-lang/monoteny/internal/funcs"
	"github.com/monoteny-lang/monoteny/internal/resolver"
	"github.com/monoteny-lang/monoteny/internal/scope"
	"github.com/monoteny-lang/monoteny/internal/source"
	"github.com/monoteny-lang/monoteny/internal/types"
)

// numericTags is every primitive tag PrimitiveOperation arithmetic
// applies to (spec.md §3's primitive family, minus Bool which gets its
// own logical operators below).
var numericTags = []types.PrimitiveTag{
	types.Int8, types.Int16, types.Int32, types.Int64,
	types.UInt8, types.UInt16, types.UInt32, types.UInt64,
	types.Float32, types.Float64,
}

var arithOps = []funcs.PrimitiveOp{funcs.OpAdd, funcs.OpSub, funcs.OpMul, funcs.OpDiv, funcs.OpMod, funcs.OpExp}
var arithNames = map[funcs.PrimitiveOp]string{
	funcs.OpAdd: "+", funcs.OpSub: "-", funcs.OpMul: "*", funcs.OpDiv: "/",
	funcs.OpMod: "%", funcs.OpExp: "^",
}

var cmpOps = []funcs.PrimitiveOp{funcs.OpEq, funcs.OpNeq, funcs.OpGr, funcs.OpGrEq, funcs.OpLe, funcs.OpLeEq}
var cmpNames = map[funcs.PrimitiveOp]string{
	funcs.OpEq: "==", funcs.OpNeq: "!=", funcs.OpGr: ">", funcs.OpGrEq: ">=",
	funcs.OpLe: "<", funcs.OpLeEq: "<=",
}

// Bootstrap registers every intrinsic this core provides natively in Go
// (arithmetic/comparison/logical operators, write_line, panic,
// transpiler.add) into src and a fresh Scope, standing in for the
// `core`/`core.bool`/`core.debug`/`core.transpilation` modules a real
// frontend would otherwise parse from builtins/*.monoteny (see that
// directory's doc comments). Every function here is PrimitiveOperation/
// Print/Panic/TranspileAdd descriptor logic — an inline emitter, never a
// parsed body — since these are exactly the operations this core cannot
// express any other way (spec.md §4.7).
func Bootstrap(src *source.Source) *scope.Scope {
	sc := scope.New()
	names := resolver.BuiltinTypeNames()
	boolT := names["Bool"]
	stringT := names["String"]

	define := func(h *funcs.Head, d *funcs.Descriptor) {
		src.DefineFunction(h, funcs.DescLogic(d))
		sc.OverloadFunction(h)
	}

	binary := func(name string, tag types.PrimitiveTag, ret types.Type, op funcs.PrimitiveOp) {
		h := funcs.NewHead(funcs.Interface{
			Params:     []funcs.Param{{Internal: "lhs", External: "lhs", Type: types.Primitive{Tag: tag}}, {Internal: "rhs", External: "rhs", Type: types.Primitive{Tag: tag}}},
			ReturnType: ret,
			Rep:        funcs.Representation{Name: name, Form: funcs.FormOperator, CallExplicity: false},
		})
		define(h, &funcs.Descriptor{Kind: funcs.PrimitiveOperation, Primitive: tag, Op: op})
	}

	for _, tag := range numericTags {
		numT := types.Primitive{Tag: tag}
		for _, op := range arithOps {
			binary(arithNames[op], tag, numT, op)
		}
		for _, op := range cmpOps {
			binary(cmpNames[op], tag, boolT, op)
		}
		neg := funcs.NewHead(funcs.Interface{
			Params:     []funcs.Param{{Internal: "x", External: "x", Type: numT}},
			ReturnType: numT,
			Rep:        funcs.Representation{Name: "-", Form: funcs.FormOperator, CallExplicity: false},
		})
		define(neg, &funcs.Descriptor{Kind: funcs.PrimitiveOperation, Primitive: tag, Op: funcs.OpNeg})
	}

	boolBinary := func(name string, op funcs.PrimitiveOp) {
		h := funcs.NewHead(funcs.Interface{
			Params:     []funcs.Param{{Internal: "lhs", External: "lhs", Type: boolT}, {Internal: "rhs", External: "rhs", Type: boolT}},
			ReturnType: boolT,
			Rep:        funcs.Representation{Name: name, Form: funcs.FormOperator, CallExplicity: false},
		})
		define(h, &funcs.Descriptor{Kind: funcs.PrimitiveOperation, Primitive: types.Bool, Op: op})
	}
	boolBinary("&&", funcs.OpAnd)
	boolBinary("||", funcs.OpOr)
	boolBinary("==", funcs.OpEq)
	boolBinary("!=", funcs.OpNeq)

	not := funcs.NewHead(funcs.Interface{
		Params:     []funcs.Param{{Internal: "x", External: "x", Type: boolT}},
		ReturnType: boolT,
		Rep:        funcs.Representation{Name: "!", Form: funcs.FormOperator, CallExplicity: false},
	})
	define(not, &funcs.Descriptor{Kind: funcs.PrimitiveOperation, Primitive: types.Bool, Op: funcs.OpNot})

	printOf := func(argType types.Type, tag types.PrimitiveTag, isString bool) {
		h := funcs.NewHead(funcs.Interface{
			Params: []funcs.Param{{Internal: "s", External: "s", Type: argType}},
			Rep:    funcs.Representation{Name: "write_line", Form: funcs.FormGlobalFunction, CallExplicity: true},
		})
		define(h, &funcs.Descriptor{Kind: funcs.Print, Primitive: tag, IsString: isString})
	}
	printOf(boolT, types.Bool, false)
	for _, tag := range numericTags {
		printOf(types.Primitive{Tag: tag}, tag, false)
	}
	printOf(stringT, 0, true)

	panicFn := funcs.NewHead(funcs.Interface{
		Params: []funcs.Param{{Internal: "msg", External: "msg", Type: stringT}},
		Rep:    funcs.Representation{Name: "panic", Form: funcs.FormGlobalFunction, CallExplicity: true},
	})
	define(panicFn, &funcs.Descriptor{Kind: funcs.Panic})

	transpilerAdd := funcs.NewHead(funcs.Interface{
		Params: []funcs.Param{{Internal: "fn", External: "fn", Type: funcs.FunctionValue}},
		Rep:    funcs.Representation{Name: "transpiler.add", Form: funcs.FormGlobalFunction, CallExplicity: true},
	})
	define(transpilerAdd, &funcs.Descriptor{Kind: funcs.TranspileAdd})

	return sc
}
