// Package runtime wires the resolver, refactor, compiler and vm stages
// together behind a single entry point, plus a pluggable module text
// loader (spec.md §4.9).
//
// Grounded on the original Rust interpreter/runtime.rs (Runtime::new,
// get_or_load_module, load_text_as_module/load_ast_as_module) and the
// teacher's pkg/embed/vm.go New()/SetLoader embedding surface.
package runtime

import (
	"github.com/google/uuid"

	"github.com/monoteny-lang/monoteny/internal/ast"
	"github.com/monoteny-lang/monoteny/internal/diag"
	"github.com/monoteny-lang/monoteny/internal/funcs"
	"github.com/monoteny-lang/monoteny/internal/resolver"
	"github.com/monoteny-lang/monoteny/internal/resolver/tree"
	"github.com/monoteny-lang/monoteny/internal/scope"
	"github.com/monoteny-lang/monoteny/internal/source"
	"github.com/monoteny-lang/monoteny/internal/traits"
	"github.com/monoteny-lang/monoteny/internal/types"
)

// LoadProgram resolves a parsed ast.Program into a fully-defined
// source.Module, registering every declared trait, conformance rule and
// function in src, and importing sc's existing bindings (e.g. builtin
// modules already loaded into src) as the file's outer scope.
// Corresponds to the original's load_ast_as_module, minus the
// text-parsing step: no parser is in scope here, so a host feeds
// already-parsed ast.Program values in directly (spec.md §1).
func LoadProgram(src *source.Source, sc *scope.Scope, prog *ast.Program) (*source.Module, error) {
	mod := source.NewModule(prog.File)
	names := resolver.BuiltinTypeNames()
	var bag diag.Bag

	traitOf := map[string]*traits.Trait{} // trait name -> trait, for conformance lookup

	// Pass 1: declare every trait and function head so forward references
	// within the same file resolve (declaration order within one module is
	// not significant).
	funcHeads := map[*ast.FunctionDecl]*funcs.Head{}

	for _, stmt := range prog.Statements {
		switch d := stmt.(type) {
		case *ast.TraitDecl:
			t := traits.NewTrait(d.Name, d.Generics...)
			selfType := types.StructRef{Struct: t.ID, Name: d.Name}
			names[d.Name] = selfType
			for _, f := range d.Fields {
				ty, err := names.Resolve(f.TypeName)
				if err != nil {
					bag.Add(err)
					continue
				}
				t.AddField(traits.Field{ID: uuid.New(), Name: f.Internal, Type: ty})
			}
			for _, slot := range d.Slots {
				h, err := declareHead(slot, names)
				if err != nil {
					bag.Add(err)
					continue
				}
				t.AddSlot(h)
				funcHeads[slot] = h
			}
			traitOf[d.Name] = t
			src.RegisterTrait(t)

			// A trait with fields gets an implicit constructor and one
			// field getter per field (spec.md §4.7's "allocate a struct
			// ... for each field, SET_MEMBER_32" / "GET_MEMBER_32" shapes;
			// scenario: "constructor + getter: defining a trait with
			// field count 'Int32, constructing ... printing
			// instance.count").
			if len(t.Fields) > 0 {
				ctor := constructorHead(t, selfType)
				src.DefineFunction(ctor, funcs.DescLogic(&funcs.Descriptor{Kind: funcs.Constructor, Struct: t.ID}))
				sc.OverloadFunction(ctor)
				mod.Expose(ctor)

				for _, f := range t.Fields {
					getter := fieldGetterHead(f, selfType)
					src.DefineFunction(getter, funcs.DescLogic(&funcs.Descriptor{Kind: funcs.GetMemberField, Struct: t.ID, Field: f.ID}))
					sc.OverloadFunction(getter)
					mod.Expose(getter)
				}
			}

		case *ast.FunctionDecl:
			h, err := declareHead(d, names)
			if err != nil {
				bag.Add(err)
				continue
			}
			funcHeads[d] = h
			sc.OverloadFunction(h)
			mod.Expose(h)

			getter := newGetterHead(h)
			src.DefineFunction(getter, funcs.DescLogic(&funcs.Descriptor{Kind: funcs.FunctionProvider, Function: h}))
			src.SetGetter(h, getter)
			sc.OverloadFunction(getter)
			mod.Expose(getter)
		}
	}

	for _, stmt := range prog.Statements {
		c, ok := stmt.(*ast.ConformanceDecl)
		if !ok {
			continue
		}
		rule, err := buildConformanceRule(c, names, traitOf, funcHeads)
		if err != nil {
			bag.Add(err)
			continue
		}
		sc.Traits().AddRule(rule)
		mod.AddRule(rule)
	}

	// Pass 2: build and resolve every function body now that every head
	// (including forward references and conformance bodies) is visible.
	for decl, h := range funcHeads {
		if decl.Body == nil {
			src.DefineFunction(h, funcs.DescLogic(&funcs.Descriptor{Kind: funcs.Stub}))
			continue
		}
		impl, err := buildImplementation(h, decl, names, sc)
		if err != nil {
			bag.Add(err)
			continue
		}
		src.DefineFunction(h, funcs.ImplLogic(impl))
		if decl.IsMain {
			mod.MarkMain(h)
		}
		if decl.IsTranspile {
			mod.MarkTranspile(h)
		}
	}

	if err := bag.Err(); err != nil {
		return nil, err
	}
	src.AddModule(mod)
	return mod, nil
}

func declareHead(d *ast.FunctionDecl, names resolver.TypeNames) (*funcs.Head, error) {
	var bag diag.Bag
	iface := funcs.Interface{Rep: representationOf(d)}
	for _, p := range d.Params {
		ty, err := names.Resolve(p.TypeName)
		if err != nil {
			bag.Add(err)
			continue
		}
		iface.Params = append(iface.Params, funcs.Param{Internal: p.Internal, External: p.External, Type: ty})
	}
	if d.ReturnType != "" {
		ty, err := names.Resolve(d.ReturnType)
		if err != nil {
			bag.Add(err)
		} else {
			iface.ReturnType = ty
		}
	}
	if err := bag.Err(); err != nil {
		return nil, err
	}
	return funcs.NewHead(iface), nil
}

// newGetterHead builds the zero-arg FormGlobalImplicit head that reifies
// fn as a value (spec.md §3: every function head has "its optional
// getter, a zero-arg function that yields the function as a value").
func newGetterHead(fn *funcs.Head) *funcs.Head {
	return funcs.NewHead(funcs.Interface{
		ReturnType: funcs.FunctionValue,
		Rep:        funcs.Representation{Name: fn.Rep.Name, Form: funcs.FormGlobalImplicit, CallExplicity: false},
	})
}

// constructorHead declares `TraitName(field1: ..., field2: ...) ->
// TraitName`, one parameter per field in declaration order.
func constructorHead(t *traits.Trait, selfType types.Type) *funcs.Head {
	iface := funcs.Interface{
		ReturnType: selfType,
		Rep:        funcs.Representation{Name: t.Name, Form: funcs.FormGlobalFunction, CallExplicity: true},
	}
	for _, f := range t.Fields {
		iface.Params = append(iface.Params, funcs.Param{Internal: f.Name, External: f.Name, Type: f.Type})
	}
	return funcs.NewHead(iface)
}

// fieldGetterHead declares `fieldName(self TraitName) -> FieldType`, the
// call form a member access like instance.count desugars to.
func fieldGetterHead(f traits.Field, selfType types.Type) *funcs.Head {
	return funcs.NewHead(funcs.Interface{
		Params:     []funcs.Param{{Internal: "self", External: "self", Type: selfType}},
		ReturnType: f.Type,
		Rep:        funcs.Representation{Name: f.Name, Form: funcs.FormMember, CallExplicity: true},
	})
}

func representationOf(d *ast.FunctionDecl) funcs.Representation {
	form := funcs.FormGlobalFunction
	switch {
	case d.Operator:
		form = funcs.FormOperator
	case len(d.Params) == 0 && d.ReturnType != "":
		form = funcs.FormGlobalImplicit
	}
	return funcs.Representation{Name: d.Name, Form: form, CallExplicity: !d.Operator}
}

func buildImplementation(h *funcs.Head, d *ast.FunctionDecl, names resolver.TypeNames, sc *scope.Scope) (*funcs.Implementation, error) {
	ctx := resolver.NewContext(sc)

	params := make([]*tree.ObjectReference, len(h.Params))
	for i, p := range h.Params {
		params[i] = tree.NewObjectReference(d.Params[i].Internal, p.Type, false)
	}

	_, locals, err := ctx.BuildFunction(d.Body, params, names)
	if err != nil {
		return nil, err
	}
	tr, err := ctx.Resolve()
	if err != nil {
		return nil, err
	}
	return &funcs.Implementation{Head: h, Tree: tr, Locals: locals}, nil
}

// buildConformanceRule registers a `Type conforms to Trait { ... }`
// block: each listed function becomes a fresh head (its body resolved in
// pass 2 like any other function) and is slotted into the trait's
// abstract signature list by matching representation name.
func buildConformanceRule(c *ast.ConformanceDecl, names resolver.TypeNames, traitOf map[string]*traits.Trait, funcHeads map[*ast.FunctionDecl]*funcs.Head) (*traits.Rule, error) {
	trait, ok := traitOf[c.TraitName]
	if !ok {
		return nil, diag.New(diag.Link, "unknown trait %q in conformance", c.TraitName)
	}

	var bag diag.Bag
	bindings := types.Subst{}
	if len(c.TypeArgs) > 0 {
		ty, err := names.Resolve(c.TypeArgs[0])
		if err != nil {
			bag.Add(err)
		} else {
			bindings[traits.SelfParam] = ty
		}
	}
	if len(c.TypeArgs) > 1 {
		for i, arg := range c.TypeArgs[1:] {
			ty, err := names.Resolve(arg)
			if err != nil {
				bag.Add(err)
				continue
			}
			if i < len(trait.Generics)-1 {
				bindings[trait.Generics[i+1]] = ty
			}
		}
	}

	functions := map[int]*funcs.Head{}
	for _, fd := range c.Functions {
		h, err := declareHead(fd, names)
		if err != nil {
			bag.Add(err)
			continue
		}
		funcHeads[fd] = h
		idx := slotIndexByName(trait, fd.Name)
		if idx < 0 {
			bag.Addf(diag.Link, "%s does not declare a slot named %q", c.TraitName, fd.Name)
			continue
		}
		functions[idx] = h
	}

	if err := bag.Err(); err != nil {
		return nil, err
	}
	return &traits.Rule{ID: uuid.New(), Trait: trait.ID, Bindings: bindings, Functions: functions}, nil
}

func slotIndexByName(t *traits.Trait, name string) int {
	for i, slot := range t.Slots {
		if slot.Rep.Name == name {
			return i
		}
	}
	return -1
}
