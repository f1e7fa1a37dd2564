// Package source implements Monoteny's Source and Module (spec.md §3):
// the process-wide, append-only index of everything resolved so far, and
// the named unit of functions/conformances/entry-tags a module exposes.
//
// Grounded on the original Rust source.rs/program/module.rs and the
// teacher's internal/modules/module.go.
package source

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/monoteny-lang/monoteny/internal/diag"
	"github.com/monoteny-lang/monoteny/internal/funcs"
	"github.com/monoteny-lang/monoteny/internal/grammar"
	"github.com/monoteny-lang/monoteny/internal/traits"
)

// Module is a named unit exposing a set of function heads, a set of
// trait conformance rules, main/transpile entry tags, and patterns
// registered with the grammar.
type Module struct {
	Name string

	heads      []*funcs.Head
	rules      []*traits.Rule
	mains      []*funcs.Head
	transpiles []*funcs.Head
	patterns   []grammar.Pattern
}

func NewModule(name string) *Module {
	return &Module{Name: name}
}

func (m *Module) Expose(h *funcs.Head)        { m.heads = append(m.heads, h) }
func (m *Module) AddRule(r *traits.Rule)       { m.rules = append(m.rules, r) }
func (m *Module) AddPattern(p grammar.Pattern) { m.patterns = append(m.patterns, p) }
func (m *Module) MarkMain(h *funcs.Head)       { m.mains = append(m.mains, h) }
func (m *Module) MarkTranspile(h *funcs.Head)  { m.transpiles = append(m.transpiles, h) }

func (m *Module) ExposedHeads() []*funcs.Head    { return m.heads }
func (m *Module) ConformanceRules() []*traits.Rule { return m.rules }
func (m *Module) Patterns() []grammar.Pattern    { return m.patterns }

// ResolveMain returns the module's single main function, per spec.md §6:
// "Runners require exactly one main with empty parameters and void
// return."
func (m *Module) ResolveMain() (*funcs.Head, error) {
	return resolveEntry(m.mains, "main")
}

// ResolveTranspile returns the module's single transpile function, per
// spec.md §6: "transpilers require exactly one transpile with the same
// shape."
func (m *Module) ResolveTranspile() (*funcs.Head, error) {
	return resolveEntry(m.transpiles, "transpile")
}

// Transpiles returns every function marked as a transpile entry, for a
// host that wants to run all of them (the CLI's `--all`) rather than
// requiring exactly one via ResolveTranspile.
func (m *Module) Transpiles() []*funcs.Head { return m.transpiles }

func resolveEntry(candidates []*funcs.Head, label string) (*funcs.Head, error) {
	if len(candidates) == 0 {
		return nil, diag.New(diag.Link, "no %s! function declared", label)
	}
	if len(candidates) > 1 {
		return nil, diag.New(diag.Link, "multiple %s! functions declared (%d)", label, len(candidates))
	}
	h := candidates[0]
	if len(h.Params) != 0 {
		return nil, diag.New(diag.Link, "%s! must take no parameters", label)
	}
	if h.ReturnType != nil {
		return nil, diag.New(diag.Link, "%s! must return void", label)
	}
	return h, nil
}

// getterEntry records a function reified as a zero-arg value-yielding
// getter (spec.md §3: "its optional getter").
type getterEntry struct {
	getter *funcs.Head
}

// Source is the process-wide, append-only index of everything resolved
// so far. It is append-only while resolving; read-only while compiling
// (enforced by handing downstream stages a *View rather than a *Source).
type Source struct {
	modulesByName map[string]*Module

	logic     map[uuid.UUID]funcs.Logic
	rep       map[uuid.UUID]funcs.Representation
	getters   map[uuid.UUID]getterEntry // function id -> its getter head
	traitByGetter map[uuid.UUID]uuid.UUID // getter function id -> trait id
	funcToTrait   map[uuid.UUID]uuid.UUID // function id (reified as object) -> trait id

	traits map[uuid.UUID]*traits.Trait
	heads  map[uuid.UUID]*funcs.Head
}

func New() *Source {
	return &Source{
		modulesByName: map[string]*Module{},
		logic:         map[uuid.UUID]funcs.Logic{},
		rep:           map[uuid.UUID]funcs.Representation{},
		getters:       map[uuid.UUID]getterEntry{},
		traitByGetter: map[uuid.UUID]uuid.UUID{},
		funcToTrait:   map[uuid.UUID]uuid.UUID{},
		traits:        map[uuid.UUID]*traits.Trait{},
		heads:         map[uuid.UUID]*funcs.Head{},
	}
}

// AddModule registers a fully-resolved module. Fully-qualified module
// names are dot-joined path segments (spec.md §6).
func (s *Source) AddModule(m *Module) {
	s.modulesByName[m.Name] = m
	for _, h := range m.heads {
		s.heads[h.ID] = h
		s.rep[h.ID] = h.Rep
	}
}

func (s *Source) Module(name string) (*Module, bool) {
	m, ok := s.modulesByName[name]
	return m, ok
}

// DefineFunction records a function head's logic. Every invariant in
// spec.md §3 ("every function head appearing in FunctionCall has an entry
// in Source.fn_logic") is established here.
func (s *Source) DefineFunction(h *funcs.Head, logic funcs.Logic) {
	s.heads[h.ID] = h
	s.rep[h.ID] = h.Rep
	s.logic[h.ID] = logic
}

func (s *Source) Logic(id uuid.UUID) (funcs.Logic, bool) {
	l, ok := s.logic[id]
	return l, ok
}

func (s *Source) Representation(id uuid.UUID) (funcs.Representation, bool) {
	r, ok := s.rep[id]
	return r, ok
}

func (s *Source) Head(id uuid.UUID) (*funcs.Head, bool) {
	h, ok := s.heads[id]
	return h, ok
}

// Descriptors snapshots every currently-registered descriptor-logic
// function, keyed by id. Simplify's constant-folding pass needs this to
// recognize calls to PrimitiveOperation/Print/etc. that never go through
// Refactor's working copies.
func (s *Source) Descriptors() map[uuid.UUID]*funcs.Descriptor {
	out := map[uuid.UUID]*funcs.Descriptor{}
	for id, l := range s.logic {
		if l.Descriptor != nil {
			out[id] = l.Descriptor
		}
	}
	return out
}

// RegisterTrait indexes a trait by id.
func (s *Source) RegisterTrait(t *traits.Trait) { s.traits[t.ID] = t }

func (s *Source) Trait(id uuid.UUID) (*traits.Trait, bool) {
	t, ok := s.traits[id]
	return t, ok
}

// SetGetter records that fn has a zero-arg getter function that yields fn
// as a value (spec.md §3).
func (s *Source) SetGetter(fn *funcs.Head, getter *funcs.Head) {
	s.getters[fn.ID] = getterEntry{getter: getter}
}

func (s *Source) Getter(fn uuid.UUID) (*funcs.Head, bool) {
	e, ok := s.getters[fn]
	if !ok {
		return nil, false
	}
	return e.getter, true
}

// SetTraitByGetter records that calling getter reifies trait as a value
// (spec.md §3: "trait-by-getter").
func (s *Source) SetTraitByGetter(getter *funcs.Head, trait uuid.UUID) {
	s.traitByGetter[getter.ID] = trait
}

func (s *Source) TraitByGetter(getter uuid.UUID) (uuid.UUID, bool) {
	t, ok := s.traitByGetter[getter]
	return t, ok
}

// SetFunctionTrait records that fn, when reified as an object, carries
// trait (spec.md §3: "function-trait for functions reified as objects").
func (s *Source) SetFunctionTrait(fn *funcs.Head, trait uuid.UUID) {
	s.funcToTrait[fn.ID] = trait
}

func (s *Source) FunctionTrait(fn uuid.UUID) (uuid.UUID, bool) {
	t, ok := s.funcToTrait[fn]
	return t, ok
}

// View is a read-only accessor over a Source, handed to the compiler and
// VM once resolution has finished — the narrow-type-downstream discipline
// the teacher applies between symbols.SymbolTable (mutable, resolve-time)
// and evaluator.Environment (execution-time, narrower).
type View struct {
	s *Source
}

func NewView(s *Source) *View { return &View{s: s} }

func (v *View) Logic(id uuid.UUID) (funcs.Logic, bool)                 { return v.s.Logic(id) }
func (v *View) Representation(id uuid.UUID) (funcs.Representation, bool) { return v.s.Representation(id) }
func (v *View) Head(id uuid.UUID) (*funcs.Head, bool)                  { return v.s.Head(id) }
func (v *View) Trait(id uuid.UUID) (*traits.Trait, bool)               { return v.s.Trait(id) }
func (v *View) Getter(fn uuid.UUID) (*funcs.Head, bool)                { return v.s.Getter(fn) }
func (v *View) TraitByGetter(getter uuid.UUID) (uuid.UUID, bool)       { return v.s.TraitByGetter(getter) }
func (v *View) FunctionTrait(fn uuid.UUID) (uuid.UUID, bool)           { return v.s.FunctionTrait(fn) }
func (v *View) Module(name string) (*Module, bool)                    { return v.s.Module(name) }
func (v *View) Descriptors() map[uuid.UUID]*funcs.Descriptor           { return v.s.Descriptors() }

// CheckInvariants verifies that every registered function head has a
// logic entry. Struct field references inside that logic are not checked,
// and expression trees are not walked (resolver does).
func (v *View) CheckInvariants() error {
	var bag diag.Bag
	for id := range v.s.heads {
		if _, ok := v.s.logic[id]; !ok {
			bag.Addf(diag.Link, "function %s has no logic entry", id)
		}
	}
	return bag.Err()
}

func (m *Module) String() string { return fmt.Sprintf("module(%s)", m.Name) }
