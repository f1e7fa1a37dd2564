// Package scope implements name/overload resolution (spec.md §4.2): a
// stack of frames, each mapping a representation to an overload set of
// function heads, with deepest-frame-wins (falling through to outer
// frames when nothing shadows) lookup.
//
// Grounded on internal/symbols/symbol_table_core.go's frame-stack-of-maps
// shape and symbol_table_resolution.go's outer-frame fallthrough lookup.
package scope

import (
	"github.com/monoteny-lang/monoteny/internal/funcs"
	"github.com/monoteny-lang/monoteny/internal/traits"
)

// OverloadSet is every function head known under one representation in
// one frame.
type OverloadSet struct {
	Heads []*funcs.Head
}

func (os *OverloadSet) Add(h *funcs.Head) {
	for _, existing := range os.Heads {
		if existing.Equal(h) {
			return
		}
	}
	os.Heads = append(os.Heads, h)
}

// Frame maps a representation to its overload set.
type Frame struct {
	overloads map[funcs.Representation]*OverloadSet
}

func newFrame() *Frame {
	return &Frame{overloads: map[funcs.Representation]*OverloadSet{}}
}

// Scope is a stack of frames, innermost last.
type Scope struct {
	frames []*Frame
	graph  *traits.Graph
}

// New creates a scope with one root frame and its own trait graph.
func New() *Scope {
	s := &Scope{graph: traits.NewGraph()}
	s.Push()
	return s
}

// NewChild creates a scope whose outer frames are parent's (a file's
// scope built on top of the bootstrap/core scope, say), sharing parent's
// trait graph since conformances are never name-shadowed (spec.md §4.4).
// Pushing/popping on the child never touches parent's own frame stack.
func NewChild(parent *Scope) *Scope {
	s := &Scope{graph: parent.graph, frames: append([]*Frame{}, parent.frames...)}
	s.Push()
	return s
}

// Traits returns the scope's trait conformance graph (shared across all
// frames — conformances are not name-shadowed, spec.md §4.4).
func (s *Scope) Traits() *traits.Graph { return s.graph }

// Push opens a new, innermost frame.
func (s *Scope) Push() { s.frames = append(s.frames, newFrame()) }

// Pop discards the innermost frame.
func (s *Scope) Pop() {
	if len(s.frames) > 0 {
		s.frames = s.frames[:len(s.frames)-1]
	}
}

func (s *Scope) top() *Frame { return s.frames[len(s.frames)-1] }

// OverloadFunction adds head to the current (innermost) frame's overload
// set, keyed by its declared representation.
func (s *Scope) OverloadFunction(h *funcs.Head) {
	f := s.top()
	set, ok := f.overloads[h.Rep]
	if !ok {
		set = &OverloadSet{}
		f.overloads[h.Rep] = set
	}
	set.Add(h)
}

// Lookup returns the overload set of the deepest frame that has an entry
// for rep, falling through to outer frames only when deeper ones have
// none; sets under the same rep in outer frames are not merged in.
func (s *Scope) Lookup(rep funcs.Representation) *OverloadSet {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if set, ok := s.frames[i].overloads[rep]; ok {
			return set
		}
	}
	return nil
}

// LookupByName collects every head known under any representation whose
// display name matches, across all frames (deepest frame's shadowing
// still applies per representation, but callers that only have a bare
// name — e.g. a parsed Call.Callee — need every form it might take).
func (s *Scope) LookupByName(name string) []*funcs.Head {
	seen := map[funcs.Representation]bool{}
	var out []*funcs.Head
	for i := len(s.frames) - 1; i >= 0; i-- {
		for rep, set := range s.frames[i].overloads {
			if rep.Name != name || seen[rep] {
				continue
			}
			seen[rep] = true
			out = append(out, set.Heads...)
		}
	}
	return out
}

// Importable is the minimal surface a Module exposes to Scope.Import,
// avoiding a dependency on the source package (which itself depends on
// scope as the resolver's working state).
type Importable interface {
	ExposedHeads() []*funcs.Head
	ConformanceRules() []*traits.Rule
}

// Import adds every exposed function of mod to the current scope, plus
// its conformance rules (spec.md §4.2).
func (s *Scope) Import(mod Importable) {
	for _, h := range mod.ExposedHeads() {
		s.OverloadFunction(h)
	}
	for _, r := range mod.ConformanceRules() {
		s.graph.AddRule(r)
	}
}
