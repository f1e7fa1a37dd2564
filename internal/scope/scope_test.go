package scope

import (
	"testing"

	"github.com/monoteny-lang/monoteny/internal/funcs"
	"github.com/monoteny-lang/monoteny/internal/traits"
)

func head(name string, form funcs.Form) *funcs.Head {
	return funcs.NewHead(funcs.Interface{Rep: funcs.Representation{Name: name, Form: form, CallExplicity: true}})
}

func TestOverloadFunctionDedupesByRepresentation(t *testing.T) {
	s := New()
	h1 := head("foo", funcs.FormGlobalFunction)
	s.OverloadFunction(h1)
	s.OverloadFunction(h1)

	set := s.Lookup(h1.Rep)
	if set == nil || len(set.Heads) != 1 {
		t.Fatalf("Lookup(foo) = %v, want exactly one head", set)
	}
}

func TestLookupByNameCollectsEveryForm(t *testing.T) {
	s := New()
	call := head("foo", funcs.FormGlobalFunction)
	getter := head("foo", funcs.FormGlobalImplicit)
	s.OverloadFunction(call)
	s.OverloadFunction(getter)

	heads := s.LookupByName("foo")
	if len(heads) != 2 {
		t.Fatalf("LookupByName(foo) returned %d heads, want 2", len(heads))
	}
}

func TestNewChildSeesParentButNotViceVersa(t *testing.T) {
	parent := New()
	parentFn := head("fromParent", funcs.FormGlobalFunction)
	parent.OverloadFunction(parentFn)

	child := NewChild(parent)
	childFn := head("fromChild", funcs.FormGlobalFunction)
	child.OverloadFunction(childFn)

	if got := child.LookupByName("fromParent"); len(got) != 1 {
		t.Errorf("child did not inherit parent's overload, got %v", got)
	}
	if got := parent.LookupByName("fromChild"); len(got) != 0 {
		t.Errorf("parent saw child's overload added after NewChild: %v", got)
	}
}

type fakeModule struct {
	heads []*funcs.Head
	rules []*traits.Rule
}

func (m fakeModule) ExposedHeads() []*funcs.Head      { return m.heads }
func (m fakeModule) ConformanceRules() []*traits.Rule { return m.rules }

func TestImportAddsHeadsAndRules(t *testing.T) {
	s := New()
	fn := head("imported", funcs.FormGlobalFunction)
	tr := &traits.Rule{}
	s.Import(fakeModule{heads: []*funcs.Head{fn}, rules: []*traits.Rule{tr}})

	if got := s.LookupByName("imported"); len(got) != 1 {
		t.Errorf("Import did not add the module's exposed head")
	}
	if rules := s.Traits().Rules(); len(rules) != 1 || rules[0] != tr {
		t.Errorf("Import did not add the module's conformance rule")
	}
}
