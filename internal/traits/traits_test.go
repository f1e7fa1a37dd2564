package traits

import (
	"testing"

	"github.com/google/uuid"

	"github.com/monoteny-lang/monoteny/internal/funcs"
	"github.com/monoteny-lang/monoteny/internal/types"
)

func TestQueryManualRule(t *testing.T) {
	eq := NewTrait("Eq")
	g := NewGraph()
	g.AddRule(&Rule{
		ID:    uuid.New(),
		Trait: eq.ID,
		Bindings: types.Subst{
			SelfParam: types.Primitive{Tag: types.Int32},
		},
		Functions: map[int]*funcs.Head{},
	})

	rule, subst, ok := g.Query(eq.ID, types.Subst{SelfParam: types.Primitive{Tag: types.Int32}})
	if !ok {
		t.Fatalf("Query did not find the manual rule")
	}
	if !types.Equal(subst[SelfParam], types.Primitive{Tag: types.Int32}) {
		t.Errorf("subst[Self] = %v, want Int32", subst[SelfParam])
	}
	if !rule.IsManual() {
		t.Errorf("rule.IsManual() = false, want true")
	}

	if _, _, ok := g.Query(eq.ID, types.Subst{SelfParam: types.Primitive{Tag: types.Float64}}); ok {
		t.Errorf("Query matched a binding no rule declares")
	}
}

// A generic rule ("Box<T> conforms to Eq if T conforms to Eq") only
// resolves once its requirement's own subgoal is satisfiable.
func TestQueryGenericRuleRequiresSubgoal(t *testing.T) {
	eq := NewTrait("Eq")
	g := NewGraph()

	g.AddRule(&Rule{
		ID:    uuid.New(),
		Trait: eq.ID,
		Bindings: types.Subst{
			SelfParam: types.Primitive{Tag: types.Int32},
		},
	})

	boxStruct := uuid.New()
	g.AddRule(&Rule{
		ID:    uuid.New(),
		Trait: eq.ID,
		Bindings: types.Subst{
			SelfParam: types.StructRef{Struct: boxStruct, Name: "Box", Args: []types.Type{types.GenericParam{Name: "T"}}},
		},
		Requirements: []Requirement{{TypeVar: "T", Trait: eq.ID}},
	})

	boxOfInt := types.StructRef{Struct: boxStruct, Name: "Box", Args: []types.Type{types.Primitive{Tag: types.Int32}}}
	if _, _, ok := g.Query(eq.ID, types.Subst{SelfParam: boxOfInt}); !ok {
		t.Errorf("Query(Box<Int32>) failed even though Int32 conforms to Eq")
	}

	boxOfFloat := types.StructRef{Struct: boxStruct, Name: "Box", Args: []types.Type{types.Primitive{Tag: types.Float64}}}
	if _, _, ok := g.Query(eq.ID, types.Subst{SelfParam: boxOfFloat}); ok {
		t.Errorf("Query(Box<Float64>) succeeded even though Float64 has no Eq rule")
	}
}

func TestTraitSlotIndex(t *testing.T) {
	tr := NewTrait("Ordered")
	a := funcs.NewHead(funcs.Interface{Rep: funcs.Representation{Name: "less", Form: funcs.FormGlobalFunction, CallExplicity: true}})
	b := funcs.NewHead(funcs.Interface{Rep: funcs.Representation{Name: "greater", Form: funcs.FormGlobalFunction, CallExplicity: true}})
	tr.AddSlot(a)
	tr.AddSlot(b)

	if idx := tr.SlotIndex(b); idx != 1 {
		t.Errorf("SlotIndex(greater) = %d, want 1", idx)
	}
	other := funcs.NewHead(funcs.Interface{Rep: funcs.Representation{Name: "other", Form: funcs.FormGlobalFunction, CallExplicity: true}})
	if idx := tr.SlotIndex(other); idx != -1 {
		t.Errorf("SlotIndex(unknown) = %d, want -1", idx)
	}
}
