package layout

import (
	"testing"

	"github.com/google/uuid"

	"github.com/monoteny-lang/monoteny/internal/traits"
	"github.com/monoteny-lang/monoteny/internal/types"
)

func TestCacheAssignsSlotsInDeclarationOrder(t *testing.T) {
	tr := traits.NewTrait("Point")
	tr.AddField(traits.Field{ID: uuid.New(), Name: "x", Type: types.Primitive{Tag: types.Int32}})
	tr.AddField(traits.Field{ID: uuid.New(), Name: "y", Type: types.Primitive{Tag: types.Int32}})

	c := NewCache()
	d := c.Get(tr)

	if d.SlotCount() != 2 {
		t.Fatalf("SlotCount() = %d, want 2", d.SlotCount())
	}
	if d.Slots[0].Name != "x" || d.Slots[0].Offset != 0 {
		t.Errorf("slot 0 = %+v, want x at offset 0", d.Slots[0])
	}
	if d.Slots[1].Name != "y" || d.Slots[1].Offset != 1 {
		t.Errorf("slot 1 = %+v, want y at offset 1", d.Slots[1])
	}
	if idx := d.IndexOf(tr.Fields[1].ID); idx != 1 {
		t.Errorf("IndexOf(y) = %d, want 1", idx)
	}
	if idx := d.IndexOf(uuid.New()); idx != -1 {
		t.Errorf("IndexOf(unknown) = %d, want -1", idx)
	}
}

func TestCacheReturnsSameLayoutForSameStruct(t *testing.T) {
	tr := traits.NewTrait("Single")
	tr.AddField(traits.Field{ID: uuid.New(), Name: "v", Type: types.Primitive{Tag: types.Int64}})

	c := NewCache()
	first := c.Get(tr)
	second := c.Get(tr)
	if first != second {
		t.Errorf("Get called twice on the same struct returned different *DataLayout values")
	}
}
