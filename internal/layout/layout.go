// Package layout implements Monoteny's per-struct DataLayout (spec.md
// §4.6): canonical field ordering plus assigned stack-slot offsets,
// computed once per struct identity and cached.
//
// Grounded on the original Rust interpreter/data_layout.rs
// (create_data_layout) and CompileServer.get_data_layout's cache-by-id
// pattern.
package layout

import (
	"github.com/google/uuid"

	"github.com/monoteny-lang/monoteny/internal/traits"
)

// Slot is one field's canonical position within a struct's allocation.
type Slot struct {
	Field  uuid.UUID
	Name   string
	Offset int // in 64-bit cells, per spec.md §4.6 "fixed-width slots"
}

// DataLayout lists a struct's fields in canonical (declaration) order with
// assigned offsets.
type DataLayout struct {
	Struct uuid.UUID
	Slots  []Slot
}

func (d *DataLayout) SlotCount() int { return len(d.Slots) }

// IndexOf returns the slot index for a field id, or -1.
func (d *DataLayout) IndexOf(field uuid.UUID) int {
	for i, s := range d.Slots {
		if s.Field == field {
			return i
		}
	}
	return -1
}

// Cache computes and caches a DataLayout per struct (trait) identity.
// Every field occupies exactly one 64-bit cell regardless of declared
// type; strings and other managed values are stored by pointer (spec.md
// §4.6).
type Cache struct {
	layouts map[uuid.UUID]*DataLayout
}

func NewCache() *Cache {
	return &Cache{layouts: map[uuid.UUID]*DataLayout{}}
}

// Get returns the struct's DataLayout, computing and caching it on first
// use.
func (c *Cache) Get(t *traits.Trait) *DataLayout {
	if d, ok := c.layouts[t.ID]; ok {
		return d
	}
	d := &DataLayout{Struct: t.ID}
	for i, f := range t.Fields {
		d.Slots = append(d.Slots, Slot{Field: f.ID, Name: f.Name, Offset: i})
	}
	c.layouts[t.ID] = d
	return d
}
