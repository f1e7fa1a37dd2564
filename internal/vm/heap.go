package vm

import "github.com/google/uuid"

// Heap is the VM's process-lifetime managed memory (spec.md §4.8/§9:
// "heap allocations are process-lifetime for the core"). Every managed
// value (string, struct, reified function/trait id) lives in one of
// three parallel arenas and is referenced from the byte stack by its
// arena index, stored zero-extended in an 8-byte slot — the Go
// realization of the original's untyped `Value{ptr}` union, which this
// port cannot express as a raw pointer without unsafe.
type Heap struct {
	strings []string
	structs [][]uint64
	ids     []uuid.UUID
}

func NewHeap() *Heap { return &Heap{} }

func (h *Heap) InternString(s string) uint64 {
	h.strings = append(h.strings, s)
	return uint64(len(h.strings) - 1)
}

func (h *Heap) String(ptr uint64) string { return h.strings[ptr] }

func (h *Heap) AllocStruct(n int) uint64 {
	h.structs = append(h.structs, make([]uint64, n))
	return uint64(len(h.structs) - 1)
}

func (h *Heap) Struct(ptr uint64) []uint64 { return h.structs[ptr] }

func (h *Heap) InternID(id uuid.UUID) uint64 {
	h.ids = append(h.ids, id)
	return uint64(len(h.ids) - 1)
}

func (h *Heap) ID(ptr uint64) uuid.UUID { return h.ids[ptr] }
