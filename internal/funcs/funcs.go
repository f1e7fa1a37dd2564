// Package funcs implements Monoteny's function model (spec.md §3/§4.2):
// stable-identity heads, interfaces, representations and logic (either an
// implementation tree or a declarative descriptor).
//
// Grounded on the original Rust program::functions::{FunctionHead,
// FunctionLogic, FunctionLogicDescriptor} and the teacher's head/
// representation split across internal/ast function declarations and
// internal/symbols overload keys.
package funcs

import (
	"github.com/google/uuid"

	"github.com/monoteny-lang/monoteny/internal/resolver/tree"
	"github.com/monoteny-lang/monoteny/internal/types"
)

// Form is the surface form a function takes in source (spec.md §3/§4).
type Form int

const (
	FormGlobalFunction Form = iota
	FormGlobalImplicit      // zero-arg getter
	FormMember
	FormOperator
)

// Representation is the display name + form a function is known by in
// scope lookups (spec.md §4.2: "Scope ... maps a representation ... to an
// overload set").
type Representation struct {
	Name          string
	Form          Form
	CallExplicity bool // true if the call requires explicit parentheses
}

// Param is one formal parameter of a function interface.
type Param struct {
	Internal string // name used inside the implementation body
	External string // name used at call sites (may equal Internal)
	Type     types.Type
}

// Interface is a function's ordered parameters, return type, and declared
// representation.
type Interface struct {
	Params     []Param
	ReturnType types.Type
	Rep        Representation
	// Generics lists the names of generic type parameters free in Params/
	// ReturnType; a call site instantiates each with a fresh type
	// variable before unifying arguments (spec.md §4.3).
	Generics []string
}

// Head is a function's stable identity plus its interface. Equality uses
// identity only (spec.md §3).
type Head struct {
	ID uuid.UUID
	Interface
}

// NewHead allocates a fresh function head with a random stable identity.
func NewHead(iface Interface) *Head {
	return &Head{ID: uuid.New(), Interface: iface}
}

// Equal compares two heads by identity only.
func (h *Head) Equal(o *Head) bool {
	if h == nil || o == nil {
		return h == o
	}
	return h.ID == o.ID
}

// DescriptorKind enumerates the declarative logic variants spec.md §3
// lists for a function that need not be written as an expression tree.
type DescriptorKind int

const (
	Stub DescriptorKind = iota
	TraitProvider
	FunctionProvider
	PrimitiveOperation
	Constructor
	GetMemberField
	SetMemberField
	Clone
	// Print compiles to PRINT, converting Primitive to a string first via
	// TO_STRING unless IsString is set (the argument is already a String).
	Print
	// Panic compiles to PANIC: pop a String argument, abort with it as
	// the message.
	Panic
	// TranspileAdd compiles to TRANSPILE_ADD: pop a reified function id
	// and register it on the VM's transpile_functions side channel.
	TranspileAdd
)

// PrimitiveOp names the operator a PrimitiveOperation descriptor performs.
type PrimitiveOp int

const (
	OpAdd PrimitiveOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpExp
	OpLog
	OpNeg
	OpEq
	OpNeq
	OpGr
	OpGrEq
	OpLe
	OpLeEq
	OpAnd
	OpOr
	OpNot
)

// Descriptor is declarative function logic chosen from spec.md §3's
// fixed set of variants.
type Descriptor struct {
	Kind DescriptorKind

	// TraitProvider
	Trait uuid.UUID
	// FunctionProvider
	Function *Head
	// PrimitiveOperation
	Primitive types.PrimitiveTag
	Op        PrimitiveOp
	// Constructor / GetMemberField / SetMemberField / Clone
	Struct uuid.UUID
	Field  uuid.UUID // ObjectReference id of the field, for member descriptors
	// Print
	IsString bool // argument is already a String; skip TO_STRING
}

// FunctionValue is the type used for a function reified as a value (the
// result of calling its getter). This core has no first-class function
// type of its own; a reified function is represented as an opaque heap
// id, so UInt64 — the same width every heap index already uses — stands
// in for it.
var FunctionValue types.Type = types.Primitive{Tag: types.UInt64}

// Implementation is a resolved expression tree with a local variable
// table (spec.md §3).
type Implementation struct {
	Head   *Head
	Tree   *tree.Tree
	Locals []*tree.ObjectReference
}

// Logic is either an Implementation or a Descriptor.
type Logic struct {
	Implementation *Implementation
	Descriptor     *Descriptor
}

func ImplLogic(impl *Implementation) Logic { return Logic{Implementation: impl} }
func DescLogic(d *Descriptor) Logic        { return Logic{Descriptor: d} }

// IsStub reports whether this logic is an unimplemented Stub descriptor.
func (l Logic) IsStub() bool {
	return l.Descriptor != nil && l.Descriptor.Kind == Stub
}
