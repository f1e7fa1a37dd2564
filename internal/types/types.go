// Package types implements Monoteny's structural type model (spec.md
// §3): primitive tags, struct references with type arguments, metatypes,
// function types, and generic parameter references. Types are compared
// structurally except struct references, which are identity-compared.
//
// Grounded on internal/typesystem/types.go of the teacher (funvibe-funxy),
// narrowed to the simpler grammar spec.md describes: no row polymorphism,
// no higher-kinded constructors, no type aliases.
package types

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Type is the closed interface every concrete type implements.
type Type interface {
	String() string
	Apply(Subst) Type
	FreeVariables() []string
}

// PrimitiveTag enumerates spec.md §3's primitive type family.
type PrimitiveTag byte

const (
	Bool PrimitiveTag = iota
	Int8
	Int16
	Int32
	Int64
	UInt8
	UInt16
	UInt32
	UInt64
	Float32
	Float64
)

func (p PrimitiveTag) String() string {
	switch p {
	case Bool:
		return "Bool"
	case Int8:
		return "Int8"
	case Int16:
		return "Int16"
	case Int32:
		return "Int32"
	case Int64:
		return "Int64"
	case UInt8:
		return "UInt8"
	case UInt16:
		return "UInt16"
	case UInt32:
		return "UInt32"
	case UInt64:
		return "UInt64"
	case Float32:
		return "Float32"
	case Float64:
		return "Float64"
	default:
		return "?primitive"
	}
}

// IsFloat reports whether the tag denotes a floating-point primitive.
func (p PrimitiveTag) IsFloat() bool { return p == Float32 || p == Float64 }

// IsSigned reports whether the tag denotes a signed integer primitive.
func (p PrimitiveTag) IsSigned() bool {
	return p == Int8 || p == Int16 || p == Int32 || p == Int64
}

// IsInteger reports whether the tag denotes any integer primitive.
func (p PrimitiveTag) IsInteger() bool {
	return !p.IsFloat() && p != Bool
}

// Primitive is a value-compared primitive type.
type Primitive struct {
	Tag PrimitiveTag
}

func (p Primitive) String() string           { return p.Tag.String() }
func (p Primitive) Apply(Subst) Type         { return p }
func (p Primitive) FreeVariables() []string  { return nil }

// StructRef names a concrete or generic struct (trait-bearing composite
// type) plus zero or more type arguments. Two StructRefs are equal iff
// their Struct identity and Args match; Struct identity is never
// structurally derived.
type StructRef struct {
	Struct uuid.UUID
	Name   string // display only, not part of identity
	Args   []Type
}

func (s StructRef) String() string {
	if len(s.Args) == 0 {
		return s.Name
	}
	parts := make([]string, len(s.Args))
	for i, a := range s.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s<%s>", s.Name, strings.Join(parts, ", "))
}

func (s StructRef) Apply(sub Subst) Type {
	newArgs := make([]Type, len(s.Args))
	for i, a := range s.Args {
		newArgs[i] = a.Apply(sub)
	}
	return StructRef{Struct: s.Struct, Name: s.Name, Args: newArgs}
}

func (s StructRef) FreeVariables() []string {
	var out []string
	for _, a := range s.Args {
		out = append(out, a.FreeVariables()...)
	}
	return uniqueStrings(out)
}

// Metatype is the "type of a type" (spec.md §3).
type Metatype struct {
	Of Type
}

func (m Metatype) String() string          { return fmt.Sprintf("Type<%s>", m.Of.String()) }
func (m Metatype) Apply(s Subst) Type      { return Metatype{Of: m.Of.Apply(s)} }
func (m Metatype) FreeVariables() []string { return m.Of.FreeVariables() }

// FuncType is a function type: ordered parameter types plus a return type.
type FuncType struct {
	Params     []Type
	ReturnType Type
}

func (f FuncType) String() string {
	parts := make([]string, len(f.Params))
	for i, p := range f.Params {
		parts[i] = p.String()
	}
	return fmt.Sprintf("(%s) -> %s", strings.Join(parts, ", "), f.ReturnType.String())
}

func (f FuncType) Apply(s Subst) Type {
	newParams := make([]Type, len(f.Params))
	for i, p := range f.Params {
		newParams[i] = p.Apply(s)
	}
	return FuncType{Params: newParams, ReturnType: f.ReturnType.Apply(s)}
}

func (f FuncType) FreeVariables() []string {
	var out []string
	for _, p := range f.Params {
		out = append(out, p.FreeVariables()...)
	}
	out = append(out, f.ReturnType.FreeVariables()...)
	return uniqueStrings(out)
}

// GenericParam references a generic type parameter by name (e.g. the
// "Self" parameter every trait owns, or a user type parameter).
type GenericParam struct {
	Name string
}

func (g GenericParam) String() string { return g.Name }

func (g GenericParam) Apply(s Subst) Type {
	if replacement, ok := s[g.Name]; ok {
		return replacement
	}
	return g
}

func (g GenericParam) FreeVariables() []string { return []string{g.Name} }

// Subst maps generic parameter names to concrete types.
type Subst map[string]Type

// Compose returns a substitution equivalent to applying s2 then s1.
func (s Subst) Compose(s2 Subst) Subst {
	out := Subst{}
	for k, v := range s2 {
		out[k] = v
	}
	for k, v := range s {
		out[k] = v.Apply(s2)
	}
	return out
}

func uniqueStrings(in []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// Equal performs structural equality: primitives by value, struct refs by
// identity (+ structurally-equal args), everything else structurally.
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	switch at := a.(type) {
	case Primitive:
		bt, ok := b.(Primitive)
		return ok && at.Tag == bt.Tag
	case StructRef:
		bt, ok := b.(StructRef)
		if !ok || at.Struct != bt.Struct || len(at.Args) != len(bt.Args) {
			return false
		}
		for i := range at.Args {
			if !Equal(at.Args[i], bt.Args[i]) {
				return false
			}
		}
		return true
	case Metatype:
		bt, ok := b.(Metatype)
		return ok && Equal(at.Of, bt.Of)
	case FuncType:
		bt, ok := b.(FuncType)
		if !ok || len(at.Params) != len(bt.Params) {
			return false
		}
		for i := range at.Params {
			if !Equal(at.Params[i], bt.Params[i]) {
				return false
			}
		}
		return Equal(at.ReturnType, bt.ReturnType)
	case GenericParam:
		bt, ok := b.(GenericParam)
		return ok && at.Name == bt.Name
	default:
		return a.String() == b.String()
	}
}
