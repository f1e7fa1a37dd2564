package types

import "fmt"

// Unify computes the most general substitution that makes a and b equal,
// or an error if no such substitution exists. Grounded on
// internal/typesystem/unify.go's structural-descent unifier.
func Unify(a, b Type) (Subst, error) {
	switch at := a.(type) {
	case GenericParam:
		return bindVar(at.Name, b)
	}
	if bt, ok := b.(GenericParam); ok {
		return bindVar(bt.Name, a)
	}

	switch at := a.(type) {
	case Primitive:
		bt, ok := b.(Primitive)
		if !ok || at.Tag != bt.Tag {
			return nil, fmt.Errorf("cannot unify %s with %s", a, b)
		}
		return Subst{}, nil

	case StructRef:
		bt, ok := b.(StructRef)
		if !ok || at.Struct != bt.Struct || len(at.Args) != len(bt.Args) {
			return nil, fmt.Errorf("cannot unify %s with %s", a, b)
		}
		subst := Subst{}
		for i := range at.Args {
			s, err := Unify(at.Args[i].Apply(subst), bt.Args[i].Apply(subst))
			if err != nil {
				return nil, err
			}
			subst = s.Compose(subst)
		}
		return subst, nil

	case Metatype:
		bt, ok := b.(Metatype)
		if !ok {
			return nil, fmt.Errorf("cannot unify %s with %s", a, b)
		}
		return Unify(at.Of, bt.Of)

	case FuncType:
		bt, ok := b.(FuncType)
		if !ok || len(at.Params) != len(bt.Params) {
			return nil, fmt.Errorf("cannot unify %s with %s", a, b)
		}
		subst := Subst{}
		for i := range at.Params {
			s, err := Unify(at.Params[i].Apply(subst), bt.Params[i].Apply(subst))
			if err != nil {
				return nil, err
			}
			subst = s.Compose(subst)
		}
		s, err := Unify(at.ReturnType.Apply(subst), bt.ReturnType.Apply(subst))
		if err != nil {
			return nil, err
		}
		return s.Compose(subst), nil

	default:
		if Equal(a, b) {
			return Subst{}, nil
		}
		return nil, fmt.Errorf("cannot unify %s with %s", a, b)
	}
}

func bindVar(name string, t Type) (Subst, error) {
	if gp, ok := t.(GenericParam); ok && gp.Name == name {
		return Subst{}, nil
	}
	if occurs(name, t) {
		return nil, fmt.Errorf("occurs check failed: %s occurs in %s", name, t)
	}
	return Subst{name: t}, nil
}

func occurs(name string, t Type) bool {
	for _, v := range t.FreeVariables() {
		if v == name {
			return true
		}
	}
	return false
}
