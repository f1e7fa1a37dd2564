package diag

import (
	"strings"
	"testing"
)

func TestErrorFormatsCategoryAndPosition(t *testing.T) {
	err := New(Resolve, "undeclared %q", "x").At(&Position{Line: 3, Column: 7})
	if got, want := err.Error(), `[resolve @ 3:7] undeclared "x"`; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestErrorWithoutPosition(t *testing.T) {
	err := New(Compile, "bad thing")
	if got, want := err.Error(), "[compile] bad thing"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestBagErrReturnsNilWhenEmpty(t *testing.T) {
	var bag Bag
	if err := bag.Err(); err != nil {
		t.Errorf("Err() = %v, want nil", err)
	}
	if !bag.Empty() {
		t.Errorf("Empty() = false, want true")
	}
}

func TestBagErrReturnsSingleErrorUnwrapped(t *testing.T) {
	var bag Bag
	bag.Addf(Link, "missing module %q", "a.b")
	err := bag.Err()
	if err == nil {
		t.Fatalf("Err() = nil, want the single accumulated error")
	}
	if _, ok := err.(*Error); !ok {
		t.Errorf("Err() with one error did not return the bare *Error, got %T", err)
	}
}

func TestBagErrCombinesMultipleErrors(t *testing.T) {
	var bag Bag
	bag.Addf(Resolve, "first")
	bag.Addf(Resolve, "second")
	err := bag.Err()
	if err == nil {
		t.Fatalf("Err() = nil, want a combined error")
	}
	if !strings.Contains(err.Error(), "2 errors:") {
		t.Errorf("Err() = %q, want it to report the error count", err.Error())
	}
	if len(bag.Errors()) != 2 {
		t.Errorf("Errors() returned %d entries, want 2", len(bag.Errors()))
	}
}

func TestBagAddIgnoresNil(t *testing.T) {
	var bag Bag
	bag.Add(nil)
	if !bag.Empty() {
		t.Errorf("Add(nil) should not add an entry")
	}
}
