package runtime

import (
	"strings"
	"testing"

	"github.com/monoteny-lang/monoteny/internal/ast"
	"github.com/monoteny-lang/monoteny/internal/scope"
)

// captureSink collects every Println call in order, the test double for
// the host vm.Sink a CLI would back with stdout.
type captureSink struct {
	lines []string
}

func (c *captureSink) Println(line string) { c.lines = append(c.lines, line) }

func (c *captureSink) output() string {
	if len(c.lines) == 0 {
		return ""
	}
	return strings.Join(c.lines, "\n") + "\n"
}

// loadAndRunMain builds a Runtime around prog directly (no parser exists,
// so every scenario hand-constructs its ast.Program), resolves its main!
// and runs it to completion.
func loadAndRunMain(t *testing.T, prog *ast.Program) *captureSink {
	t.Helper()
	sink := &captureSink{}
	rt := New(nil, sink)

	mod, err := LoadProgram(rt.Source, scope.NewChild(rt.Core), prog)
	if err != nil {
		t.Fatalf("LoadProgram: %v", err)
	}
	main, err := mod.ResolveMain()
	if err != nil {
		t.Fatalf("ResolveMain: %v", err)
	}
	if err := rt.Run(main.ID); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return sink
}

func writeLine(arg ast.Expression) ast.Statement {
	return &ast.ExprStatement{Expr: &ast.Call{Callee: "write_line", Args: []ast.Expression{arg}}}
}

func mainDecl(body ...ast.Statement) *ast.FunctionDecl {
	return &ast.FunctionDecl{Name: "main", IsMain: true, Body: &ast.Block{Statements: body}}
}

func program(file string, statements ...ast.Statement) *ast.Program {
	return &ast.Program{File: file, Statements: statements}
}

// Scenario 1: a bare string literal printed through write_line.
func TestHelloWorld(t *testing.T) {
	prog := program("hello",
		mainDecl(writeLine(&ast.StringLiteral{Value: "Hello, World!"})),
	)
	sink := loadAndRunMain(t, prog)
	if got, want := sink.output(), "Hello, World!\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

// Scenario 2: an ambiguous arithmetic expression pinned to Float32 by an
// explicit annotation, exercising the number-literal/operator resolution
// fixed point and PrimitiveOperation emission.
func TestArithmeticWithAnnotation(t *testing.T) {
	sum := &ast.Call{Callee: "+", Args: []ast.Expression{
		&ast.IntLiteral{Value: 1},
		&ast.IntLiteral{Value: 2},
	}}
	annotated := &ast.TypeAnnotated{Expr: sum, TypeName: "Float32"}

	prog := program("arith", mainDecl(writeLine(annotated)))
	sink := loadAndRunMain(t, prog)
	if got, want := sink.output(), "3\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

// Scenario 3: a user-declared function, compiled and called through a
// real CALL opcode (no inline emitter exists for it).
func TestFunctionCall(t *testing.T) {
	square := &ast.FunctionDecl{
		Name:       "square",
		Params:     []ast.ParamDecl{{Internal: "x", External: "x", TypeName: "Int32"}},
		ReturnType: "Int32",
		Body: &ast.Block{Statements: []ast.Statement{
			&ast.ReturnStatement{Expr: &ast.Call{Callee: "*", Args: []ast.Expression{
				&ast.Identifier{Name: "x"},
				&ast.Identifier{Name: "x"},
			}}},
		}},
	}

	prog := program("square",
		square,
		mainDecl(writeLine(&ast.Call{Callee: "square", Args: []ast.Expression{&ast.IntLiteral{Value: 5}}})),
	)
	sink := loadAndRunMain(t, prog)
	if got, want := sink.output(), "25\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

// Scenario 4: if/else, both branches unified on String, bound through a
// let before being printed.
func TestIfElse(t *testing.T) {
	prog := program("ifelse",
		mainDecl(
			&ast.LetStatement{Name: "y", Init: &ast.IfThenElse{
				Cond: &ast.BoolLiteral{Value: true},
				Then: &ast.StringLiteral{Value: "y"},
				Else: &ast.StringLiteral{Value: "n"},
			}},
			writeLine(&ast.Identifier{Name: "y"}),
		),
	)
	sink := loadAndRunMain(t, prog)
	if got, want := sink.output(), "y\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

// Scenario 5: a trait with a field gets an implicit constructor and
// field getter; `instance.count` desugars to a call of the getter by
// name, matching the shape a real parser would produce.
func TestTraitConstructorAndFieldGetter(t *testing.T) {
	counter := &ast.TraitDecl{
		Name:   "Counter",
		Fields: []ast.ParamDecl{{Internal: "count", External: "count", TypeName: "Int32"}},
	}

	prog := program("counter",
		counter,
		mainDecl(
			&ast.LetStatement{Name: "c", Init: &ast.Call{Callee: "Counter", Args: []ast.Expression{&ast.IntLiteral{Value: 7}}}},
			writeLine(&ast.Call{Callee: "count", Args: []ast.Expression{&ast.Identifier{Name: "c"}}}),
		),
	)
	sink := loadAndRunMain(t, prog)
	if got, want := sink.output(), "7\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

// Scenario 6: transpile! registers a function by reifying its getter as a
// value via transpiler.add, then Transpile reports what was collected
// since no transpiler backend is implemented (spec.md §1's Non-goal).
func TestTranspileAdd(t *testing.T) {
	target := &ast.FunctionDecl{
		Name: "target",
		Body: &ast.Block{Statements: []ast.Statement{
			writeLine(&ast.StringLiteral{Value: "ran"}),
		}},
	}
	run := &ast.FunctionDecl{
		Name:        "run",
		IsTranspile: true,
		Body: &ast.Block{Statements: []ast.Statement{
			&ast.ExprStatement{Expr: &ast.Call{Callee: "transpiler.add", Args: []ast.Expression{
				&ast.Identifier{Name: "target"},
			}}},
		}},
	}

	prog := program("transpile", target, run)

	sink := &captureSink{}
	rt := New(nil, sink)
	mod, err := LoadProgram(rt.Source, scope.NewChild(rt.Core), prog)
	if err != nil {
		t.Fatalf("LoadProgram: %v", err)
	}
	fn, err := mod.ResolveTranspile()
	if err != nil {
		t.Fatalf("ResolveTranspile: %v", err)
	}

	_, err = rt.Transpile(fn.ID)
	if err == nil {
		t.Fatalf("Transpile: expected an error reporting the collected functions, got nil")
	}
	if !strings.Contains(err.Error(), "1 function(s) registered") {
		t.Errorf("Transpile error = %q, want it to mention 1 registered function", err.Error())
	}
}
