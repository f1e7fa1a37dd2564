// Package ast is the minimal parsed-abstract-syntax-tree input this core
// consumes (spec.md §1 treats the AST as an external input; "the parser
// ... is plumbing around this core"). It is a pared-down version of the
// teacher's Visitor-based node hierarchy (internal/ast/ast_core.go,
// ast_expressions.go), narrowed to the shapes the resolver needs: blocks,
// calls, identifiers, literals, if/else, array literals, and
// binary/unary operator terms resolved through the user grammar.
//
// No lexer/parser is implemented here; a host (out of scope per spec.md
// §1/§6) is expected to produce these nodes from source text.
package ast

import "github.com/monoteny-lang/monoteny/internal/diag"

// Node is the base interface every AST node implements.
type Node interface {
	Pos() *diag.Position
}

type base struct {
	Position *diag.Position
}

func (b base) Pos() *diag.Position { return b.Position }

// Expression is any AST node usable as a value-producing expression.
type Expression interface {
	Node
	exprNode()
}

// Statement is any AST node usable as a statement within a block.
type Statement interface {
	Node
	stmtNode()
}

// Identifier references a name to be bound during resolution.
type Identifier struct {
	base
	Name string
}

func (*Identifier) exprNode() {}

// IntLiteral / FloatLiteral are untyped numeric literals (spec.md §4.3:
// these yield AmbiguousNumberLiteral until pinned).
type IntLiteral struct {
	base
	Value int64
}

func (*IntLiteral) exprNode() {}

type FloatLiteral struct {
	base
	Value float64
}

func (*FloatLiteral) exprNode() {}

// StringLiteral is a literal string term.
type StringLiteral struct {
	base
	Value string
}

func (*StringLiteral) exprNode() {}

// BoolLiteral is a literal `true`/`false`.
type BoolLiteral struct {
	base
	Value bool
}

func (*BoolLiteral) exprNode() {}

// Call is `callee(args...)`, or a grammar-resolved operator term
// desugared to the same shape by the (out-of-scope) parser.
type Call struct {
	base
	Callee string // the identifier/pattern keyword naming the overload set
	Args   []Expression
}

func (*Call) exprNode() {}

// TypeAnnotated wraps an expression with an explicit type annotation
// (spec.md §4.3: "the user must disambiguate by annotation").
type TypeAnnotated struct {
	base
	Expr     Expression
	TypeName string
}

func (*TypeAnnotated) exprNode() {}

// ArrayLiteral is `[e1, e2, ...]`.
type ArrayLiteral struct {
	base
	Elements []Expression
}

func (*ArrayLiteral) exprNode() {}

// IfThenElse is `if cond :: then else :: alt` (alt may be nil).
type IfThenElse struct {
	base
	Cond Expression
	Then Expression
	Else Expression // nil if there is no alternative
}

func (*IfThenElse) exprNode() {}

// Block is a sequence of statements forming a function body or nested
// scope.
type Block struct {
	base
	Statements []Statement
}

func (*Block) exprNode() {}
func (*Block) stmtNode() {}

// ExprStatement wraps an expression evaluated for effect.
type ExprStatement struct {
	base
	Expr Expression
}

func (*ExprStatement) stmtNode() {}

// LetStatement declares and initializes a local variable.
type LetStatement struct {
	base
	Name string
	Init Expression
}

func (*LetStatement) stmtNode() {}

// ReturnStatement returns a value (or void, if Expr is nil) from the
// enclosing function.
type ReturnStatement struct {
	base
	Expr Expression // nil for void return
}

func (*ReturnStatement) stmtNode() {}

// ParamDecl is one formal parameter in a function declaration.
type ParamDecl struct {
	Internal string
	External string
	TypeName string
}

// FunctionDecl declares a function: name, parameters, return type name
// (empty for void/inferred), and body (nil for a Stub/extern
// declaration).
type FunctionDecl struct {
	base
	Name       string
	Params     []ParamDecl
	ReturnType string // empty means void
	Body       *Block
	IsMain     bool
	IsTranspile bool
	Operator   bool // declared via pattern/grammar rather than call syntax
}

func (*FunctionDecl) stmtNode() {}

// TraitDecl declares a trait: name, generic parameters (Self implied),
// abstract slot signatures, and fields.
type TraitDecl struct {
	base
	Name     string
	Generics []string
	Slots    []*FunctionDecl // bodies are nil (Stub)
	Fields   []ParamDecl
}

func (*TraitDecl) stmtNode() {}

// ConformanceDecl declares `Type conforms to Trait { ... }`.
type ConformanceDecl struct {
	base
	TraitName string
	TypeArgs  []string
	Functions []*FunctionDecl
}

func (*ConformanceDecl) stmtNode() {}

// ImportStatement declares `use!(module!("a.b.c"))`.
type ImportStatement struct {
	base
	Module []string
}

func (*ImportStatement) stmtNode() {}

// Program is the root node of an AST this core consumes.
type Program struct {
	base
	File       string
	Imports    []*ImportStatement
	Statements []Statement
}
