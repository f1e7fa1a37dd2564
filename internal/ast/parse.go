package ast

import "github.com/monoteny-lang/monoteny/internal/diag"

// Parse is the entry point a lexer/parser would occupy; none is
// implemented in this core (spec.md §1 treats the parsed tree as an
// external input). It exists so callers that only have module source
// text (internal/runtime's ModuleLoader chain) have a single named seam
// to plug a real frontend into, rather than reaching into runtime
// internals. Hosts that already hold a parsed *Program skip this and
// call runtime.LoadProgram directly.
func Parse(file, source string) (*Program, error) {
	return nil, diag.New(diag.Link, "no parser is implemented for %q; supply a pre-parsed ast.Program", file)
}
