// Package config holds process-wide constants and mutable mode flags
// shared across the resolver, refactor, compiler and VM stages.
package config

// SlotSize is the width in bytes of a single VM stack / struct field slot.
const SlotSize = 8

// InitialStackBytes is the default size of a freshly allocated VM stack.
const InitialStackBytes = 1024

// MaxFrameCount bounds call-stack depth to turn runaway recursion into a
// runtime error instead of an OS-level stack overflow.
const MaxFrameCount = 4096

// MaxSimplifyIterations bounds the refactor change-propagation loop. It is
// a safety net, not a termination proof (see DESIGN.md, Open Questions).
const MaxSimplifyIterations = 10000

// SourceFileExt is the canonical extension for Monoteny source files.
const SourceFileExt = ".monoteny"

// BuiltinModules are the module names the host may bundle at build time.
var BuiltinModules = []string{
	"core",
	"core.bool",
	"core.debug",
	"core.run",
	"core.strings",
	"core.transpilation",
	"common",
	"common.debug",
	"common.math",
	"common.precedence",
}

// IsTestMode toggles deterministic, test-friendly formatting (e.g.
// normalized generated names). Set once at process startup.
var IsTestMode = false

// RunOptions mirrors the CLI surface's transpile/run toggles (spec.md §6)
// and is threaded into the refactor stage.
type RunOptions struct {
	NoFold       bool // disable constant folding
	NoInline     bool // disable inlining
	NoTrimLocals bool // disable unused-local trimming
	NoRefactor   bool // skip the whole refactor/simplify stage
}

// DefaultRunOptions returns the options used when a host does not
// otherwise specify any (all optimizations enabled).
func DefaultRunOptions() RunOptions {
	return RunOptions{}
}
