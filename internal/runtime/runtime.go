package runtime

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/monoteny-lang/monoteny/internal/ast"
	"github.com/monoteny-lang/monoteny/internal/compiler"
	"github.com/monoteny-lang/monoteny/internal/config"
	"github.com/monoteny-lang/monoteny/internal/diag"
	"github.com/monoteny-lang/monoteny/internal/refactor"
	"github.com/monoteny-lang/monoteny/internal/scope"
	"github.com/monoteny-lang/monoteny/internal/source"
	"github.com/monoteny-lang/monoteny/internal/vm"
)

// Runtime wires Source, the compile server and a module loader into a
// single process-lifetime object, per spec.md §4.9. Grounded on the
// original Rust Runtime::new/get_or_load_module and the teacher's
// pkg/embed/vm.go New()/SetLoader embedding surface.
type Runtime struct {
	Source *source.Source
	Server *CompileServer
	Loader ModuleLoader
	Sink   vm.Sink

	// Core is the bootstrap scope every loaded module imports from, the
	// stand-in for a real frontend's `core`/`common` module set (spec.md
	// §8's ModuleLoader surface, minus the parser it would otherwise feed).
	Core    *scope.Scope
	modules map[string]*source.Module
}

// New assembles a Runtime around a Source pre-populated with every
// Go-native intrinsic (Bootstrap), ready for modules to be loaded into it
// via GetOrLoadModule or LoadProgram.
func New(loader ModuleLoader, sink vm.Sink) *Runtime {
	return NewWithOptions(loader, sink, config.DefaultRunOptions())
}

// NewWithOptions is New, but lets a host (the CLI's --nofold/--noinline/
// etc. flags, spec.md §6) override the Refactor/Simplify passes Run uses.
func NewWithOptions(loader ModuleLoader, sink vm.Sink, opts config.RunOptions) *Runtime {
	src := source.New()
	core := Bootstrap(src)
	view := source.NewView(src)
	refac := refactor.New()

	server := NewCompileServer(view, refac, opts, map[uuid.UUID]compiler.Emitter{})
	emitters, err := compiler.BuildEmitters(src.Descriptors(), view, server.Layouts)
	if err != nil {
		// Bootstrap's own descriptors are built in this package and are
		// never Stub/malformed, so BuildEmitters cannot fail on them.
		panic(err)
	}
	server.Emitters = emitters

	return &Runtime{
		Source:  src,
		Server:  server,
		Loader:  loader,
		Sink:    sink,
		Core:    core,
		modules: map[string]*source.Module{},
	}
}

// GetOrLoadModule resolves a dotted module path, loading and parsing its
// source the first time it's requested and caching the result
// thereafter, per spec.md §6's "source-module lookup". Its dependency
// imports are resolved transitively before the module's own functions
// are built, so forward-declared names from an imported module are
// visible.
func (rt *Runtime) GetOrLoadModule(name []string) (*source.Module, error) {
	key := strings.Join(name, ".")
	if m, ok := rt.modules[key]; ok {
		return m, nil
	}
	if m, ok := rt.Source.Module(key); ok {
		rt.modules[key] = m
		return m, nil
	}

	text, err := rt.Loader.Load(name)
	if err != nil {
		return nil, err
	}
	prog, err := ast.Parse(key, text)
	if err != nil {
		return nil, err
	}

	sc := scope.NewChild(rt.Core)
	for _, imp := range prog.Imports {
		dep, err := rt.GetOrLoadModule(imp.Module)
		if err != nil {
			return nil, diag.New(diag.Link, "loading %q, imported by %q: %v", strings.Join(imp.Module, "."), key, err)
		}
		sc.Import(dep)
	}

	mod, err := LoadProgram(rt.Source, sc, prog)
	if err != nil {
		return nil, err
	}
	rt.modules[key] = mod
	return mod, nil
}

// Run compiles and executes the function identified by main, which must
// have no parameters and a void return (spec.md §6). It is the caller's
// job to have already resolved main via Module.ResolveMain.
func (rt *Runtime) Run(main uuid.UUID) error {
	head, ok := rt.Server.View.Head(main)
	if !ok {
		return diag.New(diag.Runtime, "no function registered for id %s", main)
	}
	chunk, err := rt.Server.CompileDeep(head)
	if err != nil {
		return err
	}
	machine := vm.New(rt.Server, rt.Sink)
	return machine.Run(chunk, main)
}

// Transpile runs the transpile! function, collecting the functions it
// registers via transpiler.add(...) (the TRANSPILE_ADD opcode's side
// channel). It does not itself emit a target-language file: no
// transpiler backend is implemented here (spec.md §1's Non-goal), so it
// reports what was collected instead of silently discarding it.
func (rt *Runtime) Transpile(fn uuid.UUID) (string, error) {
	head, ok := rt.Server.View.Head(fn)
	if !ok {
		return "", diag.New(diag.Runtime, "no function registered for id %s", fn)
	}
	chunk, err := rt.Server.CompileDeep(head)
	if err != nil {
		return "", err
	}
	machine := vm.New(rt.Server, rt.Sink)
	if err := machine.Run(chunk, fn); err != nil {
		return "", err
	}
	return "", diag.New(diag.Runtime, "no transpiler backend is implemented; %d function(s) registered: %s",
		len(machine.TranspileFunctions), formatIDs(machine.TranspileFunctions))
}

func formatIDs(ids []uuid.UUID) string {
	var b strings.Builder
	for i, id := range ids {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprint(&b, id)
	}
	return b.String()
}
