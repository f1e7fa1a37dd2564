package runtime

import (
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/monoteny-lang/monoteny/internal/compiler"
	"github.com/monoteny-lang/monoteny/internal/config"
	"github.com/monoteny-lang/monoteny/internal/diag"
	"github.com/monoteny-lang/monoteny/internal/funcs"
	"github.com/monoteny-lang/monoteny/internal/layout"
	"github.com/monoteny-lang/monoteny/internal/refactor"
	"github.com/monoteny-lang/monoteny/internal/source"
	"github.com/monoteny-lang/monoteny/internal/vm"
)

// CompileServer memoizes compilation: once a function has a chunk or an
// inline emitter, later requests for it are free. Grounded on the
// original Rust interpreter/compile/compile_server.rs's CompileServer
// (function_evaluators/function_inlines caches, compile_deep's
// refactor.add + simplify.run + gather_deep_functions + per-function
// compile loop).
type CompileServer struct {
	View       *source.View
	Layouts    *layout.Cache
	Refactor   *refactor.Refactor
	RunOptions config.RunOptions
	Emitters   map[uuid.UUID]compiler.Emitter

	chunks map[uuid.UUID]*vm.Chunk
	group  singleflight.Group
}

func NewCompileServer(view *source.View, refac *refactor.Refactor, opts config.RunOptions, emitters map[uuid.UUID]compiler.Emitter) *CompileServer {
	return &CompileServer{
		View:       view,
		Layouts:    layout.NewCache(),
		Refactor:   refac,
		RunOptions: opts,
		Emitters:   emitters,
		chunks:     map[uuid.UUID]*vm.Chunk{},
	}
}

// CompileDeep compiles head and every function it transitively calls,
// running Simplify over the working copy first, and returns head's own
// chunk (spec.md §4.9's compile-on-demand entry point).
func (cs *CompileServer) CompileDeep(head *funcs.Head) (*vm.Chunk, error) {
	v, err, _ := cs.group.Do(head.ID.String(), func() (any, error) {
		return cs.compileDeepOnce(head)
	})
	if err != nil {
		return nil, err
	}
	return v.(*vm.Chunk), nil
}

func (cs *CompileServer) compileDeepOnce(head *funcs.Head) (*vm.Chunk, error) {
	if chunk, ok := cs.chunks[head.ID]; ok {
		return chunk, nil
	}
	if _, ok := cs.Emitters[head.ID]; ok {
		return nil, diag.New(diag.Compile, "function %s is an inline emitter, not a standalone chunk", head.ID)
	}

	// Descriptors defined after the server was built (a loaded module's
	// constructors and getters) get their emitters here; Stub descriptors
	// are left to CheckNoStubs.
	missing := map[uuid.UUID]*funcs.Descriptor{}
	for id, d := range cs.View.Descriptors() {
		if _, ok := cs.Emitters[id]; !ok && d.Kind != funcs.Stub {
			missing[id] = d
		}
	}
	emitters, err := compiler.BuildEmitters(missing, cs.View, cs.Layouts)
	if err != nil {
		return nil, err
	}
	for id, e := range emitters {
		cs.Emitters[id] = e
	}

	logic, ok := cs.View.Logic(head.ID)
	if !ok {
		return nil, diag.New(diag.Compile, "no logic recorded for function %s", head.ID)
	}
	if logic.Descriptor != nil {
		return nil, diag.New(diag.Compile, "function %s has descriptor logic but no inline emitter was built for it", head.ID)
	}

	cs.Refactor.Add(head, logic)
	if !cs.RunOptions.NoRefactor {
		simp := refactor.NewSimplify(cs.Refactor, cs.View.Descriptors(), cs.RunOptions)
		if err := simp.Run(); err != nil {
			return nil, err
		}
	}

	resolveLogic := func(id uuid.UUID) (funcs.Logic, bool) { return cs.View.Logic(id) }
	needed := cs.Refactor.GatherDeepFunctions([]uuid.UUID{head.ID}, resolveLogic)
	if err := cs.Refactor.CheckNoStubs(needed, resolveLogic); err != nil {
		return nil, err
	}

	var bag diag.Bag
	for _, id := range needed {
		if err := cs.compileOne(id); err != nil {
			bag.Add(err)
		}
	}
	if err := bag.Err(); err != nil {
		return nil, err
	}

	chunk, ok := cs.chunks[head.ID]
	if !ok {
		return nil, diag.New(diag.Compile, "function %s produced no chunk after compilation", head.ID)
	}
	return chunk, nil
}

// compileOne compiles a single function's working copy (or its
// pre-resolution logic, if refactor never touched it) into a chunk,
// skipping anything already cached or satisfied by an inline emitter.
func (cs *CompileServer) compileOne(id uuid.UUID) error {
	if _, ok := cs.chunks[id]; ok {
		return nil
	}
	if _, ok := cs.Emitters[id]; ok {
		return nil
	}

	logic, ok := cs.Refactor.FnLogic[id]
	if !ok {
		logic, ok = cs.View.Logic(id)
		if !ok {
			return diag.New(diag.Compile, "no logic recorded for function %s", id)
		}
	}
	if logic.Descriptor != nil {
		return diag.New(diag.Compile, "function %s has descriptor logic but no inline emitter was built for it", id)
	}
	if logic.Implementation == nil {
		return diag.New(diag.Compile, "function %s has neither an implementation nor a descriptor", id)
	}

	chunk, err := compiler.Compile(logic.Implementation, cs.Emitters)
	if err != nil {
		return err
	}
	cs.chunks[id] = chunk
	return nil
}

// Chunk satisfies vm.ChunkProvider: the VM asks for a callee's chunk by
// id whenever it executes a CALL instruction.
func (cs *CompileServer) Chunk(id uuid.UUID) (*vm.Chunk, bool) {
	c, ok := cs.chunks[id]
	return c, ok
}
