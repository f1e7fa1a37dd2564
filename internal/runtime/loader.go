package runtime

// ModuleLoader resolves a dotted module path (e.g. []string{"core",
// "strings"}) to its source text. Grounded on the original Rust
// Runtime's "source-module lookup" callback and the teacher's
// pkg/embed/vm.go SetLoader hook; a host may point this at a filesystem,
// a database, or (as embed_loader.go does) an embedded manifest.
type ModuleLoader interface {
	Load(name []string) (string, error)
}

// FuncLoader adapts a plain function to ModuleLoader.
type FuncLoader func(name []string) (string, error)

func (f FuncLoader) Load(name []string) (string, error) { return f(name) }
