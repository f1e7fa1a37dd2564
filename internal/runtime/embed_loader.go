package runtime

import (
	"embed"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/monoteny-lang/monoteny/internal/diag"
)

//go:embed builtins.yaml builtins/*.monoteny
var builtinFS embed.FS

type builtinManifest struct {
	Modules []struct {
		Name string `yaml:"name"`
		File string `yaml:"file"`
	} `yaml:"modules"`
}

// embedLoader satisfies ModuleLoader from the bundled builtins.yaml
// manifest plus its embedded .monoteny bodies (spec.md §6's "the host
// may substitute an in-memory map"). Grounded on the teacher's
// config-as-data module registration, generalized to go:embed.
type embedLoader struct {
	files map[string]string // dotted module name -> embedded file path
}

// NewEmbedLoader parses builtins.yaml once and returns a ModuleLoader
// backed by the embedded filesystem.
func NewEmbedLoader() (ModuleLoader, error) {
	raw, err := builtinFS.ReadFile("builtins.yaml")
	if err != nil {
		return nil, diag.New(diag.Link, "reading embedded builtins manifest: %v", err)
	}
	var manifest builtinManifest
	if err := yaml.Unmarshal(raw, &manifest); err != nil {
		return nil, diag.New(diag.Link, "parsing embedded builtins manifest: %v", err)
	}
	l := &embedLoader{files: map[string]string{}}
	for _, m := range manifest.Modules {
		l.files[m.Name] = m.File
	}
	return l, nil
}

func (l *embedLoader) Load(name []string) (string, error) {
	key := strings.Join(name, ".")
	path, ok := l.files[key]
	if !ok {
		return "", diag.New(diag.Link, "no built-in module named %q", key)
	}
	data, err := builtinFS.ReadFile(path)
	if err != nil {
		return "", diag.New(diag.Link, "reading built-in module %q: %v", key, err)
	}
	return string(data), nil
}
