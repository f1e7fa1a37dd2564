// Package cli implements monoteny's command-line surface (spec.md §6):
// run/check/transpile, thin enough to be called directly or wrapped by a
// one-line cmd/monoteny main. Grounded on the teacher's cmd/funxy/main.go
// + pkg/cli/entry.go split between a minimal main and a reusable package.
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/monoteny-lang/monoteny/internal/config"
	"github.com/monoteny-lang/monoteny/internal/diag"
	"github.com/monoteny-lang/monoteny/internal/funcs"
	"github.com/monoteny-lang/monoteny/internal/runtime"
	"github.com/monoteny-lang/monoteny/internal/source"
)

// StdSink writes PRINT/PANIC output one line at a time to W, the CLI's
// concrete vm.Sink (spec.md §6's "host sink").
type StdSink struct {
	W io.Writer
}

func (s StdSink) Println(line string) { fmt.Fprintln(s.W, line) }

// fileLoader resolves a dotted module name to a `.monoteny` file under
// Dir, the filesystem-backed ModuleLoader a host substitutes for the
// bundled embedLoader (spec.md §8).
type fileLoader struct {
	Dir string
}

func (l fileLoader) Load(name []string) (string, error) {
	path := filepath.Join(append([]string{l.Dir}, name...)...) + config.SourceFileExt
	data, err := os.ReadFile(path)
	if err != nil {
		return "", diag.New(diag.Link, "reading module %q: %v", strings.Join(name, "."), err)
	}
	return string(data), nil
}

const usage = `usage:
  monoteny run <path>
  monoteny check <path> [path...]
  monoteny transpile --input <path> [--output <path>] [--all] [--nofold] [--noinline] [--notrimlocals] [--norefactor]`

// Run dispatches args[0] (the subcommand name) and returns the process
// exit code: spec.md §6 defines it as "the number of files/entries that
// failed," not a bare 0/1, so check and transpile --all both propagate a
// per-entry failure count rather than collapsing to a boolean.
func Run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, usage)
		return 1
	}

	switch args[0] {
	case "run":
		if err := runCmd(args[1:], stdout); err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		return 0

	case "check":
		failed, err := checkCmd(args[1:], stdout, stderr)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		return failed

	case "transpile":
		failed, err := transpileCmd(args[1:], stdout, stderr)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		return failed

	case "help", "-help", "--help":
		fmt.Fprintln(stdout, usage)
		return 0

	default:
		fmt.Fprintf(stderr, "unknown command %q\n%s\n", args[0], usage)
		return 1
	}
}

func runCmd(args []string, stdout io.Writer) error {
	if len(args) != 1 {
		return diag.New(diag.Link, "run takes exactly one file path")
	}
	rt, mod, err := loadFile(args[0], config.DefaultRunOptions(), stdout)
	if err != nil {
		return err
	}
	main, err := mod.ResolveMain()
	if err != nil {
		return err
	}
	return rt.Run(main.ID)
}

// checkCmd loads every path without running anything, reporting each
// one's result and returning the count that failed.
func checkCmd(args []string, stdout, stderr io.Writer) (int, error) {
	if len(args) == 0 {
		return 0, diag.New(diag.Link, "check takes at least one file path")
	}
	failed := 0
	for _, path := range args {
		if _, _, err := loadFile(path, config.DefaultRunOptions(), stdout); err != nil {
			fmt.Fprintf(stderr, "%s: %v\n", path, err)
			failed++
			continue
		}
		fmt.Fprintf(stdout, "%s: ok\n", path)
	}
	return failed, nil
}

// transpileCmd loads --input, resolves either its single transpile entry
// or (with --all) every function marked as one, and reports what each
// run collected (spec.md §1's Non-goal: no target-language backend is
// emitted, so there is nothing to write to --output beyond that report).
func transpileCmd(args []string, stdout, stderr io.Writer) (int, error) {
	flags, err := parseTranspileFlags(args)
	if err != nil {
		return 0, err
	}

	rt, mod, err := loadFile(flags.input, flags.opts, stdout)
	if err != nil {
		return 0, err
	}

	var entries []*funcs.Head
	if flags.all {
		entries = mod.Transpiles()
	} else {
		h, err := mod.ResolveTranspile()
		if err != nil {
			return 0, err
		}
		entries = append(entries, h)
	}

	var report strings.Builder
	failed := 0
	for _, e := range entries {
		out, err := rt.Transpile(e.ID)
		if err != nil {
			fmt.Fprintf(stderr, "%s: %v\n", e.ID, err)
			failed++
			continue
		}
		fmt.Fprintln(&report, out)
	}

	if flags.output == "" {
		fmt.Fprint(stdout, report.String())
	} else if err := os.WriteFile(flags.output, []byte(report.String()), 0o644); err != nil {
		return failed, diag.New(diag.Link, "writing %q: %v", flags.output, err)
	}
	return failed, nil
}

func loadFile(path string, opts config.RunOptions, stdout io.Writer) (*runtime.Runtime, *source.Module, error) {
	dir := filepath.Dir(path)
	name := strings.TrimSuffix(filepath.Base(path), config.SourceFileExt)

	rt := runtime.NewWithOptions(fileLoader{Dir: dir}, StdSink{W: stdout}, opts)
	mod, err := rt.GetOrLoadModule([]string{name})
	if err != nil {
		return nil, nil, err
	}
	return rt, mod, nil
}

type transpileFlags struct {
	input, output string
	all           bool
	opts          config.RunOptions
}

func parseTranspileFlags(args []string) (transpileFlags, error) {
	var f transpileFlags
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--input":
			if i+1 >= len(args) {
				return f, diag.New(diag.Link, "--input requires a path")
			}
			i++
			f.input = args[i]
		case "--output":
			if i+1 >= len(args) {
				return f, diag.New(diag.Link, "--output requires a path")
			}
			i++
			f.output = args[i]
		case "--all":
			f.all = true
		case "--nofold":
			f.opts.NoFold = true
		case "--noinline":
			f.opts.NoInline = true
		case "--notrimlocals":
			f.opts.NoTrimLocals = true
		case "--norefactor":
			f.opts.NoRefactor = true
		default:
			return f, diag.New(diag.Link, "unrecognized transpile flag %q", args[i])
		}
	}
	if f.input == "" {
		return f, diag.New(diag.Link, "transpile requires --input <path>")
	}
	return f, nil
}
