package config

import "testing"

func TestDefaultRunOptionsEnablesEverything(t *testing.T) {
	opts := DefaultRunOptions()
	if opts.NoFold || opts.NoInline || opts.NoTrimLocals || opts.NoRefactor {
		t.Errorf("DefaultRunOptions() = %+v, want every toggle false", opts)
	}
}
