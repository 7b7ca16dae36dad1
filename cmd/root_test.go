package cmd

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRunIDMatchesExpectedLayout(t *testing.T) {
	a := assert.New(t)

	id := defaultRunID()
	a.Len(id, len("2026-07-31_150405"))
}

func TestDefaultParallelismFallsBackWithoutEnvVar(t *testing.T) {
	a := assert.New(t)
	r := require.New(t)

	r.NoError(os.Unsetenv("CONSOLIDATE_PARALLELISM"))
	a.Equal(8, defaultParallelism())
}

func TestDefaultParallelismReadsEnvVar(t *testing.T) {
	a := assert.New(t)
	r := require.New(t)

	r.NoError(os.Setenv("CONSOLIDATE_PARALLELISM", "16"))
	defer os.Unsetenv("CONSOLIDATE_PARALLELISM")
	a.Equal(16, defaultParallelism())
}

func TestDefaultParallelismIgnoresGarbageValue(t *testing.T) {
	a := assert.New(t)
	r := require.New(t)

	r.NoError(os.Setenv("CONSOLIDATE_PARALLELISM", "not-a-number"))
	defer os.Unsetenv("CONSOLIDATE_PARALLELISM")
	a.Equal(8, defaultParallelism())
}

func TestSelfTestFlagRunsWithoutTouchingVolumes(t *testing.T) {
	a := assert.New(t)
	r := require.New(t)

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--self-test"})

	r.NoError(root.Execute())
	a.Contains(out.String(), "self-test passed")
}
