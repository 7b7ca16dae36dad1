package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultEnvironmentHasAllThreeRoots(t *testing.T) {
	a := assert.New(t)

	env := DefaultEnvironment()
	a.Equal("/mnt/UNOE", env.UNOERoot)
	a.Equal("/mnt/DOSE", env.DOSERoot)
	a.Equal("/mnt/UNO", env.UNORoot)
	a.NotEmpty(env.RunDirRelative)
}

func TestLoadEnvironmentWithoutConfigPathReturnsDefaults(t *testing.T) {
	a := assert.New(t)
	r := require.New(t)

	env, err := LoadEnvironment("")
	r.NoError(err)
	a.Equal(DefaultEnvironment(), env)
}

func TestLoadEnvironmentOverridesFromTOML(t *testing.T) {
	a := assert.New(t)
	r := require.New(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "override.toml")
	r.NoError(os.WriteFile(path, []byte(`
uno_root = "/srv/consolidated"
run_dir_relative = "logs/consolidation"
`), 0o644))

	env, err := LoadEnvironment(path)
	r.NoError(err)
	a.Equal("/srv/consolidated", env.UNORoot)
	a.Equal("logs/consolidation", env.RunDirRelative)
	a.Equal("/mnt/UNOE", env.UNOERoot, "unset keys keep their compiled-in default")
}

func TestLoadEnvironmentMissingFileIsError(t *testing.T) {
	r := require.New(t)

	_, err := LoadEnvironment(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	r.Error(err)
}

func TestRunDirUsesOverrideWhenGiven(t *testing.T) {
	a := assert.New(t)

	env := DefaultEnvironment()
	a.Equal(filepath.Join("/tmp/custom-logs", "run-1"), env.RunDir("run-1", "/tmp/custom-logs"))
}

func TestRunDirFallsBackToEnvironmentDefault(t *testing.T) {
	a := assert.New(t)

	env := DefaultEnvironment()
	want := filepath.Join(env.UNORoot, env.RunDirRelative, "run-2")
	a.Equal(want, env.RunDir("run-2", ""))
}
