package copyengine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/R0bert0r/Data-Consolidation/common"
	"github.com/R0bert0r/Data-Consolidation/internal/model"
)

type noopLogger struct{}

func (noopLogger) ShouldLog(common.LogLevel) bool { return true }
func (noopLogger) Log(common.LogLevel, string)    {}

func TestMirrorAuthoritativeCopiesEverything(t *testing.T) {
	a := assert.New(t)
	r := require.New(t)

	root := t.TempDir()
	src := filepath.Join(root, "src")
	dest := filepath.Join(root, "dest")
	r.NoError(os.MkdirAll(filepath.Join(src, "sub"), 0o775))
	r.NoError(os.WriteFile(filepath.Join(src, "top.txt"), []byte("a"), 0o660))
	r.NoError(os.WriteFile(filepath.Join(src, "sub", "nested.txt"), []byte("b"), 0o660))

	result, err := Mirror(context.Background(), src, dest, model.EOrigin.UNOE(), EMode.Authoritative(), 2, false, noopLogger{})
	r.NoError(err)
	a.Equal(2, result.FilesWritten)
	a.Equal(0, result.FilesSkipped)

	content, err := os.ReadFile(filepath.Join(dest, "sub", "nested.txt"))
	r.NoError(err)
	a.Equal("b", string(content))
}

func TestMirrorOverlaySkipsExistingDestination(t *testing.T) {
	a := assert.New(t)
	r := require.New(t)

	root := t.TempDir()
	src := filepath.Join(root, "src")
	dest := filepath.Join(root, "dest")
	r.NoError(os.MkdirAll(src, 0o775))
	r.NoError(os.MkdirAll(dest, 0o775))
	r.NoError(os.WriteFile(filepath.Join(src, "x.txt"), []byte("from-overlay"), 0o660))
	r.NoError(os.WriteFile(filepath.Join(dest, "x.txt"), []byte("already-there"), 0o660))

	result, err := Mirror(context.Background(), src, dest, model.EOrigin.DOSE(), EMode.Overlay(), 2, false, noopLogger{})
	r.NoError(err)
	a.Equal(0, result.FilesWritten)
	a.Equal(1, result.FilesSkipped)

	content, err := os.ReadFile(filepath.Join(dest, "x.txt"))
	r.NoError(err)
	a.Equal("already-there", string(content), "overlay must never overwrite an existing destination file")
}

func TestMirrorDryRunWritesNothingToDisk(t *testing.T) {
	a := assert.New(t)
	r := require.New(t)

	root := t.TempDir()
	src := filepath.Join(root, "src")
	dest := filepath.Join(root, "dest")
	r.NoError(os.MkdirAll(src, 0o775))
	r.NoError(os.WriteFile(filepath.Join(src, "x.txt"), []byte("hello"), 0o660))

	result, err := Mirror(context.Background(), src, dest, model.EOrigin.UNOE(), EMode.Authoritative(), 2, true, noopLogger{})
	r.NoError(err)
	a.Equal(1, result.FilesWritten)

	_, statErr := os.Stat(dest)
	a.True(os.IsNotExist(statErr), "dry run must not create the destination root")
}

func TestMirrorSkipsExcludedSubtree(t *testing.T) {
	a := assert.New(t)
	r := require.New(t)

	root := t.TempDir()
	src := filepath.Join(root, "src")
	dest := filepath.Join(root, "dest")
	r.NoError(os.MkdirAll(filepath.Join(src, "$RECYCLE.BIN", "deleted"), 0o775))
	r.NoError(os.WriteFile(filepath.Join(src, "$RECYCLE.BIN", "deleted", "gone.txt"), []byte("x"), 0o660))
	r.NoError(os.WriteFile(filepath.Join(src, "keep.txt"), []byte("y"), 0o660))

	result, err := Mirror(context.Background(), src, dest, model.EOrigin.UNOE(), EMode.Authoritative(), 2, false, noopLogger{})
	r.NoError(err)
	a.Equal(1, result.FilesWritten)

	_, statErr := os.Stat(filepath.Join(dest, "$RECYCLE.BIN"))
	a.True(os.IsNotExist(statErr))
	_, statErr = os.Stat(filepath.Join(dest, "keep.txt"))
	a.NoError(statErr)
}
