package verify

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTakeCountsFilesDirsAndBytes(t *testing.T) {
	a := assert.New(t)
	r := require.New(t)

	root := t.TempDir()
	r.NoError(os.MkdirAll(filepath.Join(root, "sub"), 0o775))
	r.NoError(os.WriteFile(filepath.Join(root, "a.txt"), []byte("12345"), 0o660))
	r.NoError(os.WriteFile(filepath.Join(root, "sub", "b.txt"), []byte("1234567890"), 0o660))

	snap, err := Take(root)
	r.NoError(err)
	a.EqualValues(2, snap.FileCount)
	a.EqualValues(1, snap.DirCount)
	a.EqualValues(15, snap.TotalBytes)
}

func TestHumanFormatsTotalBytes(t *testing.T) {
	a := assert.New(t)

	snap := Snapshot{TotalBytes: 1024}
	a.Equal("1.0 kB", snap.Human())
}

func TestWriteReadRoundTrip(t *testing.T) {
	a := assert.New(t)
	r := require.New(t)

	path := filepath.Join(t.TempDir(), "snapshot.json")
	snap := Snapshot{FileCount: 3, DirCount: 1, TotalBytes: 4096}
	r.NoError(Write(path, snap))

	got, err := Read(path)
	r.NoError(err)
	a.Equal(snap, got)
}
