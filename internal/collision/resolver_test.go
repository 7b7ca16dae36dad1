package collision

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/R0bert0r/Data-Consolidation/common"
	"github.com/R0bert0r/Data-Consolidation/internal/provenance"
)

type discardLogger struct{}

func (discardLogger) ShouldLog(common.LogLevel) bool { return true }
func (discardLogger) Log(common.LogLevel, string)    {}

type resolverFixture struct {
	resolver       *Resolver
	unoeBase       string
	doseBase       string
	destBase       string
	candidatesPath string
}

func newResolverFixture(t *testing.T) resolverFixture {
	t.Helper()
	root := t.TempDir()
	unoeBase := filepath.Join(root, "unoe", "AUDIO")
	doseBase := filepath.Join(root, "dose", "AUDIO")
	destBase := filepath.Join(root, "dest", "02_Media", "Audio")
	require.NoError(t, os.MkdirAll(unoeBase, 0o775))
	require.NoError(t, os.MkdirAll(doseBase, 0o775))
	require.NoError(t, os.MkdirAll(destBase, 0o775))

	prov, err := provenance.Open(filepath.Join(root, "provenance.csv"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { prov.Close() })

	candidatesPath := filepath.Join(root, "candidates.csv")
	candidates, err := OpenLog(candidatesPath)
	require.NoError(t, err)
	t.Cleanup(func() { candidates.Close() })

	resolutions, err := OpenLog(filepath.Join(root, "resolutions.csv"))
	require.NoError(t, err)
	t.Cleanup(func() { resolutions.Close() })

	return resolverFixture{
		resolver: &Resolver{
			UNOEBase:    unoeBase,
			DOSEBase:    doseBase,
			DestBase:    destBase,
			Provenance:  prov,
			Candidates:  candidates,
			Resolutions: resolutions,
			Logger:      discardLogger{},
		},
		unoeBase:       unoeBase,
		doseBase:       doseBase,
		destBase:       destBase,
		candidatesPath: candidatesPath,
	}
}

func writeFileWithTime(t *testing.T, path string, content []byte, mtime time.Time) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o775))
	require.NoError(t, os.WriteFile(path, content, 0o660))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func TestResolveIdenticalContentWritesNoActionCandidate(t *testing.T) {
	a := assert.New(t)
	r := require.New(t)

	fx := newResolverFixture(t)
	same := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	writeFileWithTime(t, filepath.Join(fx.unoeBase, "x.mp3"), []byte("same bytes"), same)
	writeFileWithTime(t, filepath.Join(fx.doseBase, "x.mp3"), []byte("same bytes"), same)
	// The Copy Engine's authoritative pass would already have placed the
	// UNOE side at the destination before the resolver ever sees this path.
	writeFileWithTime(t, filepath.Join(fx.destBase, "x.mp3"), []byte("same bytes"), same)

	r.NoError(fx.resolver.Resolve("x.mp3"))

	cand, err := ReadAllResolutions(fx.candidatesPath)
	r.NoError(err)
	r.Len(cand, 1)
	a.Equal("no_action", cand[0].ChosenAction.String())
	a.Equal("identical", cand[0].Classification.String())

	destContent, err := os.ReadFile(filepath.Join(fx.destBase, "x.mp3"))
	r.NoError(err)
	a.Equal("same bytes", string(destContent))
}

func TestResolveConflictReplacesWithNewestWhenStrictlyLarger(t *testing.T) {
	a := assert.New(t)
	r := require.New(t)

	fx := newResolverFixture(t)
	older := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)

	writeFileWithTime(t, filepath.Join(fx.unoeBase, "x.mp3"), []byte("short"), older)
	writeFileWithTime(t, filepath.Join(fx.doseBase, "x.mp3"), []byte("a much longer replacement body"), newer)

	r.NoError(fx.resolver.Resolve("x.mp3"))

	destContent, err := os.ReadFile(filepath.Join(fx.destBase, "x.mp3"))
	r.NoError(err)
	a.Equal("a much longer replacement body", string(destContent))

	_, err = os.Stat(filepath.Join(fx.destBase, "x__UNOE.mp3"))
	a.True(os.IsNotExist(err), "replace_with_newest must not leave a keep-both sibling")
}

func TestResolveConflictKeepsBothWhenNewestNotLarger(t *testing.T) {
	r := require.New(t)

	fx := newResolverFixture(t)
	older := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)

	// Same length, different content: newest (DOSE, later mtime) is not
	// strictly larger than UNOE, so keep_both applies.
	writeFileWithTime(t, filepath.Join(fx.unoeBase, "x.mp3"), []byte("same length!"), older)
	writeFileWithTime(t, filepath.Join(fx.doseBase, "x.mp3"), []byte("same-length!"), newer)

	r.NoError(fx.resolver.Resolve("x.mp3"))

	_, err := os.Stat(filepath.Join(fx.destBase, "x.mp3"))
	r.NoError(err)
	_, err = os.Stat(filepath.Join(fx.destBase, "x__UNOE.mp3"))
	r.NoError(err, "losing side should be written to its suffixed sibling")
}

func TestResolveIsIdempotentOnRerun(t *testing.T) {
	r := require.New(t)

	fx := newResolverFixture(t)
	older := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	writeFileWithTime(t, filepath.Join(fx.unoeBase, "x.mp3"), []byte("short"), older)
	writeFileWithTime(t, filepath.Join(fx.doseBase, "x.mp3"), []byte("a much longer replacement body"), newer)

	r.NoError(fx.resolver.Resolve("x.mp3"))
	r.NoError(fx.resolver.Resolve("x.mp3"))

	destContent, err := os.ReadFile(filepath.Join(fx.destBase, "x.mp3"))
	r.NoError(err)
	r.Equal("a much longer replacement body", string(destContent))
}

func TestResolveKeepBothIsIdempotentOnRerun(t *testing.T) {
	a := assert.New(t)
	r := require.New(t)

	fx := newResolverFixture(t)
	older := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	writeFileWithTime(t, filepath.Join(fx.unoeBase, "x.mp3"), []byte("same length!"), older)
	writeFileWithTime(t, filepath.Join(fx.doseBase, "x.mp3"), []byte("same-length!"), newer)

	r.NoError(fx.resolver.Resolve("x.mp3"))
	r.NoError(fx.resolver.Resolve("x.mp3"))

	_, err := os.Stat(filepath.Join(fx.destBase, "x__UNOE.mp3"))
	r.NoError(err)
	_, err = os.Stat(filepath.Join(fx.destBase, "x__UNOE_2.mp3"))
	a.True(os.IsNotExist(err), "re-running an already-resolved keep_both must not advance to a new suffix counter")

	siblingContent, err := os.ReadFile(filepath.Join(fx.destBase, "x__UNOE.mp3"))
	r.NoError(err)
	a.Equal("same length!", string(siblingContent))
}
