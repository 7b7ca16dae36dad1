package copyengine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/R0bert0r/Data-Consolidation/internal/metadata"
)

// Difference describes one residual gap a post-copy dry-run comparison
// found between a source subtree and its destination mirror.
type Difference struct {
	RelPath string
	Reason  string // "missing", "size_mismatch", "hash_mismatch", or "unreadable_source: <err>"
}

// CompareReport is the post-copy dry-run comparison pass's output
// (spec.md §4.2): its presence is a soft warning, never a phase failure.
type CompareReport struct {
	FilesChecked int
	Differences  []Difference
}

// Compare re-walks srcRoot and checks that every file has a byte-identical
// counterpart under destRoot, hashing concurrently up to parallelism
// workers at once via errgroup+semaphore, the way the teacher bounds its
// own enumeration fan-out.
func Compare(ctx context.Context, srcRoot, destRoot string, parallelism int) (CompareReport, error) {
	if parallelism < 1 {
		parallelism = 1
	}

	var paths []string
	walkErr := filepath.Walk(srcRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(srcRoot, path)
		if relErr != nil {
			return nil
		}
		paths = append(paths, rel)
		return nil
	})
	if walkErr != nil {
		return CompareReport{}, walkErr
	}

	sem := semaphore.NewWeighted(int64(parallelism))
	g, gctx := errgroup.WithContext(ctx)
	diffs := make([]*Difference, len(paths))

	for i, rel := range paths {
		i, rel := i, rel
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			diffs[i] = compareOne(srcRoot, destRoot, rel)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return CompareReport{}, err
	}

	report := CompareReport{FilesChecked: len(paths)}
	for _, d := range diffs {
		if d != nil {
			report.Differences = append(report.Differences, *d)
		}
	}
	return report, nil
}

func compareOne(srcRoot, destRoot, rel string) *Difference {
	srcPath := filepath.Join(srcRoot, rel)
	destPath := filepath.Join(destRoot, rel)

	srcInfo, err := os.Stat(srcPath)
	if err != nil {
		return nil
	}
	destInfo, err := os.Stat(destPath)
	if err != nil {
		return &Difference{RelPath: rel, Reason: "missing"}
	}
	if srcInfo.Size() != destInfo.Size() {
		return &Difference{RelPath: rel, Reason: "size_mismatch"}
	}

	srcSum, err := metadata.SHA256File(srcPath)
	if err != nil {
		return &Difference{RelPath: rel, Reason: fmt.Sprintf("unreadable_source: %v", err)}
	}
	destSum, err := metadata.SHA256File(destPath)
	if err != nil {
		return &Difference{RelPath: rel, Reason: "missing"}
	}
	if srcSum != destSum {
		return &Difference{RelPath: rel, Reason: "hash_mismatch"}
	}
	return nil
}
