package phases

import (
	"os"
	"path/filepath"

	"github.com/R0bert0r/Data-Consolidation/common"
	"github.com/R0bert0r/Data-Consolidation/internal/model"
	"github.com/R0bert0r/Data-Consolidation/internal/taxonomy"
)

// pairedBucketSources names, for one destination bucket, the single
// top-level source directory on each origin that fed it. If a taxonomy
// name collision routes two differently-named top-level directories from
// the same origin into one bucket (e.g. both "Pictures" and "Photos" on
// UNOE), the first one encountered wins and the rest are merged in by a
// later copy pass but not compared by the resolver — an accepted
// simplification for this rare case.
type pairedBucketSources struct {
	UNOEBase string
	DOSEBase string
}

// discoverPairedSources walks the top level of both source roots and
// groups them by destination bucket, so the Collision Resolver knows which
// two source directories to compare for a given paired bucket (spec.md
// §4.5).
func discoverPairedSources(env common.Environment, tax taxonomy.Map) map[string]pairedBucketSources {
	result := map[string]pairedBucketSources{}

	scan := func(root string, origin model.Origin, assign func(*pairedBucketSources, string)) {
		entries, err := os.ReadDir(root)
		if err != nil {
			return
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			dest, ok := tax.ClassifyTopLevelDir(origin, entry.Name())
			if !ok {
				continue
			}
			p := result[dest]
			assign(&p, filepath.Join(root, entry.Name()))
			result[dest] = p
		}
	}

	scan(env.UNOERoot, model.EOrigin.UNOE(), func(p *pairedBucketSources, abs string) {
		if p.UNOEBase == "" {
			p.UNOEBase = abs
		}
	})
	scan(env.DOSERoot, model.EOrigin.DOSE(), func(p *pairedBucketSources, abs string) {
		if p.DOSEBase == "" {
			p.DOSEBase = abs
		}
	})

	return result
}

// commonRelPaths returns every file path, relative to both aBase and
// bBase, that exists as a regular file under both trees.
func commonRelPaths(aBase, bBase string) ([]string, error) {
	aSet, err := listRelFiles(aBase)
	if err != nil {
		return nil, err
	}
	bSet, err := listRelFiles(bBase)
	if err != nil {
		return nil, err
	}

	var common []string
	for rel := range aSet {
		if bSet[rel] {
			common = append(common, rel)
		}
	}
	return common, nil
}

func listRelFiles(root string) (map[string]bool, error) {
	set := map[string]bool{}
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info == nil || info.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		set[rel] = true
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return set, nil
}
