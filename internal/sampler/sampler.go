// Package sampler implements the Hash Sampler (spec.md §4.6): a
// deterministic, reproducible sample of destination files used to verify
// content preservation across the deduplication phase.
package sampler

import (
	"bufio"
	"encoding/csv"
	"hash/fnv"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/R0bert0r/Data-Consolidation/common"
	"github.com/R0bert0r/Data-Consolidation/internal/collision"
	"github.com/R0bert0r/Data-Consolidation/internal/metadata"
)

// heavyBuckets are the fixed content-heavy destination subpaths sampled in
// addition to every conflict outcome (spec.md §4.6).
var heavyBuckets = []string{
	"08_Knowledge_Training",
	"02_Media/Video",
	"04_Games",
	"06_OS_Images",
	"05_Virtualization/ESXi",
	"09_Personal",
	"03_Research",
}

const (
	largestPerBucket = 50
	randomPerBucket  = 200
)

// Entry is one sampled-and-hashed destination file.
type Entry struct {
	RelPath   string
	SHA256    string
	SizeBytes int64
}

// BuildSample assembles the sample-path set for destRoot: every path in
// the resolution log's resulting_paths column (made relative to destRoot),
// plus the 50 largest and up to 200 seeded-random
// files within each heavy bucket, deduplicated preserving first
// occurrence order.
func BuildSample(destRoot, resolutionLogPath, runID string) ([]string, error) {
	var ordered []string
	seen := map[string]bool{}
	add := func(relPath string) {
		if relPath == "" || seen[relPath] {
			return
		}
		seen[relPath] = true
		ordered = append(ordered, relPath)
	}

	resolutions, err := collision.ReadAllResolutions(resolutionLogPath)
	if err != nil {
		return nil, err
	}
	for _, row := range resolutions {
		for _, p := range splitResultingPaths(row.ResultingPaths) {
			rel, relErr := filepath.Rel(destRoot, p)
			if relErr == nil {
				add(rel)
			}
		}
	}

	for _, bucket := range heavyBuckets {
		bucketAbs := filepath.Join(destRoot, bucket)
		files := listBucketFiles(bucketAbs)
		if len(files) == 0 {
			continue
		}

		largest := append([]fileSize(nil), files...)
		sort.Slice(largest, func(i, j int) bool { return largest[i].size > largest[j].size })
		for i := 0; i < len(largest) && i < largestPerBucket; i++ {
			rel, relErr := filepath.Rel(destRoot, largest[i].path)
			if relErr == nil {
				add(rel)
			}
		}

		rng := rand.New(rand.NewSource(bucketSeed(runID, bucket)))
		perm := rng.Perm(len(files))
		for i := 0; i < len(perm) && i < randomPerBucket; i++ {
			rel, relErr := filepath.Rel(destRoot, files[perm[i]].path)
			if relErr == nil {
				add(rel)
			}
		}
	}

	return ordered, nil
}

// bucketSeed derives a deterministic PRNG seed from (runID, bucket) using
// FNV-1a, so re-running the same run over the same sources reproduces the
// same random sample (spec.md §4.6, P3-adjacent determinism).
func bucketSeed(runID, bucket string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(runID))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(bucket))
	return int64(h.Sum64())
}

type fileSize struct {
	path string
	size int64
}

func listBucketFiles(root string) []fileSize {
	var out []fileSize
	_ = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info == nil || info.IsDir() {
			return nil
		}
		out = append(out, fileSize{path: path, size: info.Size()})
		return nil
	})
	return out
}

func splitResultingPaths(joined string) []string {
	if joined == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i < len(joined); i++ {
		if joined[i] == ';' {
			out = append(out, joined[start:i])
			start = i + 1
		}
	}
	out = append(out, joined[start:])
	return out
}

// Hash hashes every relative path in sample under destRoot, skipping (and
// reporting) any that can no longer be read.
func Hash(destRoot string, sample []string) ([]Entry, []string) {
	entries := make([]Entry, 0, len(sample))
	var unreadable []string
	for _, rel := range sample {
		abs := filepath.Join(destRoot, rel)
		info, err := os.Stat(abs)
		if err != nil {
			unreadable = append(unreadable, rel)
			continue
		}
		sum, err := metadata.SHA256File(abs)
		if err != nil {
			unreadable = append(unreadable, rel)
			continue
		}
		entries = append(entries, Entry{RelPath: rel, SHA256: sum, SizeBytes: info.Size()})
	}
	return entries, unreadable
}

var sampleHeader = []string{"relative_path", "sha256", "size_bytes"}

// WriteSample persists the hashed sample list so a later phase can re-hash
// exactly the same paths and compare (spec.md §4.6).
func WriteSample(path string, entries []Entry) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := common.WriteCSVRecord(w, sampleHeader); err != nil {
		return err
	}
	for _, e := range entries {
		rec := []string{e.RelPath, e.SHA256, strconv.FormatInt(e.SizeBytes, 10)}
		if err := common.WriteCSVRecord(w, rec); err != nil {
			return err
		}
	}
	return w.Flush()
}

// ReadSample loads a previously persisted sample list.
func ReadSample(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	out := make([]Entry, 0, len(rows)-1)
	for _, rec := range rows[1:] {
		if len(rec) != 3 {
			continue
		}
		size, _ := strconv.ParseInt(rec[2], 10, 64)
		out = append(out, Entry{RelPath: rec[0], SHA256: rec[1], SizeBytes: size})
	}
	return out, nil
}
