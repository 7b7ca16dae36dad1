// Package manifest implements the Creation-Time Manifest Builder (spec.md
// §4.8): joins provenance by content identity and emits a flat
// destination -> earliest-known-creation-time mapping, plus a list of
// destinations for which no creation time could be recovered.
package manifest

import (
	"bufio"
	"os"
	"path/filepath"
	"sort"

	"github.com/R0bert0r/Data-Consolidation/common"
	"github.com/R0bert0r/Data-Consolidation/internal/model"
	"github.com/R0bert0r/Data-Consolidation/internal/provenance"
)

// Missing reason codes (spec.md §4.8).
const (
	ReasonDestinationMissing  = "destination_missing"
	ReasonMissingIdentityKey  = "missing_identity_key"
	ReasonMissingCreationTime = "missing_creation_time"
)

// Entry is one row of the creation-time manifest.
type Entry struct {
	DestPathRelative  string
	EarliestCreateUTC string
}

// MissingEntry is one row of the missing-creation-time report.
type MissingEntry struct {
	DestPathRelative string
	Reason           string
}

// Build reads every provenance row rooted at provenancePath, groups them by
// content hash, and computes the earliest ok creation time per group
// (lexicographically smallest ISO-8601 string, which is also
// chronologically earliest). destRoot is walked to find destination files
// with no provenance row at all (missing_identity_key) and provenance
// entries whose destination no longer exists on disk (destination_missing).
func Build(destRoot, provenancePath string) ([]Entry, []MissingEntry, error) {
	rows, err := provenance.ReadAll(provenancePath)
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return nil, nil, common.Wrap(common.ErrMissingProvenanceForManifest, "no provenance rows found")
	}

	byHash := map[string][]model.ProvenanceRow{}
	destToHashes := map[string]map[string]bool{}
	for _, row := range rows {
		byHash[row.SHA256] = append(byHash[row.SHA256], row)
		if destToHashes[row.DestPath] == nil {
			destToHashes[row.DestPath] = map[string]bool{}
		}
		destToHashes[row.DestPath][row.SHA256] = true
	}

	earliestByHash := map[string]string{}
	hashHasValidTime := map[string]bool{}
	for hash, group := range byHash {
		best := ""
		for _, row := range group {
			if row.CreateTimeStatus != model.ECreateTimeStatus.OK() || row.SrcCreateTimeUTC == "" {
				continue
			}
			if best == "" || row.SrcCreateTimeUTC < best {
				best = row.SrcCreateTimeUTC
			}
		}
		if best != "" {
			earliestByHash[hash] = best
			hashHasValidTime[hash] = true
		}
	}

	var entries []Entry
	var missing []MissingEntry
	seenDest := map[string]bool{}

	for dest, hashes := range destToHashes {
		if seenDest[dest] {
			continue
		}
		seenDest[dest] = true

		if _, err := os.Stat(filepath.Join(destRoot, dest)); err != nil {
			missing = append(missing, MissingEntry{DestPathRelative: dest, Reason: ReasonDestinationMissing})
			continue
		}

		best := ""
		for hash := range hashes {
			if t, ok := earliestByHash[hash]; ok {
				if best == "" || t < best {
					best = t
				}
			}
		}
		if best == "" {
			missing = append(missing, MissingEntry{DestPathRelative: dest, Reason: ReasonMissingCreationTime})
			continue
		}
		entries = append(entries, Entry{DestPathRelative: dest, EarliestCreateUTC: best})
	}

	walkErr := filepath.Walk(destRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil || info == nil || info.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(destRoot, path)
		if relErr != nil || seenDest[rel] {
			return nil
		}
		seenDest[rel] = true
		missing = append(missing, MissingEntry{DestPathRelative: rel, Reason: ReasonMissingIdentityKey})
		return nil
	})
	if walkErr != nil {
		return entries, missing, walkErr
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].DestPathRelative < entries[j].DestPathRelative })
	sort.Slice(missing, func(i, j int) bool { return missing[i].DestPathRelative < missing[j].DestPathRelative })

	return entries, missing, nil
}

var manifestHeader = []string{"dest_path_relative_to_share", "earliest_create_time_utc_iso8601"}
var missingHeader = []string{"dest_path_relative_to_share", "reason"}

// WriteManifest writes the two-column creation-time manifest CSV.
func WriteManifest(path string, entries []Entry) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := common.WriteCSVRecord(w, manifestHeader); err != nil {
		return err
	}
	for _, e := range entries {
		rec := []string{e.DestPathRelative, e.EarliestCreateUTC}
		if err := common.WriteCSVRecord(w, rec); err != nil {
			return err
		}
	}
	return w.Flush()
}

// WriteMissing writes the missing-creation-time report CSV.
func WriteMissing(path string, entries []MissingEntry) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := common.WriteCSVRecord(w, missingHeader); err != nil {
		return err
	}
	for _, e := range entries {
		rec := []string{e.DestPathRelative, e.Reason}
		if err := common.WriteCSVRecord(w, rec); err != nil {
			return err
		}
	}
	return w.Flush()
}
