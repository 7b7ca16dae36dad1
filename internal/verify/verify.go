// Package verify implements the Verification Reporter (spec.md §4.7):
// destination file/directory counts and total byte size, recorded to
// distinct pre- and post-dedupe snapshots.
package verify

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
)

// Snapshot is one point-in-time count/byte accounting of a destination
// tree. TotalBytes is the sum of apparent file sizes, not du-style
// allocated blocks.
type Snapshot struct {
	FileCount  int64 `json:"file_count"`
	DirCount   int64 `json:"dir_count"`
	TotalBytes int64 `json:"total_bytes"`
}

// Human renders TotalBytes the way the run log and console report it.
func (s Snapshot) Human() string {
	return humanize.Bytes(uint64(s.TotalBytes))
}

// Take walks destRoot and accounts for every entry under it. Byte
// accounting uses apparent size (info.Size()); real block accounting
// depends on platform-specific stat fields the standard library does not
// expose portably, so this reports the same figure on every platform the
// pipeline runs on.
func Take(destRoot string) (Snapshot, error) {
	var snap Snapshot
	err := filepath.Walk(destRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if path == destRoot {
			return nil
		}
		if info.IsDir() {
			snap.DirCount++
			return nil
		}
		snap.FileCount++
		snap.TotalBytes += info.Size()
		return nil
	})
	return snap, err
}

// Write persists snap as JSON at path.
func Write(path string, snap Snapshot) error {
	b, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o660)
}

// Read loads a previously written snapshot.
func Read(path string) (Snapshot, error) {
	var snap Snapshot
	b, err := os.ReadFile(path)
	if err != nil {
		return snap, err
	}
	err = json.Unmarshal(b, &snap)
	return snap, err
}
