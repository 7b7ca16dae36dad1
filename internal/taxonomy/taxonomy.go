// Package taxonomy implements the Path Classifier (spec.md §4.1): mapping
// a top-level source directory or loose file to its destination subpath
// under the consolidated taxonomy, with fallbacks for the unmapped and
// loose-file cases.
package taxonomy

import (
	"path/filepath"
	"strings"

	"github.com/R0bert0r/Data-Consolidation/internal/model"
)

// excludedDirNames are always skipped wherever encountered, at any depth,
// regardless of origin (spec.md §3).
var excludedDirNames = map[string]bool{
	"$RECYCLE.BIN":                true,
	"System Volume Information": true,
}

// imageExtensions decides whether a loose top-level file is routed to the
// photos bucket or the generic loose-files bucket (spec.md §3).
var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".tif": true, ".tiff": true, ".bmp": true, ".heic": true,
}

// asIsBuckets land at the destination root under their own name unchanged.
var asIsBuckets = map[string]bool{
	"ASH":     true,
	"Backups": true,
	"Dropbox": true,
}

const recoveryBucketName = "found.000"
const recoveryDestPath = "90_System_Artifacts/Recovered/found.000"

// Map is the static top-level-directory-name -> destination-subpath table.
// Keys are matched exactly (case-sensitive). This is built once at startup
// and treated as immutable (spec.md §9 "process-wide mutable state").
type Map map[string]string

// DefaultMap is the compiled-in taxonomy used in production.
func DefaultMap() Map {
	return Map{
		"Pictures":        "02_Media/Photos",
		"Photos":          "02_Media/Photos",
		"Videos":          "02_Media/Video",
		"Video":           "02_Media/Video",
		"Movies":          "02_Media/Video",
		"Music":           "02_Media/Audio",
		"Audio":           "02_Media/Audio",
		"Documents":       "01_Documents",
		"My Documents":    "01_Documents",
		"Desktop":         "01_Documents/Desktop",
		"Downloads":       "90_System_Artifacts/Downloads",
		"Games":           "04_Games",
		"VMs":             "05_Virtualization/VMs",
		"ESXi":            "05_Virtualization/ESXi",
		"ISOs":            "06_OS_Images",
		"Software":        "07_Software",
		"Research":        "03_Research",
		"Training":        "08_Knowledge_Training",
		"Personal":        "09_Personal",
	}
}

// Unmapped builds the destination path for a top-level directory whose
// basename is not present in the map.
func Unmapped(origin model.Origin, basename string) string {
	return filepath.Join("90_System_Artifacts", "Unmapped_Folders", origin.String(), basename)
}

// LooseFileDest builds the destination directory for a loose top-level
// file (not nested under any top-level directory).
func LooseFileDest(origin model.Origin, basename string) string {
	if isImage(basename) {
		return filepath.Join("02_Media", "Photos", "_From_Root", origin.String())
	}
	return filepath.Join("90_System_Artifacts", "Loose_Files", origin.String())
}

func isImage(name string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(name))]
}

// IsExcluded reports whether basename is one of the two Windows system
// directories that are always skipped regardless of depth-1 position.
func IsExcluded(basename string) bool {
	return excludedDirNames[basename]
}

// ClassifyTopLevelDir returns the destination directory for a depth-1
// source directory named basename, or ok=false if it must be skipped
// entirely (the two excluded system directories).
func (m Map) ClassifyTopLevelDir(origin model.Origin, basename string) (destPath string, ok bool) {
	if IsExcluded(basename) {
		return "", false
	}
	if asIsBuckets[basename] {
		return basename, true
	}
	if basename == recoveryBucketName {
		return recoveryDestPath, true
	}
	if sub, found := m[basename]; found {
		return sub, true
	}
	return Unmapped(origin, basename), true
}

// PairedBucketRoots returns every destination bucket subpath that the two
// sources can collide under: every taxonomy target, the as-is buckets, and
// found.000 — i.e. every bucket the Collision Resolver must pair UNOE and
// DOSE contents within (spec.md §4.5).
func (m Map) PairedBucketRoots() []string {
	seen := map[string]bool{}
	var roots []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			roots = append(roots, p)
		}
	}
	for _, dest := range m {
		add(dest)
	}
	for name := range asIsBuckets {
		add(name)
	}
	add(recoveryDestPath)
	return roots
}
