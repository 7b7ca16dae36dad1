package collision

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/R0bert0r/Data-Consolidation/internal/model"
)

// alreadySuffixed matches a stem ending in __UNOE, __DOSE, __UNOE_<n>, or
// __DOSE_<n>, anchored at end-of-stem. Open Question (b) (spec.md §9):
// this anchors strictly, so "foo__UNOEsomething" is NOT a match — unlike
// the original tool's suffix_name, which was happy to re-suffix it.
var alreadySuffixed = regexp.MustCompile(`__(UNOE|DOSE)(_\d+)?$`)

// IsSuffixed reports whether destPath's basename stem already carries a
// losing-origin suffix, making it a fixed point for SuffixedSibling
// (spec.md §3 invariant, P4).
func IsSuffixed(destPath string) bool {
	base := filepath.Base(destPath)
	ext := filepath.Ext(base)
	stem := base[:len(base)-len(ext)]
	return alreadySuffixed.MatchString(stem)
}

// SuffixedSibling returns the sibling path for the losing side of a
// keep-both resolution: `<stem>__<otherOrigin><ext>`, with `_2`, `_3`, ...
// appended until exists reports a candidate as free (spec.md §4.5 step 4).
// The Resolver's probe is hash-aware, so a slot already holding the losing
// side's content counts as free. If destPath is already suffixed, it is returned
// unchanged (idempotence, P4).
func SuffixedSibling(destPath string, otherOrigin model.Origin, exists func(string) bool) string {
	if IsSuffixed(destPath) {
		return destPath
	}

	dir := filepath.Dir(destPath)
	base := filepath.Base(destPath)
	ext := filepath.Ext(base)
	stem := base[:len(base)-len(ext)]

	candidate := filepath.Join(dir, fmt.Sprintf("%s__%s%s", stem, otherOrigin.String(), ext))
	if !exists(candidate) {
		return candidate
	}
	for n := 2; ; n++ {
		candidate = filepath.Join(dir, fmt.Sprintf("%s__%s_%d%s", stem, otherOrigin.String(), n, ext))
		if !exists(candidate) {
			return candidate
		}
	}
}

// fileExists is a plain on-disk existence probe. The Resolver does not use
// it; it passes its own hash-aware probe to SuffixedSibling.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
