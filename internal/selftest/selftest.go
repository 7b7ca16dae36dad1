// Package selftest backs the `--self-test` flag (spec.md §6): a
// lightweight CSV and syntactic self-check that never touches the volumes,
// sharing the same validation functions the test suite exercises.
package selftest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/R0bert0r/Data-Consolidation/internal/collision"
	"github.com/R0bert0r/Data-Consolidation/internal/model"
	"github.com/R0bert0r/Data-Consolidation/internal/provenance"
	"github.com/R0bert0r/Data-Consolidation/internal/taxonomy"
)

// Check is one named assertion's outcome.
type Check struct {
	Name string
	OK   bool
	Err  string
}

// Result is the full self-test run.
type Result struct {
	Checks []Check
	OK     bool
}

// Report renders the result as the self-test's stdout text.
func (r Result) Report() string {
	out := ""
	for _, c := range r.Checks {
		status := "ok"
		if !c.OK {
			status = "FAIL: " + c.Err
		}
		out += fmt.Sprintf("%-40s %s\n", c.Name, status)
	}
	if r.OK {
		out += "self-test passed\n"
	} else {
		out += "self-test FAILED\n"
	}
	return out
}

// Run executes every self-test check and returns the aggregate result.
func Run() Result {
	var result Result
	add := func(name string, err error) {
		c := Check{Name: name, OK: err == nil}
		if err != nil {
			c.Err = err.Error()
		}
		result.Checks = append(result.Checks, c)
	}

	add("taxonomy classification is total", checkTaxonomy())
	add("suffix naming is a fixed point (P4)", checkSuffixFixedPoint())
	add("provenance store round-trips its header", checkProvenanceRoundTrip())
	add("collision log round-trips its header", checkCollisionLogRoundTrip())

	result.OK = true
	for _, c := range result.Checks {
		if !c.OK {
			result.OK = false
		}
	}
	return result
}

func checkTaxonomy() error {
	tax := taxonomy.DefaultMap()
	for _, name := range []string{"Pictures", "ASH", "found.000", "Some_Unknown_Folder"} {
		if _, ok := tax.ClassifyTopLevelDir(model.EOrigin.UNOE(), name); !ok {
			return fmt.Errorf("expected a destination for %q", name)
		}
	}
	if _, ok := tax.ClassifyTopLevelDir(model.EOrigin.UNOE(), "$RECYCLE.BIN"); ok {
		return fmt.Errorf("$RECYCLE.BIN must be excluded")
	}
	if len(tax.PairedBucketRoots()) == 0 {
		return fmt.Errorf("expected at least one paired bucket root")
	}
	return nil
}

func checkSuffixFixedPoint() error {
	for _, stem := range []string{"photo__UNOE", "photo__DOSE_2", "report__UNOE_14"} {
		path := stem + ".jpg"
		if !collision.IsSuffixed(path) {
			return fmt.Errorf("%q should already be recognized as suffixed", path)
		}
		sibling := collision.SuffixedSibling(path, model.EOrigin.DOSE(), func(string) bool { return false })
		if sibling != path {
			return fmt.Errorf("suffix naming is not a fixed point for %q: got %q", path, sibling)
		}
	}
	return nil
}

func checkProvenanceRoundTrip() error {
	dir, err := os.MkdirTemp("", "selftest-provenance-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "provenance.csv")
	store, err := provenance.Open(path, nil)
	if err != nil {
		return err
	}
	row := model.ProvenanceRow{
		DestPath: "01_Documents/a.txt", Origin: model.EOrigin.UNOE(), SourcePath: "/mnt/UNOE/Documents/a.txt",
		SrcCreateTimeUTC: "2020-01-01T00:00:00Z", CreateTimeStatus: model.ECreateTimeStatus.OK(),
		SrcMTimeUTC: "2020-01-02T00:00:00Z", SizeBytes: 123, SHA256: "deadbeef",
	}
	if err := store.Append(row); err != nil {
		store.Close()
		return err
	}
	if err := store.Close(); err != nil {
		return err
	}

	rows, err := provenance.ReadAll(path)
	if err != nil {
		return err
	}
	if len(rows) != 1 || rows[0].DestPath != row.DestPath || rows[0].SHA256 != row.SHA256 {
		return fmt.Errorf("round-tripped row does not match what was written")
	}

	if _, err := provenance.Open(path, nil); err != nil {
		return fmt.Errorf("re-opening an existing store with a matching header should succeed: %w", err)
	}
	return nil
}

func checkCollisionLogRoundTrip() error {
	dir, err := os.MkdirTemp("", "selftest-collision-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "resolutions.csv")
	log, err := collision.OpenLog(path)
	if err != nil {
		return err
	}
	row := model.CollisionResolutionRow{
		DestPath: "02_Media/Photos/x.jpg", Classification: model.EClassification.Conflict(), ChosenAction: model.EAction.KeepBoth(),
		UNOEPath: "/mnt/UNOE/Pictures/x.jpg", UNOESize: 10, UNOEMTimeUTC: "2020-01-01T00:00:00Z", UNOESHA256: "aa",
		DOSEPath: "/mnt/DOSE/Pictures/x.jpg", DOSESize: 20, DOSEMTimeUTC: "2020-01-02T00:00:00Z", DOSESHA256: "bb",
		ResultingPaths: "02_Media/Photos/x.jpg;02_Media/Photos/x__DOSE.jpg",
	}
	if err := log.Append(row); err != nil {
		log.Close()
		return err
	}
	if err := log.Close(); err != nil {
		return err
	}

	rows, err := collision.ReadAllResolutions(path)
	if err != nil {
		return err
	}
	if len(rows) != 1 || rows[0].ResultingPaths != row.ResultingPaths {
		return fmt.Errorf("round-tripped resolution row does not match what was written")
	}
	return nil
}
