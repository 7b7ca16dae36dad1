// Package runsummary persists a small JSON snapshot of one run's progress
// next to the CSV artifacts (SPEC_FULL.md [SUPPLEMENT] "Run manifest
// summary"): counts and phase durations, re-written after every phase so
// a run that aborts mid-way still leaves a readable summary behind.
package runsummary

import (
	"encoding/json"
	"os"
	"time"
)

// PhaseRecord is one phase's outcome.
type PhaseRecord struct {
	Name       string    `json:"name"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	DurationMS int64     `json:"duration_ms"`
	Status     string    `json:"status"` // "ok" or "failed"
	Detail     string    `json:"detail,omitempty"`
}

// Summary is the full run_summary.json payload. The Phase Controller fills
// in RunID, DryRun, Phases and the per-origin copy counts; CurrentAction
// and the four collision counters are not set by it and stay at zero.
type Summary struct {
	RunID              string        `json:"run_id"`
	DryRun             bool          `json:"dry_run"`
	CurrentAction      string        `json:"current_action"`
	Phases             []PhaseRecord `json:"phases"`
	FilesCopiedUNOE    int           `json:"files_copied_unoe"`
	FilesCopiedDOSE    int           `json:"files_copied_dose"`
	CollisionsIdentical int          `json:"collisions_identical"`
	CollisionsConflict  int          `json:"collisions_conflict"`
	ReplaceWithNewest   int          `json:"replace_with_newest"`
	KeepBoth            int          `json:"keep_both"`
}

// Write persists summary as indented JSON at path.
func Write(path string, summary Summary) error {
	b, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o660)
}

// Read loads a previously written summary, used when resuming a run into
// an existing run directory.
func Read(path string) (Summary, error) {
	var s Summary
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, err
	}
	err = json.Unmarshal(b, &s)
	return s, err
}
