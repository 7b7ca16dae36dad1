// Package collision implements the Collision Resolver (spec.md §4.5), the
// core's hardest subsystem: for every relative path present under both
// sources in a paired bucket, classify identical vs conflict and apply
// the deterministic newer/larger-with-keep-both-fallback policy.
package collision

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/R0bert0r/Data-Consolidation/common"
	"github.com/R0bert0r/Data-Consolidation/internal/metadata"
	"github.com/R0bert0r/Data-Consolidation/internal/model"
	"github.com/R0bert0r/Data-Consolidation/internal/provenance"
)

// Resolver resolves every collision found within one destination bucket
// subtree. The Copy Engine must not be running over the same subtree
// concurrently (spec.md §5).
type Resolver struct {
	UNOEBase    string
	DOSEBase    string
	DestBase    string
	Provenance  *provenance.Store
	Candidates  *Log
	Resolutions *Log
	Logger      common.ILogger
	DryRun      bool
}

// Resolve processes a single relative path present under both sources.
// Hash/size/mtime failures on either side abort only this collision
// (logged, spec.md §4.5 Failure semantics); move/write failures abort the
// phase by returning an error wrapped in ErrDestinationWriteFailure.
func (r *Resolver) Resolve(relPath string) error {
	unoePath := filepath.Join(r.UNOEBase, relPath)
	dosePath := filepath.Join(r.DOSEBase, relPath)
	destPath := filepath.Join(r.DestBase, relPath)

	unoeRec, err := metadata.Read(unoePath, relPath)
	if err != nil {
		r.Logger.Log(common.LogWarning, fmt.Sprintf("collision %s: failed reading UNOE side: %v", relPath, err))
		return nil
	}
	doseRec, err := metadata.Read(dosePath, relPath)
	if err != nil {
		r.Logger.Log(common.LogWarning, fmt.Sprintf("collision %s: failed reading DOSE side: %v", relPath, err))
		return nil
	}

	if unoeRec.SHA256 == doseRec.SHA256 {
		row := candidateRow(destPath, model.EClassification.Identical(), model.EAction.NoAction(), unoeRec, doseRec, "")
		if err := r.Candidates.Append(row); err != nil {
			return common.Wrapf(common.ErrDestinationWriteFailure, "appending candidate row for %s", destPath)
		}
		return nil
	}

	pending := candidateRow(destPath, model.EClassification.Conflict(), model.EAction.Pending(), unoeRec, doseRec, "")
	if err := r.Candidates.Append(pending); err != nil {
		return common.Wrapf(common.ErrDestinationWriteFailure, "appending candidate row for %s", destPath)
	}

	newestOrigin := pickNewest(unoeRec, doseRec)
	newestRec, otherRec := unoeRec, doseRec
	if newestOrigin == model.EOrigin.DOSE() {
		newestRec, otherRec = doseRec, unoeRec
	}

	var resolved model.CollisionResolutionRow
	var resolveErr error
	if newestRec.Size > otherRec.Size {
		resolved, resolveErr = r.replaceWithNewest(destPath, newestOrigin, newestRec, unoeRec, doseRec)
	} else {
		resolved, resolveErr = r.keepBoth(destPath, newestOrigin, newestRec, otherRec, unoeRec, doseRec)
	}
	if resolveErr != nil {
		return resolveErr
	}

	return r.appendResolution(resolved)
}

// pickNewest applies spec.md §4.5 step 3: strictly-greater mtime wins;
// ties broken by strictly-greater size favoring DOSE; otherwise UNOE.
func pickNewest(unoe, dose model.FileRecord) model.Origin {
	if dose.MTimeUTC > unoe.MTimeUTC {
		return model.EOrigin.DOSE()
	}
	if unoe.MTimeUTC > dose.MTimeUTC {
		return model.EOrigin.UNOE()
	}
	if dose.Size > unoe.Size {
		return model.EOrigin.DOSE()
	}
	return model.EOrigin.UNOE()
}

func (r *Resolver) replaceWithNewest(destPath string, newestOrigin model.Origin, newest, unoe, dose model.FileRecord) (model.CollisionResolutionRow, error) {
	if r.DryRun {
		r.Logger.Log(common.LogInfo, fmt.Sprintf("dry-run: would replace_with_newest at %s from %s", destPath, newestOrigin))
		return resolutionRow(destPath, model.EAction.ReplaceWithNewest(), unoe, dose, destPath), nil
	}

	existingSHA, existingExists := destSHA256(destPath)
	if existingExists && existingSHA != newest.SHA256 {
		if err := os.Remove(destPath); err != nil {
			return model.CollisionResolutionRow{}, common.Wrapf(common.ErrDestinationWriteFailure, "removing stale destination %s", destPath)
		}
		existingExists = false
	}
	if !existingExists {
		if err := copyFile(newest.AbsPath, destPath); err != nil {
			return model.CollisionResolutionRow{}, common.Wrapf(common.ErrDestinationWriteFailure, "writing %s", destPath)
		}
	}

	if err := r.appendProvenanceFor(destPath, newestOrigin, newest); err != nil {
		return model.CollisionResolutionRow{}, err
	}

	return resolutionRow(destPath, model.EAction.ReplaceWithNewest(), unoe, dose, destPath), nil
}

func (r *Resolver) keepBoth(destPath string, newestOrigin model.Origin, newest, other, unoe, dose model.FileRecord) (model.CollisionResolutionRow, error) {
	otherOrigin := newestOrigin.Other()
	// A candidate slot already holding other's content is this collision's
	// own prior resolution, not a foreign occupant — SuffixedSibling must
	// treat it as free so a re-run lands on the same path instead of the
	// next counter (spec.md §4.5, §4.9 idempotence on resume).
	siblingOccupied := func(p string) bool {
		sha, exists := destSHA256(p)
		return exists && sha != other.SHA256
	}
	siblingPath := SuffixedSibling(destPath, otherOrigin, siblingOccupied)

	if r.DryRun {
		r.Logger.Log(common.LogInfo, fmt.Sprintf("dry-run: would keep_both at %s and %s", destPath, siblingPath))
		return resolutionRow(destPath, model.EAction.KeepBoth(), unoe, dose, destPath+";"+siblingPath), nil
	}

	existingSHA, existingExists := destSHA256(destPath)
	existingIsForeign := existingExists && existingSHA != unoe.SHA256 && existingSHA != dose.SHA256
	if existingIsForeign {
		if err := os.Rename(destPath, siblingPath); err != nil {
			return model.CollisionResolutionRow{}, common.Wrapf(common.ErrDestinationWriteFailure, "moving aside existing destination %s", destPath)
		}
		if err := copyFile(newest.AbsPath, destPath); err != nil {
			return model.CollisionResolutionRow{}, common.Wrapf(common.ErrDestinationWriteFailure, "writing %s", destPath)
		}
	} else {
		if !existingExists || existingSHA != newest.SHA256 {
			if err := copyFile(newest.AbsPath, destPath); err != nil {
				return model.CollisionResolutionRow{}, common.Wrapf(common.ErrDestinationWriteFailure, "writing %s", destPath)
			}
		}
		if siblingSHA, siblingExists := destSHA256(siblingPath); !siblingExists || siblingSHA != other.SHA256 {
			if err := copyFile(other.AbsPath, siblingPath); err != nil {
				return model.CollisionResolutionRow{}, common.Wrapf(common.ErrDestinationWriteFailure, "writing %s", siblingPath)
			}
		}
	}

	if err := r.appendProvenanceFor(destPath, newestOrigin, newest); err != nil {
		return model.CollisionResolutionRow{}, err
	}
	if err := r.appendProvenanceFor(siblingPath, otherOrigin, other); err != nil {
		return model.CollisionResolutionRow{}, err
	}

	return resolutionRow(destPath, model.EAction.KeepBoth(), unoe, dose, destPath+";"+siblingPath), nil
}

// appendProvenanceFor writes a provenance row for destPath only if its
// on-disk content matches rec's hash (spec.md §3: "Provenance is written
// only for destination files whose content hash matches the recorded
// source hash").
func (r *Resolver) appendProvenanceFor(destPath string, origin model.Origin, rec model.FileRecord) error {
	destSHA, err := metadata.SHA256File(destPath)
	if err != nil {
		r.Logger.Log(common.LogWarning, fmt.Sprintf("hash_mismatch_provenance: could not hash %s: %v", destPath, err))
		return nil
	}
	if destSHA != rec.SHA256 {
		r.Logger.Log(common.LogWarning, fmt.Sprintf("hash_mismatch_provenance: %s does not match source hash, suppressing provenance row", destPath))
		return nil
	}
	return r.Provenance.Append(model.ProvenanceRow{
		DestPath:         destPath,
		Origin:           origin,
		SourcePath:       rec.AbsPath,
		SrcCreateTimeUTC: rec.CreateTimeUTC,
		CreateTimeStatus: rec.CreateTimeStatus,
		SrcMTimeUTC:      rec.MTimeUTC,
		SizeBytes:        rec.Size,
		SHA256:           rec.SHA256,
	})
}

func (r *Resolver) writeCandidateAndResolution(candidate, resolution model.CollisionCandidateRow) error {
	if err := r.Candidates.Append(candidate); err != nil {
		return common.Wrapf(common.ErrDestinationWriteFailure, "appending candidate row for %s", candidate.DestPath)
	}
	return r.appendResolution(resolution)
}

func (r *Resolver) appendResolution(row model.CollisionResolutionRow) error {
	if err := r.Resolutions.Append(row); err != nil {
		return common.Wrapf(common.ErrDestinationWriteFailure, "appending resolution row for %s", row.DestPath)
	}
	return nil
}

func candidateRow(destPath string, classification model.Classification, action model.Action, unoe, dose model.FileRecord, resultingPaths string) model.CollisionCandidateRow {
	return model.CollisionCandidateRow{
		DestPath:       destPath,
		Classification: classification,
		ChosenAction:   action,
		UNOEPath:       unoe.AbsPath,
		UNOESize:       unoe.Size,
		UNOEMTimeUTC:   unoe.MTimeUTC,
		UNOESHA256:     unoe.SHA256,
		DOSEPath:       dose.AbsPath,
		DOSESize:       dose.Size,
		DOSEMTimeUTC:   dose.MTimeUTC,
		DOSESHA256:     dose.SHA256,
		ResultingPaths: resultingPaths,
	}
}

func resolutionRow(destPath string, action model.Action, unoe, dose model.FileRecord, resultingPaths string) model.CollisionResolutionRow {
	return candidateRow(destPath, model.EClassification.Conflict(), action, unoe, dose, resultingPaths)
}

func destSHA256(destPath string) (string, bool) {
	sum, err := metadata.SHA256File(destPath)
	if err != nil {
		return "", false
	}
	return sum, true
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o2775); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o660)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}

	info, err := os.Stat(src)
	if err == nil {
		_ = os.Chtimes(dst, info.ModTime(), info.ModTime())
	}
	return out.Close()
}
