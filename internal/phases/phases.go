// Package phases implements the Phase Controller (spec.md §4.9): sequences
// the nine pipeline phases, maintains the run directory, and surfaces a
// one-line current-action label when a phase aborts.
package phases

import (
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/R0bert0r/Data-Consolidation/common"
	"github.com/R0bert0r/Data-Consolidation/internal/collision"
	"github.com/R0bert0r/Data-Consolidation/internal/copyengine"
	"github.com/R0bert0r/Data-Consolidation/internal/dedupe"
	"github.com/R0bert0r/Data-Consolidation/internal/manifest"
	"github.com/R0bert0r/Data-Consolidation/internal/model"
	"github.com/R0bert0r/Data-Consolidation/internal/provenance"
	"github.com/R0bert0r/Data-Consolidation/internal/runsummary"
	"github.com/R0bert0r/Data-Consolidation/internal/sampler"
	"github.com/R0bert0r/Data-Consolidation/internal/taxonomy"
	"github.com/R0bert0r/Data-Consolidation/internal/verify"
)

// Phase identifiers, in the fixed execution order (spec.md §4.9).
const (
	Preflight           = "preflight"
	PrepareDestination  = "prepare_destination"
	CopyFirstSource     = "copy_first_source"
	OverlaySecondSource = "overlay_second_source"
	ResolveConflicts    = "resolve_conflicts"
	PreDedupeVerify     = "pre_dedupe_verify"
	HardlinkDedupe      = "hardlink_dedupe"
	BuildManifest       = "build_manifest"
	PostDedupeVerify    = "post_dedupe_verify"

	PhaseAll = "all"
)

// Order lists every phase in the sequence the "all" invocation runs them.
var Order = []string{
	Preflight, PrepareDestination, CopyFirstSource, OverlaySecondSource,
	ResolveConflicts, PreDedupeVerify, HardlinkDedupe, BuildManifest, PostDedupeVerify,
}

// artifact file names under the run directory.
const (
	fileCandidates     = "collision_candidates.csv"
	fileResolutions    = "collision_resolutions.csv"
	fileProvenance     = "provenance.csv"
	filePreSnapshot    = "pre_dedupe_snapshot.json"
	filePostSnapshot   = "post_dedupe_snapshot.json"
	fileSamplePaths    = "hash_sample_paths.csv"
	fileSamplePre      = "hash_sample_pre.csv"
	fileSamplePost     = "hash_sample_post.csv"
	fileManifest       = "creation_time_manifest.csv"
	fileMissingManifest = "missing_creation_time.csv"
	fileInstructions   = "apply_instructions.txt"
	fileRunSummary     = "run_summary.json"
	filePreflightDump  = "preflight.txt"
)

// Controller holds everything one run needs to execute any subset of the
// nine phases against the same run directory.
type Controller struct {
	Env         common.Environment
	Taxonomy    taxonomy.Map
	RunID       string
	RunDir      string
	DryRun      bool
	Parallelism int
	Logger      common.ILogger

	CurrentAction string
	Summary       runsummary.Summary
}

// New constructs a Controller and ensures its run directory exists.
func New(env common.Environment, runID, logDirOverride string, dryRun bool, parallelism int, logger common.ILogger) (*Controller, error) {
	runDir := env.RunDir(runID, logDirOverride)
	if err := os.MkdirAll(runDir, 0o2775); err != nil {
		return nil, common.Wrapf(common.ErrDestinationWriteFailure, "creating run directory %s", runDir)
	}

	existing, _ := runsummary.Read(filepath.Join(runDir, fileRunSummary))
	if existing.RunID == "" {
		existing = runsummary.Summary{RunID: runID, DryRun: dryRun}
	}

	return &Controller{
		Env:         env,
		Taxonomy:    taxonomy.DefaultMap(),
		RunID:       runID,
		RunDir:      runDir,
		DryRun:      dryRun,
		Parallelism: parallelism,
		Logger:      logger,
		Summary:     existing,
	}, nil
}

func (c *Controller) path(name string) string { return filepath.Join(c.RunDir, name) }

func (c *Controller) setAction(label string) {
	c.CurrentAction = label
	c.Logger.Log(common.LogInfo, "current action: "+label)
}

func (c *Controller) recordPhase(name string, started time.Time, err error) {
	status := "ok"
	detail := ""
	if err != nil {
		status = "failed"
		detail = err.Error()
	}
	finished := time.Now()
	c.Summary.Phases = append(c.Summary.Phases, runsummary.PhaseRecord{
		Name:       name,
		StartedAt:  started,
		FinishedAt: finished,
		DurationMS: finished.Sub(started).Milliseconds(),
		Status:     status,
		Detail:     detail,
	})
	_ = runsummary.Write(c.path(fileRunSummary), c.Summary)
}

// RunPhase executes exactly one named phase (or every phase, for "all").
func (c *Controller) RunPhase(ctx context.Context, name string) error {
	if name == PhaseAll || name == "" {
		for _, p := range Order {
			if err := c.runOne(ctx, p); err != nil {
				return err
			}
		}
		return nil
	}
	return c.runOne(ctx, name)
}

func (c *Controller) runOne(ctx context.Context, name string) error {
	started := time.Now()
	c.setAction(name)

	var err error
	switch name {
	case Preflight:
		err = c.preflight(ctx)
	case PrepareDestination:
		err = c.prepareDestination(ctx)
	case CopyFirstSource:
		err = c.copySource(ctx, model.EOrigin.UNOE(), copyengine.EMode.Authoritative())
	case OverlaySecondSource:
		err = c.copySource(ctx, model.EOrigin.DOSE(), copyengine.EMode.Overlay())
	case ResolveConflicts:
		err = c.resolveConflicts(ctx)
	case PreDedupeVerify:
		err = c.verifySnapshot(filePreSnapshot, fileSamplePre)
	case HardlinkDedupe:
		err = c.runDedupe(ctx)
	case BuildManifest:
		err = c.buildManifest(ctx)
	case PostDedupeVerify:
		err = c.verifySnapshot(filePostSnapshot, fileSamplePost)
	default:
		err = common.Wrapf(common.ErrMissingTool, "unknown phase %q", name)
	}

	c.recordPhase(name, started, err)
	return err
}

func (c *Controller) preflight(ctx context.Context) error {
	dump := c.path(filePreflightDump)
	content := "run_id=" + c.RunID + "\ndry_run=" + boolStr(c.DryRun) + "\n" +
		"unoe_root=" + c.Env.UNOERoot + "\ndose_root=" + c.Env.DOSERoot + "\nuno_root=" + c.Env.UNORoot + "\n"

	if !c.DryRun {
		if os.Geteuid() != 0 {
			return common.Wrap(common.ErrNotPrivileged, "mutating phases require elevated privilege")
		}
		if _, err := exec.LookPath(dedupe.ToolName); err != nil {
			c.Logger.Log(common.LogWarning, "dedupe tool not found on PATH yet; required before the hardlink_dedupe phase runs")
		}
	}
	return os.WriteFile(dump, []byte(content), 0o660)
}

func (c *Controller) prepareDestination(ctx context.Context) error {
	if c.DryRun {
		return nil
	}
	return os.MkdirAll(c.Env.UNORoot, 0o2775)
}

func (c *Controller) copySource(ctx context.Context, origin model.Origin, mode copyengine.Mode) error {
	srcRoot := c.Env.UNOERoot
	if origin == model.EOrigin.DOSE() {
		srcRoot = c.Env.DOSERoot
	}

	entries, err := os.ReadDir(srcRoot)
	if err != nil {
		return common.Wrapf(common.ErrUnreadableSourceEntry, "listing %s", srcRoot)
	}

	var totalWritten int
	for _, entry := range entries {
		destSub, ok := c.Taxonomy.ClassifyTopLevelDir(origin, entry.Name())
		if !ok {
			continue
		}

		srcPath := filepath.Join(srcRoot, entry.Name())
		destPath := filepath.Join(c.Env.UNORoot, destSub)
		if !entry.IsDir() {
			destPath = filepath.Join(c.Env.UNORoot, taxonomy.LooseFileDest(origin, entry.Name()), entry.Name())
			if err := copyLooseFile(srcPath, destPath, mode, c.DryRun); err != nil {
				return err
			}
			continue
		}

		result, err := copyengine.Mirror(ctx, srcPath, destPath, origin, mode, c.Parallelism, c.DryRun, c.Logger)
		if err != nil {
			return err
		}
		totalWritten += result.FilesWritten
	}

	if origin == model.EOrigin.UNOE() {
		c.Summary.FilesCopiedUNOE += totalWritten
	} else {
		c.Summary.FilesCopiedDOSE += totalWritten
	}
	return nil
}

func copyLooseFile(src, dst string, mode copyengine.Mode, dryRun bool) error {
	if mode == copyengine.EMode.Overlay() {
		if _, err := os.Stat(dst); err == nil {
			return nil
		}
	}
	if dryRun {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o2775); err != nil {
		return common.Wrapf(common.ErrDestinationWriteFailure, "creating directory for %s", dst)
	}
	in, err := os.Open(src)
	if err != nil {
		return common.Wrapf(common.ErrUnreadableSourceEntry, "%s", src)
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return common.Wrapf(common.ErrDestinationWriteFailure, "%s", dst)
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return common.Wrapf(common.ErrDestinationWriteFailure, "%s", dst)
	}
	return nil
}

func (c *Controller) resolveConflicts(ctx context.Context) error {
	prov, err := provenance.Open(c.path(fileProvenance), c.Logger)
	if err != nil {
		return err
	}
	defer prov.Close()

	candidates, err := collision.OpenLog(c.path(fileCandidates))
	if err != nil {
		return err
	}
	defer candidates.Close()

	resolutions, err := collision.OpenLog(c.path(fileResolutions))
	if err != nil {
		return err
	}
	defer resolutions.Close()

	paired := discoverPairedSources(c.Env, c.Taxonomy)
	for destSub, bases := range paired {
		if bases.UNOEBase == "" || bases.DOSEBase == "" {
			continue // only one origin contributed to this bucket; nothing to resolve
		}

		resolver := &collision.Resolver{
			UNOEBase:    bases.UNOEBase,
			DOSEBase:    bases.DOSEBase,
			DestBase:    filepath.Join(c.Env.UNORoot, destSub),
			Provenance:  prov,
			Candidates:  candidates,
			Resolutions: resolutions,
			Logger:      c.Logger,
			DryRun:      c.DryRun,
		}

		relPaths, err := commonRelPaths(bases.UNOEBase, bases.DOSEBase)
		if err != nil {
			return err
		}
		for _, rel := range relPaths {
			if err := resolver.Resolve(rel); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Controller) verifySnapshot(snapshotFile, sampleFile string) error {
	snap, err := verify.Take(c.Env.UNORoot)
	if err != nil {
		return err
	}
	if err := verify.Write(c.path(snapshotFile), snap); err != nil {
		return err
	}
	c.Logger.Log(common.LogInfo, "destination snapshot: "+snap.Human())

	samplePaths, err := loadOrBuildSample(c.path(fileSamplePaths), c.Env.UNORoot, c.path(fileResolutions), c.RunID)
	if err != nil {
		return err
	}
	entries, unreadable := sampler.Hash(c.Env.UNORoot, samplePaths)
	for _, rel := range unreadable {
		c.Logger.Log(common.LogWarning, "hash sample: could not re-hash "+rel)
	}
	return sampler.WriteSample(c.path(sampleFile), entries)
}

func loadOrBuildSample(samplePathsFile, destRoot, resolutionsFile, runID string) ([]string, error) {
	if existing, err := sampler.ReadSample(samplePathsFile); err == nil && len(existing) > 0 {
		rels := make([]string, len(existing))
		for i, e := range existing {
			rels[i] = e.RelPath
		}
		return rels, nil
	}

	rels, err := sampler.BuildSample(destRoot, resolutionsFile, runID)
	if err != nil {
		return nil, err
	}
	placeholder := make([]sampler.Entry, len(rels))
	for i, r := range rels {
		placeholder[i] = sampler.Entry{RelPath: r}
	}
	if err := sampler.WriteSample(samplePathsFile, placeholder); err != nil {
		return nil, err
	}
	return rels, nil
}

func (c *Controller) runDedupe(ctx context.Context) error {
	subtrees := c.Taxonomy.PairedBucketRoots()
	abs := make([]string, len(subtrees))
	for i, s := range subtrees {
		abs[i] = filepath.Join(c.Env.UNORoot, s)
	}

	result, err := dedupe.Run(ctx, dedupe.Options{
		Subtrees:  abs,
		DryRun:    c.DryRun,
		RunLogDir: c.RunDir,
	})
	if err != nil {
		return common.Wrapf(common.ErrDestinationWriteFailure, "dedupe tool exited %d", result.ExitCode)
	}
	return nil
}

func (c *Controller) buildManifest(ctx context.Context) error {
	entries, missing, err := manifest.Build(c.Env.UNORoot, c.path(fileProvenance))
	if err != nil {
		return err
	}
	if err := manifest.WriteManifest(c.path(fileManifest), entries); err != nil {
		return err
	}
	if err := manifest.WriteMissing(c.path(fileMissingManifest), missing); err != nil {
		return err
	}
	return manifest.WriteInstructions(c.path(fileInstructions), manifest.InstructionsData{
		RunID:        c.RunID,
		ManifestPath: c.path(fileManifest),
		MissingPath:  c.path(fileMissingManifest),
		MissingCount: len(missing),
	})
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
