// Package dedupe wraps the external hardlink deduplication tool the
// pipeline shells out to after pre-dedupe verification (spec.md §6
// "Deduplication tool"). The tool's own behavior is out of scope; this
// package only owns the invocation and log capture contract.
package dedupe

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
)

// ToolName is the external binary invoked on the destination subtrees.
// Overridable via Options.ToolPath for tests and alternate installs.
const ToolName = "hardlink-dedupe"

// Options configures one dedupe invocation.
type Options struct {
	ToolPath  string // defaults to ToolName, resolved via PATH
	Subtrees  []string
	DryRun    bool
	RunLogDir string
}

// Result names the three captured log files and the tool's exit code.
type Result struct {
	ReportLog       string
	ActionTraceLog  string
	SpaceSavingsLog string
	ExitCode        int
}

// Run invokes the deduplication tool over opts.Subtrees with
// "--log-dir RunLogDir" (preceded by "--dry-run" when opts.DryRun is set).
// The tool's stdout is captured to the report log and its stderr to the
// per-action trace log. The space-savings summary is left to the tool to
// write into RunLogDir; if it is absent after the tool exits, Run writes a
// one-line placeholder there.
func Run(ctx context.Context, opts Options) (Result, error) {
	tool := opts.ToolPath
	if tool == "" {
		tool = ToolName
	}

	if _, err := exec.LookPath(tool); err != nil {
		return Result{}, err
	}

	result := Result{
		ReportLog:       filepath.Join(opts.RunLogDir, "dedupe_report.log"),
		ActionTraceLog:  filepath.Join(opts.RunLogDir, "dedupe_actions.log"),
		SpaceSavingsLog: filepath.Join(opts.RunLogDir, "dedupe_space_savings.log"),
	}

	args := append([]string{"--log-dir", opts.RunLogDir}, opts.Subtrees...)
	if opts.DryRun {
		args = append([]string{"--dry-run"}, args...)
	}

	cmd := exec.CommandContext(ctx, tool, args...)

	reportFile, err := os.Create(result.ReportLog)
	if err != nil {
		return result, err
	}
	defer reportFile.Close()
	cmd.Stdout = reportFile

	actionFile, err := os.Create(result.ActionTraceLog)
	if err != nil {
		return result, err
	}
	defer actionFile.Close()
	cmd.Stderr = actionFile

	runErr := cmd.Run()
	result.ExitCode = cmd.ProcessState.ExitCode()

	if _, statErr := os.Stat(result.SpaceSavingsLog); statErr != nil {
		_ = os.WriteFile(result.SpaceSavingsLog, []byte("no space-savings summary emitted by "+tool+"\n"), 0o660)
	}

	return result, runErr
}
