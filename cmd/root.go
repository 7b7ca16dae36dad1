// Package cmd wires the single cobra entry point named in spec.md §6:
// one root command, no subcommand tree, exactly the flag contract the
// pipeline promises.
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/R0bert0r/Data-Consolidation/common"
	"github.com/R0bert0r/Data-Consolidation/internal/phases"
	"github.com/R0bert0r/Data-Consolidation/internal/selftest"
)

var (
	flagDryRun   bool
	flagPhase    string
	flagRunID    string
	flagLogDir   string
	flagConfig   string
	flagSelfTest bool
)

// Execute builds and runs the root command against os.Args.
func Execute() int {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		return 1
	}
	return exitCode
}

// exitCode lets RunE report something other than 0/1 (the manifest-apply
// tool's exit code 2 is out of scope here, but the slot is kept for a
// phase that someday needs it).
var exitCode int

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "consolidate",
		Short: "Merge two source volumes into one taxonomy-organized destination volume",
		RunE:  runRoot,
	}

	root.Flags().BoolVar(&flagDryRun, "dry-run", false, "no destructive operations in copy/resolve/dedupe/manifest phases")
	root.Flags().StringVar(&flagPhase, "phase", phases.PhaseAll, "phase to run: one of the nine phase identifiers, or \"all\"")
	root.Flags().StringVar(&flagRunID, "run-id", defaultRunID(), "run identifier; reused to continue an existing run directory")
	root.Flags().StringVar(&flagLogDir, "log-dir", "", "override the default run directory location")
	root.Flags().StringVar(&flagConfig, "config", "", "optional TOML file overriding the compiled-in volume roots")
	root.Flags().BoolVar(&flagSelfTest, "self-test", false, "run a lightweight CSV/taxonomy self-check without touching the volumes")

	return root
}

func defaultRunID() string {
	return time.Now().UTC().Format("2006-01-02_150405")
}

func runRoot(cmd *cobra.Command, args []string) error {
	if flagSelfTest {
		result := selftest.Run()
		fmt.Fprintln(cmd.OutOrStdout(), result.Report())
		if !result.OK {
			exitCode = 1
			return fmt.Errorf("self-test failed")
		}
		return nil
	}

	env, err := common.LoadEnvironment(flagConfig)
	if err != nil {
		return err
	}

	runDir := env.RunDir(flagRunID, flagLogDir)
	logger, err := common.NewRunLogger(flagRunID, runDir, common.LogInfo)
	if err != nil {
		return err
	}
	defer logger.CloseLog()

	controller, err := phases.New(env, flagRunID, flagLogDir, flagDryRun, defaultParallelism(), logger)
	if err != nil {
		logger.Log(common.LogError, err.Error())
		return err
	}

	ctx := context.Background()
	if err := controller.RunPhase(ctx, flagPhase); err != nil {
		logger.Log(common.LogError, fmt.Sprintf("aborted during %q: %v (run directory: %s)", controller.CurrentAction, err, controller.RunDir))
		exitCode = 1
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "run directory:", controller.RunDir)
	return nil
}

func defaultParallelism() int {
	n := os.Getenv("CONSOLIDATE_PARALLELISM")
	if n == "" {
		return 8
	}
	var v int
	if _, err := fmt.Sscanf(n, "%d", &v); err != nil || v < 1 {
		return 8
	}
	return v
}
