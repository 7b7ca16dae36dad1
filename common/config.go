package common

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Environment holds the three hard-coded absolute volume roots and the
// default run-directory location (spec.md §6 "Environment"). Compiled-in
// defaults apply unless overridden by an optional --config TOML file, the
// way onedrive-go's internal/config layers a decoded file over
// DefaultConfig().
type Environment struct {
	UNOERoot       string `toml:"unoe_root"`
	DOSERoot       string `toml:"dose_root"`
	UNORoot        string `toml:"uno_root"`
	RunDirRelative string `toml:"run_dir_relative"` // relative to UNORoot
}

// DefaultEnvironment returns the compiled-in absolute paths this pipeline
// targets in production. These are intentionally literal, not derived, per
// spec.md §6: "Three hard-coded absolute paths for the source and
// destination volume roots."
func DefaultEnvironment() Environment {
	return Environment{
		UNOERoot:       "/mnt/UNOE",
		DOSERoot:       "/mnt/DOSE",
		UNORoot:        "/mnt/UNO",
		RunDirRelative: filepath.Join("90_System_Artifacts", "Consolidation_Logs"),
	}
}

// LoadEnvironment starts from DefaultEnvironment and, if configPath is
// non-empty, decodes a TOML file over it. Unknown keys are not an error
// here (unlike onedrive-go's strict decode) since this file only ever
// overrides the three volume roots and the run-directory location.
func LoadEnvironment(configPath string) (Environment, error) {
	env := DefaultEnvironment()
	if configPath == "" {
		return env, nil
	}

	if _, err := os.Stat(configPath); err != nil {
		return env, fmt.Errorf("reading config file %s: %w", configPath, err)
	}

	if _, err := toml.DecodeFile(configPath, &env); err != nil {
		return env, fmt.Errorf("parsing config file %s: %w", configPath, err)
	}
	return env, nil
}

// RunDir returns the run directory for runID, honoring an explicit
// override (--log-dir) over the environment's default location under the
// destination volume.
func (e Environment) RunDir(runID, override string) string {
	if override != "" {
		return filepath.Join(override, runID)
	}
	return filepath.Join(e.UNORoot, e.RunDirRelative, runID)
}
