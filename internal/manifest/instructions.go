package manifest

import (
	"os"
	"text/template"
)

// instructionsTemplate is the human-readable apply-instructions file
// named in spec.md §6's persisted-state layout. The downstream tool that
// consumes the manifest is out of scope here; this only documents its
// input contract for whoever runs it.
const instructionsTemplate = `Creation-time manifest for run {{.RunID}}
=========================================

Manifest CSV:          {{.ManifestPath}}
Missing-creation-time:  {{.MissingPath}} ({{.MissingCount}} entries)

To apply these creation times to a live Windows share:

  1. Copy {{.ManifestPath}} to the machine that can reach the share.
  2. Run the separate manifest-apply tool, pointing it at the share root.
     It will look up each dest_path_relative_to_share under that root and
     set the file's creation time to the paired timestamp.
  3. The apply tool treats a timestamp within +/-2 seconds of the target
     as already applied (idempotence tolerance) and skips it.
  4. Entries listed in {{.MissingPath}} have no recoverable creation time
     and are left untouched; investigate the listed reason before
     re-running the pipeline if this count looks too high.

Exit code 2 from the apply tool means too many per-file failures; see its
own log for the list of paths it could not set.
`

// InstructionsData parameterizes the apply-instructions file.
type InstructionsData struct {
	RunID         string
	ManifestPath  string
	MissingPath   string
	MissingCount  int
}

var instructionsTmpl = template.Must(template.New("instructions").Parse(instructionsTemplate))

// WriteInstructions renders the apply-instructions file at path.
func WriteInstructions(path string, data InstructionsData) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return instructionsTmpl.Execute(f, data)
}
