package common

import "github.com/pkg/errors"

// Sentinel error kinds from the error-handling design (spec.md §7). Each
// local recovery site wraps one of these with pkg/errors so a caller can
// errors.Is() its way to the policy without string matching, while the
// wrap still carries a human-readable current-action label and a stack
// trace for anything that reaches the Phase Controller unwrapped.
var (
	ErrMissingTool                 = errors.New("missing_tool")
	ErrNotPrivileged                = errors.New("not_privileged")
	ErrUnreadableSourceEntry        = errors.New("unreadable_source_entry")
	ErrAttrParseError               = errors.New("attr_parse_error")
	ErrAttrMissing                  = errors.New("attr_missing")
	ErrHashMismatchProvenance       = errors.New("hash_mismatch_provenance")
	ErrDestructiveInDryRun          = errors.New("destructive_in_dry_run")
	ErrDestinationWriteFailure      = errors.New("destination_write_failure")
	ErrMissingProvenanceForManifest = errors.New("missing_provenance_for_manifest")
	ErrInvalidManifestHeaders       = errors.New("invalid_manifest_headers")
)

// Wrap attaches a current-action label to err using pkg/errors, the way
// the teacher wraps transfer failures before they reach its lifecycle
// manager. A nil err returns nil.
func Wrap(err error, label string) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, label)
}

// Wrapf is Wrap with a formatted label.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return errors.Wrapf(err, format, args...)
}
