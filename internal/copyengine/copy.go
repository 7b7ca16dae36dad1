// Package copyengine implements the Copy Engine (spec.md §4.2): mirrors a
// source subtree into a destination subtree in one of two modes, leaving
// destination/destination collisions for the Collision Resolver.
package copyengine

import (
	"context"
	"io"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/R0bert0r/Data-Consolidation/common"
	"github.com/R0bert0r/Data-Consolidation/internal/model"
	"github.com/R0bert0r/Data-Consolidation/internal/taxonomy"
	"github.com/R0bert0r/Data-Consolidation/parallel"
)

// Mode selects whether the engine seeds a destination bucket from scratch
// or layers a second source on top of one already seeded.
type Mode string

var EMode = Mode("").Authoritative()

// Authoritative is used when copying from the first source (UNOE): every
// file is written, replacing whatever already exists at its destination
// path.
func (Mode) Authoritative() Mode { return Mode("authoritative") }

// Overlay is used when layering the second source (DOSE) atop a bucket an
// authoritative pass already populated: an existing destination file is
// never overwritten here — that path is deferred to the Collision Resolver.
func (Mode) Overlay() Mode { return Mode("overlay") }

func (m Mode) String() string { return string(m) }

const (
	dirPerm  os.FileMode = 0o2775 // rwxrwsr-x, setgid
	filePerm os.FileMode = 0o660  // rw-rw----
)

// ownerUser/ownerGroup name the design-level destination owner (spec.md
// §4.2). Chown is attempted best-effort and never fails the copy: a
// consolidation host without this account still gets correct content and
// mode bits, just not this ownership.
const (
	ownerUser  = "tom"
	ownerGroup = "sambashare"
)

// Result summarizes one Mirror invocation for the run log and run summary.
type Result struct {
	FilesWritten    int
	FilesSkipped    int // overlay mode: destination already present
	DirsCreated     int
	UnreadableCount int
}

// Mirror walks srcRoot and reproduces its structure under destRoot.
// Parallelism bounds concurrent directory fan-out (via parallel.Walk); file
// writes happen synchronously within each directory's walk goroutine, since
// a single collision-free destination tree gives no benefit to writing the
// same directory's files concurrently with each other.
func Mirror(ctx context.Context, srcRoot, destRoot string, origin model.Origin, mode Mode, parallelism int, dryRun bool, logger common.ILogger) (Result, error) {
	var (
		mu      sync.Mutex
		result  Result
		skipped []string
	)

	logger.Log(common.LogInfo, "mirroring "+srcRoot+" -> "+destRoot+" ("+origin.String()+", "+mode.String()+")")

	uid, gid, haveOwner := lookupOwner()

	isUnderSkipped := func(path string) bool {
		mu.Lock()
		defer mu.Unlock()
		for _, root := range skipped {
			if path == root || strings.HasPrefix(path, root+string(filepath.Separator)) {
				return true
			}
		}
		return false
	}
	markSkipped := func(path string) {
		mu.Lock()
		skipped = append(skipped, path)
		mu.Unlock()
	}

	walkFn := func(path string, info os.FileInfo, err error) error {
		if err != nil {
			mu.Lock()
			result.UnreadableCount++
			mu.Unlock()
			logger.Log(common.LogWarning, common.Wrapf(common.ErrUnreadableSourceEntry, "%s", path).Error())
			return nil
		}

		base := filepath.Base(path)
		if taxonomy.IsExcluded(base) {
			markSkipped(path)
			return nil
		}
		if isUnderSkipped(path) {
			return nil
		}

		relPath, relErr := filepath.Rel(srcRoot, path)
		if relErr != nil {
			return nil
		}
		destPath := filepath.Join(destRoot, relPath)

		if info.IsDir() {
			if !dryRun {
				if err := os.MkdirAll(destPath, dirPerm); err != nil {
					return common.Wrapf(common.ErrDestinationWriteFailure, "creating directory %s", destPath)
				}
				chown(destPath, uid, gid, haveOwner)
			}
			mu.Lock()
			result.DirsCreated++
			mu.Unlock()
			return nil
		}

		if mode == EMode.Overlay() {
			if _, statErr := os.Stat(destPath); statErr == nil {
				mu.Lock()
				result.FilesSkipped++
				mu.Unlock()
				return nil
			}
		}

		if dryRun {
			mu.Lock()
			result.FilesWritten++
			mu.Unlock()
			return nil
		}

		if err := copyFile(path, destPath, info); err != nil {
			return common.Wrapf(common.ErrDestinationWriteFailure, "copying %s to %s", path, destPath)
		}
		chown(destPath, uid, gid, haveOwner)

		mu.Lock()
		result.FilesWritten++
		mu.Unlock()
		return nil
	}

	if !dryRun {
		if err := os.MkdirAll(destRoot, dirPerm); err != nil {
			return result, common.Wrapf(common.ErrDestinationWriteFailure, "creating destination root %s", destRoot)
		}
	}

	if err := parallel.Walk(ctx, srcRoot, parallelism, walkFn); err != nil {
		return result, err
	}
	return result, nil
}

func lookupOwner() (uid, gid int, ok bool) {
	u, err := user.Lookup(ownerUser)
	if err != nil {
		return 0, 0, false
	}
	g, err := user.LookupGroup(ownerGroup)
	if err != nil {
		return 0, 0, false
	}
	uidN, err1 := strconv.Atoi(u.Uid)
	gidN, err2 := strconv.Atoi(g.Gid)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return uidN, gidN, true
}

func chown(path string, uid, gid int, ok bool) {
	if !ok {
		return
	}
	_ = os.Chown(path, uid, gid)
}

// copyFile writes src's content to dst, creating intermediate directories
// and preserving src's modification time.
func copyFile(src, dst string, info os.FileInfo) error {
	if err := os.MkdirAll(filepath.Dir(dst), dirPerm); err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, filePerm)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}
