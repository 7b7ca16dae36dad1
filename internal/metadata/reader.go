// Package metadata implements the Metadata Reader (spec.md §4.3): size,
// UTC mtime, SHA-256, and the Windows creation time recovered from native
// birth time or NTFS extended attributes carried over from the source
// volumes.
package metadata

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mutagen-io/extstat"
	"github.com/pkg/xattr"

	"github.com/R0bert0r/Data-Consolidation/internal/model"
)

const (
	xattrCreateTimeBE = "system.ntfs_crtime_be"
	xattrCreateTime   = "system.ntfs_crtime"

	// windowsEpochDeltaSeconds is the offset between the Windows FILETIME
	// epoch (1601-01-01 UTC) and the Unix epoch, in seconds.
	windowsEpochDeltaSeconds = 11644473600
	filetimeUnitsPerSecond   = 10000000
)

// readChunkSize matches the Hash Sampler's streamed-read size (spec.md §4.6).
const readChunkSize = 1 << 20 // 1 MiB

// SHA256File hashes the full content stream of path, reading in 1 MiB
// chunks.
func SHA256File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, readChunkSize)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Read derives the full File Record for path: size, UTC mtime, SHA-256,
// and Windows creation time with its status.
func Read(absPath, relPath string) (model.FileRecord, error) {
	info, err := os.Stat(absPath)
	if err != nil {
		return model.FileRecord{}, err
	}

	sum, err := SHA256File(absPath)
	if err != nil {
		return model.FileRecord{}, err
	}

	createTime, status := readCreateTime(absPath)

	return model.FileRecord{
		AbsPath:          absPath,
		RelPath:          relPath,
		Size:             info.Size(),
		MTimeUTC:         formatUTC(info.ModTime()),
		SHA256:           sum,
		CreateTimeUTC:    createTime,
		CreateTimeStatus: status,
	}, nil
}

func formatUTC(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format("2006-01-02T15:04:05Z")
}

// readCreateTime probes, in order: native birth time, then the
// system.ntfs_crtime_be xattr, then the system.ntfs_crtime xattr; both
// xattrs are decoded the same way, as big-endian FILETIME hex (spec.md §4.3).
func readCreateTime(absPath string) (string, model.CreateTimeStatus) {
	if t, ok := nativeBirthTime(absPath); ok {
		return formatUTC(t), model.ECreateTimeStatus.OK()
	}

	if raw, err := xattr.LGet(absPath, xattrCreateTimeBE); err == nil {
		if t, parseErr := decodeFiletimeHex(raw); parseErr == nil {
			return formatUTC(t), model.ECreateTimeStatus.OK()
		}
		return "", model.ECreateTimeStatus.ParseError()
	}

	if raw, err := xattr.LGet(absPath, xattrCreateTime); err == nil {
		if t, parseErr := decodeFiletimeHex(raw); parseErr == nil {
			return formatUTC(t), model.ECreateTimeStatus.OK()
		}
		return "", model.ECreateTimeStatus.ParseError()
	}

	return "", model.ECreateTimeStatus.Missing()
}

// nativeBirthTime uses the cross-platform extended-stat probe for a birth
// time, returning ok=false if the host filesystem reports none or a
// non-positive value.
func nativeBirthTime(absPath string) (time.Time, bool) {
	st, err := extstat.NewFromFileName(absPath)
	if err != nil {
		return time.Time{}, false
	}
	if st.BirthTime.IsZero() || st.BirthTime.Unix() <= 0 {
		return time.Time{}, false
	}
	return st.BirthTime, true
}

// decodeFiletimeHex decodes a hex-encoded (optionally "0x"-prefixed)
// 64-bit big-endian Windows FILETIME xattr value into a UTC time. Values
// longer than 16 hex digits use only the trailing 16, per spec.md §4.3.
func decodeFiletimeHex(raw []byte) (time.Time, error) {
	s := strings.TrimSpace(string(raw))
	s = strings.TrimPrefix(s, "0x")
	s = strings.TrimPrefix(s, "0X")
	if len(s) > 16 {
		s = s[len(s)-16:]
	}

	b, err := hex.DecodeString(s)
	if err != nil {
		return time.Time{}, errInvalidFiletime
	}
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}

	seconds := int64(v/filetimeUnitsPerSecond) - windowsEpochDeltaSeconds
	if seconds <= 0 {
		return time.Time{}, errInvalidFiletime
	}
	return time.Unix(seconds, 0).UTC(), nil
}

var errInvalidFiletime = errors.New("invalid windows filetime encoding")
