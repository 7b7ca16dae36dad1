// Package provenance implements the Provenance Store (spec.md §4.4): an
// append-only CSV of per-destination attribution rows, written only for
// files whose recorded hash matches their source (spec.md §3).
package provenance

import (
	"bufio"
	"encoding/csv"
	"os"
	"strconv"
	"sync"

	"github.com/R0bert0r/Data-Consolidation/common"
	"github.com/R0bert0r/Data-Consolidation/internal/model"
)

var header = []string{
	"dest_path_relative_to_dest_root",
	"origin",
	"source_path",
	"src_create_time_utc",
	"create_time_status",
	"src_mtime_utc",
	"size_bytes",
	"sha256",
}

// Store is an append-only provenance CSV writer. Re-initialization is
// idempotent: an existing file with the expected header is reused, never
// rewritten in place (spec.md §4.4).
type Store struct {
	path   string
	mu     sync.Mutex
	file   *os.File
	writer *bufio.Writer
	logger common.ILogger
}

// Open creates path if absent (writing the header) or reuses it if the
// header already matches; any other existing content is an error, since
// this store is never rewritten.
func Open(path string, logger common.ILogger) (*Store, error) {
	existing, statErr := os.Stat(path)
	needsHeader := statErr != nil || existing.Size() == 0

	if !needsHeader {
		if ok, err := headerMatches(path); err != nil {
			return nil, err
		} else if !ok {
			return nil, common.Wrapf(common.ErrDestinationWriteFailure, "provenance store %s has unexpected header", path)
		}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o660)
	if err != nil {
		return nil, err
	}

	s := &Store{path: path, file: f, writer: bufio.NewWriter(f), logger: logger}
	if needsHeader {
		if err := common.WriteCSVRecord(s.writer, header); err != nil {
			f.Close()
			return nil, err
		}
		if err := s.writer.Flush(); err != nil {
			f.Close()
			return nil, err
		}
		if logger != nil {
			logger.Log(common.LogInfo, "provenance store created at "+path)
		}
	} else if logger != nil {
		logger.Log(common.LogInfo, "provenance store reused at "+path)
	}
	return s, nil
}

func headerMatches(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	got, err := r.Read()
	if err != nil {
		return false, err
	}
	if len(got) != len(header) {
		return false, nil
	}
	for i := range header {
		if got[i] != header[i] {
			return false, nil
		}
	}
	return true, nil
}

// Append writes one provenance row. Rows are never deleted or rewritten;
// duplicates for the same destination path are permitted and left for
// consumers to deduplicate (spec.md §4.4).
func (s *Store) Append(row model.ProvenanceRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := []string{
		row.DestPath,
		row.Origin.String(),
		row.SourcePath,
		row.SrcCreateTimeUTC,
		row.CreateTimeStatus.String(),
		row.SrcMTimeUTC,
		strconv.FormatInt(row.SizeBytes, 10),
		row.SHA256,
	}
	if err := common.WriteCSVRecord(s.writer, record); err != nil {
		return err
	}
	return s.writer.Flush()
}

// Close flushes and closes the underlying file.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writer.Flush(); err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}

// ReadAll reads every provenance row currently on disk. Used by the
// Creation-Time Manifest Builder, which only reads after the writing phase
// has completed (spec.md §5: writer/reader separation is by phase
// boundary).
func ReadAll(path string) ([]model.ProvenanceRow, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	out := make([]model.ProvenanceRow, 0, len(rows)-1)
	for _, rec := range rows[1:] {
		if len(rec) != len(header) {
			continue
		}
		size, _ := strconv.ParseInt(rec[6], 10, 64)
		out = append(out, model.ProvenanceRow{
			DestPath:         rec[0],
			Origin:           model.Origin(rec[1]),
			SourcePath:       rec[2],
			SrcCreateTimeUTC: rec[3],
			CreateTimeStatus: model.CreateTimeStatus(rec[4]),
			SrcMTimeUTC:      rec[5],
			SizeBytes:        size,
			SHA256:           rec[7],
		})
	}
	return out, nil
}
