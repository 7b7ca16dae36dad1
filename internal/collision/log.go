package collision

import (
	"bufio"
	"encoding/csv"
	"os"
	"strconv"
	"sync"

	"github.com/R0bert0r/Data-Consolidation/common"
	"github.com/R0bert0r/Data-Consolidation/internal/model"
)

var recordHeader = []string{
	"dest_path", "classification", "chosen_action",
	"unoe_path", "unoe_size", "unoe_mtime_utc", "unoe_sha256",
	"dose_path", "dose_size", "dose_mtime_utc", "dose_sha256",
	"resulting_paths",
}

// Log is an append-only CSV of Collision Records (spec.md §3) — used for
// both the candidates table and the resolutions table, which share a
// schema.
type Log struct {
	mu     sync.Mutex
	file   *os.File
	writer *bufio.Writer
}

// OpenLog creates path (writing the header) if absent, or reuses it.
func OpenLog(path string) (*Log, error) {
	existing, statErr := os.Stat(path)
	needsHeader := statErr != nil || existing.Size() == 0

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o660)
	if err != nil {
		return nil, err
	}
	l := &Log{file: f, writer: bufio.NewWriter(f)}
	if needsHeader {
		if err := common.WriteCSVRecord(l.writer, recordHeader); err != nil {
			f.Close()
			return nil, err
		}
		if err := l.writer.Flush(); err != nil {
			f.Close()
			return nil, err
		}
	}
	return l, nil
}

func (l *Log) Append(row model.CollisionCandidateRow) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec := []string{
		row.DestPath, row.Classification.String(), row.ChosenAction.String(),
		row.UNOEPath, strconv.FormatInt(row.UNOESize, 10), row.UNOEMTimeUTC, row.UNOESHA256,
		row.DOSEPath, strconv.FormatInt(row.DOSESize, 10), row.DOSEMTimeUTC, row.DOSESHA256,
		row.ResultingPaths,
	}
	if err := common.WriteCSVRecord(l.writer, rec); err != nil {
		return err
	}
	return l.writer.Flush()
}

func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.writer.Flush(); err != nil {
		l.file.Close()
		return err
	}
	return l.file.Close()
}

// ReadAllResolutions reads every resolution row on disk; used by the Hash
// Sampler, which only ever runs after resolution has completed.
func ReadAllResolutions(path string) ([]model.CollisionResolutionRow, error) {
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

	out := make([]model.CollisionResolutionRow, 0, len(rows)-1)
	for _, rec := range rows[1:] {
		if len(rec) != len(recordHeader) {
			continue
		}
		unoeSize, _ := strconv.ParseInt(rec[4], 10, 64)
		doseSize, _ := strconv.ParseInt(rec[8], 10, 64)
		out = append(out, model.CollisionResolutionRow{
			DestPath:       rec[0],
			Classification: model.Classification(rec[1]),
			ChosenAction:   model.Action(rec[2]),
			UNOEPath:       rec[3],
			UNOESize:       unoeSize,
			UNOEMTimeUTC:   rec[5],
			UNOESHA256:     rec[6],
			DOSEPath:       rec[7],
			DOSESize:       doseSize,
			DOSEMTimeUTC:   rec[9],
			DOSESHA256:     rec[10],
			ResultingPaths: rec[11],
		})
	}
	return out, nil
}
