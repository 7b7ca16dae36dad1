package collision

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/R0bert0r/Data-Consolidation/internal/model"
)

func sampleResolution(dest string) model.CollisionResolutionRow {
	return model.CollisionResolutionRow{
		DestPath:       dest,
		Classification: model.EClassification.Conflict(),
		ChosenAction:   model.EAction.ReplaceWithNewest(),
		UNOEPath:       "/mnt/UNOE/Pictures/x.jpg",
		UNOESize:       10,
		UNOEMTimeUTC:   "2020-01-01T00:00:00Z",
		UNOESHA256:     "aa",
		DOSEPath:       "/mnt/DOSE/Pictures/x.jpg",
		DOSESize:       20,
		DOSEMTimeUTC:   "2020-01-02T00:00:00Z",
		DOSESHA256:     "bb",
		ResultingPaths: dest,
	}
}

func TestOpenLogWritesHeaderOnce(t *testing.T) {
	r := require.New(t)

	path := filepath.Join(t.TempDir(), "resolutions.csv")
	log, err := OpenLog(path)
	r.NoError(err)
	r.NoError(log.Close())

	log2, err := OpenLog(path)
	r.NoError(err)
	r.NoError(log2.Append(sampleResolution("a.jpg")))
	r.NoError(log2.Close())

	rows, err := ReadAllResolutions(path)
	r.NoError(err)
	r.Len(rows, 1)
}

func TestReadAllResolutionsRoundTrip(t *testing.T) {
	r := require.New(t)

	path := filepath.Join(t.TempDir(), "resolutions.csv")
	log, err := OpenLog(path)
	r.NoError(err)
	r.NoError(log.Append(sampleResolution("a.jpg")))
	r.NoError(log.Append(sampleResolution("b.jpg")))
	r.NoError(log.Close())

	rows, err := ReadAllResolutions(path)
	r.NoError(err)
	r.Len(rows, 2)
	r.Equal("a.jpg", rows[0].DestPath)
	r.Equal("b.jpg", rows[1].DestPath)
}

func TestReadAllResolutionsMissingFile(t *testing.T) {
	r := require.New(t)

	rows, err := ReadAllResolutions(filepath.Join(t.TempDir(), "missing.csv"))
	r.NoError(err)
	r.Nil(rows)
}

func TestAppendQuotesTrailingWhitespaceField(t *testing.T) {
	r := require.New(t)

	path := filepath.Join(t.TempDir(), "resolutions.csv")
	log, err := OpenLog(path)
	r.NoError(err)
	row := sampleResolution("a.jpg")
	row.ResultingPaths = "a.jpg "
	r.NoError(log.Append(row))
	r.NoError(log.Close())

	rows, err := ReadAllResolutions(path)
	r.NoError(err)
	r.Len(rows, 1)
	r.Equal("a.jpg ", rows[0].ResultingPaths, "trailing whitespace must survive the CSV round trip")
}
