package common

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVRecordLeavesPlainFieldsUnquoted(t *testing.T) {
	a := assert.New(t)

	a.Equal("a.jpg,42,deadbeef", CSVRecord([]string{"a.jpg", "42", "deadbeef"}))
}

func TestCSVRecordQuotesLeadingWhitespace(t *testing.T) {
	a := assert.New(t)

	a.Equal(`" leading",b`, CSVRecord([]string{" leading", "b"}))
}

func TestCSVRecordQuotesTrailingWhitespace(t *testing.T) {
	a := assert.New(t)

	// encoding/csv.Writer would leave this field unquoted; spec.md §4.4/§6
	// requires it quoted because it ends in whitespace.
	a.Equal(`"trailing ",b`, CSVRecord([]string{"trailing ", "b"}))
}

func TestCSVRecordQuotesAndEscapesEmbeddedQuote(t *testing.T) {
	a := assert.New(t)

	a.Equal(`"say ""hi""",b`, CSVRecord([]string{`say "hi"`, "b"}))
}

func TestCSVRecordQuotesEmbeddedComma(t *testing.T) {
	a := assert.New(t)

	a.Equal(`"a,b",c`, CSVRecord([]string{"a,b", "c"}))
}

func TestWriteCSVRecordTerminatesWithNewline(t *testing.T) {
	r := require.New(t)
	a := assert.New(t)

	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	r.NoError(WriteCSVRecord(w, []string{"a", "b "}))
	r.NoError(w.Flush())

	a.Equal("a,\"b \"\n", buf.String())
}
