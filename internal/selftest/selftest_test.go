package selftest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunPassesAgainstTheRealPackages(t *testing.T) {
	a := assert.New(t)

	result := Run()
	for _, c := range result.Checks {
		a.True(c.OK, "%s: %s", c.Name, c.Err)
	}
	a.True(result.OK)
	a.Len(result.Checks, 4)
}

func TestReportIncludesEveryCheckName(t *testing.T) {
	a := assert.New(t)

	result := Run()
	report := result.Report()
	for _, c := range result.Checks {
		a.Contains(report, c.Name)
	}
	a.Contains(report, "self-test passed")
}
