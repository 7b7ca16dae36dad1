package common

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogLevelStringUsesSymbolName(t *testing.T) {
	a := assert.New(t)

	a.Equal("Info", LogInfo.String())
	a.Equal("Error", LogError.String())
}

func TestLogLevelParseIsCaseInsensitive(t *testing.T) {
	a := assert.New(t)

	var ll LogLevel
	a.NoError(ll.Parse("debug"))
	a.Equal(LogDebug, ll)

	a.NoError(ll.Parse("WARNING"))
	a.Equal(LogWarning, ll)
}

func TestLogLevelParseRejectsUnknownSymbol(t *testing.T) {
	a := assert.New(t)

	var ll LogLevel
	a.Error(ll.Parse("not-a-level"))
}

func TestEnumSymbolsVisitsEveryLogLevel(t *testing.T) {
	a := assert.New(t)

	seen := map[string]bool{}
	EnumHelper{}.EnumSymbols(reflect.TypeOf(LogLevel(0)), func(name string, value interface{}) bool {
		seen[name] = true
		return false
	})

	for _, want := range []string{"None", "Error", "Warning", "Info", "Debug"} {
		a.True(seen[want], "expected to see symbol %q", want)
	}
}
