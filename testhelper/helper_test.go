package testhelper

import (
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestTrimIndent(t *testing.T) {
	actual := TrimIndent(t, `
		rules:
		  - name: EXPR
			lambda: default
		`)

	assert.Equal(t, "rules:\n  - name: EXPR\n    lambda: default\n", actual)
}

func TestTrimIndentSingleLine(t *testing.T) {
	assert.Equal(t, "one line", TrimIndent(t, "one line"))
}

func fixture(t *testing.T) string {
	t.Helper()
	return GetCaller(t)
}

func TestGetCaller(t *testing.T) {
	location := fixture(t)
	assert.True(t, strings.HasPrefix(location, "(helper_test.go:"), location)
}
