package suggest

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestClosest(t *testing.T) {
	candidates := []string{"EXPR", "TERM", "FACTOR", "NUM"}

	tests := []struct {
		name     string
		target   string
		expected string
	}{
		{name: "subsequence", target: "fact", expected: "FACTOR"},
		{name: "typo", target: "TREM", expected: "TERM"},
		{name: "extra letter", target: "EXPRR", expected: "EXPR"},
		{name: "nothing close", target: "COMPLETELY_DIFFERENT", expected: ""},
		{name: "empty", target: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Closest(tt.target, candidates))
		})
	}
}

func TestHint(t *testing.T) {
	assert.Equal(t, " (did you mean add?)", Hint("ad", []string{"add", "neg"}))
	assert.Equal(t, "", Hint("zzz", []string{"add"}))
}
