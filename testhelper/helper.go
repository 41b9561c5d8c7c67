// Package testhelper has small utilities shared by package tests.
package testhelper

import (
	"regexp"
	"strings"
	"testing"
)

var (
	leadingSpaces = regexp.MustCompile(`^[ \t]+`)
	leadingTabs   = regexp.MustCompile(`^\t+`)
)

func expandTabs(match string) string {
	return strings.Repeat("    ", len(match))
}

// TrimIndent lets fixtures be written as indented raw strings. The first line
// (right after the opening backquote) is dropped, the indentation of the next
// line is removed from every line, remaining leading tabs become four spaces
// each, and a last line of only whitespace is dropped.
func TrimIndent(t *testing.T, src string) string {
	t.Helper()

	lines := strings.Split(src, "\n")
	if len(lines) < 2 {
		return src
	}

	lines = lines[1:]
	indent := leadingSpaces.FindString(lines[0])

	if last := len(lines) - 1; last > 0 && strings.TrimSpace(lines[last]) == "" {
		lines = lines[:last]
	}

	for i, line := range lines {
		line = strings.TrimPrefix(line, indent)
		lines[i] = leadingTabs.ReplaceAllStringFunc(line, expandTabs)
	}

	return strings.Join(lines, "\n") + "\n"
}
