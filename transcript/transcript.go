// Package transcript checks recorded sessions written in Markdown. Each fenced
// code block with the info string "session" holds prompts and the output they
// must print:
//
//	```session
//	@> x = 7 / 2
//	@> x * 2
//	7
//	@> 1 / 0
//	error: division by zero
//	```
package transcript

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"github.com/shibukawa/snapgram"
	"github.com/shibukawa/snapgram/repl"
)

// ErrMalformedSession is returned for session blocks that do not start with a
// prompt.
var ErrMalformedSession = errors.New("malformed session block")

// InfoString marks the fenced code blocks that hold sessions.
const InfoString = "session"

// Case is one prompt and its expected output.
type Case struct {
	// Section is the text of the nearest heading above the block.
	Section string
	// Line is the 1-based line of the prompt in the document.
	Line     int
	Input    string
	Expected []string
}

// Transcript is a parsed document.
type Transcript struct {
	Title string
	Cases []Case
}

// Result is the outcome of one case.
type Result struct {
	Case   Case
	Actual []string
	Passed bool
}

// Summary collects the results of a run.
type Summary struct {
	Results []Result
	Passed  int
	Failed  int
}

// OK reports whether every case passed.
func (s *Summary) OK() bool {
	return s.Failed == 0
}

// Parse reads a Markdown document.
func Parse(r io.Reader) (*Transcript, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read content: %w", err)
	}

	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	doc := md.Parser().Parse(text.NewReader(content))

	t := &Transcript{}

	var (
		section string
		errs    []error
	)

	err = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Heading:
			section = headingText(node, content)
			if node.Level == 1 && t.Title == "" {
				t.Title = section
			}

			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock:
			if strings.TrimSpace(string(node.Language(content))) != InfoString {
				return ast.WalkSkipChildren, nil
			}

			cases, err := parseBlock(node, content, section)
			if err != nil {
				errs = append(errs, err)
			}

			t.Cases = append(t.Cases, cases...)

			return ast.WalkSkipChildren, nil
		}

		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	return t, nil
}

func headingText(heading *ast.Heading, content []byte) string {
	var result strings.Builder

	for c := heading.FirstChild(); c != nil; c = c.NextSibling() {
		switch node := c.(type) {
		case *ast.Text:
			result.Write(node.Segment.Value(content))
		case *ast.String:
			result.Write(node.Value)
		case *ast.CodeSpan, *ast.Emphasis:
			for g := node.FirstChild(); g != nil; g = g.NextSibling() {
				if t, ok := g.(*ast.Text); ok {
					result.Write(t.Segment.Value(content))
				}
			}
		}
	}

	return strings.TrimSpace(result.String())
}

func parseBlock(block *ast.FencedCodeBlock, content []byte, section string) ([]Case, error) {
	var cases []Case

	lines := block.Lines()
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		line := strings.TrimRight(string(segment.Value(content)), "\r\n")
		lineNumber := bytes.Count(content[:segment.Start], []byte("\n")) + 1

		if input, ok := strings.CutPrefix(line, strings.TrimSpace(snapgram.DefaultPrompt)); ok {
			cases = append(cases, Case{
				Section: section,
				Line:    lineNumber,
				Input:   strings.TrimSpace(input),
			})

			continue
		}

		if strings.TrimSpace(line) == "" {
			continue
		}

		if len(cases) == 0 {
			return nil, fmt.Errorf("%w at line %d: output %q before the first prompt", ErrMalformedSession, lineNumber, line)
		}

		last := &cases[len(cases)-1]
		last.Expected = append(last.Expected, strings.TrimRight(line, " \t"))
	}

	return cases, nil
}

// Run executes every case in order on one session of e, so identifiers
// assigned by earlier cases are visible to later ones.
func (t *Transcript) Run(ctx context.Context, e *snapgram.Engine) *Summary {
	var out bytes.Buffer

	session := repl.New(e, repl.NewScannerReader(strings.NewReader(""), nil), &out, repl.WithColor(false))
	summary := &Summary{}

	for _, c := range t.Cases {
		out.Reset()
		session.Handle(ctx, c.Input)

		actual := outputLines(out.String())
		passed := slices.Equal(c.Expected, actual)

		if passed {
			summary.Passed++
		} else {
			summary.Failed++
		}

		summary.Results = append(summary.Results, Result{Case: c, Actual: actual, Passed: passed})
	}

	return summary
}

// Check parses a document and runs it.
func Check(ctx context.Context, e *snapgram.Engine, r io.Reader) (*Summary, error) {
	t, err := Parse(r)
	if err != nil {
		return nil, err
	}

	return t.Run(ctx, e), nil
}

func outputLines(s string) []string {
	var lines []string

	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimRight(line, " \t\r"); line != "" {
			lines = append(lines, line)
		}
	}

	return lines
}
