package repl

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/shibukawa/snapgram"
	"github.com/shibukawa/snapgram/langs/calc"
	"github.com/shibukawa/snapgram/testhelper"
)

func runSession(t *testing.T, input string, opts ...Option) string {
	t.Helper()

	e, err := calc.New()
	assert.NoError(t, err)

	var out bytes.Buffer

	session := New(e, NewScannerReader(strings.NewReader(input), nil), &out, append([]Option{WithColor(false)}, opts...)...)
	assert.NoError(t, session.Run(context.Background()))

	return out.String()
}

func TestSession(t *testing.T) {
	actual := runSession(t, testhelper.TrimIndent(t, `
		(2 + 3) * 4

		x = 7 / 2
		x * 2
		1 / 0
		1 +
		:vars
		:ast 1 + 2
		exit
		99
		`))

	expected := testhelper.TrimIndent(t, `
		20
		7
		error: division by zero
		parse error: unexpected trailing input at 1:2: " +"
		x = 3.5 (float)
		( int:1 op:+ int:2 )
		`)

	assert.Equal(t, expected, actual)
}

func TestSessionCommands(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"no identifiers", ":vars\n", "no identifiers\n"},
		{"ast usage", ":ast\n", "usage: :ast <input>\n"},
		{"ast parse error", ":ast *\n", "parse error: "},
		{"unknown command", ":varz\n", "unknown command :varz (did you mean :vars?)\n"},
		{"help", ":help\n", ":vars          list assigned identifiers"},
		{"quit", ":quit\n1\n", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actual := runSession(t, tt.input)
			if tt.expected == "" {
				assert.Equal(t, "", actual)
			} else {
				assert.Contains(t, actual, tt.expected)
			}
		})
	}
}

func TestSessionEchoesPrompt(t *testing.T) {
	e, err := calc.New()
	assert.NoError(t, err)

	var out bytes.Buffer

	session := New(e, NewScannerReader(strings.NewReader("1+1\n"), &out), &out, WithColor(false), WithPrompt("calc> "))
	assert.NoError(t, session.Run(context.Background()))
	assert.Equal(t, "calc> 2\ncalc> ", out.String())
}

func TestSessionLogsSessionID(t *testing.T) {
	var logs bytes.Buffer

	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	e, err := calc.New(snapgram.WithLogger(logger))
	assert.NoError(t, err)

	session := New(e, NewScannerReader(strings.NewReader("1\n"), nil), &bytes.Buffer{}, WithColor(false))
	assert.NoError(t, session.Run(context.Background()))

	assert.Contains(t, logs.String(), "session="+session.ID.String())
	assert.Contains(t, logs.String(), "component=repl")
	assert.Contains(t, logs.String(), "msg=\"session started\"")
}

func TestSessionStopsOnCancel(t *testing.T) {
	e, err := calc.New()
	assert.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	session := New(e, NewScannerReader(strings.NewReader("1\n"), nil), &bytes.Buffer{})
	assert.IsError(t, session.Run(ctx), context.Canceled)
}
