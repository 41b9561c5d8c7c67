// Package repl runs an interactive read-evaluate-print loop over an engine.
package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"

	"github.com/shibukawa/snapgram"
	"github.com/shibukawa/snapgram/eval"
	"github.com/shibukawa/snapgram/suggest"
)

var commands = []string{":ast", ":help", ":quit", ":vars"}

const help = `exit, :quit    end the session
:vars          list assigned identifiers
:ast <input>   show the parse tree of <input>
:help          show this help`

// Session is one interactive loop. A session is not safe for concurrent use.
type Session struct {
	ID uuid.UUID

	engine *snapgram.Engine
	in     LineReader
	out    io.Writer
	prompt string
	logger *slog.Logger

	valueColor *color.Color
	errorColor *color.Color
	noteColor  *color.Color
}

// Option configures a Session.
type Option func(*Session)

// WithPrompt replaces snapgram.DefaultPrompt.
func WithPrompt(prompt string) Option {
	return func(s *Session) {
		s.prompt = prompt
	}
}

// WithColor turns colored output off when enabled is false. When it is true,
// color follows the terminal detection of fatih/color.
func WithColor(enabled bool) Option {
	return func(s *Session) {
		if !enabled {
			s.valueColor.DisableColor()
			s.errorColor.DisableColor()
			s.noteColor.DisableColor()
		}
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// New creates a session reading from in and printing to out.
func New(engine *snapgram.Engine, in LineReader, out io.Writer, opts ...Option) *Session {
	s := &Session{
		ID:         uuid.New(),
		engine:     engine,
		in:         in,
		out:        out,
		prompt:     snapgram.DefaultPrompt,
		logger:     engine.Logger(),
		valueColor: color.New(color.FgGreen),
		errorColor: color.New(color.FgRed),
		noteColor:  color.New(color.FgYellow),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.logger = s.logger.With(slog.String("component", "repl"), slog.String("session", s.ID.String()))

	return s
}

// Run reads lines until the input ends or the user quits.
func (s *Session) Run(ctx context.Context) error {
	s.logger.InfoContext(ctx, "session started")
	defer s.logger.InfoContext(ctx, "session ended")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, err := s.in.ReadLine(s.prompt)
		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}

		if s.Handle(ctx, line) {
			return nil
		}
	}
}

// Handle processes one line and reports whether the session should end.
func (s *Session) Handle(ctx context.Context, line string) bool {
	input := strings.TrimSpace(line)

	switch {
	case input == "":
		return false
	case input == "exit" || input == ":quit" || input == ":q":
		return true
	case strings.HasPrefix(input, ":"):
		s.command(ctx, input)
		return false
	}

	s.in.AddHistory(input)
	s.logger.DebugContext(ctx, "input", slog.String("line", input))

	outcome, err := s.engine.Execute(ctx, input)

	text := Format(outcome, err)
	switch {
	case text == "":
	case err != nil || outcome.Result.IsError():
		s.errorColor.Fprintln(s.out, text)
	default:
		s.valueColor.Fprintln(s.out, text)
	}

	return false
}

// Format renders an executed line the way a session prints it: the value, or
// "error: <message>" for an Error result, or "parse error: <error>". It returns
// "" when nothing is printed.
func Format(outcome snapgram.Outcome, err error) string {
	if err != nil {
		return "parse error: " + err.Error()
	}

	switch outcome.Result.State() {
	case eval.ErrorState:
		return "error: " + outcome.Result.Message()
	case eval.NoValueState:
		return ""
	default:
		return outcome.Result.String()
	}
}

func (s *Session) command(ctx context.Context, input string) {
	name, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case ":vars":
		s.vars(ctx)
	case ":ast":
		if arg == "" {
			s.noteColor.Fprintln(s.out, "usage: :ast <input>")
			return
		}

		node, err := s.engine.Parse(arg)
		if err != nil {
			s.errorColor.Fprintf(s.out, "parse error: %v\n", err)
			return
		}

		fmt.Fprintln(s.out, node.String())
	case ":help":
		s.noteColor.Fprintln(s.out, help)
	default:
		s.noteColor.Fprintf(s.out, "unknown command %s%s\n", name, suggest.Hint(name, commands))
	}
}

func (s *Session) vars(ctx context.Context) {
	names, err := s.engine.Store().Names(ctx)
	if err != nil {
		s.errorColor.Fprintf(s.out, "error: %v\n", err)
		return
	}

	if len(names) == 0 {
		s.noteColor.Fprintln(s.out, "no identifiers")
		return
	}

	for _, name := range names {
		v, err := s.engine.Store().Get(ctx, name)
		if err != nil {
			s.errorColor.Fprintf(s.out, "error: %v\n", err)
			continue
		}

		fmt.Fprintf(s.out, "%s = %s (%s)\n", name, v, v.Kind())
	}
}
