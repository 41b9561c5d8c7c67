package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/shibukawa/snapgram/ast"
	"github.com/shibukawa/snapgram/repl"
	"github.com/shibukawa/snapgram/transcript"
)

// Sentinel errors
var (
	ErrEvaluationFailed  = errors.New("some expressions failed")
	ErrTranscriptFailed  = errors.New("some sessions did not match")
	ErrNoTranscriptFiles = errors.New("no transcript files given")
)

var (
	passFmt   = color.New(color.FgGreen).SprintfFunc()
	failFmt   = color.New(color.FgRed).SprintfFunc()
	headerFmt = color.New(color.FgBlue, color.Bold).SprintfFunc()
)

// ReplCmd represents the repl command
type ReplCmd struct {
	HistoryFile string `help:"History file for line editing" type:"path"`
	NoColor     bool   `help:"Disable colored output"`
}

// Run executes the repl command
func (cmd *ReplCmd) Run(ctx *Context) error {
	config, engine, err := setup(ctx)
	if err != nil {
		return err
	}
	defer closeEngine(engine, ctx.Stderr)

	historyFile := config.REPL.HistoryFile
	if cmd.HistoryFile != "" {
		historyFile = cmd.HistoryFile
	}

	var reader repl.LineReader
	if f, ok := ctx.Stdin.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		reader = repl.NewLinerReader(historyFile)
	} else {
		reader = repl.NewScannerReader(ctx.Stdin, nil)
	}
	defer reader.Close()

	if ctx.Verbose {
		color.Blue("Grammar: %s (type exit to quit, :help for commands)", config.Grammar)
	}

	session := repl.New(engine, reader, ctx.Stdout,
		repl.WithPrompt(config.REPL.Prompt),
		repl.WithColor(config.REPL.ColorEnabled() && !cmd.NoColor))

	return session.Run(context.Background())
}

// EvalCmd represents the eval command
type EvalCmd struct {
	Expressions []string `arg:"" help:"Expressions to evaluate in order"`
}

// Run executes the eval command. Expressions share identifiers.
func (cmd *EvalCmd) Run(ctx *Context) error {
	_, engine, err := setup(ctx)
	if err != nil {
		return err
	}
	defer closeEngine(engine, ctx.Stderr)

	failed := 0

	for _, expr := range cmd.Expressions {
		outcome, err := engine.Execute(context.Background(), expr)

		text := repl.Format(outcome, err)
		if err != nil || outcome.Result.IsError() {
			failed++

			fmt.Fprintln(ctx.Stderr, failFmt("%s", text))

			continue
		}

		if text != "" && !ctx.Quiet {
			fmt.Fprintln(ctx.Stdout, text)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrEvaluationFailed, failed, len(cmd.Expressions))
	}

	return nil
}

// ParseCmd represents the parse command
type ParseCmd struct {
	Expression string `arg:"" help:"Expression to parse"`
	Format     string `help:"Output format" default:"text" enum:"text,json,yaml,xml"`
}

// Run executes the parse command
func (cmd *ParseCmd) Run(ctx *Context) error {
	_, engine, err := setup(ctx)
	if err != nil {
		return err
	}
	defer closeEngine(engine, ctx.Stderr)

	format, err := ast.ParseFormat(cmd.Format)
	if err != nil {
		return err
	}

	node, err := engine.Parse(cmd.Expression)
	if err != nil {
		return err
	}

	return ast.Export(node, format, ctx.Stdout)
}

// CheckCmd represents the check command
type CheckCmd struct {
	Files []string `arg:"" optional:"" help:"Markdown files with session blocks" type:"existingfile"`
}

// Run executes the check command. Every file runs on a fresh engine.
func (cmd *CheckCmd) Run(ctx *Context) error {
	if len(cmd.Files) == 0 {
		return ErrNoTranscriptFiles
	}

	passed, failed := 0, 0

	for _, path := range cmd.Files {
		summary, err := checkFile(ctx, path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		passed += summary.Passed
		failed += summary.Failed

		if ctx.Quiet {
			continue
		}

		for _, r := range summary.Results {
			switch {
			case !r.Passed:
				fmt.Fprintln(ctx.Stdout, failFmt("FAIL %s:%d %s", path, r.Case.Line, r.Case.Input))
				fmt.Fprintf(ctx.Stdout, "     expected: %q\n", r.Case.Expected)
				fmt.Fprintf(ctx.Stdout, "     actual:   %q\n", r.Actual)
			case ctx.Verbose:
				fmt.Fprintln(ctx.Stdout, passFmt("PASS %s:%d %s", path, r.Case.Line, r.Case.Input))
			}
		}
	}

	if !ctx.Quiet {
		summaryFmt := passFmt
		if failed > 0 {
			summaryFmt = failFmt
		}

		fmt.Fprintln(ctx.Stdout, summaryFmt("%d passed, %d failed", passed, failed))
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d cases", ErrTranscriptFailed, failed)
	}

	return nil
}

func checkFile(ctx *Context, path string) (*transcript.Summary, error) {
	_, engine, err := setup(ctx)
	if err != nil {
		return nil, err
	}
	defer closeEngine(engine, ctx.Stderr)

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return transcript.Check(context.Background(), engine, f)
}

// ValidateCmd represents the validate command
type ValidateCmd struct{}

// Run executes the validate command. Engines are validated while they are
// built, so reaching the end means the grammar is valid.
func (cmd *ValidateCmd) Run(ctx *Context) error {
	config, engine, err := setup(ctx)
	if err != nil {
		return err
	}
	defer closeEngine(engine, ctx.Stderr)

	if ctx.Verbose {
		fmt.Fprintln(ctx.Stdout, headerFmt("tokens"))

		for _, tokenType := range engine.Lexer().Types() {
			def, _ := engine.Lexer().Definition(tokenType)
			fmt.Fprintf(ctx.Stdout, "  %-10s %s\n", tokenType, def.Pattern)
		}

		fmt.Fprintln(ctx.Stdout, headerFmt("rules"))

		for _, rule := range engine.Grammar().Rules() {
			fmt.Fprintf(ctx.Stdout, "  %-10s %s\n  %-10s => %s\n", rule.Name, rule.Expr, "", rule.Lambda)
		}
	}

	if !ctx.Quiet {
		fmt.Fprintln(ctx.Stdout, passFmt("grammar %s is valid", config.Grammar))
	}

	return nil
}
