package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
)

// Version is the released version of the command.
const Version = "v0.1.0"

// Context represents the global context for commands
type Context struct {
	Config  string
	Grammar string
	Verbose bool
	Quiet   bool

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// CLI represents the command-line interface
var CLI struct {
	Config   string      `help:"Configuration file path" default:"snapgram.yaml"`
	Grammar  string      `help:"Builtin language name or grammar file; overrides the configuration" short:"g"`
	Verbose  bool        `help:"Enable verbose output" short:"v"`
	Quiet    bool        `help:"Suppress output" short:"q"`
	Repl     ReplCmd     `cmd:"" default:"1" help:"Start an interactive session"`
	Eval     EvalCmd     `cmd:"" help:"Evaluate expressions"`
	Parse    ParseCmd    `cmd:"" help:"Print the parse tree of an expression"`
	Check    CheckCmd    `cmd:"" help:"Check recorded sessions in Markdown files"`
	Validate ValidateCmd `cmd:"" help:"Validate the grammar and its operations"`
	Version  VersionCmd  `cmd:"" help:"Show version information"`
}

// VersionCmd represents the version command
type VersionCmd struct{}

// Run executes the version command
func (cmd *VersionCmd) Run(ctx *Context) error {
	fmt.Fprintf(ctx.Stdout, "snapgram %s\n", Version)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("snapgram"),
		kong.Description("Define a grammar, parse text with it and evaluate the tree."),
	)

	appCtx := &Context{
		Config:  CLI.Config,
		Grammar: CLI.Grammar,
		Verbose: CLI.Verbose,
		Quiet:   CLI.Quiet,
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}

	err := ctx.Run(appCtx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
