package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"path/filepath"
	"slices"

	"github.com/shibukawa/snapgram"
	"github.com/shibukawa/snapgram/grammarfile"
	"github.com/shibukawa/snapgram/langs/calc"
	"github.com/shibukawa/snapgram/store"
	"github.com/shibukawa/snapgram/suggest"
)

// builtins are the languages selectable by name.
var builtins = map[string]func(opts ...snapgram.Option) (*snapgram.Engine, error){
	calc.Name: calc.New,
}

// loadConfig reads the configuration and applies command line overrides.
func loadConfig(ctx *Context) (*snapgram.Config, error) {
	config, err := snapgram.LoadConfig(ctx.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if ctx.Grammar != "" {
		config.Grammar = ctx.Grammar
	}

	return config, nil
}

// newLogger builds the diagnostic logger. --verbose lowers the level to debug
// and --quiet raises it to error.
func newLogger(config *snapgram.Config, ctx *Context) (*slog.Logger, error) {
	level, err := snapgram.ParseLogLevel(config.Log.Level)
	if err != nil {
		return nil, err
	}

	switch {
	case ctx.Verbose:
		level = slog.LevelDebug
	case ctx.Quiet:
		level = slog.LevelError
	}

	options := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if config.Log.Format == "json" {
		handler = slog.NewJSONHandler(ctx.Stderr, options)
	} else {
		handler = slog.NewTextHandler(ctx.Stderr, options)
	}

	return slog.New(handler), nil
}

// newEngine creates the engine selected by the configuration. The caller owns
// the returned engine and must close it.
func newEngine(ctx context.Context, config *snapgram.Config, logger *slog.Logger) (*snapgram.Engine, error) {
	s, err := store.OpenConfigured(ctx, config.Store.Driver, config.Store.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open identifier store: %w", err)
	}

	logger.With(slog.String("component", "store")).DebugContext(ctx, "identifier store opened",
		slog.String("driver", store.NormalizeDriver(config.Store.Driver)))

	opts := []snapgram.Option{
		snapgram.WithLogger(logger),
		snapgram.WithStore(s),
		snapgram.WithMaxDepth(config.Limits.MaxParseDepth),
		snapgram.WithMaxEvalDepth(config.Limits.MaxEvalDepth),
	}

	engine, err := createEngine(config.Grammar, opts)
	if err != nil {
		_ = s.Close()
		return nil, err
	}

	logger.DebugContext(ctx, "engine ready",
		slog.String("grammar", config.Grammar))

	return engine, nil
}

func createEngine(grammar string, opts []snapgram.Option) (*snapgram.Engine, error) {
	if create, ok := builtins[grammar]; ok {
		return create(opts...)
	}

	if filepath.Ext(grammar) != "" {
		def, err := grammarfile.Load(grammar)
		if err != nil {
			return nil, err
		}

		return def.Engine(opts...)
	}

	names := slices.Sorted(maps.Keys(builtins))

	return nil, fmt.Errorf("%w: %s%s", snapgram.ErrUnknownLanguage, grammar, suggest.Hint(grammar, names))
}

// setup loads everything a command needs.
func setup(ctx *Context) (*snapgram.Config, *snapgram.Engine, error) {
	config, err := loadConfig(ctx)
	if err != nil {
		return nil, nil, err
	}

	logger, err := newLogger(config, ctx)
	if err != nil {
		return nil, nil, err
	}

	engine, err := newEngine(context.Background(), config, logger)
	if err != nil {
		return nil, nil, err
	}

	return config, engine, nil
}

func closeEngine(engine *snapgram.Engine, w io.Writer) {
	if err := engine.Close(); err != nil {
		fmt.Fprintf(w, "failed to close identifier store: %v\n", err)
	}
}
