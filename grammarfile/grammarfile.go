// Package grammarfile loads a language definition from a YAML or TOML document
// and installs it into a snapgram.Engine.
//
// A rule's lambda is either one instruction or a list with one instruction per
// alternative of the rule's expression:
//
//	name: calc
//	skip: '\s+'
//	tokens:
//	  - {type: int, pattern: '[0-9]+'}
//	  - {type: op, pattern: '[-+*/()]'}
//	rules:
//	  - name: EXPR
//	    expr: 'TERM <op "+"> EXPR | TERM'
//	    lambda: ['add(1,3)', default]
//	use: [arithmetic]
//	operations:
//	  max: 'a > b ? a : b'
package grammarfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-yaml"

	"github.com/shibukawa/snapgram"
	"github.com/shibukawa/snapgram/eval"
	"github.com/shibukawa/snapgram/grammar/notation"
	"github.com/shibukawa/snapgram/lambda"
	"github.com/shibukawa/snapgram/langs/calc"
	"github.com/shibukawa/snapgram/suggest"
)

// Sentinel errors
var (
	ErrUnknownFormat  = errors.New("unknown grammar file format")
	ErrDefinition     = errors.New("invalid grammar definition")
	ErrUnknownLibrary = errors.New("unknown operation library")
)

// Format is the syntax of a grammar file.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatOf picks the format from the file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
}

// Definition is a whole language.
type Definition struct {
	Name       string            `yaml:"name" toml:"name"`
	Skip       string            `yaml:"skip" toml:"skip"`
	Tokens     []TokenSpec       `yaml:"tokens" toml:"tokens"`
	Rules      []RuleSpec        `yaml:"rules" toml:"rules"`
	Use        []string          `yaml:"use" toml:"use"`
	Operations map[string]string `yaml:"operations" toml:"operations"`
}

// TokenSpec defines one token type. Tokens are tried in file order.
type TokenSpec struct {
	Type    string `yaml:"type" toml:"type"`
	Pattern string `yaml:"pattern" toml:"pattern"`
}

// RuleSpec defines one rule in grammar notation.
type RuleSpec struct {
	Name   string `yaml:"name" toml:"name"`
	Expr   string `yaml:"expr" toml:"expr"`
	Lambda Lambda `yaml:"lambda" toml:"lambda"`
}

// Lambda holds instruction notation. A single entry is one instruction; several
// entries form a choice, one per alternative.
type Lambda []string

// UnmarshalYAML accepts a string or a list of strings.
func (l *Lambda) UnmarshalYAML(unmarshal func(any) error) error {
	var one string
	if err := unmarshal(&one); err == nil {
		*l = Lambda{one}
		return nil
	}

	var many []string
	if err := unmarshal(&many); err != nil {
		return fmt.Errorf("lambda must be a string or a list of strings: %w", err)
	}

	*l = many

	return nil
}

// UnmarshalTOML accepts a string or an array of strings.
func (l *Lambda) UnmarshalTOML(data any) error {
	switch v := data.(type) {
	case string:
		*l = Lambda{v}
	case []any:
		many := make(Lambda, len(v))

		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return fmt.Errorf("lambda entry %d must be a string, got %T", i+1, item)
			}

			many[i] = s
		}

		*l = many
	default:
		return fmt.Errorf("lambda must be a string or an array of strings, got %T", data)
	}

	return nil
}

// Instruction parses the notation. An empty lambda is the default reduction.
func (l Lambda) Instruction() (lambda.Instruction, error) {
	switch len(l) {
	case 0:
		return lambda.Default{}, nil
	case 1:
		return notation.ParseInstruction(l[0])
	}

	alts := make([]lambda.Instruction, len(l))

	for i, src := range l {
		in, err := notation.ParseInstruction(src)
		if err != nil {
			return nil, fmt.Errorf("alternative %d: %w", i+1, err)
		}

		alts[i] = in
	}

	return lambda.Choice{Alternatives: alts}, nil
}

// libraries are operation sets a grammar file can pull in with "use".
var libraries = map[string]func(e *snapgram.Engine){
	"arithmetic":  func(e *snapgram.Engine) { eval.Arithmetic(e.Registry()) },
	"identifiers": calc.Identifiers,
}

// Libraries returns the names accepted by "use".
func Libraries() []string {
	names := make([]string, 0, len(libraries))
	for name := range libraries {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// Load reads a grammar file; the format comes from the extension.
func Load(path string) (*Definition, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read grammar file: %w", err)
	}

	def, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return def, nil
}

// Parse decodes a grammar document. Unknown keys are errors in both formats.
func Parse(data []byte, format Format) (*Definition, error) {
	var def Definition

	switch format {
	case FormatYAML:
		if err := yaml.UnmarshalWithOptions(data, &def, yaml.Strict()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDefinition, err)
		}
	case FormatTOML:
		md, err := toml.Decode(string(data), &def)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDefinition, err)
		}

		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, key := range undecoded {
				keys[i] = key.String()
			}

			return nil, fmt.Errorf("%w: unknown keys %s", ErrDefinition, strings.Join(keys, ", "))
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}

	if err := def.validate(); err != nil {
		return nil, err
	}

	return &def, nil
}

func (d *Definition) validate() error {
	var errs []error

	tokens := make(map[string]bool, len(d.Tokens))

	for i, t := range d.Tokens {
		switch {
		case t.Type == "":
			errs = append(errs, fmt.Errorf("%w: token %d has no type", ErrDefinition, i+1))
		case t.Pattern == "":
			errs = append(errs, fmt.Errorf("%w: token %s has no pattern", ErrDefinition, t.Type))
		case tokens[t.Type]:
			errs = append(errs, fmt.Errorf("%w: token %s is defined twice", ErrDefinition, t.Type))
		}

		tokens[t.Type] = true
	}

	rules := make(map[string]bool, len(d.Rules))

	for i, r := range d.Rules {
		switch {
		case r.Name == "":
			errs = append(errs, fmt.Errorf("%w: rule %d has no name", ErrDefinition, i+1))
		case r.Expr == "":
			errs = append(errs, fmt.Errorf("%w: rule %s has no expr", ErrDefinition, r.Name))
		case rules[r.Name]:
			errs = append(errs, fmt.Errorf("%w: rule %s is defined twice", ErrDefinition, r.Name))
		}

		rules[r.Name] = true
	}

	for _, name := range d.Use {
		if _, ok := libraries[name]; !ok {
			errs = append(errs, fmt.Errorf("%w: %s%s", ErrUnknownLibrary, name, suggest.Hint(name, Libraries())))
		}
	}

	return errors.Join(errs...)
}

// Apply installs tokens, rules and operations into e and validates the result.
func (d *Definition) Apply(e *snapgram.Engine) error {
	for _, t := range d.Tokens {
		if err := e.DefineToken(t.Type, t.Pattern); err != nil {
			return fmt.Errorf("%w: token %s: %w", ErrDefinition, t.Type, err)
		}
	}

	if err := e.SkipPattern(d.Skip); err != nil {
		return fmt.Errorf("%w: %w", ErrDefinition, err)
	}

	for _, r := range d.Rules {
		expr, err := notation.ParseExpression(r.Expr)
		if err != nil {
			return fmt.Errorf("%w: rule %s: %w", ErrDefinition, r.Name, err)
		}

		in, err := r.Lambda.Instruction()
		if err != nil {
			return fmt.Errorf("%w: rule %s lambda: %w", ErrDefinition, r.Name, err)
		}

		e.DefineRule(r.Name, expr, in)
	}

	for _, name := range d.Use {
		use, ok := libraries[name]
		if !ok {
			return fmt.Errorf("%w: %s%s", ErrUnknownLibrary, name, suggest.Hint(name, Libraries()))
		}

		use(e)
	}

	names := make([]string, 0, len(d.Operations))
	for name := range d.Operations {
		names = append(names, name)
	}

	slices.Sort(names)

	for _, name := range names {
		op, err := eval.CELOperation(d.Operations[name])
		if err != nil {
			return fmt.Errorf("%w: operation %s: %w", ErrDefinition, name, err)
		}

		e.DefineOperation(name, op)
	}

	return e.Validate()
}

// Engine creates an engine running the definition.
func (d *Definition) Engine(opts ...snapgram.Option) (*snapgram.Engine, error) {
	e := snapgram.NewEngine(opts...)
	if err := d.Apply(e); err != nil {
		return nil, err
	}

	return e, nil
}
