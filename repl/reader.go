package repl

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/peterh/liner"
)

// LineReader supplies input lines. ReadLine returns io.EOF when input ends.
type LineReader interface {
	ReadLine(prompt string) (string, error)
	AddHistory(line string)
	Close() error
}

// ScannerReader reads lines from any reader without line editing. It is used
// for piped input and tests.
type ScannerReader struct {
	scanner *bufio.Scanner
	echo    io.Writer
}

// NewScannerReader reads from r. When echo is not nil, prompts are written to
// it.
func NewScannerReader(r io.Reader, echo io.Writer) *ScannerReader {
	return &ScannerReader{scanner: bufio.NewScanner(r), echo: echo}
}

func (s *ScannerReader) ReadLine(prompt string) (string, error) {
	if s.echo != nil {
		fmt.Fprint(s.echo, prompt)
	}

	if !s.scanner.Scan() {
		if err := s.scanner.Err(); err != nil {
			return "", err
		}

		return "", io.EOF
	}

	return s.scanner.Text(), nil
}

func (s *ScannerReader) AddHistory(string) {}

func (s *ScannerReader) Close() error { return nil }

// LinerReader reads from the terminal with line editing and history.
type LinerReader struct {
	state       *liner.State
	historyFile string
}

// NewLinerReader takes over the terminal. History is loaded from historyFile
// when it exists and written back on Close; an empty path keeps history in
// memory only.
func NewLinerReader(historyFile string) *LinerReader {
	state := liner.NewLiner()
	state.SetCtrlCAborts(true)

	if historyFile != "" {
		if f, err := os.Open(historyFile); err == nil {
			_, _ = state.ReadHistory(f)
			_ = f.Close()
		}
	}

	return &LinerReader{state: state, historyFile: historyFile}
}

// ReadLine returns an empty line when the prompt is aborted with Ctrl-C.
func (l *LinerReader) ReadLine(prompt string) (string, error) {
	line, err := l.state.Prompt(prompt)
	if errors.Is(err, liner.ErrPromptAborted) {
		return "", nil
	}

	return line, err
}

func (l *LinerReader) AddHistory(line string) {
	l.state.AppendHistory(line)
}

func (l *LinerReader) Close() error {
	var errs []error

	if l.historyFile != "" {
		f, err := os.Create(l.historyFile)
		if err == nil {
			_, err = l.state.WriteHistory(f)
			errs = append(errs, err, f.Close())
		} else {
			errs = append(errs, fmt.Errorf("failed to save history: %w", err))
		}
	}

	errs = append(errs, l.state.Close())

	return errors.Join(errs...)
}
