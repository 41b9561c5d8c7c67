// Package store keeps the values of identifiers assigned by a language.
package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/shibukawa/snapgram/value"
)

// Sentinel errors
var (
	ErrNotFound          = errors.New("identifier not found")
	ErrInvalidValue      = errors.New("value cannot be stored")
	ErrUnsupportedDriver = errors.New("unsupported store driver")
)

// Store maps identifier names to values. Implementations are safe for
// concurrent use.
type Store interface {
	// Get returns ErrNotFound for an unknown name.
	Get(ctx context.Context, name string) (value.Value, error)
	Set(ctx context.Context, name string, v value.Value) error
	// Names returns the stored names, sorted.
	Names(ctx context.Context) ([]string, error)
	Close() error
}

// Memory is a Store backed by a map.
type Memory struct {
	mu   sync.RWMutex
	vars map[string]value.Value
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{vars: make(map[string]value.Value)}
}

func (m *Memory) Get(_ context.Context, name string) (value.Value, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.vars[name]
	if !ok {
		return value.Value{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	return v, nil
}

func (m *Memory) Set(_ context.Context, name string, v value.Value) error {
	if err := checkStorable(name, v); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.vars[name] = v

	return nil
}

func (m *Memory) Names(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.vars))
	for name := range m.vars {
		names = append(names, name)
	}

	slices.Sort(names)

	return names, nil
}

func (m *Memory) Close() error {
	return nil
}

func checkStorable(name string, v value.Value) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidValue)
	}

	if v.IsError() {
		return fmt.Errorf("%w: %s is an error value (%s)", ErrInvalidValue, name, v.Message())
	}

	return nil
}
