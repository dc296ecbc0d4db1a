// Package registry implements the key registry the pricing engine exports
// into: a flat name→value store grouped by category, consumed later by the
// document rendering layer. Values are raw decimals; formatting them for
// presentation is the consumer's responsibility.
package registry

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
)

// ErrUnknownCategory is returned when reading a category nothing was
// submitted under.
var ErrUnknownCategory = errors.New("registry: unknown category")

// Entry is a single named value.
type Entry struct {
	Name  string          `json:"name"`
	Value decimal.Decimal `json:"value"`
}

// Registry accepts name→value submissions per category and re-emits them.
type Registry interface {
	Submit(ctx context.Context, category string, entries []Entry) error
	Snapshot(ctx context.Context, category string) (map[string]decimal.Decimal, error)
}

// Entries converts an exported key table into a deterministic, name-sorted
// entry list.
func Entries(keys map[string]decimal.Decimal) []Entry {
	entries := make([]Entry, 0, len(keys))
	for name, value := range keys {
		entries = append(entries, Entry{Name: name, Value: value})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}

// Memory is an in-process registry used by the CLI and as a fallback when no
// Redis endpoint is configured.
type Memory struct {
	mu         sync.RWMutex
	categories map[string]map[string]decimal.Decimal
}

// NewMemory returns an empty in-memory registry.
func NewMemory() *Memory {
	return &Memory{categories: make(map[string]map[string]decimal.Decimal)}
}

// Submit stores the entries under the category, overwriting existing names.
func (m *Memory) Submit(_ context.Context, category string, entries []Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	bucket, ok := m.categories[category]
	if !ok {
		bucket = make(map[string]decimal.Decimal, len(entries))
		m.categories[category] = bucket
	}
	for _, e := range entries {
		bucket[e.Name] = e.Value
	}
	return nil
}

// Snapshot returns a copy of the category's table.
func (m *Memory) Snapshot(_ context.Context, category string) (map[string]decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	bucket, ok := m.categories[category]
	if !ok {
		return nil, ErrUnknownCategory
	}
	out := make(map[string]decimal.Decimal, len(bucket))
	for name, value := range bucket {
		out[name] = value
	}
	return out, nil
}
