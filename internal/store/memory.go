package store

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/rxtech-lab/argo-pnl/internal/types"
)

type history struct {
	fills   []types.Fill
	results []types.FillResult
}

// MemoryStore is a FillStore held in process memory.
type MemoryStore struct {
	mu        sync.RWMutex
	histories map[types.PositionKey]history
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		histories: make(map[types.PositionKey]history),
	}
}

func (m *MemoryStore) SaveHistory(ctx context.Context, key types.PositionKey, fills []types.Fill, results []types.FillResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(fills) == 0 && len(results) == 0 {
		delete(m.histories, key)

		return nil
	}

	m.histories[key] = history{
		fills:   slices.Clone(fills),
		results: slices.Clone(results),
	}

	return nil
}

func (m *MemoryStore) LoadFills(ctx context.Context, key types.PositionKey) ([]types.Fill, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	return slices.Clone(m.histories[key].fills), nil
}

func (m *MemoryStore) LoadResults(ctx context.Context, key types.PositionKey) ([]types.FillResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	return slices.Clone(m.histories[key].results), nil
}

func (m *MemoryStore) Keys(ctx context.Context) ([]types.PositionKey, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]types.PositionKey, 0, len(m.histories))
	for key, h := range m.histories {
		if len(h.fills) > 0 {
			keys = append(keys, key)
		}
	}

	slices.SortFunc(keys, compareKeys)

	return keys, nil
}

func (m *MemoryStore) Delete(ctx context.Context, key types.PositionKey) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.histories, key)

	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}

func compareKeys(a, b types.PositionKey) int {
	if c := strings.Compare(a.Account, b.Account); c != 0 {
		return c
	}

	return strings.Compare(a.Instrument, b.Instrument)
}
