package kv

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Memory is an in-process Store.
//
// A positive quota bounds the total size (len(key)+len(value) summed over
// all entries) the way a browser bounds its storage area. Writes that would
// exceed it fail with ErrQuotaExceeded and leave the contents unchanged.
//
// Thread-safety: Memory is safe for concurrent use.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]string
	quota   int
	used    int
	closed  bool
}

// NewMemory creates an empty, unbounded Memory store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]string)}
}

// NewMemoryWithQuota creates an empty Memory store bounded to quota bytes.
func NewMemoryWithQuota(quota int) *Memory {
	m := NewMemory()
	m.quota = quota
	return m
}

// Get implements Store.
func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return "", false, ErrClosed
	}
	v, ok := m.entries[key]
	return v, ok, nil
}

// Set implements Store.
func (m *Memory) Set(ctx context.Context, key, value string) error {
	return m.Apply(ctx, Put(key, value))
}

// Remove implements Store.
func (m *Memory) Remove(ctx context.Context, key string) error {
	return m.Apply(ctx, Del(key))
}

// Keys implements Store.
func (m *Memory) Keys(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrClosed
	}
	keys := make([]string, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Apply implements Store. The quota is checked against the state after the
// whole batch, so a batch that frees space before using it can succeed.
func (m *Memory) Apply(_ context.Context, ops ...Op) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	// Work out the post-batch size before touching anything.
	staged := make(map[string]*string, len(ops))
	used := m.used
	for _, op := range ops {
		if op.Key == "" {
			return fmt.Errorf("kv: empty key")
		}
		prev, had := m.entries[op.Key]
		if s, ok := staged[op.Key]; ok {
			had = s != nil
			if had {
				prev = *s
			}
		}
		if had {
			used -= len(op.Key) + len(prev)
		}
		if op.Delete {
			staged[op.Key] = nil
			continue
		}
		v := op.Value
		staged[op.Key] = &v
		used += len(op.Key) + len(v)
	}

	if m.quota > 0 && used > m.quota {
		return fmt.Errorf("apply %d ops (%d > %d bytes): %w", len(ops), used, m.quota, ErrQuotaExceeded)
	}

	for k, v := range staged {
		if v == nil {
			delete(m.entries, k)
			continue
		}
		m.entries[k] = *v
	}
	m.used = used
	return nil
}

// Len returns the number of stored keys.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Close marks the store closed. Subsequent operations return ErrClosed.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
