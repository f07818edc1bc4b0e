package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/roach88/fleetdesk/internal/kv"
)

// ErrInjected is the error returned by FaultyKV when a fault is armed.
var ErrInjected = errors.New("injected storage fault")

// FaultyKV wraps a kv.Store and fails selected operations on demand.
//
// Thread-safety: FaultyKV is safe for concurrent use via internal mutex.
type FaultyKV struct {
	kv.Store

	mu        sync.Mutex
	failRead  bool
	failKeys  bool
	failWrite bool
}

// NewFaultyKV wraps inner with every fault disarmed.
func NewFaultyKV(inner kv.Store) *FaultyKV {
	return &FaultyKV{Store: inner}
}

// FailReads arms or disarms Get failures.
func (f *FaultyKV) FailReads(on bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failRead = on
}

// FailKeys arms or disarms Keys failures.
func (f *FaultyKV) FailKeys(on bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failKeys = on
}

// FailWrites arms or disarms Set, Remove and Apply failures.
func (f *FaultyKV) FailWrites(on bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failWrite = on
}

func (f *FaultyKV) armed(which *bool) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *which
}

// Get implements kv.Store.
func (f *FaultyKV) Get(ctx context.Context, key string) (string, bool, error) {
	if f.armed(&f.failRead) {
		return "", false, ErrInjected
	}
	return f.Store.Get(ctx, key)
}

// Keys implements kv.Store.
func (f *FaultyKV) Keys(ctx context.Context) ([]string, error) {
	if f.armed(&f.failKeys) {
		return nil, ErrInjected
	}
	return f.Store.Keys(ctx)
}

// Set implements kv.Store.
func (f *FaultyKV) Set(ctx context.Context, key, value string) error {
	if f.armed(&f.failWrite) {
		return ErrInjected
	}
	return f.Store.Set(ctx, key, value)
}

// Remove implements kv.Store.
func (f *FaultyKV) Remove(ctx context.Context, key string) error {
	if f.armed(&f.failWrite) {
		return ErrInjected
	}
	return f.Store.Remove(ctx, key)
}

// Apply implements kv.Store.
func (f *FaultyKV) Apply(ctx context.Context, ops ...kv.Op) error {
	if f.armed(&f.failWrite) {
		return ErrInjected
	}
	return f.Store.Apply(ctx, ops...)
}
