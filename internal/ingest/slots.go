package ingest

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/roach88/fleetdesk/internal/driver"
)

// ErrSuperseded is returned by a task whose slot was claimed by a later task.
var ErrSuperseded = errors.New("ingest: upload superseded")

// Slot identifies one document field of one form.
type Slot struct {
	Owner string
	Kind  driver.DocumentKind
}

// Slots runs ingestion tasks and tracks the newest task per slot.
//
// Thread-safety: Slots is safe for concurrent use via internal mutex.
type Slots struct {
	gen   TokenGenerator
	limit int64
	log   *slog.Logger

	mu      sync.Mutex
	current map[Slot]string
}

// SlotsOption configures Slots.
type SlotsOption func(*Slots)

// WithTokens sets the task token generator. Defaults to UUIDv7Generator.
func WithTokens(gen TokenGenerator) SlotsOption {
	return func(s *Slots) { s.gen = gen }
}

// WithMaxSize sets the per-file size limit.
func WithMaxSize(n int64) SlotsOption {
	return func(s *Slots) { s.limit = n }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) SlotsOption {
	return func(s *Slots) { s.log = l }
}

// NewSlots creates an empty slot table.
func NewSlots(opts ...SlotsOption) *Slots {
	s := &Slots{
		gen:     UUIDv7Generator{},
		limit:   DefaultMaxSize,
		log:     slog.Default(),
		current: make(map[Slot]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Task is one in-flight read bound to a slot.
type Task struct {
	Token string
	Slot  Slot

	done chan struct{}
	blob *driver.DocumentBlob
	err  error
}

// Start reads src in a new goroutine and claims slot for it. Any task
// already pending on slot is superseded.
func (s *Slots) Start(ctx context.Context, slot Slot, src Source) *Task {
	t := &Task{
		Token: s.gen.Generate(),
		Slot:  slot,
		done:  make(chan struct{}),
	}

	s.mu.Lock()
	if prev, ok := s.current[slot]; ok {
		s.log.Debug("superseding upload", "owner", slot.Owner, "kind", string(slot.Kind), "token", prev)
	}
	s.current[slot] = t.Token
	s.mu.Unlock()

	go func() {
		defer close(t.done)
		blob, err := Read(ctx, src, s.limit)

		s.mu.Lock()
		latest := s.current[slot] == t.Token
		s.mu.Unlock()

		switch {
		case !latest:
			s.log.Debug("discarding superseded upload", "token", t.Token, "file", src.Name())
			t.err = ErrSuperseded
		case err != nil:
			s.log.Warn("upload failed", "token", t.Token, "file", src.Name(), "error", err)
			t.err = err
		default:
			t.blob = blob
		}
	}()
	return t
}

// Wait blocks until the task finishes or ctx is done.
func (t *Task) Wait(ctx context.Context) (*driver.DocumentBlob, error) {
	select {
	case <-t.done:
		return t.blob, t.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Done is closed when the task finishes.
func (t *Task) Done() <-chan struct{} { return t.done }

// Commit runs bind while t still owns its slot and reports ErrSuperseded
// otherwise. Start and Release wait for bind to return.
func (s *Slots) Commit(t *Task, bind func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current[t.Slot] != t.Token {
		s.log.Debug("discarding superseded upload", "token", t.Token)
		return ErrSuperseded
	}
	bind()
	return nil
}

// Release forgets every slot of owner so their pending tasks are
// superseded.
func (s *Slots) Release(owner string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for slot := range s.current {
		if slot.Owner == owner {
			delete(s.current, slot)
		}
	}
}
