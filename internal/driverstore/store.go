package driverstore

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/fleetdesk/internal/driver"
	"github.com/roach88/fleetdesk/internal/kv"
)

// Store is the authoritative driver list backed by a kv.Store.
//
// Thread-safety: all operations are serialized by an internal mutex.
// Callers must use the list returned by each operation rather than
// holding on to an earlier one.
type Store struct {
	mu      sync.Mutex
	kv      kv.Store
	log     *slog.Logger
	seq     *Sequence
	now     func() time.Time
	license func() string

	drivers []driver.Driver
	loaded  bool
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithClock sets the time source for createdAt/updatedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLicenseSource sets the generator for new license numbers.
func WithLicenseSource(gen func() string) Option {
	return func(s *Store) { s.license = gen }
}

// WithSequence sets the id sequence. Load still raises it above every id
// it finds.
func WithSequence(seq *Sequence) Option {
	return func(s *Store) { s.seq = seq }
}

// New creates a Store over backend. Call Load before relying on List;
// mutations load lazily with no defaults if Load was never called.
func New(backend kv.Store, opts ...Option) *Store {
	s := &Store{
		kv:      backend,
		log:     slog.Default(),
		seq:     NewSequenceAt(0),
		now:     time.Now,
		license: driver.RandomLicense,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load rebuilds the canonical list from storage.
//
// The aggregate entry and every individual entry are read and merged. A
// non-empty result is written back as the aggregate entry. An empty result
// falls back to defaults, which become the new aggregate baseline.
//
// Read and parse failures are logged and treated as missing data. When the
// aggregate entry itself could not be read the repair write is skipped, so
// a transient failure never replaces stored records. The returned error is
// non-nil only when the repair write failed, in which case it is a
// *StorageError and the list is still returned.
func (s *Store) Load(ctx context.Context, defaults []driver.Driver) ([]driver.Driver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx, defaults)
}

func (s *Store) load(ctx context.Context, defaults []driver.Driver) ([]driver.Driver, error) {
	aggregate, readable := s.readAggregate(ctx)
	individual := s.readIndividuals(ctx)

	merged := Merge(aggregate, individual)
	if len(merged) == 0 {
		merged = make([]driver.Driver, 0, len(defaults))
		for _, d := range defaults {
			merged = append(merged, d.Clone())
		}
		merged = Merge(merged, nil)
		s.log.Debug("no stored drivers, using defaults", "count", len(merged))
	}

	for i := range merged {
		s.normalize(ctx, &merged[i])
		s.seq.Observe(merged[i].ID)
	}

	s.drivers = merged
	s.loaded = true
	s.log.Debug("drivers loaded",
		"aggregate", len(aggregate),
		"individual", len(individual),
		"canonical", len(merged),
	)

	if !readable {
		s.log.Warn("aggregate drivers entry unreadable, skipping repair write", "key", AggregateKey)
		return s.snapshot(), nil
	}
	op, err := s.aggregateOp()
	if err != nil {
		return s.snapshot(), &StorageError{Op: "load", Keys: []string{AggregateKey}, Err: err}
	}
	return s.snapshot(), s.persist(ctx, "load", op)
}

// readAggregate returns the records in the aggregate entry, or nil. ok is
// false only when the backend failed to read the entry; absent and corrupt
// entries report true.
func (s *Store) readAggregate(ctx context.Context) (drivers []driver.Driver, ok bool) {
	raw, found, err := s.kv.Get(ctx, AggregateKey)
	if err != nil {
		s.log.Warn("failed to read aggregate drivers entry", "key", AggregateKey, "error", err)
		return nil, false
	}
	if !found {
		return nil, true
	}

	drivers, err = decodeAggregate(raw, func(index int, err error) {
		s.log.Warn("skipping unreadable aggregate record", "key", AggregateKey, "index", index, "error", err)
	})
	if err != nil {
		s.log.Warn("failed to parse aggregate drivers entry", "key", AggregateKey, "error", err)
		return nil, true
	}
	return drivers, true
}

// readIndividuals returns every readable individual entry in key order.
func (s *Store) readIndividuals(ctx context.Context) []driver.Driver {
	keys, err := s.kv.Keys(ctx)
	if err != nil {
		s.log.Warn("failed to enumerate driver keys", "error", err)
		return nil
	}

	var out []driver.Driver
	for _, key := range individualKeys(keys) {
		raw, ok, err := s.kv.Get(ctx, key)
		if err != nil {
			s.log.Warn("failed to read driver entry", "key", key, "error", err)
			continue
		}
		if !ok {
			continue
		}
		d, err := decodeRecord([]byte(raw))
		if err != nil {
			s.log.Warn("skipping unreadable driver entry", "key", key, "error", err)
			continue
		}
		out = append(out, d)
	}
	return out
}

// normalize migrates legacy statuses and fills document slots. Statuses
// outside both known vocabularies are logged as warnings.
func (s *Store) normalize(ctx context.Context, d *driver.Driver) {
	legacy, migrated := d.Normalize()
	if !migrated {
		return
	}
	lvl := slog.LevelDebug
	switch legacy {
	case "", "approved", "pending", "rejected":
	default:
		lvl = slog.LevelWarn
	}
	s.log.Log(ctx, lvl, "migrated driver status", "id", d.ID, "from", string(legacy), "to", string(d.Status))
}

// List returns a copy of the canonical list.
func (s *Store) List() []driver.Driver {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Get returns a copy of the record with the given id.
func (s *Store) Get(id int64) (driver.Driver, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(id); i >= 0 {
		return s.drivers[i].Clone(), true
	}
	return driver.Driver{}, false
}

// Create validates c, builds a new record with a fresh id, appends it and
// persists both representations. The new record is the last element of the
// returned list.
//
// A *driver.ValidationError leaves the list unchanged.
func (s *Store) Create(ctx context.Context, c driver.Candidate) ([]driver.Driver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded(ctx)

	if err := c.Validate(); err != nil {
		return s.snapshot(), err
	}

	id := s.seq.Next()
	for s.indexOf(id) >= 0 {
		id = s.seq.Next()
	}

	d := driver.New(c, id, s.license(), s.now().UTC())
	s.drivers = append(s.drivers, d)
	s.log.Info("driver created", "id", d.ID, "name", d.Name)

	return s.snapshot(), s.writeRecord(ctx, "create", d)
}

// Update replaces the record with the same id in place.
//
// The id and createdAt are immutable. Empty email, license and status keep
// their stored values. A nil Documents map keeps the stored documents; a
// non-nil one replaces every slot.
// The version is bumped and updatedAt stamped. An unknown id is a silent
// no-op and is checked before the record is validated.
func (s *Store) Update(ctx context.Context, d driver.Driver) ([]driver.Driver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded(ctx)

	i := s.indexOf(d.ID)
	if i < 0 {
		s.log.Debug("update skipped, unknown driver", "id", d.ID)
		return s.snapshot(), nil
	}
	if err := driver.ValidateRecord(d); err != nil {
		return s.snapshot(), err
	}

	stored := s.drivers[i]
	next := d.Clone()
	next.CreatedAt = stored.CreatedAt
	if next.Email == "" {
		next.Email = stored.Email
	}
	if next.License == "" {
		next.License = stored.License
	}
	if next.Status == "" {
		next.Status = stored.Status
	}
	if next.Documents == nil {
		next.Documents = stored.Clone().Documents
	}
	next.Normalize()
	s.touch(&next, stored)

	s.drivers[i] = next
	s.log.Info("driver updated", "id", next.ID, "version", next.Version)

	return s.snapshot(), s.writeRecord(ctx, "update", next)
}

// AttachDocument stores blob in the kind slot of the record with the given
// id, leaving other slots untouched. An unknown id is a silent no-op.
func (s *Store) AttachDocument(ctx context.Context, id int64, kind driver.DocumentKind, blob *driver.DocumentBlob) ([]driver.Driver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded(ctx)

	if err := driver.ValidateBlob(kind, blob); err != nil {
		return s.snapshot(), err
	}

	i := s.indexOf(id)
	if i < 0 {
		s.log.Debug("document attach skipped, unknown driver", "id", id, "kind", string(kind))
		return s.snapshot(), nil
	}

	stored := s.drivers[i]
	next := stored.Clone()
	if next.Documents == nil {
		next.Documents = driver.Documents{}
	}
	cp := *blob.Typed()
	next.Documents[kind] = &cp
	s.touch(&next, stored)

	s.drivers[i] = next
	s.log.Info("driver document attached", "id", id, "kind", string(kind), "file", blob.Name, "size", blob.Size)

	return s.snapshot(), s.writeRecord(ctx, "attach", next)
}

// Delete removes the record with the given id from the list and from both
// representations. Deleting an unknown id is a no-op.
func (s *Store) Delete(ctx context.Context, id int64) ([]driver.Driver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded(ctx)

	i := s.indexOf(id)
	if i < 0 {
		s.log.Debug("delete skipped, unknown driver", "id", id)
		return s.snapshot(), nil
	}

	s.drivers = append(s.drivers[:i:i], s.drivers[i+1:]...)
	s.log.Info("driver deleted", "id", id)

	op, err := s.aggregateOp()
	if err != nil {
		return s.snapshot(), &StorageError{Op: "delete", Keys: []string{AggregateKey}, Err: err}
	}
	return s.snapshot(), s.persist(ctx, "delete", op, kv.Del(IndividualKey(id)))
}

// ensureLoaded loads with no defaults so a mutation never overwrites
// stored data it has not seen.
func (s *Store) ensureLoaded(ctx context.Context) {
	if s.loaded {
		return
	}
	if _, err := s.load(ctx, nil); err != nil {
		s.log.Warn("implicit load did not persist", "error", err)
	}
}

// touch advances version and updatedAt past the stored record.
func (s *Store) touch(next *driver.Driver, stored driver.Driver) {
	next.Version = stored.Version + 1
	now := s.now().UTC()
	if !now.After(stored.UpdatedAt) {
		now = stored.UpdatedAt.Add(time.Millisecond)
	}
	next.UpdatedAt = now
}

// writeRecord persists the aggregate entry and d's individual entry.
func (s *Store) writeRecord(ctx context.Context, op string, d driver.Driver) error {
	agg, err := s.aggregateOp()
	if err != nil {
		return &StorageError{Op: op, Keys: []string{AggregateKey}, Err: err}
	}
	rec, err := encodeRecord(d)
	if err != nil {
		return &StorageError{Op: op, Keys: []string{IndividualKey(d.ID)}, Err: err}
	}
	return s.persist(ctx, op, agg, kv.Put(IndividualKey(d.ID), rec))
}

func (s *Store) aggregateOp() (kv.Op, error) {
	raw, err := encodeAggregate(s.drivers)
	if err != nil {
		return kv.Op{}, err
	}
	return kv.Put(AggregateKey, raw), nil
}

// persist applies ops as one batch and converts failure to *StorageError.
func (s *Store) persist(ctx context.Context, op string, ops ...kv.Op) error {
	if err := s.kv.Apply(ctx, ops...); err != nil {
		keys := make([]string, len(ops))
		for i, o := range ops {
			keys[i] = o.Key
		}
		s.log.Warn("driver store write failed", "op", op, "keys", keys, "error", err)
		return &StorageError{Op: op, Keys: keys, Err: err}
	}
	return nil
}

func (s *Store) indexOf(id int64) int {
	for i := range s.drivers {
		if s.drivers[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) snapshot() []driver.Driver {
	out := make([]driver.Driver, len(s.drivers))
	for i, d := range s.drivers {
		out[i] = d.Clone()
	}
	return out
}
