package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/fleetdesk/internal/driver"
	"github.com/roach88/fleetdesk/internal/driverstore"
	"github.com/roach88/fleetdesk/internal/ingest"
	"github.com/roach88/fleetdesk/internal/kv"
	"github.com/roach88/fleetdesk/internal/seed"
	"github.com/roach88/fleetdesk/internal/testutil"
)

// Harness executes one scenario.
// It runs against a fresh in-memory backend with deterministic clock and
// license numbers.
type Harness struct {
	backend  *testutil.FaultyKV
	store    *driverstore.Store
	clock    *testutil.DeterministicClock
	licenses *testutil.LicenseSequence
	logger   *slog.Logger
	defaults []driver.Driver
	list     []driver.Driver
}

// Run executes a scenario and returns the result.
//
// Execution flow:
// 1. Create a fresh in-memory backend and seed raw storage
// 2. Execute steps, checking each outcome against its expect
// 3. Evaluate assertions against the final list and storage
//
// The returned error reports harness problems (bad seeds, unreadable
// storage). Scenario failures are recorded in Result.Errors.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	h := &Harness{
		backend:  testutil.NewFaultyKV(kv.NewMemory()),
		clock:    testutil.NewDeterministicClock(),
		licenses: &testutil.LicenseSequence{},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}

	if scenario.Defaults == DefaultsBuiltin {
		ds, err := seed.Defaults()
		if err != nil {
			return nil, fmt.Errorf("failed to load default roster: %w", err)
		}
		h.defaults = ds
	}

	for key, value := range scenario.Storage {
		if err := h.backend.Set(ctx, key, value); err != nil {
			return nil, fmt.Errorf("failed to seed %q: %w", key, err)
		}
	}
	h.store = h.newStore()

	result := NewResult()
	for i, step := range scenario.Steps {
		h.executeStep(ctx, i, step, result)
	}

	result.Drivers = h.store.List()
	keys, err := h.backend.Store.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list storage keys: %w", err)
	}
	result.Keys = keys

	actx := &AssertionContext{Backend: h.backend.Store, Ctx: ctx}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

func (h *Harness) newStore() *driverstore.Store {
	return driverstore.New(h.backend,
		driverstore.WithLogger(h.logger),
		driverstore.WithClock(h.clock.Now),
		driverstore.WithLicenseSource(h.licenses.Next),
	)
}

// executeStep runs one step and records its trace event.
func (h *Harness) executeStep(ctx context.Context, i int, step Step, result *Result) {
	var (
		list []driver.Driver
		err  error
		id   = step.ID
	)

	switch step.Op {
	case OpLoad:
		list, err = h.store.Load(ctx, h.defaults)
	case OpReload:
		h.store = h.newStore()
		list, err = h.store.Load(ctx, h.defaults)
	case OpCreate:
		list, err = h.store.Create(ctx, step.Candidate.toCandidate())
		if err == nil || driverstore.IsStorageError(err) {
			id = list[len(list)-1].ID
		}
	case OpUpdate:
		id = step.Driver.ID
		list, err = h.store.Update(ctx, h.overlay(step.Driver))
	case OpDelete:
		list, err = h.store.Delete(ctx, step.ID)
	case OpAttach:
		list, err = h.store.AttachDocument(ctx, step.ID, driver.DocumentKind(step.Kind), step.Document.toBlob())
	case OpFailWrites:
		h.backend.FailWrites(true)
		list = h.store.List()
	case OpRestoreWrites:
		h.backend.FailWrites(false)
		list = h.store.List()
	}

	outcome := classify(err)
	result.AddTrace(step.Op, id, outcome, list)

	want := step.Expect
	if want == "" {
		want = OutcomeOK
	}
	if outcome != want {
		result.AddError(fmt.Sprintf("step %d (%s): expected outcome %s, got %s: %v", i, step.Op, want, outcome, err))
	}
}

// overlay applies the step fields to the current record. Unknown ids pass through
// with only those fields set.
func (h *Harness) overlay(in *DriverSpec) driver.Driver {
	d, ok := h.store.Get(in.ID)
	if !ok {
		d = driver.Driver{ID: in.ID}
	}
	if in.Name != "" {
		d.Name = in.Name
	}
	if in.Phone != "" {
		d.Phone = in.Phone
	}
	if in.Status != "" {
		d.Status = driver.Status(in.Status)
	}
	if in.Experience != "" {
		d.Experience = in.Experience
	}
	if in.VehicleType != "" {
		d.VehicleType = driver.VehicleType(in.VehicleType)
	}
	if in.VehicleNumber != "" {
		d.VehicleNumber = in.VehicleNumber
	}
	return d
}

func classify(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case driver.IsValidationError(err):
		return OutcomeValidation
	case driverstore.IsStorageError(err):
		return OutcomeStorage
	default:
		return "error: " + err.Error()
	}
}

func (c *CandidateSpec) toCandidate() driver.Candidate {
	return driver.Candidate{
		Name:          c.Name,
		Phone:         c.Phone,
		VehicleType:   driver.VehicleType(c.VehicleType),
		VehicleNumber: c.VehicleNumber,
	}
}

func (d *DocumentSpec) toBlob() *driver.DocumentBlob {
	return &driver.DocumentBlob{
		Name: d.Name,
		Data: ingest.EncodeDataURI(d.Type, []byte(d.Content)),
		Type: d.Type,
		Size: int64(len(d.Content)),
	}
}
