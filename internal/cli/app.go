package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/fleetdesk/internal/driver"
	"github.com/roach88/fleetdesk/internal/driverstore"
	"github.com/roach88/fleetdesk/internal/kv"
	"github.com/roach88/fleetdesk/internal/profile"
	"github.com/roach88/fleetdesk/internal/seed"
	"github.com/roach88/fleetdesk/internal/vehicle"
)

// Keys for the records kept next to the driver list.
const (
	vehiclesKey = "vehicles"
	profileKey  = "profile"
)

// app is the state one command invocation works on.
type app struct {
	backend *kv.SQLite
	drivers *driverstore.Store
	log     *slog.Logger
}

// withApp opens the database for one command and passes it to fn.
func withApp(opts *RootOptions, cmd *cobra.Command, fn func(ctx context.Context, a *app, f *OutputFormatter) error) error {
	f := newFormatter(opts, cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	defaults, err := loadRoster(opts.Roster)
	if err != nil {
		return report(f, err)
	}
	a, err := openApp(ctx, opts.DB, defaults, opts.Logger())
	if err != nil {
		return fail(f, ErrCodeDatabase, "failed to open database", err.Error(), ExitCommandError, err)
	}
	defer a.Close()

	f.VerboseLog("Loaded %d driver(s) from %s", len(a.drivers.List()), opts.DB)
	return fn(ctx, a, f)
}

// openApp opens the database at path and loads the driver list, seeding
// it with defaults when the store is empty. A repair write that fails is
// logged; the loaded list is still usable.
func openApp(ctx context.Context, path string, defaults []driver.Driver, log *slog.Logger) (*app, error) {
	backend, err := kv.OpenSQLite(path)
	if err != nil {
		return nil, err
	}

	a := &app{
		backend: backend,
		drivers: driverstore.New(backend, driverstore.WithLogger(log)),
		log:     log,
	}
	if _, err := a.drivers.Load(ctx, defaults); err != nil {
		log.Warn("driver list not saved after load", "error", err)
	}
	return a, nil
}

func loadRoster(path string) ([]driver.Driver, error) {
	if path == "" {
		return seed.Defaults()
	}
	return seed.LoadFile(path)
}

func (a *app) Close() error {
	return a.backend.Close()
}

// vehicles returns the stored roster, or the demo fleet when none is
// stored or the stored value cannot be parsed.
func (a *app) vehicles(ctx context.Context) (*vehicle.Roster, error) {
	var vs []vehicle.Vehicle
	found, err := a.getJSON(ctx, vehiclesKey, &vs)
	if err != nil {
		return nil, err
	}
	if !found {
		vs = nil
	}
	return vehicle.NewRoster(vs), nil
}

func (a *app) saveVehicles(ctx context.Context, r *vehicle.Roster) error {
	return a.setJSON(ctx, vehiclesKey, r.List())
}

// profile returns an editor over the stored profile, or the default
// profile. Totals are refreshed from the driver list and the roster.
func (a *app) profile(ctx context.Context) (*profile.Editor, error) {
	p := profile.Default()
	var stored profile.Profile
	found, err := a.getJSON(ctx, profileKey, &stored)
	if err != nil {
		return nil, err
	}
	if found {
		p = stored
	}

	roster, err := a.vehicles(ctx)
	if err != nil {
		return nil, err
	}
	e := profile.NewEditor(p)
	e.SetTotals(len(a.drivers.List()), len(roster.List()))
	return e, nil
}

func (a *app) saveProfile(ctx context.Context, p profile.Profile) error {
	return a.setJSON(ctx, profileKey, p)
}

// getJSON decodes the value at key into v. A missing key reports false;
// an unparsable value is logged and also reports false.
func (a *app) getJSON(ctx context.Context, key string, v any) (bool, error) {
	raw, ok, err := a.backend.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		a.log.Warn("ignoring unparsable entry", "key", key, "error", err)
		return false, nil
	}
	return true, nil
}

func (a *app) setJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := a.backend.Set(ctx, key, string(raw)); err != nil {
		return &driverstore.StorageError{Op: "save " + key, Keys: []string{key}, Err: err}
	}
	return nil
}
