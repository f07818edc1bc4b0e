package driverstore

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/fleetdesk/internal/driver"
	"github.com/roach88/fleetdesk/internal/kv"
	"github.com/roach88/fleetdesk/internal/testutil"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// createTestStore creates a store with a deterministic clock and license
// source over backend.
func createTestStore(t *testing.T, backend kv.Store) *Store {
	t.Helper()
	clock := testutil.NewDeterministicClock()
	var lic testutil.LicenseSequence
	return New(backend,
		WithLogger(quietLogger()),
		WithClock(clock.Now),
		WithLicenseSource(lic.Next),
	)
}

func bikeCandidate(name string) driver.Candidate {
	return driver.Candidate{
		Name:          name,
		Phone:         "+91 9902456789",
		VehicleType:   driver.VehicleBike,
		VehicleNumber: "KA-01-1234",
	}
}

// putJSON stores v as JSON under key.
func putJSON(t *testing.T, backend kv.Store, key string, v any) {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, backend.Set(context.Background(), key, string(raw)))
}

// readAggregateIDs decodes the stored aggregate entry and returns its ids.
func readAggregateIDs(t *testing.T, backend kv.Store) []int64 {
	t.Helper()
	raw, ok, err := backend.Get(context.Background(), AggregateKey)
	require.NoError(t, err)
	require.True(t, ok, "aggregate entry missing")

	var drivers []driver.Driver
	require.NoError(t, json.Unmarshal([]byte(raw), &drivers))
	return ids(drivers)
}

func readIndividual(t *testing.T, backend kv.Store, id int64) (driver.Driver, bool) {
	t.Helper()
	raw, ok, err := backend.Get(context.Background(), IndividualKey(id))
	require.NoError(t, err)
	if !ok {
		return driver.Driver{}, false
	}
	var d driver.Driver
	require.NoError(t, json.Unmarshal([]byte(raw), &d))
	return d, true
}

func ids(drivers []driver.Driver) []int64 {
	out := make([]int64, len(drivers))
	for i, d := range drivers {
		out[i] = d.ID
	}
	return out
}

func sampleBlob() *driver.DocumentBlob {
	return &driver.DocumentBlob{
		Name: "aadhar.png",
		Data: "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg==",
		Type: "image/png",
		Size: 1024,
	}
}
