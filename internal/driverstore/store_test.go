package driverstore

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fleetdesk/internal/driver"
	"github.com/roach88/fleetdesk/internal/kv"
	"github.com/roach88/fleetdesk/internal/testutil"
)

func seedDefaults() []driver.Driver {
	return []driver.Driver{
		{ID: 1, Name: "John Smith", Email: "john.smith@email.com", Phone: "+91 9902456789", License: "DL-123456789", Status: driver.StatusActive, Experience: "5 years"},
		{ID: 2, Name: "Sarah Johnson", Email: "sarah.johnson@email.com", Phone: "+91 7975907878", License: "DL-987654321", Status: driver.StatusActive, Experience: "3 years"},
	}
}

// Load

func TestLoad_EmptyStorageUsesDefaults(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemory()
	s := createTestStore(t, backend)

	list, err := s.Load(ctx, seedDefaults())
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids(list))
	assert.Equal(t, []int64{1, 2}, readAggregateIDs(t, backend), "defaults become the aggregate baseline")
}

func TestLoad_EmptyStorageNoDefaults(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemory()
	s := createTestStore(t, backend)

	list, err := s.Load(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Empty(t, readAggregateIDs(t, backend))
}

func TestLoad_StrayIndividualKeyRepairsAggregate(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemory()
	require.NoError(t, backend.Set(ctx, AggregateKey, "[]"))
	putJSON(t, backend, "driver_7", driver.Driver{ID: 7, Name: "Stray Driver", Status: driver.StatusActive})

	s := createTestStore(t, backend)
	list, err := s.Load(ctx, seedDefaults())
	require.NoError(t, err)

	require.Len(t, list, 1)
	assert.Equal(t, int64(7), list[0].ID)
	assert.Equal(t, "Stray Driver", list[0].Name)
	assert.Equal(t, []int64{7}, readAggregateIDs(t, backend))
}

func TestLoad_DedupAggregateWins(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemory()
	putJSON(t, backend, AggregateKey, []driver.Driver{{ID: 1, Name: "Aggregate Name", Phone: "111"}})
	putJSON(t, backend, "driver_1", driver.Driver{ID: 1, Name: "Individual Name", Phone: "222"})

	s := createTestStore(t, backend)
	list, err := s.Load(ctx, nil)
	require.NoError(t, err)

	require.Len(t, list, 1)
	assert.Equal(t, "Aggregate Name", list[0].Name)
	assert.Equal(t, "111", list[0].Phone)
}

func TestLoad_HigherVersionIndividualWins(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemory()
	putJSON(t, backend, AggregateKey, []driver.Driver{{ID: 1, Name: "Old", Version: 1}, {ID: 2, Version: 1}})
	putJSON(t, backend, "driver_1", driver.Driver{ID: 1, Name: "New", Version: 2})

	s := createTestStore(t, backend)
	list, err := s.Load(ctx, nil)
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 2}, ids(list))
	assert.Equal(t, "New", list[0].Name)
}

func TestLoad_Idempotent(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemory()
	putJSON(t, backend, AggregateKey, []driver.Driver{{ID: 3, Name: "Mike", Status: "pending"}})
	putJSON(t, backend, "driver_9", driver.Driver{ID: 9, Name: "Nine"})
	putJSON(t, backend, "driver_3", driver.Driver{ID: 3, Name: "Mike (individual)"})

	s := createTestStore(t, backend)
	first, err := s.Load(ctx, nil)
	require.NoError(t, err)
	second, err := s.Load(ctx, nil)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestLoad_CorruptEntriesAreIgnored(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemory()
	require.NoError(t, backend.Set(ctx, AggregateKey, "{not json"))
	require.NoError(t, backend.Set(ctx, "driver_4", "also not json"))
	require.NoError(t, backend.Set(ctx, "driver_5", `{"name":"no id"}`))
	putJSON(t, backend, "driver_6", driver.Driver{ID: 6, Name: "Six"})

	s := createTestStore(t, backend)
	list, err := s.Load(ctx, seedDefaults())
	require.NoError(t, err)
	assert.Equal(t, []int64{6}, ids(list))
}

func TestLoad_MigratesLegacyStatus(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemory()
	putJSON(t, backend, AggregateKey, []map[string]any{
		{"id": 1, "status": "approved"},
		{"id": 2, "status": "pending"},
		{"id": 3, "status": "rejected"},
		{"id": 4},
	})

	s := createTestStore(t, backend)
	list, err := s.Load(ctx, nil)
	require.NoError(t, err)

	got := make([]driver.Status, len(list))
	for i, d := range list {
		got[i] = d.Status
	}
	assert.Equal(t, []driver.Status{driver.StatusActive, driver.StatusInactive, driver.StatusInactive, driver.StatusActive}, got)
}

func TestLoad_ReadFailuresDegradeToDefaults(t *testing.T) {
	ctx := context.Background()
	inner := kv.NewMemory()
	putJSON(t, inner, AggregateKey, []driver.Driver{{ID: 5}})
	faulty := testutil.NewFaultyKV(inner)
	faulty.FailReads(true)
	faulty.FailKeys(true)

	s := createTestStore(t, faulty)
	list, err := s.Load(ctx, seedDefaults())
	require.NoError(t, err, "reads are not fatal")
	assert.Equal(t, []int64{1, 2}, ids(list))
	assert.Equal(t, []int64{5}, readAggregateIDs(t, inner), "stored aggregate is not overwritten")
}

func TestLoad_KeepsDocumentWithEmptyType(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemory()
	untyped := sampleBlob()
	untyped.Name = "scan.heic"
	untyped.Type = ""
	putJSON(t, backend, AggregateKey, []driver.Driver{
		{ID: 1, Name: "John Smith", Status: driver.StatusActive, Documents: driver.Documents{driver.DocAadharCard: untyped}},
	})

	s := createTestStore(t, backend)
	list, err := s.Load(ctx, nil)
	require.NoError(t, err)

	doc := list[0].Documents[driver.DocAadharCard]
	require.NotNil(t, doc)
	assert.Equal(t, "scan.heic", doc.Name)
	assert.Equal(t, "image/png", doc.Type, "type comes from the data URI")

	raw, _, err := backend.Get(ctx, AggregateKey)
	require.NoError(t, err)
	assert.Contains(t, raw, "scan.heic", "repair write keeps the document")
}

func TestLoad_RepairWriteFailureReturnsStorageError(t *testing.T) {
	ctx := context.Background()
	faulty := testutil.NewFaultyKV(kv.NewMemory())
	faulty.FailWrites(true)

	s := createTestStore(t, faulty)
	list, err := s.Load(ctx, seedDefaults())
	require.Error(t, err)
	assert.True(t, IsStorageError(err))
	assert.True(t, errors.Is(err, testutil.ErrInjected))
	assert.Len(t, list, 2, "in-memory list is still authoritative")
}

// Create

func TestCreate_Scenario(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemory()
	s := createTestStore(t, backend)

	before, err := s.Load(ctx, seedDefaults())
	require.NoError(t, err)

	after, err := s.Create(ctx, bikeCandidate("John Smith"))
	require.NoError(t, err)
	require.Len(t, after, len(before)+1)

	created := after[len(after)-1]
	assert.Equal(t, "john.smith@email.com", created.Email)
	assert.NotEmpty(t, created.License)
	assert.Equal(t, driver.StatusActive, created.Status)
	assert.Equal(t, driver.NewDriverExperience, created.Experience)
	assert.Equal(t, int64(1), created.Version)
	assert.False(t, created.CreatedAt.IsZero())

	stored, ok := readIndividual(t, backend, created.ID)
	require.True(t, ok, "individual entry written")
	assert.Equal(t, created.Name, stored.Name)
	assert.Contains(t, readAggregateIDs(t, backend), created.ID)

	final, err := s.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.Len(t, final, len(before))
}

func TestCreate_IDsAreUniqueAndAboveExisting(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t, kv.NewMemory())
	_, err := s.Load(ctx, []driver.Driver{{ID: 1700000000000, Name: "Legacy"}})
	require.NoError(t, err)

	seen := map[int64]bool{1700000000000: true}
	for i := 0; i < 25; i++ {
		list, err := s.Create(ctx, bikeCandidate("Driver"))
		require.NoError(t, err)
		id := list[len(list)-1].ID
		assert.False(t, seen[id], "duplicate id %d", id)
		assert.Greater(t, id, int64(1700000000000))
		seen[id] = true
	}
}

func TestCreate_ValidationFailureLeavesListUnchanged(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemory()
	s := createTestStore(t, backend)
	_, err := s.Load(ctx, seedDefaults())
	require.NoError(t, err)

	list, err := s.Create(ctx, driver.Candidate{Name: "No Phone"})
	require.Error(t, err)
	assert.True(t, driver.IsValidationError(err))
	assert.Len(t, list, 2)
	assert.Equal(t, []int64{1, 2}, readAggregateIDs(t, backend))
}

func TestCreate_NormalizesDocuments(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t, kv.NewMemory())

	c := bikeCandidate("Doc Holder")
	c.Documents = driver.Documents{driver.DocAadharCard: sampleBlob()}
	list, err := s.Create(ctx, c)
	require.NoError(t, err)

	created := list[len(list)-1]
	assert.Len(t, created.Documents, len(driver.DocumentKinds))
	assert.NotNil(t, created.Documents[driver.DocAadharCard])
	assert.Nil(t, created.Documents[driver.DocPanCard])
}

func TestCreate_WithoutLoadKeepsStoredRecords(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemory()
	putJSON(t, backend, AggregateKey, []driver.Driver{{ID: 40, Name: "Existing"}})

	s := createTestStore(t, backend)
	list, err := s.Create(ctx, bikeCandidate("New"))
	require.NoError(t, err)

	assert.Len(t, list, 2)
	assert.Equal(t, int64(40), list[0].ID)
	assert.Equal(t, int64(41), list[1].ID)
}

func TestCreate_StorageFailureStillUpdatesMemory(t *testing.T) {
	ctx := context.Background()
	inner := kv.NewMemory()
	faulty := testutil.NewFaultyKV(inner)
	s := createTestStore(t, faulty)
	_, err := s.Load(ctx, seedDefaults())
	require.NoError(t, err)

	faulty.FailWrites(true)
	list, err := s.Create(ctx, bikeCandidate("Unsaved"))
	require.Error(t, err)

	var se *StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "create", se.Op)
	assert.Len(t, list, 3)
	assert.Len(t, s.List(), 3)
	assert.Equal(t, []int64{1, 2}, readAggregateIDs(t, inner), "storage untouched by failed batch")
}

func TestCreate_QuotaExceeded(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemoryWithQuota(1200)
	s := createTestStore(t, backend)
	_, err := s.Load(ctx, nil)
	require.NoError(t, err)

	c := bikeCandidate("Big Upload")
	blob := sampleBlob()
	blob.Data = "data:image/png;base64," + strings.Repeat("A", 2048)
	c.Documents = driver.Documents{driver.DocPanCard: blob}

	list, err := s.Create(ctx, c)
	require.Error(t, err)
	assert.True(t, errors.Is(err, kv.ErrQuotaExceeded))
	assert.Len(t, list, 1)

	_, ok := readIndividual(t, backend, list[0].ID)
	assert.False(t, ok, "no partial write")
}

// Update

func TestUpdate_ReplacesInPlace(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemory()
	s := createTestStore(t, backend)
	_, err := s.Load(ctx, seedDefaults())
	require.NoError(t, err)

	d, ok := s.Get(1)
	require.True(t, ok)
	d.Phone = "+91 1111111111"
	d.Status = driver.StatusInactive

	list, err := s.Update(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids(list))
	assert.Equal(t, "+91 1111111111", list[0].Phone)
	assert.Equal(t, driver.StatusInactive, list[0].Status)
	assert.Equal(t, int64(1), list[0].Version)
	assert.Equal(t, "Sarah Johnson", list[1].Name, "other records untouched")

	stored, ok := readIndividual(t, backend, 1)
	require.True(t, ok)
	assert.Equal(t, "+91 1111111111", stored.Phone)
}

func TestUpdate_PreservesCardinalityAndIDs(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t, kv.NewMemory())
	_, err := s.Load(ctx, seedDefaults())
	require.NoError(t, err)

	for _, id := range []int64{2, 1, 2} {
		d, ok := s.Get(id)
		require.True(t, ok)
		d.Experience = "updated"
		list, err := s.Update(ctx, d)
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 2}, ids(list))
	}

	d, _ := s.Get(2)
	assert.Equal(t, int64(2), d.Version)
}

func TestUpdate_KeepsImmutableAndDerivedFields(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t, kv.NewMemory())
	list, err := s.Create(ctx, bikeCandidate("Ravi Kumar"))
	require.NoError(t, err)
	created := list[0]

	list, err = s.Update(ctx, driver.Driver{ID: created.ID, Name: "Ravi K", Phone: created.Phone})
	require.NoError(t, err)

	updated := list[0]
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.Equal(t, created.Email, updated.Email)
	assert.Equal(t, created.License, updated.License)
	assert.Equal(t, created.Status, updated.Status)
	assert.Equal(t, created.Version+1, updated.Version)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
	assert.Len(t, updated.Documents, len(driver.DocumentKinds))
}

func TestUpdate_UnknownIDIsSilentNoOp(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t, kv.NewMemory())
	_, err := s.Load(ctx, seedDefaults())
	require.NoError(t, err)

	list, err := s.Update(ctx, driver.Driver{ID: 99, Name: "Ghost"})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids(list))
}

func TestUpdate_UnknownIDSkipsValidation(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t, kv.NewMemory())
	_, err := s.Load(ctx, seedDefaults())
	require.NoError(t, err)

	list, err := s.Update(ctx, driver.Driver{ID: 99, Status: "approved"})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids(list))
}

func TestUpdate_InvalidStatusRejected(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t, kv.NewMemory())
	_, err := s.Load(ctx, seedDefaults())
	require.NoError(t, err)

	_, err = s.Update(ctx, driver.Driver{ID: 1, Status: "approved"})
	assert.True(t, driver.IsValidationError(err))

	d, _ := s.Get(1)
	assert.Equal(t, driver.StatusActive, d.Status)
}

// Delete

func TestDelete_RemovesBothRepresentations(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemory()
	s := createTestStore(t, backend)
	list, err := s.Create(ctx, bikeCandidate("Temp"))
	require.NoError(t, err)
	id := list[0].ID

	list, err = s.Delete(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, ok := readIndividual(t, backend, id)
	assert.False(t, ok, "individual entry removed")
	assert.Empty(t, readAggregateIDs(t, backend))

	// A fresh load must not resurrect it.
	reloaded, err := createTestStore(t, backend).Load(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, reloaded)
}

func TestDelete_Idempotent(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t, kv.NewMemory())
	_, err := s.Load(ctx, seedDefaults())
	require.NoError(t, err)

	first, err := s.Delete(ctx, 2)
	require.NoError(t, err)
	second, err := s.Delete(ctx, 2)
	require.NoError(t, err)

	assert.Equal(t, []int64{1}, ids(first))
	assert.Equal(t, first, second)
	_, ok := s.Get(2)
	assert.False(t, ok)
}

// AttachDocument

func TestAttachDocument_RoundTrip(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemory()
	s := createTestStore(t, backend)
	_, err := s.Load(ctx, seedDefaults())
	require.NoError(t, err)

	blob := sampleBlob()
	_, err = s.AttachDocument(ctx, 2, driver.DocAadharCard, blob)
	require.NoError(t, err)

	// Read back through a fresh store to go through storage.
	list, err := createTestStore(t, backend).Load(ctx, nil)
	require.NoError(t, err)
	got := list[1].Document(driver.DocAadharCard)
	require.NotNil(t, got)
	assert.Equal(t, blob.Data, got.Data)
	assert.Equal(t, "aadhar.png", got.Name)
	assert.Equal(t, "image/png", got.Type)
	assert.Equal(t, int64(1024), got.Size)

	stored, ok := readIndividual(t, backend, 2)
	require.True(t, ok)
	assert.Equal(t, blob.Data, stored.Documents[driver.DocAadharCard].Data)
}

func TestAttachDocument_OverwritesOnlyThatKind(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t, kv.NewMemory())
	c := bikeCandidate("Two Docs")
	c.Documents = driver.Documents{driver.DocPanCard: sampleBlob(), driver.DocAadharCard: sampleBlob()}
	list, err := s.Create(ctx, c)
	require.NoError(t, err)
	id := list[0].ID

	replacement := sampleBlob()
	replacement.Name = "pan-v2.pdf"
	replacement.Type = "application/pdf"
	list, err = s.AttachDocument(ctx, id, driver.DocPanCard, replacement)
	require.NoError(t, err)

	assert.Equal(t, "pan-v2.pdf", list[0].Documents[driver.DocPanCard].Name)
	assert.Equal(t, "aadhar.png", list[0].Documents[driver.DocAadharCard].Name)
	assert.Equal(t, int64(2), list[0].Version)
}

func TestAttachDocument_RejectsPartialBlobAndUnknownKind(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t, kv.NewMemory())
	_, err := s.Load(ctx, seedDefaults())
	require.NoError(t, err)

	partial := sampleBlob()
	partial.Name = ""
	_, err = s.AttachDocument(ctx, 1, driver.DocPanCard, partial)
	assert.True(t, driver.IsValidationError(err))

	_, err = s.AttachDocument(ctx, 1, "passport", sampleBlob())
	assert.True(t, driver.IsValidationError(err))

	d, _ := s.Get(1)
	assert.Nil(t, d.Documents[driver.DocPanCard])
}

func TestAttachDocument_UnknownIDIsNoOp(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t, kv.NewMemory())
	_, err := s.Load(ctx, seedDefaults())
	require.NoError(t, err)

	list, err := s.AttachDocument(ctx, 404, driver.DocPanCard, sampleBlob())
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

// Accessors

func TestList_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t, kv.NewMemory())
	_, err := s.Load(ctx, seedDefaults())
	require.NoError(t, err)

	list := s.List()
	list[0].Name = "mutated"
	list[0].Documents[driver.DocPanCard] = sampleBlob()

	d, _ := s.Get(1)
	assert.Equal(t, "John Smith", d.Name)
	assert.Nil(t, d.Documents[driver.DocPanCard])
}

func TestStore_SQLiteBackend(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "fleet.db")

	backend, err := kv.OpenSQLite(path)
	require.NoError(t, err)
	s := createTestStore(t, backend)
	_, err = s.Load(ctx, seedDefaults())
	require.NoError(t, err)
	list, err := s.Create(ctx, bikeCandidate("Persisted Driver"))
	require.NoError(t, err)
	newID := list[len(list)-1].ID
	_, err = s.Delete(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, backend.Close())

	reopened, err := kv.OpenSQLite(path)
	require.NoError(t, err)
	defer reopened.Close()

	reloaded, err := createTestStore(t, reopened).Load(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, newID}, ids(reloaded))
}
