package seed

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fleetdesk/internal/driver"
)

func TestDefaults(t *testing.T) {
	ds, err := Defaults()
	require.NoError(t, err)
	require.Len(t, ds, 4)

	names := make([]string, len(ds))
	for i, d := range ds {
		names[i] = d.Name
	}
	assert.Equal(t, []string{"John Smith", "Sarah Johnson", "Mike Wilson", "Emily Davis"}, names)
	assert.Equal(t, driver.StatusInactive, ds[2].Status)
	assert.Equal(t, "DL-123456789", ds[0].License)
	assert.Equal(t, int64(4), ds[3].ID)
}

func TestDefaults_EmailsMatchDerivation(t *testing.T) {
	for _, d := range MustDefaults() {
		assert.Equal(t, driver.DeriveEmail(d.Name), d.Email)
	}
}

func TestLoadFile(t *testing.T) {
	ds, err := LoadFile(filepath.Join("testdata", "small.cue"))
	require.NoError(t, err)
	require.Len(t, ds, 1)
	assert.Equal(t, driver.VehicleTruck, ds[0].VehicleType)
	assert.Equal(t, "KA-01-7777", ds[0].VehicleNumber)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "none.cue"))
	requireCode(t, err, CodeRead)
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code string
	}{
		{"syntax", `drivers: [`, CodeSyntax},
		{"missing", `fleet: []`, CodeMissing},
		{"legacy status", `drivers: [{id: 1, name: "A", email: "a@b.c", phone: "1", license: "", status: "approved", experience: ""}]`, CodeSchema},
		{"unknown field", `drivers: [{id: 1, name: "A", email: "a@b.c", phone: "1", license: "", status: "active", experience: "", nickname: "x"}]`, CodeSchema},
		{"zero id", `drivers: [{id: 0, name: "A", email: "a@b.c", phone: "1", license: "", status: "active", experience: ""}]`, CodeSchema},
		{"bad email", `drivers: [{id: 1, name: "A", email: "nope", phone: "1", license: "", status: "active", experience: ""}]`, CodeSchema},
		{"incomplete", `drivers: [{id: 1, name: "A"}]`, CodeSchema},
		{"duplicate", `drivers: [
			{id: 1, name: "A", email: "a@b.c", phone: "1", license: "", status: "active", experience: ""},
			{id: 1, name: "B", email: "b@b.c", phone: "2", license: "", status: "active", experience: ""},
		]`, CodeDuplicate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.name+".cue", []byte(tt.src))
			requireCode(t, err, tt.code)
		})
	}
}

func TestParse_Empty(t *testing.T) {
	ds, err := Parse("empty.cue", []byte(`drivers: []`))
	require.NoError(t, err)
	assert.Empty(t, ds)
}

func TestLoadError_Message(t *testing.T) {
	err := &LoadError{Code: CodeDuplicate, Message: "duplicate driver id 1"}
	assert.Equal(t, "S006: duplicate driver id 1", err.Error())
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var le *LoadError
	require.True(t, errors.As(err, &le), "want *LoadError, got %T", err)
	assert.Equal(t, code, le.Code, le.Error())
}
