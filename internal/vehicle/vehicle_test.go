package vehicle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fleetdesk/internal/driver"
)

func TestDefaults(t *testing.T) {
	vs := Defaults()
	require.Len(t, vs, 4)
	assert.Equal(t, "ABC-1234", vs[0].LicensePlate)
	assert.Equal(t, StatusInUse, vs[1].Status)
	assert.Equal(t, StatusMaintenance, vs[2].Status)
	assert.Equal(t, "Altima", vs[3].Model)
}

func TestRoster_Add(t *testing.T) {
	r := NewRoster(nil)

	v, err := r.Add(Draft{Make: " Tata ", Model: "Ace", Year: 2024, LicensePlate: "KA-05-9999"})
	require.NoError(t, err)
	assert.Equal(t, 5, v.ID)
	assert.Equal(t, "Tata", v.Make)
	assert.Equal(t, StatusAvailable, v.Status)
	assert.Len(t, r.List(), 5)
	assert.Equal(t, 3, r.Count()[StatusAvailable])
}

func TestRoster_AddValidates(t *testing.T) {
	r := NewRoster([]Vehicle{})

	_, err := r.Add(Draft{Make: "Tata", Year: 1800})
	require.Error(t, err)
	var ve *driver.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"licensePlate", "model", "year"}, ve.Fields)
	assert.Empty(t, r.List())
}

func TestRoster_ListIsCopy(t *testing.T) {
	r := NewRoster(nil)
	list := r.List()
	list[0].Make = "changed"
	assert.Equal(t, "Toyota", r.List()[0].Make)
}

func TestStatus_Color(t *testing.T) {
	assert.Equal(t, "#4caf50", StatusAvailable.Color())
	assert.Equal(t, "#ff9800", StatusInUse.Color())
	assert.Equal(t, "#f44336", StatusMaintenance.Color())
	assert.Equal(t, "#666", Status("retired").Color())
}
