package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fleetdesk/internal/driver"
)

func TestDefault(t *testing.T) {
	p := Default()
	assert.Equal(t, "Admin User", p.Name)
	assert.Equal(t, "AU", p.Initials())
	assert.Equal(t, 2, p.ActiveTrips)
	assert.NoError(t, p.Validate())
}

func TestEditor_SaveAppliesDraft(t *testing.T) {
	e := NewEditor(Default())
	e.Begin()
	e.Change(func(p *Profile) {
		p.Name = " Meera Nair "
		p.Department = "Logistics"
	})
	assert.Equal(t, "Admin User", e.Current().Name, "saved profile untouched while editing")

	saved, err := e.Save()
	require.NoError(t, err)
	assert.Equal(t, "Meera Nair", saved.Name)
	assert.Equal(t, "Logistics", e.Current().Department)
	assert.Equal(t, "MN", e.Current().Initials())
	assert.False(t, e.Editing())
}

func TestEditor_SaveRejectsBadEmail(t *testing.T) {
	e := NewEditor(Default())
	e.Change(func(p *Profile) { p.Email = "not-an-email" })

	_, err := e.Save()
	require.Error(t, err)
	var ve *driver.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"email"}, ve.Fields)
	assert.True(t, e.Editing(), "draft stays open")
	assert.Equal(t, "admin@driverapp.com", e.Current().Email)
}

func TestEditor_Cancel(t *testing.T) {
	e := NewEditor(Default())
	e.Change(func(p *Profile) { p.Role = "Dispatcher" })
	e.Cancel()

	assert.False(t, e.Editing())
	assert.Equal(t, "Fleet Manager", e.Current().Role)
	assert.Equal(t, "Fleet Manager", e.Draft().Role)
}

func TestEditor_BeginKeepsOpenDraft(t *testing.T) {
	e := NewEditor(Default())
	e.Change(func(p *Profile) { p.Phone = "123" })
	e.Begin()
	assert.Equal(t, "123", e.Draft().Phone)
}

func TestEditor_SaveWithoutDraft(t *testing.T) {
	e := NewEditor(Default())
	p, err := e.Save()
	require.NoError(t, err)
	assert.Equal(t, Default(), p)
}

func TestEditor_SetTotals(t *testing.T) {
	e := NewEditor(Default())
	e.SetTotals(7, 5)
	assert.Equal(t, 7, e.Current().TotalDrivers)
	assert.Equal(t, 5, e.Current().TotalVehicles)
}
