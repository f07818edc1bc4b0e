// Package profile holds the fleet manager's profile and its edit buffer.
package profile

import (
	"errors"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/roach88/fleetdesk/internal/driver"
)

// Profile is the signed-in manager.
type Profile struct {
	Name          string `json:"name" validate:"required"`
	Email         string `json:"email" validate:"required,email"`
	Phone         string `json:"phone"`
	Role          string `json:"role"`
	Department    string `json:"department"`
	JoinDate      string `json:"joinDate"`
	TotalDrivers  int    `json:"totalDrivers" validate:"gte=0"`
	TotalVehicles int    `json:"totalVehicles" validate:"gte=0"`
	ActiveTrips   int    `json:"activeTrips" validate:"gte=0"`
}

// Default returns the built-in administrator profile.
func Default() Profile {
	return Profile{
		Name:          "Admin User",
		Email:         "admin@driverapp.com",
		Phone:         "+1 (555) 000-0000",
		Role:          "Fleet Manager",
		Department:    "Transportation",
		JoinDate:      "January 2024",
		TotalDrivers:  4,
		TotalVehicles: 4,
		ActiveTrips:   2,
	}
}

// Initials returns the avatar letters for the profile name.
func (p Profile) Initials() string { return driver.Initials(p.Name) }

var validate = func() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		return name
	})
	return v
}()

// Validate checks the profile fields.
func (p Profile) Validate() error {
	err := validate.Struct(p)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	sort.Strings(fields)
	return &driver.ValidationError{Fields: fields}
}

// Editor holds the saved profile and an optional draft.
//
// Thread-safety: Editor is safe for concurrent use via internal mutex.
type Editor struct {
	mu      sync.Mutex
	current Profile
	draft   Profile
	editing bool
}

// NewEditor starts from p.
func NewEditor(p Profile) *Editor {
	return &Editor{current: p}
}

// Current returns the saved profile.
func (e *Editor) Current() Profile {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

// Editing reports whether a draft is open.
func (e *Editor) Editing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.editing
}

// Begin opens a draft copied from the saved profile. An open draft is
// kept.
func (e *Editor) Begin() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.editing {
		e.draft = e.current
		e.editing = true
	}
}

// Draft returns the open draft, or the saved profile when none is open.
func (e *Editor) Draft() Profile {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.editing {
		return e.current
	}
	return e.draft
}

// Change applies fn to the draft, opening one if needed.
func (e *Editor) Change(fn func(p *Profile)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.editing {
		e.draft = e.current
		e.editing = true
	}
	fn(&e.draft)
}

// Save validates the draft and makes it the saved profile. A validation
// failure keeps the draft open.
func (e *Editor) Save() (Profile, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.editing {
		return e.current, nil
	}

	d := e.draft
	d.Name = strings.TrimSpace(d.Name)
	d.Email = strings.TrimSpace(d.Email)
	if err := d.Validate(); err != nil {
		return e.current, err
	}
	e.current = d
	e.editing = false
	return e.current, nil
}

// Cancel drops the draft.
func (e *Editor) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.draft = Profile{}
	e.editing = false
}

// SetTotals refreshes the dashboard counters.
func (e *Editor) SetTotals(drivers, vehicles int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.current.TotalDrivers = drivers
	e.current.TotalVehicles = vehicles
}
