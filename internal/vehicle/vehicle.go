// Package vehicle keeps the in-memory fleet vehicle roster.
package vehicle

import (
	"errors"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/roach88/fleetdesk/internal/driver"
)

// Status is the availability of a vehicle.
type Status string

const (
	StatusAvailable   Status = "available"
	StatusInUse       Status = "in-use"
	StatusMaintenance Status = "maintenance"
)

// Color returns the display color for the status.
func (s Status) Color() string {
	switch s {
	case StatusAvailable:
		return "#4caf50"
	case StatusInUse:
		return "#ff9800"
	case StatusMaintenance:
		return "#f44336"
	default:
		return "#666"
	}
}

// Vehicle is one fleet vehicle.
type Vehicle struct {
	ID           int    `json:"id"`
	Make         string `json:"make"`
	Model        string `json:"model"`
	Year         int    `json:"year"`
	LicensePlate string `json:"licensePlate"`
	Color        string `json:"color,omitempty"`
	Status       Status `json:"status"`
	Mileage      string `json:"mileage,omitempty"`
}

// Draft is the input for a new vehicle.
type Draft struct {
	Make         string `json:"make" validate:"required"`
	Model        string `json:"model" validate:"required"`
	Year         int    `json:"year" validate:"required,gte=1900,lte=2100"`
	LicensePlate string `json:"licensePlate" validate:"required"`
	Color        string `json:"color"`
	Mileage      string `json:"mileage"`
}

var validate = func() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		return name
	})
	return v
}()

// Validate trims the text fields and checks them.
func (d *Draft) Validate() error {
	d.Make = strings.TrimSpace(d.Make)
	d.Model = strings.TrimSpace(d.Model)
	d.LicensePlate = strings.TrimSpace(d.LicensePlate)

	err := validate.Struct(d)
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

// Defaults returns the demo fleet.
func Defaults() []Vehicle {
	return []Vehicle{
		{ID: 1, Make: "Toyota", Model: "Camry", Year: 2022, LicensePlate: "ABC-1234", Color: "Silver", Status: StatusAvailable, Mileage: "15,000 miles"},
		{ID: 2, Make: "Honda", Model: "Civic", Year: 2021, LicensePlate: "XYZ-5678", Color: "White", Status: StatusInUse, Mileage: "25,000 miles"},
		{ID: 3, Make: "Ford", Model: "Focus", Year: 2023, LicensePlate: "DEF-9012", Color: "Blue", Status: StatusMaintenance, Mileage: "8,000 miles"},
		{ID: 4, Make: "Nissan", Model: "Altima", Year: 2020, LicensePlate: "GHI-3456", Color: "Black", Status: StatusAvailable, Mileage: "35,000 miles"},
	}
}

// Roster is the vehicle list.
//
// Thread-safety: Roster is safe for concurrent use via internal mutex.
type Roster struct {
	mu       sync.Mutex
	vehicles []Vehicle
}

// NewRoster creates a roster holding vs, or the demo fleet when vs is nil.
func NewRoster(vs []Vehicle) *Roster {
	if vs == nil {
		vs = Defaults()
	}
	return &Roster{vehicles: append([]Vehicle(nil), vs...)}
}

// List returns a copy of the roster.
func (r *Roster) List() []Vehicle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Vehicle(nil), r.vehicles...)
}

// Add validates d and appends it as an available vehicle whose id is the
// roster length plus one.
func (r *Roster) Add(d Draft) (Vehicle, error) {
	if err := d.Validate(); err != nil {
		return Vehicle{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	v := Vehicle{
		ID:           len(r.vehicles) + 1,
		Make:         d.Make,
		Model:        d.Model,
		Year:         d.Year,
		LicensePlate: d.LicensePlate,
		Color:        d.Color,
		Status:       StatusAvailable,
		Mileage:      d.Mileage,
	}
	r.vehicles = append(r.vehicles, v)
	return v, nil
}

// Count returns the vehicles per status.
func (r *Roster) Count() map[Status]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[Status]int)
	for _, v := range r.vehicles {
		out[v.Status]++
	}
	return out
}
