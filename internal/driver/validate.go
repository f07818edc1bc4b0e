package driver

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report JSON names so messages match the stored field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidationError lists the fields that failed validation.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Fields, ", "))
}

// IsValidationError reports whether err is, or wraps, a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Candidate is the registration input a new driver is built from.
type Candidate struct {
	Name                  string      `json:"name" validate:"required"`
	Phone                 string      `json:"phone" validate:"required"`
	VehicleType           VehicleType `json:"vehicleType" validate:"required,oneof=bike truck"`
	VehicleNumber         string      `json:"vehicleNumber" validate:"required"`
	DOB                   string      `json:"dob"`
	Gender                string      `json:"gender"`
	EmergencyName         string      `json:"emergencyName"`
	EmergencyRelationship string      `json:"emergencyRelationship"`
	EmergencyPhone        string      `json:"emergencyPhone"`
	Documents             Documents   `json:"documents"`
}

// Validate trims the required text fields and checks them.
func (c *Candidate) Validate() error {
	c.Name = strings.TrimSpace(c.Name)
	c.Phone = strings.TrimSpace(c.Phone)
	c.VehicleNumber = strings.TrimSpace(c.VehicleNumber)

	var fields []string
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			fields = append(fields, fe.Field())
		}
	}
	fields = append(fields, documentFaults(c.Documents)...)
	if len(fields) > 0 {
		sort.Strings(fields)
		return &ValidationError{Fields: fields}
	}
	return nil
}

// documentFaults names every non-nil blob that is incomplete or filed under
// an unknown kind.
func documentFaults(docs Documents) []string {
	var fields []string
	for k, b := range docs {
		if _, err := ParseDocumentKind(string(k)); err != nil {
			fields = append(fields, "documents."+string(k))
			continue
		}
		if b != nil && !b.Complete() {
			fields = append(fields, "documents."+string(k))
		}
	}
	return fields
}

// ValidateBlob checks a single upload destined for kind.
func ValidateBlob(kind DocumentKind, b *DocumentBlob) error {
	if _, err := ParseDocumentKind(string(kind)); err != nil {
		return &ValidationError{Fields: []string{"documents." + string(kind)}}
	}
	if !b.Complete() {
		return &ValidationError{Fields: []string{"documents." + string(kind)}}
	}
	return nil
}

// ValidateRecord checks the parts of an existing record an edit may touch.
func ValidateRecord(d Driver) error {
	var fields []string
	if d.ID == 0 {
		fields = append(fields, "id")
	}
	if d.Status != "" && !d.Status.Valid() {
		fields = append(fields, "status")
	}
	if d.VehicleType != "" && !d.VehicleType.Valid() {
		fields = append(fields, "vehicleType")
	}
	fields = append(fields, documentFaults(d.Documents)...)
	if len(fields) > 0 {
		sort.Strings(fields)
		return &ValidationError{Fields: fields}
	}
	return nil
}

// New builds a fresh record from a validated candidate. The caller assigns
// the identifier.
func New(c Candidate, id int64, license string, now time.Time) Driver {
	d := Driver{
		ID:                    id,
		Name:                  c.Name,
		Email:                 DeriveEmail(c.Name),
		Phone:                 c.Phone,
		License:               license,
		Status:                StatusActive,
		Experience:            NewDriverExperience,
		VehicleType:           c.VehicleType,
		VehicleNumber:         c.VehicleNumber,
		DOB:                   c.DOB,
		Gender:                c.Gender,
		EmergencyName:         c.EmergencyName,
		EmergencyRelationship: c.EmergencyRelationship,
		EmergencyPhone:        c.EmergencyPhone,
		Documents:             Documents{},
		CreatedAt:             now,
		UpdatedAt:             now,
		Version:               1,
	}
	for _, k := range DocumentKinds {
		if b := c.Documents[k]; b != nil {
			cp := *b
			d.Documents[k] = &cp
		} else {
			d.Documents[k] = nil
		}
	}
	return d
}
