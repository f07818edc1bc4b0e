package driver

import (
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle state of a driver.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Valid reports whether s is one of the closed set of statuses.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// Label is the display form used by list and detail views.
func (s Status) Label() string {
	if s == StatusActive {
		return "Active"
	}
	return "Inactive"
}

// VehicleType is the class of vehicle a driver operates.
type VehicleType string

const (
	VehicleBike  VehicleType = "bike"
	VehicleTruck VehicleType = "truck"
)

// Valid reports whether v is a known vehicle type.
func (v VehicleType) Valid() bool {
	return v == VehicleBike || v == VehicleTruck
}

// DocumentKind names one identity or vehicle document slot.
type DocumentKind string

const (
	DocAadharCard       DocumentKind = "aadharCard"
	DocPanCard          DocumentKind = "panCard"
	DocDriverLicense    DocumentKind = "driverLicense"
	DocRCVehicle        DocumentKind = "rcVehicle"
	DocInsuranceVehicle DocumentKind = "insuranceVehicle"
)

// DocumentKinds lists every slot in display order.
var DocumentKinds = []DocumentKind{
	DocAadharCard,
	DocPanCard,
	DocDriverLicense,
	DocRCVehicle,
	DocInsuranceVehicle,
}

// ParseDocumentKind validates a document kind name.
func ParseDocumentKind(s string) (DocumentKind, error) {
	for _, k := range DocumentKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown document kind %q", s)
}

// DocumentBlob is an uploaded file carried inline with its record.
type DocumentBlob struct {
	Name string `json:"name"`
	Data string `json:"data"` // data URI
	Type string `json:"type"` // MIME type
	Size int64  `json:"size"`
}

// Complete reports whether every field of the blob is populated. An empty
// Type is accepted when Data is a data URI, since browsers report no type
// for unknown extensions.
func (b *DocumentBlob) Complete() bool {
	if b == nil || b.Name == "" || b.Data == "" || b.Size < 0 {
		return false
	}
	if b.Type != "" {
		return true
	}
	_, ok := dataURIType(b.Data)
	return ok
}

// Typed returns b with an empty Type filled from its data URI, falling back
// to application/octet-stream. b is returned unchanged when Type is set.
func (b *DocumentBlob) Typed() *DocumentBlob {
	if b.Type != "" {
		return b
	}
	cp := *b
	cp.Type, _ = dataURIType(b.Data)
	if cp.Type == "" {
		cp.Type = "application/octet-stream"
	}
	return &cp
}

// dataURIType returns the media type of a "data:[<mime>][;param]...,<payload>"
// string, empty when the URI names none.
func dataURIType(uri string) (string, bool) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", false
	}
	header, _, ok := strings.Cut(rest, ",")
	if !ok {
		return "", false
	}
	mime, _, _ := strings.Cut(header, ";")
	return strings.TrimSpace(mime), true
}

// Documents maps each document kind to its blob, nil when absent.
type Documents map[DocumentKind]*DocumentBlob

// Driver is one registered driver.
type Driver struct {
	ID                    int64       `json:"id"`
	Name                  string      `json:"name"`
	Email                 string      `json:"email"`
	Phone                 string      `json:"phone"`
	License               string      `json:"license"`
	Status                Status      `json:"status"`
	Experience            string      `json:"experience"`
	VehicleType           VehicleType `json:"vehicleType,omitempty"`
	VehicleNumber         string      `json:"vehicleNumber,omitempty"`
	DOB                   string      `json:"dob,omitempty"`
	Gender                string      `json:"gender,omitempty"`
	EmergencyName         string      `json:"emergencyName,omitempty"`
	EmergencyRelationship string      `json:"emergencyRelationship,omitempty"`
	EmergencyPhone        string      `json:"emergencyPhone,omitempty"`
	Documents             Documents   `json:"documents,omitempty"`
	CreatedAt             time.Time   `json:"createdAt,omitzero"`
	UpdatedAt             time.Time   `json:"updatedAt,omitzero"`

	// Version increases on every mutation and decides merge conflicts.
	Version int64 `json:"version,omitempty"`
}

// Clone returns a deep copy of d.
func (d Driver) Clone() Driver {
	out := d
	if d.Documents != nil {
		out.Documents = make(Documents, len(d.Documents))
		for k, b := range d.Documents {
			if b == nil {
				out.Documents[k] = nil
				continue
			}
			cp := *b
			out.Documents[k] = &cp
		}
	}
	return out
}

// Document returns the blob stored for kind, or nil.
func (d Driver) Document(kind DocumentKind) *DocumentBlob {
	if d.Documents == nil {
		return nil
	}
	return d.Documents[kind]
}

// Normalize fills every document slot, dropping incomplete blobs and
// unknown kinds, and migrates the status. It returns the status found
// before migration when it was not already valid.
func (d *Driver) Normalize() (legacy Status, migrated bool) {
	docs := make(Documents, len(DocumentKinds))
	for _, k := range DocumentKinds {
		if b := d.Documents[k]; b.Complete() {
			docs[k] = b.Typed()
		} else {
			docs[k] = nil
		}
	}
	d.Documents = docs

	if !d.Status.Valid() {
		legacy = d.Status
		d.Status = MigrateStatus(d.Status)
		return legacy, true
	}
	return "", false
}
