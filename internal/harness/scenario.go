package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Scenario defines one store scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Defaults selects the fallback roster passed to load: "builtin" or
	// "none".
	Defaults string `yaml:"defaults,omitempty"`

	// Storage seeds raw key/value entries before the first step.
	Storage map[string]string `yaml:"storage,omitempty"`

	// Steps are executed in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final list and storage.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one store operation.
type Step struct {
	Op        string         `yaml:"op"`
	ID        int64          `yaml:"id,omitempty"`
	Kind      string         `yaml:"kind,omitempty"`
	Candidate *CandidateSpec `yaml:"candidate,omitempty"`
	Driver    *DriverSpec    `yaml:"driver,omitempty"`
	Document  *DocumentSpec  `yaml:"document,omitempty"`

	// Expect is the required outcome. Empty means OutcomeOK.
	Expect string `yaml:"expect,omitempty"`
}

// CandidateSpec is the registration input of a create step.
type CandidateSpec struct {
	Name          string `yaml:"name"`
	Phone         string `yaml:"phone"`
	VehicleType   string `yaml:"vehicle_type"`
	VehicleNumber string `yaml:"vehicle_number"`
}

// DriverSpec lists the fields an update step overwrites. Empty fields keep
// the current value.
type DriverSpec struct {
	ID            int64  `yaml:"id"`
	Name          string `yaml:"name,omitempty"`
	Phone         string `yaml:"phone,omitempty"`
	Status        string `yaml:"status,omitempty"`
	Experience    string `yaml:"experience,omitempty"`
	VehicleType   string `yaml:"vehicle_type,omitempty"`
	VehicleNumber string `yaml:"vehicle_number,omitempty"`
}

// DocumentSpec is the file of an attach step.
type DocumentSpec struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	Content string `yaml:"content"`
}

// Assertion validates the final state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// IDs is the expected id sequence (list_ids, stored_ids).
	IDs []int64 `yaml:"ids,omitempty"`

	// Key is the storage key (key_present, key_absent).
	Key string `yaml:"key,omitempty"`

	// ID selects the record (driver).
	ID int64 `yaml:"id,omitempty"`

	// Expect holds expected JSON field values (driver). Subset match.
	Expect map[string]any `yaml:"expect,omitempty"`
}

// Step operations.
const (
	OpLoad          = "load"
	OpReload        = "reload"
	OpCreate        = "create"
	OpUpdate        = "update"
	OpDelete        = "delete"
	OpAttach        = "attach"
	OpFailWrites    = "fail_writes"
	OpRestoreWrites = "restore_writes"
)

// Step outcomes.
const (
	OutcomeOK         = "ok"
	OutcomeValidation = "validation"
	OutcomeStorage    = "storage"
)

// Assertion types.
const (
	AssertListIDs    = "list_ids"
	AssertStoredIDs  = "stored_ids"
	AssertKeyPresent = "key_present"
	AssertKeyAbsent  = "key_absent"
	AssertDriver     = "driver"
)

// Defaults values.
const (
	DefaultsNone    = "none"
	DefaultsBuiltin = "builtin"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields, or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadScenarios loads every *.yaml file in dir, sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	out := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		out = append(out, s)
	}
	return out, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	switch s.Defaults {
	case "", DefaultsNone, DefaultsBuiltin:
	default:
		return fmt.Errorf("defaults: unknown value %q", s.Defaults)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertion %d: %w", i, err)
		}
	}
	return nil
}

func validateStep(step Step) error {
	switch step.Expect {
	case "", OutcomeOK, OutcomeValidation, OutcomeStorage:
	default:
		return fmt.Errorf("expect: unknown outcome %q", step.Expect)
	}

	switch step.Op {
	case OpLoad, OpReload, OpFailWrites, OpRestoreWrites:
	case OpCreate:
		if step.Candidate == nil {
			return fmt.Errorf("create requires candidate")
		}
	case OpUpdate:
		if step.Driver == nil || step.Driver.ID == 0 {
			return fmt.Errorf("update requires driver.id")
		}
	case OpDelete:
		if step.ID == 0 {
			return fmt.Errorf("delete requires id")
		}
	case OpAttach:
		if step.ID == 0 || step.Kind == "" || step.Document == nil {
			return fmt.Errorf("attach requires id, kind and document")
		}
	case "":
		return fmt.Errorf("op is required")
	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}
	return nil
}

func validateAssertion(a Assertion) error {
	switch a.Type {
	case AssertListIDs, AssertStoredIDs:
	case AssertKeyPresent, AssertKeyAbsent:
		if a.Key == "" {
			return fmt.Errorf("%s requires key", a.Type)
		}
	case AssertDriver:
		if a.ID == 0 || len(a.Expect) == 0 {
			return fmt.Errorf("driver requires id and expect")
		}
	case "":
		return fmt.Errorf("type is required")
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
