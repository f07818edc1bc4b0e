package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/roach88/fleetdesk/internal/driver"
	"github.com/roach88/fleetdesk/internal/driverstore"
	"github.com/roach88/fleetdesk/internal/kv"
)

// AssertionContext gives assertions access to raw storage.
type AssertionContext struct {
	Backend kv.Store
	Ctx     context.Context
}

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("Assertion failed: %s\n  Expected: %s\n  Actual: %s", e.Type, e.Expected, e.Actual)
}

// EvaluateAssertions checks every assertion and returns the failure
// messages.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var msgs []string
	for _, a := range assertions {
		if err := evaluate(result, a, actx); err != nil {
			msgs = append(msgs, err.Error())
		}
	}
	return msgs
}

func evaluate(result *Result, a Assertion, actx *AssertionContext) error {
	switch a.Type {
	case AssertListIDs:
		return compareIDs(a.Type, a.IDs, idsOf(result.Drivers))
	case AssertStoredIDs:
		got, err := storedIDs(actx)
		if err != nil {
			return err
		}
		return compareIDs(a.Type, a.IDs, got)
	case AssertKeyPresent, AssertKeyAbsent:
		_, ok, err := actx.Backend.Get(actx.Ctx, a.Key)
		if err != nil {
			return fmt.Errorf("%s: read %q: %w", a.Type, a.Key, err)
		}
		if want := a.Type == AssertKeyPresent; ok != want {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("key %q present=%t", a.Key, want),
				Actual:   fmt.Sprintf("present=%t", ok),
			}
		}
		return nil
	case AssertDriver:
		return assertDriver(result.Drivers, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func compareIDs(typ string, want, got []int64) error {
	if want == nil {
		want = []int64{}
	}
	if slices.Equal(want, got) {
		return nil
	}
	return &AssertionError{Type: typ, Expected: fmt.Sprint(want), Actual: fmt.Sprint(got)}
}

func idsOf(list []driver.Driver) []int64 {
	ids := make([]int64, len(list))
	for i, d := range list {
		ids[i] = d.ID
	}
	return ids
}

func storedIDs(actx *AssertionContext) ([]int64, error) {
	raw, ok, err := actx.Backend.Get(actx.Ctx, driverstore.AggregateKey)
	if err != nil {
		return nil, fmt.Errorf("stored_ids: %w", err)
	}
	if !ok {
		return []int64{}, nil
	}
	var list []driver.Driver
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, fmt.Errorf("stored_ids: %w", err)
	}
	return idsOf(list), nil
}

// assertDriver compares the expected fields against the record's JSON
// form. Values are compared by their JSON encoding so YAML ints match JSON
// numbers.
func assertDriver(list []driver.Driver, a Assertion) error {
	i := slices.IndexFunc(list, func(d driver.Driver) bool { return d.ID == a.ID })
	if i < 0 {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("driver %d", a.ID), Actual: "not found"}
	}

	raw, err := json.Marshal(list[i])
	if err != nil {
		return err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return err
	}

	for key, want := range a.Expect {
		wantJSON, err := json.Marshal(want)
		if err != nil {
			return fmt.Errorf("driver %d: expect %s: %w", a.ID, key, err)
		}
		got, ok := fields[key]
		if !ok || !bytes.Equal(compact(got), wantJSON) {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("driver %d %s=%s", a.ID, key, wantJSON),
				Actual:   string(got),
			}
		}
	}
	return nil
}

func compact(raw json.RawMessage) []byte {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return raw
	}
	return buf.Bytes()
}
