package driverstore

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/fleetdesk/internal/driver"
)

const (
	// AggregateKey holds the JSON array of every driver record.
	AggregateKey = "drivers"

	// IndividualPrefix prefixes the key of each per-driver entry.
	IndividualPrefix = "driver_"
)

// IndividualKey returns the kv key of the entry for id.
func IndividualKey(id int64) string {
	return IndividualPrefix + strconv.FormatInt(id, 10)
}

// ParseIndividualKey extracts the id from an individual entry key.
// Only "driver_" followed by a positive decimal id matches.
func ParseIndividualKey(key string) (int64, bool) {
	rest, ok := strings.CutPrefix(key, IndividualPrefix)
	if !ok || rest == "" {
		return 0, false
	}
	for _, r := range rest {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// individualKeys filters keys down to individual entries, ordered by id.
func individualKeys(keys []string) []string {
	type keyed struct {
		key string
		id  int64
	}
	var found []keyed
	for _, k := range keys {
		if id, ok := ParseIndividualKey(k); ok {
			found = append(found, keyed{key: k, id: id})
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].id < found[j].id })

	out := make([]string, len(found))
	for i, f := range found {
		out[i] = f.key
	}
	return out
}

// decodeAggregate parses the aggregate entry. A value that is not a JSON
// array yields an error; elements that fail to decode or lack an id are
// reported through skip and left out.
func decodeAggregate(raw string, skip func(index int, err error)) ([]driver.Driver, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &elems); err != nil {
		return nil, fmt.Errorf("decode aggregate: %w", err)
	}

	out := make([]driver.Driver, 0, len(elems))
	for i, e := range elems {
		d, err := decodeRecord(e)
		if err != nil {
			skip(i, err)
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

// decodeRecord parses one record and rejects records without an id.
func decodeRecord(raw []byte) (driver.Driver, error) {
	var d driver.Driver
	if err := json.Unmarshal(raw, &d); err != nil {
		return driver.Driver{}, fmt.Errorf("decode record: %w", err)
	}
	if d.ID == 0 {
		return driver.Driver{}, fmt.Errorf("decode record: missing id")
	}
	return d, nil
}

func encodeAggregate(drivers []driver.Driver) (string, error) {
	if drivers == nil {
		drivers = []driver.Driver{}
	}
	b, err := json.Marshal(drivers)
	if err != nil {
		return "", fmt.Errorf("encode aggregate: %w", err)
	}
	return string(b), nil
}

func encodeRecord(d driver.Driver) (string, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("encode record %d: %w", d.ID, err)
	}
	return string(b), nil
}
