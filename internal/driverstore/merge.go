package driverstore

import "github.com/roach88/fleetdesk/internal/driver"

// Merge reconciles the aggregate list with individually stored records.
//
// Aggregate records come first in their stored order, then records only
// present individually, in the order given. Duplicate ids collapse to the
// record chosen by prefer, in the position of the first occurrence.
// Duplicates inside the aggregate list itself are collapsed the same way.
func Merge(aggregate, individual []driver.Driver) []driver.Driver {
	merged := make([]driver.Driver, 0, len(aggregate)+len(individual))
	index := make(map[int64]int, len(aggregate)+len(individual))

	add := func(d driver.Driver) {
		if i, ok := index[d.ID]; ok {
			if !prefer(merged[i], d) {
				merged[i] = d
			}
			return
		}
		index[d.ID] = len(merged)
		merged = append(merged, d)
	}

	for _, d := range aggregate {
		add(d)
	}
	for _, d := range individual {
		add(d)
	}
	return merged
}

// prefer reports whether the record already held should win over the
// incoming one. Aggregate records are always seen first, so on a full tie
// the aggregate entry (or the earlier aggregate duplicate) wins.
func prefer(kept, incoming driver.Driver) bool {
	if kept.Version != incoming.Version {
		return kept.Version > incoming.Version
	}
	if !kept.UpdatedAt.Equal(incoming.UpdatedAt) {
		return kept.UpdatedAt.After(incoming.UpdatedAt)
	}
	return true
}
