// Package harness runs YAML scenarios against the driver store.
//
// A scenario seeds raw storage entries, executes a sequence of store
// operations and checks the resulting list and storage contents. Each run
// uses a fresh in-memory backend, a deterministic clock and deterministic
// license numbers, so the recorded trace can be compared against a golden
// file.
//
// # Scenario Format
//
//	name: scenario_name
//	description: "What this scenario validates"
//	defaults: builtin            # or "none" (the default)
//	storage:
//	  drivers: '[]'
//	  driver_7: '{"id":7,"name":"Stray"}'
//	steps:
//	  - op: load
//	  - op: create
//	    candidate: { name: "John Smith", phone: "555", vehicle_type: bike, vehicle_number: "KA-01" }
//	  - op: update
//	    driver: { id: 1, phone: "556" }
//	  - op: attach
//	    id: 2
//	    kind: panCard
//	    document: { name: pan.pdf, type: application/pdf, content: "%PDF-1.4" }
//	  - op: delete
//	    id: 3
//	    expect: ok               # ok | validation | storage
//	  - op: fail_writes
//	  - op: restore_writes
//	  - op: reload               # fresh store over the same backend
//	assertions:
//	  - type: list_ids
//	    ids: [1, 2, 4]
//	  - type: stored_ids
//	    ids: [1, 2, 4]
//	  - type: key_absent
//	    key: driver_3
//	  - type: driver
//	    id: 5
//	    expect: { email: john.smith@email.com }
package harness
