package driver

// MigrateStatus maps a status from either historical vocabulary onto the
// closed active/inactive set.
//
// The approval workflow vocabulary (pending/approved/rejected) predates
// the active/inactive one. Only approved drivers were allowed to work, so
// approved becomes active and everything else becomes inactive. A missing
// status is treated as active, which is what list views showed for it.
func MigrateStatus(s Status) Status {
	switch s {
	case StatusActive, StatusInactive:
		return s
	case "approved", "":
		return StatusActive
	case "pending", "rejected":
		return StatusInactive
	default:
		return StatusInactive
	}
}
