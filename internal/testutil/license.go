package testutil

import (
	"fmt"
	"sync"
)

// LicenseSequence returns predictable license numbers: DL-TEST00001,
// DL-TEST00002, ...
//
// Thread-safety: LicenseSequence is safe for concurrent use via internal mutex.
type LicenseSequence struct {
	mu sync.Mutex
	n  int
}

// Next returns the next license number. Its signature matches the store's
// license source.
func (l *LicenseSequence) Next() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.n++
	return fmt.Sprintf("DL-TEST%05d", l.n)
}
