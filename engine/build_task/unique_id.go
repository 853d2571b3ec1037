package build_task

import "sync/atomic"

var uniqueID atomic.Uint64

// NextUniqueID returns a process-wide, strictly increasing id. Build tasks and deletion markers
// draw from the same sequence so their relative order can be compared.
//
// Returns:
//   - uint64: the next id, never 0
func NextUniqueID() uint64 {
	return uniqueID.Add(1)
}
