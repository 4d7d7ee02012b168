package crucible

import "sync/atomic"

var objectIDCounter atomic.Uint32

// nextObjectID returns a small process-unique id. Ids feed identity diffs and
// packed sort keys, so they stay dense instead of random.
func nextObjectID() uint32 {
	return objectIDCounter.Add(1)
}
