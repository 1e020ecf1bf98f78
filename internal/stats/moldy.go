package stats

import (
	"time"

	"peek/internal/tracker"
)

// MoldyCutoff is the modification time before which an assigned task is moldy.
func MoldyCutoff(start time.Time, threshold time.Duration) time.Time {
	return start.Add(-threshold)
}

// PartitionMoldy returns the assigned tasks not modified within threshold of now,
// oldest first. The assigned list itself is left untouched.
func PartitionMoldy(assigned []tracker.Task, threshold time.Duration, now time.Time) []tracker.Task {
	return tracker.ModifiedBefore(assigned, MoldyCutoff(now, threshold))
}
