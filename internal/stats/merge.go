package stats

import "peek/internal/tracker"

// CloneSummary returns a deep copy of s.
func CloneSummary(s tracker.FieldSummary) tracker.FieldSummary {
	out := make(tracker.FieldSummary, len(s))
	for field, counts := range s {
		c := make(map[string]int, len(counts))
		for v, n := range counts {
			c[v] = n
		}
		out[field] = c
	}
	return out
}

// MergeSummaries adds the counts of a and b value by value into a new summary.
// Fields or values present on one side only are kept as they are.
func MergeSummaries(a, b tracker.FieldSummary) tracker.FieldSummary {
	out := CloneSummary(a)
	for field, counts := range b {
		if out[field] == nil {
			out[field] = make(map[string]int, len(counts))
		}
		for v, n := range counts {
			out[field][v] += n
		}
	}
	return out
}

// Dedupe drops tasks structurally equal to an earlier one, keeping first occurrences.
func Dedupe(tasks []tracker.Task) []tracker.Task {
	out := make([]tracker.Task, 0, len(tasks))
	for _, t := range tasks {
		if !containsTask(out, t) {
			out = append(out, t)
		}
	}
	return out
}

// MergeTasks appends the incoming tasks that are not already in existing.
func MergeTasks(existing, incoming []tracker.Task) []tracker.Task {
	out := make([]tracker.Task, 0, len(existing)+len(incoming))
	out = append(out, existing...)
	for _, t := range incoming {
		if !containsTask(out, t) {
			out = append(out, t)
		}
	}
	return out
}

func containsTask(tasks []tracker.Task, t tracker.Task) bool {
	for _, existing := range tasks {
		if existing.Equal(t) {
			return true
		}
	}
	return false
}
