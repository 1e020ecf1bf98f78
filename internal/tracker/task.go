package tracker

import (
	"slices"
	"time"
)

// Task is the backend-neutral view of a tracker task.
type Task struct {
	Backend    string
	ID         string
	Name       string
	ProjectIDs []string
	Created    time.Time
	Modified   time.Time
	Owner      string // empty when unassigned
	Completed  bool
	Status     string // enumerated status; empty for backends that only report completion
	Priority   string
	Subtype    string
}

// Equal reports whether two tasks are the same record field for field.
// A refetched task whose fields changed is a different record.
func (t Task) Equal(o Task) bool {
	return t.Backend == o.Backend &&
		t.ID == o.ID &&
		t.Name == o.Name &&
		slices.Equal(t.ProjectIDs, o.ProjectIDs) &&
		t.Created.Equal(o.Created) &&
		t.Modified.Equal(o.Modified) &&
		t.Owner == o.Owner &&
		t.Completed == o.Completed &&
		t.Status == o.Status &&
		t.Priority == o.Priority &&
		t.Subtype == o.Subtype
}

// Assigned reports whether the task has an owner.
func (t Task) Assigned() bool {
	return t.Owner != ""
}

// Member is a tracker user as seen by the report.
type Member struct {
	ID       string
	Username string
	RealName string
	Roles    []string

	// Attributes is a flat string view of the vendor user record.
	Attributes map[string]string
}

// IsZero reports whether the member is empty (e.g. an ignored bot account).
func (m Member) IsZero() bool {
	return m.ID == ""
}

// Link is a rendered reference to a task.
type Link struct {
	URL  string
	Name string
}

// ModifiedBefore returns the tasks last modified before cutoff, oldest first.
func ModifiedBefore(tasks []Task, cutoff time.Time) []Task {
	var out []Task
	for _, t := range tasks {
		if t.Modified.Before(cutoff) {
			out = append(out, t)
		}
	}
	sortByModified(out)
	return out
}

// ModifiedAfter returns the tasks last modified after cutoff, oldest first.
func ModifiedAfter(tasks []Task, cutoff time.Time) []Task {
	var out []Task
	for _, t := range tasks {
		if t.Modified.After(cutoff) {
			out = append(out, t)
		}
	}
	sortByModified(out)
	return out
}

// CreatedAfter returns the tasks created after cutoff, oldest first.
func CreatedAfter(tasks []Task, cutoff time.Time) []Task {
	var out []Task
	for _, t := range tasks {
		if t.Created.After(cutoff) {
			out = append(out, t)
		}
	}
	slices.SortStableFunc(out, func(a, b Task) int {
		return a.Created.Compare(b.Created)
	})
	return out
}

func sortByModified(tasks []Task) {
	slices.SortStableFunc(tasks, func(a, b Task) int {
		return a.Modified.Compare(b.Modified)
	})
}
