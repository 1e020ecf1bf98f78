package tracker

// FieldSummary maps a field name to the occurrence count of each observed value.
type FieldSummary map[string]map[string]int

// Field is a task attribute that can be summarized.
type Field string

const (
	FieldPriority  Field = "priority"
	FieldStatus    Field = "status"
	FieldIssueType Field = "issue type"
)

// Canonical status values for backends that only report completion.
const (
	StatusOpen     = "open"
	StatusResolved = "resolved"
)

// Extract returns the field value of a task, or false when the task carries none.
func (f Field) Extract(t Task) (string, bool) {
	switch f {
	case FieldPriority:
		return t.Priority, t.Priority != ""
	case FieldIssueType:
		return t.Subtype, t.Subtype != ""
	case FieldStatus:
		if t.Status != "" {
			return t.Status, true
		}
		if t.Completed {
			return StatusResolved, true
		}
		return StatusOpen, true
	}
	return "", false
}

// Summarize counts the values of every field over tasks. Every requested
// field is present in the result, empty when no task carried a value.
func Summarize(tasks []Task, fields []Field) FieldSummary {
	summary := make(FieldSummary, len(fields))
	for _, f := range fields {
		counts := make(map[string]int)
		for _, t := range tasks {
			if v, ok := f.Extract(t); ok {
				counts[v]++
			}
		}
		summary[string(f)] = counts
	}
	return summary
}

// enabledFields keeps the supported fields that appear in enabled, in supported order.
func enabledFields(supported []Field, enabled []string) []Field {
	want := make(map[string]bool, len(enabled))
	for _, e := range enabled {
		want[e] = true
	}
	var out []Field
	for _, f := range supported {
		if want[string(f)] {
			out = append(out, f)
		}
	}
	return out
}
