package stats

import (
	"fmt"
	"time"

	"peek/internal/tracker"
)

// Pattern kinds accepted by NewPattern.
const (
	KindProgressUnassigned = "progress_unassigned"
	KindDormant            = "dormant"
	KindFresh              = "fresh"
)

// DefaultPatternName is reported when no anti-patterns are configured.
const DefaultPatternName = "Progress But Unassigned"

// Pattern identifies tasks in an undesirable state within one board column.
type Pattern interface {
	Name() string
	Column() string
	Match(tasks []tracker.Task, now time.Time) []tracker.Task
}

type progressUnassigned struct {
	name, column string
}

func (p progressUnassigned) Name() string   { return p.name }
func (p progressUnassigned) Column() string { return p.column }

// Match returns tasks that sit in the column without an owner.
func (p progressUnassigned) Match(tasks []tracker.Task, _ time.Time) []tracker.Task {
	var out []tracker.Task
	for _, t := range tasks {
		if !t.Assigned() {
			out = append(out, t)
		}
	}
	return out
}

type dormant struct {
	name, column string
	age          time.Duration
}

func (p dormant) Name() string   { return p.name }
func (p dormant) Column() string { return p.column }

func (p dormant) Match(tasks []tracker.Task, now time.Time) []tracker.Task {
	return tracker.ModifiedBefore(tasks, now.Add(-p.age))
}

type fresh struct {
	name, column string
	age          time.Duration
}

func (p fresh) Name() string   { return p.name }
func (p fresh) Column() string { return p.column }

func (p fresh) Match(tasks []tracker.Task, now time.Time) []tracker.Task {
	return tracker.ModifiedAfter(tasks, now.Add(-p.age))
}

// NewPattern builds a pattern of the given kind. Age is ignored by
// progress_unassigned and required by the others.
func NewPattern(name, kind, column string, age time.Duration) (Pattern, error) {
	if column == "" {
		return nil, fmt.Errorf("anti-pattern %q: column is required", name)
	}
	switch kind {
	case KindProgressUnassigned:
		return progressUnassigned{name: name, column: column}, nil
	case KindDormant, KindFresh:
		if age <= 0 {
			return nil, fmt.Errorf("anti-pattern %q: age must be positive", name)
		}
		if kind == KindDormant {
			return dormant{name: name, column: column, age: age}, nil
		}
		return fresh{name: name, column: column, age: age}, nil
	default:
		return nil, fmt.Errorf("anti-pattern %q: unknown kind %q", name, kind)
	}
}

// DefaultPatterns is the pattern set used when none is configured.
func DefaultPatterns() []Pattern {
	return []Pattern{progressUnassigned{name: DefaultPatternName, column: "progress"}}
}

// AntiPatterns collects matches per pattern, deduplicated across every project
// added so far.
type AntiPatterns struct {
	names   []string
	matches map[string][]tracker.Task
}

// NewAntiPatterns returns an empty collection.
func NewAntiPatterns() *AntiPatterns {
	return &AntiPatterns{matches: make(map[string][]tracker.Task)}
}

// Register makes a pattern visible in the report even before it matches anything.
func (a *AntiPatterns) Register(name string) {
	if _, ok := a.matches[name]; ok {
		return
	}
	a.names = append(a.names, name)
	a.matches[name] = []tracker.Task{}
}

// Add merges matches into the pattern's set and deduplicates the whole set.
func (a *AntiPatterns) Add(name string, tasks []tracker.Task) {
	a.Register(name)
	merged := make([]tracker.Task, 0, len(a.matches[name])+len(tasks))
	merged = append(merged, a.matches[name]...)
	merged = append(merged, tasks...)
	a.matches[name] = Dedupe(merged)
}

// Names returns the registered pattern names in registration order.
func (a *AntiPatterns) Names() []string {
	return a.names
}

// Matches returns the deduplicated matches of a pattern.
func (a *AntiPatterns) Matches(name string) []tracker.Task {
	return a.matches[name]
}

// Total is the number of distinct matches summed over patterns.
func (a *AntiPatterns) Total() int {
	total := 0
	for _, tasks := range a.matches {
		total += len(tasks)
	}
	return total
}
