package stats

import "peek/internal/tracker"

// UserTotal is one person's tasks across all backends.
type UserTotal struct {
	Assigned []tracker.Task `json:"assigned"`
	Moldy    []tracker.Task `json:"moldy"`
}

// GroupTotal is every reported person's tasks, deduplicated.
type GroupTotal struct {
	Count    int            `json:"count"`
	Assigned []tracker.Task `json:"assigned"`
	Moldy    []tracker.Task `json:"moldy"`
}

// Total accumulates summaries and task lists across projects and backends.
// It is owned by a single run and is not safe for concurrent use.
type Total struct {
	MaxDays    int                       `json:"max_days"`
	History    History                   `json:"history"`
	Header     Header                    `json:"header"`
	Tables     map[string]Table          `json:"tables"`
	Columns    map[string][]tracker.Task `json:"columns"`
	Group      GroupTotal                `json:"group"`
	Individual map[string]*UserTotal     `json:"individual"`
	Anti       *AntiPatterns             `json:"-"`
}

// NewTotal returns an empty accumulator.
func NewTotal(maxDays int) *Total {
	return &Total{
		MaxDays:    maxDays,
		Header:     make(Header),
		Tables:     make(map[string]Table),
		Columns:    make(map[string][]tracker.Task),
		Individual: make(map[string]*UserTotal),
		Anti:       NewAntiPatterns(),
	}
}

// AddHistory folds one project's summary for a duration into the total.
// The first summary seen for a duration seeds it with a copy.
func (t *Total) AddHistory(days int, summary tracker.FieldSummary) {
	if i := t.History.Find(days); i >= 0 {
		t.History[i].Summary = MergeSummaries(t.History[i].Summary, summary)
		return
	}
	t.History = append(t.History, Window{Days: days, Summary: CloneSummary(summary)})
}

// AddHeader unions a project's header into the total header.
func (t *Total) AddHeader(h Header) {
	t.Header.Merge(h)
}

// AddColumn merges the tasks seen on a board column.
func (t *Total) AddColumn(column string, tasks []tracker.Task) {
	t.Columns[column] = MergeTasks(t.Columns[column], tasks)
}

// AddUser merges one backend's assigned and moldy tasks for a person.
func (t *Total) AddUser(name string, assigned, moldy []tracker.Task) {
	u, ok := t.Individual[name]
	if !ok {
		u = &UserTotal{}
		t.Individual[name] = u
	}
	u.Assigned = MergeTasks(u.Assigned, assigned)
	u.Moldy = MergeTasks(u.Moldy, moldy)

	t.Group.Assigned = MergeTasks(t.Group.Assigned, assigned)
	t.Group.Moldy = MergeTasks(t.Group.Moldy, moldy)
}

// BuildTables reshapes the accumulated history with the accumulated header.
func (t *Total) BuildTables() {
	t.Tables = BuildTables(t.Header, t.History)
}

// Finish builds the tables and records how many people the total covers,
// including those without any task. Call it once all projects and users
// have been added.
func (t *Total) Finish(people int) {
	t.BuildTables()
	t.Group.Count = people
}
