package tracker

import (
	"fmt"
	"slices"
	"time"
)

// Source is the interface every issue-tracker backend implements.
type Source interface {
	Name() string
	TasksCreatedSince(project string, days int) ([]Task, error)
	TasksSummary(tasks []Task, enabled []string) FieldSummary
	ColumnTasks(column, project string) ([]Task, error)
	UserAssigned(member Member, cutoff time.Time) (assigned []Task, moldy []Task, err error)
	TaskLink(task Task) (Link, error)
	ProjectLink(project string) string
	MemberInfo(realName, username string) (Member, error)
}

// Backend names understood by NewSource.
const (
	BackendPhab  = "phab"
	BackendAsana = "asana"
)

// ProjectConfig holds the per-project settings of a backend.
type ProjectConfig struct {
	// Columns maps a column label (e.g. "progress") to the backend's column identifier.
	Columns map[string]string `yaml:"columns"`
}

// BackendConfig holds the connection and reporting settings for one backend.
type BackendConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Token   string `yaml:"token"`
	Timeout int    `yaml:"timeout"` // seconds

	// Asana only
	Workspace string   `yaml:"workspace"`
	Ignore    []string `yaml:"ignore"`

	// Link formats, filled with fmt.Sprintf
	TaskURL    string `yaml:"task_url"`
	ProjectURL string `yaml:"project_url"`

	QueryDelay    *float64                 `yaml:"query_delay"` // seconds
	SummaryFields []string                 `yaml:"summary_fields"`
	Projects      map[string]ProjectConfig `yaml:"projects"`
}

// Delay returns the courtesy pause between API round trips.
func (c BackendConfig) Delay() time.Duration {
	if c.QueryDelay == nil {
		return 500 * time.Millisecond
	}
	return time.Duration(*c.QueryDelay * float64(time.Second))
}

// ProjectNames returns the configured project names in alphabetical order.
func (c BackendConfig) ProjectNames() []string {
	names := make([]string, 0, len(c.Projects))
	for name := range c.Projects {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (c BackendConfig) timeout() time.Duration {
	if c.Timeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Timeout) * time.Second
}

// NewSource connects to the named backend.
func NewSource(name string, cfg BackendConfig) (Source, error) {
	switch name {
	case BackendPhab:
		return NewPhabClient(cfg)
	case BackendAsana:
		return NewAsanaClient(cfg)
	default:
		return nil, fmt.Errorf("unknown backend %q", name)
	}
}
