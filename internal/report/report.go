package report

import (
	"time"

	"peek/internal/stats"
	"peek/internal/tracker"
)

// ToolName is reported in the run metadata.
const ToolName = "peek"

// Report is everything the renderer needs for one run.
type Report struct {
	Job      string
	Meta     Meta
	Backends []BackendSection
	Total    *stats.Total
}

// Meta describes the run itself.
type Meta struct {
	RunID           string
	Name            string
	Start           time.Time
	Now             time.Time
	Runtime         float64 // seconds
	EnabledBackends []string
	EnabledProjects []string
}

// BackendSection holds one backend's projects, people and totals.
type BackendSection struct {
	Name     string
	Projects []ProjectSection
	Users    []UserSection
	Total    *stats.Total
}

// ProjectSection is one project's history and board columns.
type ProjectSection struct {
	Name    string
	URI     string
	History stats.History
	Tables  map[string]stats.Table
	Columns map[string][]tracker.Task
}

// UserSection is one person's tasks on one backend.
type UserSection struct {
	Name     string
	Member   tracker.Member
	Shown    map[string]string // projected member attributes
	Assigned []tracker.Task
	Moldy    Moldy
}

// Moldy keeps the complete moldy list for counting and the linked subset for display.
type Moldy struct {
	All   []tracker.Task
	Shown []tracker.Link
}

// Backend returns the named section, or nil.
func (r *Report) Backend(name string) *BackendSection {
	for i := range r.Backends {
		if r.Backends[i].Name == name {
			return &r.Backends[i]
		}
	}
	return nil
}
