package report

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"peek/internal/config"
	"peek/internal/stats"
	"peek/internal/tracker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// SourceFactory connects to a backend by name.
type SourceFactory func(name string, cfg tracker.BackendConfig) (tracker.Source, error)

// Builder drives one reporting run over every enabled backend.
// A Builder is single use and not safe for concurrent use.
type Builder struct {
	cfg       *config.AppConfig
	newSource SourceFactory
	now       func() time.Time
	sleep     func(time.Duration)
	runID     string
}

// NewBuilder returns a Builder that talks to the real backends.
func NewBuilder(cfg *config.AppConfig) *Builder {
	return &Builder{
		cfg:       cfg,
		newSource: tracker.NewSource,
		now:       time.Now,
		sleep:     time.Sleep,
		runID:     uuid.NewString(),
	}
}

// RunID identifies this run in logs and in the report.
func (b *Builder) RunID() string {
	return b.runID
}

// run holds the state shared by every backend of one Build call.
type run struct {
	start    time.Time
	cutoff   time.Time
	patterns []stats.Pattern
	grand    *stats.Total
}

// Build queries every enabled backend and assembles the report.
// Any fetch error aborts the run.
func (b *Builder) Build() (*Report, error) {
	patterns, err := b.cfg.Patterns()
	if err != nil {
		return nil, err
	}

	start := b.now()
	r := &run{
		start:    start,
		cutoff:   stats.MoldyCutoff(start, b.cfg.MoldyThreshold()),
		patterns: patterns,
		grand:    stats.NewTotal(b.cfg.MaxDuration()),
	}
	for _, p := range patterns {
		r.grand.Anti.Register(p.Name())
	}

	logger := log.With().Str("run_id", b.runID).Logger()
	logger.Info().Ints("history", b.cfg.Durations()).Msg("Starting report run")

	rep := &Report{
		Job:   b.cfg.Job,
		Total: r.grand,
		Meta: Meta{
			RunID: b.runID,
			Name:  ToolName,
			Start: start,
			Now:   start,
		},
	}

	for _, name := range b.cfg.BackendNames() {
		beCfg := b.cfg.Backends[name]
		if !beCfg.Enabled {
			logger.Warn().Str("backend", name).Msg("Backend disabled, skipping")
			continue
		}

		src, err := b.newSource(name, beCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to %s: %w", name, err)
		}

		section, err := b.buildBackend(r, src, beCfg)
		if err != nil {
			return nil, err
		}
		rep.Backends = append(rep.Backends, *section)
		rep.Meta.EnabledBackends = append(rep.Meta.EnabledBackends, name)
		for _, p := range section.Projects {
			rep.Meta.EnabledProjects = append(rep.Meta.EnabledProjects, p.Name)
		}
	}

	r.grand.Finish(len(b.cfg.Users.Map))
	rep.Meta.Runtime = b.now().Sub(start).Seconds()

	logger.Info().
		Int("backends", len(rep.Backends)).
		Int("anti_patterns", r.grand.Anti.Total()).
		Float64("runtime", rep.Meta.Runtime).
		Msg("Report run finished")
	return rep, nil
}

func (b *Builder) buildBackend(r *run, src tracker.Source, beCfg tracker.BackendConfig) (*BackendSection, error) {
	name := src.Name()
	section := &BackendSection{
		Name:  name,
		Total: stats.NewTotal(b.cfg.MaxDuration()),
	}
	for _, p := range r.patterns {
		section.Total.Anti.Register(p.Name())
	}

	for _, project := range beCfg.ProjectNames() {
		ps, err := b.buildProject(r, src, section.Total, project, beCfg.Projects[project])
		if err != nil {
			return nil, err
		}
		section.Projects = append(section.Projects, *ps)
	}

	// every project of a backend shares the backend-wide header
	for i := range section.Projects {
		ps := &section.Projects[i]
		ps.Tables = stats.BuildTables(section.Total.Header, ps.History)
	}

	users, err := b.buildUsers(r, src, section.Total, beCfg.Delay())
	if err != nil {
		return nil, err
	}
	section.Users = users

	section.Total.Finish(b.mappedUsers(name))
	log.Info().
		Str("backend", name).
		Int("projects", len(section.Projects)).
		Int("users", len(section.Users)).
		Int("anti_patterns", section.Total.Anti.Total()).
		Msg("Backend done")
	return section, nil
}

// buildProject fetches the history windows longest first, so shorter windows
// are served from the source's cache, then the board columns.
func (b *Builder) buildProject(r *run, src tracker.Source, total *stats.Total, project string, pCfg tracker.ProjectConfig) (*ProjectSection, error) {
	backend := src.Name()
	ps := &ProjectSection{
		Name:    project,
		URI:     src.ProjectLink(project),
		Columns: make(map[string][]tracker.Task),
	}

	fields := b.cfg.FieldsFor(backend)
	for _, days := range b.cfg.Durations() {
		tasks, err := src.TasksCreatedSince(project, days)
		if err != nil {
			return nil, fmt.Errorf("%s: tasks of %s in the last %d days: %w", backend, project, days, err)
		}
		summary := src.TasksSummary(tasks, fields)
		ps.History = append(ps.History, stats.Window{Days: days, Summary: summary})

		total.AddHistory(days, summary)
		r.grand.AddHistory(days, summary)

		log.Debug().
			Str("backend", backend).
			Str("project", project).
			Int("days", days).
			Int("count", len(tasks)).
			Msg("Summarized created tasks")
	}

	header := stats.DiscoverHeader(ps.History)
	total.AddHeader(header)
	r.grand.AddHeader(header)

	for _, column := range slices.Sorted(maps.Keys(pCfg.Columns)) {
		tasks, err := src.ColumnTasks(column, project)
		if err != nil {
			return nil, fmt.Errorf("%s: column %s of %s: %w", backend, column, project, err)
		}
		ps.Columns[column] = tasks
		total.AddColumn(column, tasks)
		r.grand.AddColumn(column, tasks)
	}

	for _, p := range r.patterns {
		tasks, ok := ps.Columns[p.Column()]
		if !ok {
			continue
		}
		matches := p.Match(tasks, r.start)
		total.Anti.Add(p.Name(), matches)
		r.grand.Anti.Add(p.Name(), matches)

		// count is per project and may exceed the deduplicated total
		log.Info().
			Str("backend", backend).
			Str("project", project).
			Str("pattern", p.Name()).
			Int("count", len(matches)).
			Msg("Anti-pattern matches")
	}

	return ps, nil
}

func (b *Builder) buildUsers(r *run, src tracker.Source, total *stats.Total, delay time.Duration) ([]UserSection, error) {
	backend := src.Name()
	var users []UserSection

	for _, name := range b.cfg.UserNames() {
		username := b.cfg.Users.Map[name][backend]
		if username == "" {
			continue
		}

		member, err := src.MemberInfo(name, username)
		if err != nil {
			return nil, fmt.Errorf("%s: member %s: %w", backend, name, err)
		}
		if member.IsZero() {
			b.sleep(delay)
			continue
		}

		assigned, moldy, err := src.UserAssigned(member, r.cutoff)
		if err != nil {
			return nil, fmt.Errorf("%s: assigned tasks of %s: %w", backend, name, err)
		}

		shown, err := b.moldyLinks(src, moldy)
		if err != nil {
			log.Error().Err(err).Str("backend", backend).Str("user", name).Msg("Failed to link moldy task")
			return nil, err
		}

		users = append(users, UserSection{
			Name:     name,
			Member:   member,
			Shown:    b.projectAttributes(backend, member),
			Assigned: assigned,
			Moldy:    Moldy{All: moldy, Shown: shown},
		})
		total.AddUser(name, assigned, moldy)
		r.grand.AddUser(name, assigned, moldy)

		log.Debug().
			Str("backend", backend).
			Str("user", name).
			Int("assigned", len(assigned)).
			Int("moldy", len(moldy)).
			Msg("Collected user tasks")

		b.sleep(delay)
	}
	return users, nil
}

func (b *Builder) moldyLinks(src tracker.Source, moldy []tracker.Task) ([]tracker.Link, error) {
	n := max(0, min(len(moldy), b.cfg.Users.ShowMoldy))
	links := make([]tracker.Link, 0, n)
	for _, t := range moldy[:n] {
		link, err := src.TaskLink(t)
		if err != nil {
			return nil, err
		}
		links = append(links, link)
	}
	return links, nil
}

// projectAttributes copies the member attributes configured for this backend
// under their display keys.
func (b *Builder) projectAttributes(backend string, member tracker.Member) map[string]string {
	shown := make(map[string]string)
	for attr, rule := range b.cfg.Users.Attributes.Show {
		if rule.Backend != backend {
			continue
		}
		if v, ok := member.Attributes[attr]; ok {
			shown[rule.Key] = v
		}
	}
	return shown
}

// mappedUsers counts the people with a username on the backend, whether or
// not they end up with tasks.
func (b *Builder) mappedUsers(backend string) int {
	n := 0
	for _, usernames := range b.cfg.Users.Map {
		if usernames[backend] != "" {
			n++
		}
	}
	return n
}
