package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const asanaDefaultHost = "https://app.asana.com/api/1.0"

var asanaFields = []Field{FieldStatus}

type asanaClient struct {
	cfg        BackendConfig
	httpClient *http.Client
	baseURL    string
	taskFmt    string // project gid, task gid
	projectFmt string // project gid

	workspace asanaRef
	projects  map[string]asanaRef // by configured name
	users     []asanaRef

	history historyCache

	now   func() time.Time
	sleep func(time.Duration)
}

// NewAsanaClient authenticates with a personal access token and resolves the
// configured workspace and projects by name.
func NewAsanaClient(cfg BackendConfig) (Source, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("asana: token is required")
	}
	if cfg.Workspace == "" {
		return nil, fmt.Errorf("asana: workspace is required")
	}

	httpClient := oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token}))
	httpClient.Timeout = cfg.timeout()

	c := &asanaClient{
		cfg:        cfg,
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(cfg.Host, "/"),
		taskFmt:    cfg.TaskURL,
		projectFmt: cfg.ProjectURL,
		projects:   make(map[string]asanaRef),
		history:    make(historyCache),
		now:        time.Now,
		sleep:      time.Sleep,
	}
	if c.baseURL == "" {
		c.baseURL = asanaDefaultHost
	}
	if c.taskFmt == "" {
		c.taskFmt = "https://app.asana.com/0/%s/%s"
	}
	if c.projectFmt == "" {
		c.projectFmt = "https://app.asana.com/0/%s/"
	}

	if err := c.resolveWorkspace(); err != nil {
		return nil, err
	}
	if err := c.resolveProjects(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *asanaClient) Name() string { return BackendAsana }

// get performs one GET request and returns the decoded envelope.
func (c *asanaClient) get(path string, query url.Values) (*asanaEnvelope, error) {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}
	log.Trace().Str("url", reqURL).Msg("Asana request")

	resp, err := c.httpClient.Get(reqURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var envelope asanaEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		if statusErr := checkStatus(BackendAsana, resp); statusErr != nil {
			return nil, statusErr
		}
		return nil, fmt.Errorf("failed to decode Asana response for %s: %w", path, err)
	}
	if len(envelope.Errors) > 0 {
		return nil, fmt.Errorf("asana %s: %s", path, envelope.Errors[0].Message)
	}
	if err := checkStatus(BackendAsana, resp); err != nil {
		return nil, err
	}
	return &envelope, nil
}

// asanaList follows next_page offsets and decodes every item.
func asanaList[T any](c *asanaClient, path string, query url.Values) ([]T, error) {
	if query == nil {
		query = url.Values{}
	}
	query.Set("limit", "100")

	var items []T
	for {
		envelope, err := c.get(path, query)
		if err != nil {
			return nil, err
		}
		var page []T
		if err := json.Unmarshal(envelope.Data, &page); err != nil {
			return nil, fmt.Errorf("failed to decode Asana list %s: %w", path, err)
		}
		items = append(items, page...)

		if envelope.NextPage == nil || envelope.NextPage.Offset == "" {
			return items, nil
		}
		query.Set("offset", envelope.NextPage.Offset)
		c.sleep(c.cfg.Delay())
	}
}

func (c *asanaClient) resolveWorkspace() error {
	workspaces, err := asanaList[asanaRef](c, "/workspaces", nil)
	if err != nil {
		return fmt.Errorf("asana: list workspaces: %w", err)
	}
	for _, ws := range workspaces {
		if ws.Name == c.cfg.Workspace {
			c.workspace = ws
			return nil
		}
	}
	return fmt.Errorf("asana: %q is not a valid workspace", c.cfg.Workspace)
}

func (c *asanaClient) resolveProjects() error {
	projects, err := asanaList[asanaRef](c, "/projects", url.Values{
		"workspace":  {c.workspace.GID},
		"opt_fields": {"name"},
	})
	if err != nil {
		return fmt.Errorf("asana: list projects: %w", err)
	}
	for _, p := range projects {
		if _, ok := c.cfg.Projects[p.Name]; ok {
			log.Debug().Str("project", p.Name).Str("gid", p.GID).Msg("Matched Asana project")
			c.projects[p.Name] = p
		}
	}
	var missing []string
	for _, name := range c.cfg.ProjectNames() {
		if _, ok := c.projects[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("asana: projects %s not found in workspace %q", strings.Join(missing, ", "), c.cfg.Workspace)
	}
	return nil
}

func mapAsanaTask(item asanaTaskDTO) (Task, error) {
	task := Task{
		Backend:   BackendAsana,
		ID:        item.GID,
		Name:      item.Name,
		Completed: item.Completed,
	}
	for _, p := range item.Projects {
		task.ProjectIDs = append(task.ProjectIDs, p.GID)
	}
	created, err := time.Parse(time.RFC3339, item.CreatedAt)
	if err != nil {
		return Task{}, fmt.Errorf("task %s: bad created_at: %w", item.GID, err)
	}
	modified, err := time.Parse(time.RFC3339, item.ModifiedAt)
	if err != nil {
		return Task{}, fmt.Errorf("task %s: bad modified_at: %w", item.GID, err)
	}
	task.Created = created
	task.Modified = modified
	if item.Assignee != nil {
		task.Owner = item.Assignee.GID
	}
	return task, nil
}

func (c *asanaClient) ignored(name string) bool {
	for _, pattern := range c.cfg.Ignore {
		if strings.Contains(name, pattern) {
			return true
		}
	}
	return false
}

func (c *asanaClient) TasksCreatedSince(project string, days int) ([]Task, error) {
	start := windowStart(c.now(), days)
	log.Debug().Str("project", project).Int("days", days).Time("start", start).Msg("Tasks created since")

	if cached, ok := c.history.covering(project, start); ok {
		log.Debug().Str("project", project).Int("days", days).Int("count", len(cached)).Msg("Serving tasks from cache")
		return cached, nil
	}

	ref, ok := c.projects[project]
	if !ok {
		return nil, fmt.Errorf("asana: unknown project %q", project)
	}

	raw, err := asanaList[asanaTaskDTO](c, "/tasks", url.Values{
		"project":    {ref.GID},
		"opt_fields": {asanaTaskFields},
	})
	if err != nil {
		return nil, fmt.Errorf("asana: tasks for %s: %w", project, err)
	}

	var kept []Task
	for _, item := range raw {
		if c.ignored(item.Name) {
			log.Debug().Str("task", item.Name).Msg("Ignoring task")
			continue
		}
		task, err := mapAsanaTask(item)
		if err != nil {
			return nil, fmt.Errorf("asana: tasks for %s: %w", project, err)
		}
		kept = append(kept, task)
	}
	log.Debug().Str("project", project).Int("count", len(kept)).Msg("Project tasks after ignore filter")

	created := CreatedAfter(kept, start)
	c.history[project] = &projectHistory{start: start, tasks: created, all: kept}
	return created, nil
}

func (c *asanaClient) TasksSummary(tasks []Task, enabled []string) FieldSummary {
	return Summarize(tasks, enabledFields(asanaFields, enabled))
}

// ColumnTasks derives the "progress" and "backlog" columns from the project's
// fetched tasks. Projects not fetched yet have no column tasks.
func (c *asanaClient) ColumnTasks(column, project string) ([]Task, error) {
	var keep func(Task) bool
	switch column {
	case "progress":
		keep = func(t Task) bool { return t.Assigned() && !t.Completed }
	case "backlog":
		keep = func(t Task) bool { return !t.Assigned() && !t.Completed }
	default:
		return nil, fmt.Errorf("asana: invalid column %q", column)
	}

	ph, ok := c.history[project]
	if !ok {
		log.Debug().Str("project", project).Msg("Project not populated for column extraction")
		return nil, nil
	}

	var out []Task
	for _, t := range ph.all {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

// UserAssigned scans the fetched projects for open tasks owned by the member.
func (c *asanaClient) UserAssigned(member Member, cutoff time.Time) ([]Task, []Task, error) {
	var assigned []Task
	for _, project := range c.history.projects() {
		for _, t := range c.history[project].all {
			if t.Owner == member.ID && !t.Completed {
				assigned = append(assigned, t)
			}
		}
	}
	return assigned, ModifiedBefore(assigned, cutoff), nil
}

func (c *asanaClient) TaskLink(task Task) (Link, error) {
	if len(task.ProjectIDs) == 0 {
		log.Error().Str("task", task.ID).Str("name", task.Name).Msg("Failed to generate link")
		return Link{}, fmt.Errorf("asana: task %s has no project", task.ID)
	}
	return Link{URL: fmt.Sprintf(c.taskFmt, task.ProjectIDs[0], task.ID), Name: task.Name}, nil
}

func (c *asanaClient) ProjectLink(project string) string {
	ref, ok := c.projects[project]
	if !ok {
		return ""
	}
	return fmt.Sprintf(c.projectFmt, ref.GID)
}

// MemberInfo finds a workspace user by display name.
func (c *asanaClient) MemberInfo(realName, username string) (Member, error) {
	if c.users == nil {
		users, err := asanaList[asanaRef](c, "/users", url.Values{
			"workspace":  {c.workspace.GID},
			"opt_fields": {"name"},
		})
		if err != nil {
			return Member{}, fmt.Errorf("asana: list users: %w", err)
		}
		c.users = users
	}

	var gid string
	for _, u := range c.users {
		if u.Name == username {
			gid = u.GID
			break
		}
	}
	if gid == "" {
		return Member{}, fmt.Errorf("asana: user %q not found in workspace %q", username, c.cfg.Workspace)
	}

	envelope, err := c.get("/users/"+gid, nil)
	if err != nil {
		return Member{}, fmt.Errorf("asana: user %s: %w", gid, err)
	}
	var details map[string]any
	if err := json.Unmarshal(envelope.Data, &details); err != nil {
		return Member{}, fmt.Errorf("failed to decode Asana user %s: %w", gid, err)
	}

	attrs := flattenAttributes(details)
	return Member{
		ID:         gid,
		Username:   username,
		RealName:   attrs["name"],
		Attributes: attrs,
	}, nil
}
