package tracker

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

var phabFields = []Field{FieldPriority, FieldStatus, FieldIssueType}

type phabClient struct {
	cfg        BackendConfig
	httpClient *http.Client
	endpoint   string // ends in "/api/"
	taskFmt    string
	projectFmt string

	history historyCache

	now   func() time.Time
	sleep func(time.Duration)
}

// NewPhabClient connects to a Phabricator Conduit endpoint and verifies the token.
func NewPhabClient(cfg BackendConfig) (Source, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("phab: host is required")
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("phab: token is required")
	}

	base := strings.TrimSuffix(strings.TrimSuffix(cfg.Host, "/"), "/api")
	c := &phabClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.timeout()},
		endpoint:   base + "/api/",
		taskFmt:    cfg.TaskURL,
		projectFmt: cfg.ProjectURL,
		history:    make(historyCache),
		now:        time.Now,
		sleep:      time.Sleep,
	}
	if c.taskFmt == "" {
		c.taskFmt = base + "/T%s"
	}
	if c.projectFmt == "" {
		c.projectFmt = base + "/tag/%s"
	}

	var pong string
	if err := c.call("conduit.ping", nil, &pong); err != nil {
		return nil, fmt.Errorf("phab: connect to %s: %w", c.endpoint, err)
	}
	log.Debug().Str("endpoint", c.endpoint).Str("host", pong).Msg("Connected to Conduit")
	return c, nil
}

func (c *phabClient) Name() string { return BackendPhab }

// call invokes a Conduit method and decodes its result into out.
func (c *phabClient) call(method string, params map[string]any, out any) error {
	body := make(map[string]any, len(params)+1)
	for k, v := range params {
		body[k] = v
	}
	body["__conduit__"] = map[string]string{"token": c.cfg.Token}

	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s params: %w", method, err)
	}
	form := url.Values{}
	form.Set("params", string(encoded))
	form.Set("output", "json")
	form.Set("__conduit__", "1")

	log.Trace().Str("method", method).Msg("Conduit call")
	resp, err := c.httpClient.PostForm(c.endpoint+method, form)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkStatus(BackendPhab, resp); err != nil {
		return err
	}

	var envelope conduitResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", method, err)
	}
	if envelope.ErrorCode != nil {
		info := ""
		if envelope.ErrorInfo != nil {
			info = *envelope.ErrorInfo
		}
		return fmt.Errorf("%s: %s: %s", method, *envelope.ErrorCode, info)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return fmt.Errorf("failed to decode %s result: %w", method, err)
	}
	return nil
}

// search follows maniphest.search cursors until the last page.
func (c *phabClient) search(queryKey, order string, constraints map[string]any) ([]Task, error) {
	var tasks []Task
	after := ""
	for {
		params := map[string]any{
			"queryKey":    queryKey,
			"constraints": constraints,
			"attachments": map[string]bool{"projects": true},
			"limit":       100,
		}
		if order != "" {
			params["order"] = order
		}
		if after != "" {
			params["after"] = after
		}

		var page phabSearchResult
		if err := c.call("maniphest.search", params, &page); err != nil {
			return nil, err
		}
		for _, item := range page.Data {
			tasks = append(tasks, mapPhabTask(item))
		}

		if page.Cursor.After == nil || *page.Cursor.After == "" {
			return tasks, nil
		}
		after = *page.Cursor.After
		c.sleep(c.cfg.Delay())
	}
}

func mapPhabTask(item phabTaskDTO) Task {
	task := Task{
		Backend:    BackendPhab,
		ID:         strconv.Itoa(item.ID),
		Name:       item.Fields.Name,
		ProjectIDs: item.Attachments.Projects.ProjectPHIDs,
		Created:    time.Unix(item.Fields.DateCreated, 0),
		Modified:   time.Unix(item.Fields.DateModified, 0),
		Status:     item.Fields.Status.Value,
		Priority:   item.Fields.Priority.Name,
		Subtype:    item.Fields.Subtype,
	}
	if item.Fields.OwnerPHID != nil {
		task.Owner = *item.Fields.OwnerPHID
	}
	return task
}

func (c *phabClient) TasksCreatedSince(project string, days int) ([]Task, error) {
	start := windowStart(c.now(), days)
	if cached, ok := c.history.covering(project, start); ok {
		log.Debug().Str("project", project).Int("days", days).Msg("Serving tasks from cache")
		return cached, nil
	}

	tasks, err := c.search("all", "closed", map[string]any{
		"projects":     []string{project},
		"createdStart": start.Unix(),
	})
	if err != nil {
		return nil, fmt.Errorf("phab: tasks for %s: %w", project, err)
	}

	c.history[project] = &projectHistory{start: start, tasks: tasks}
	return tasks, nil
}

func (c *phabClient) TasksSummary(tasks []Task, enabled []string) FieldSummary {
	return Summarize(tasks, enabledFields(phabFields, enabled))
}

// ColumnTasks returns the open tasks on a workboard column, identified by its PHID.
func (c *phabClient) ColumnTasks(column, project string) ([]Task, error) {
	tasks, err := c.search("open", "", map[string]any{
		"columnPHIDs": []string{column},
	})
	if err != nil {
		return nil, fmt.Errorf("phab: column %s of %s: %w", column, project, err)
	}
	return tasks, nil
}

func (c *phabClient) UserAssigned(member Member, cutoff time.Time) ([]Task, []Task, error) {
	assigned, err := c.search("open", "", map[string]any{
		"assigned": []string{member.ID},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("phab: tasks assigned to %s: %w", member.Username, err)
	}
	return assigned, ModifiedBefore(assigned, cutoff), nil
}

func (c *phabClient) TaskLink(task Task) (Link, error) {
	return Link{URL: fmt.Sprintf(c.taskFmt, task.ID), Name: task.Name}, nil
}

func (c *phabClient) ProjectLink(project string) string {
	return fmt.Sprintf(c.projectFmt, project)
}

// MemberInfo looks a user up by username. Agent (bot) accounts yield an empty Member.
func (c *phabClient) MemberInfo(realName, username string) (Member, error) {
	var users []map[string]any
	if err := c.call("user.query", map[string]any{"usernames": []string{username}}, &users); err != nil {
		return Member{}, fmt.Errorf("phab: user %s: %w", username, err)
	}
	if len(users) == 0 {
		return Member{}, fmt.Errorf("phab: user %s not found", username)
	}

	details := users[0]
	var roles []string
	if raw, ok := details["roles"].([]any); ok {
		for _, r := range raw {
			if s, ok := r.(string); ok {
				roles = append(roles, s)
			}
		}
	}
	if slices.Contains(roles, "agent") {
		log.Info().Str("user", realName).Str("username", username).Msg("Ignoring agent account")
		return Member{}, nil
	}

	attrs := flattenAttributes(details)
	return Member{
		ID:         attrs["phid"],
		Username:   attrs["userName"],
		RealName:   attrs["realName"],
		Roles:      roles,
		Attributes: attrs,
	}, nil
}
