package tracker

import (
	"fmt"
	"net/http"
	"slices"
	"time"
)

// checkStatus maps a non-200 response to a descriptive error.
func checkStatus(backend string, resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%s authentication failed (%d), check the API token", backend, resp.StatusCode)
	case http.StatusNotFound:
		return fmt.Errorf("%s resource not found: %s", backend, resp.Request.URL.Path)
	case http.StatusTooManyRequests:
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			return fmt.Errorf("%s rate limit exceeded (429), retry after %s seconds", backend, retryAfter)
		}
		return fmt.Errorf("%s rate limit exceeded (429)", backend)
	default:
		return fmt.Errorf("%s API returned status %d", backend, resp.StatusCode)
	}
}

// projectHistory is the widest task window fetched so far for one project.
type projectHistory struct {
	start time.Time
	tasks []Task // created after start
	all   []Task // every task of the project, when the backend returns them
}

type historyCache map[string]*projectHistory

// covering serves a narrower window from an earlier, wider fetch.
func (h historyCache) covering(project string, start time.Time) ([]Task, bool) {
	ph, ok := h[project]
	if !ok || !start.After(ph.start) {
		return nil, false
	}
	return CreatedAfter(ph.tasks, start), true
}

func (h historyCache) projects() []string {
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// flattenAttributes keeps the scalar values of a vendor record as strings.
func flattenAttributes(record map[string]any) map[string]string {
	out := make(map[string]string, len(record))
	for k, v := range record {
		switch val := v.(type) {
		case string:
			out[k] = val
		case float64, bool:
			out[k] = fmt.Sprint(val)
		}
	}
	return out
}

func windowStart(now time.Time, days int) time.Time {
	return now.Add(-time.Duration(days) * 24 * time.Hour).Truncate(time.Second)
}
