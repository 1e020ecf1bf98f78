package tracker

import "encoding/json"

// asanaEnvelope wraps every Asana REST response.
type asanaEnvelope struct {
	Data     json.RawMessage `json:"data"`
	NextPage *struct {
		Offset string `json:"offset"`
	} `json:"next_page"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// asanaRef is the compact form Asana uses for workspaces, projects and users.
type asanaRef struct {
	GID  string `json:"gid"`
	Name string `json:"name"`
}

// asanaTaskDTO is a task as returned with asanaTaskFields.
type asanaTaskDTO struct {
	GID        string     `json:"gid"`
	Name       string     `json:"name"`
	Projects   []asanaRef `json:"projects"`
	CreatedAt  string     `json:"created_at"`
	ModifiedAt string     `json:"modified_at"`
	Completed  bool       `json:"completed"`
	Assignee   *asanaRef  `json:"assignee"`
}

const asanaTaskFields = "name,projects,created_at,completed,modified_at,assignee,assignee_status,completed_at"
