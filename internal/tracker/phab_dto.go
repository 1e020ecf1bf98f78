package tracker

import "encoding/json"

// conduitResponse is the envelope of every Conduit API call.
type conduitResponse struct {
	Result    json.RawMessage `json:"result"`
	ErrorCode *string         `json:"error_code"`
	ErrorInfo *string         `json:"error_info"`
}

// phabSearchResult is the result of maniphest.search.
type phabSearchResult struct {
	Data   []phabTaskDTO `json:"data"`
	Cursor struct {
		After *string `json:"after"`
	} `json:"cursor"`
}

// phabTaskDTO is a single task in a maniphest.search result.
type phabTaskDTO struct {
	ID     int    `json:"id"`
	PHID   string `json:"phid"`
	Fields struct {
		Name      string  `json:"name"`
		OwnerPHID *string `json:"ownerPHID"`
		Status    struct {
			Value string `json:"value"`
			Name  string `json:"name"`
		} `json:"status"`
		Priority struct {
			Value int    `json:"value"`
			Name  string `json:"name"`
		} `json:"priority"`
		Subtype      string `json:"subtype"`
		DateCreated  int64  `json:"dateCreated"`
		DateModified int64  `json:"dateModified"`
	} `json:"fields"`
	Attachments struct {
		Projects struct {
			ProjectPHIDs []string `json:"projectPHIDs"`
		} `json:"projects"`
	} `json:"attachments"`
}
