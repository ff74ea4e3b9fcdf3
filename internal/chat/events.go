package chat

import "encoding/json"

// EventType is the name carried on an SSE "event:" line.
type EventType string

const (
	EventWorkflowStarted EventType = "workflow_started"
	EventThinking        EventType = "thinking"
	EventQueryStarted    EventType = "query_started"
	EventQueryDone       EventType = "query_done"
	EventDone            EventType = "done"
	EventError           EventType = "error"
	EventHeartbeat       EventType = "heartbeat"
)

// QueryStartedPayload represents the payload for query_started events.
type QueryStartedPayload struct {
	Question string `json:"question"`
	SQL      string `json:"sql"`
}

// QueryDonePayload represents the payload for query_done events.
// Rows is either a row count or the rows themselves depending on backend
// version; use RowCount.
type QueryDonePayload struct {
	Question string          `json:"question"`
	SQL      string          `json:"sql"`
	Rows     json.RawMessage `json:"rows"`
	Error    string          `json:"error,omitempty"`
}

// RowCount returns the number of rows reported, or 0 when unknown.
func (p QueryDonePayload) RowCount() int {
	if len(p.Rows) == 0 {
		return 0
	}
	var n int
	if err := json.Unmarshal(p.Rows, &n); err == nil {
		return n
	}
	var rows []json.RawMessage
	if err := json.Unmarshal(p.Rows, &rows); err == nil {
		return len(rows)
	}
	return 0
}

// DonePayload represents the payload for the terminal done event.
type DonePayload struct {
	Answer          string         `json:"answer"`
	DataQuestions   []DataQuestion `json:"dataQuestions"`
	ExecutedQueries []DoneQuery    `json:"executedQueries"`
}

// DoneQuery is an executed query as reported by the done event, with rows
// as a matrix aligned to Columns.
type DoneQuery struct {
	Question string   `json:"question"`
	SQL      string   `json:"sql"`
	Columns  []string `json:"columns"`
	Rows     [][]any  `json:"rows"`
	Count    int      `json:"count"`
	Error    string   `json:"error,omitempty"`
}

// ErrorPayload represents the payload for error events.
type ErrorPayload struct {
	Error string `json:"error"`
}
