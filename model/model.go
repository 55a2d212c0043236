package model

import "encoding/json"

// MessageID marks a point in the conversation timeline. Larger is later.
type MessageID int

// ThreadID identifies the conversation thread that owns a tool request.
type ThreadID int

// ToolRequestID is the provider-assigned id of a single tool use.
type ToolRequestID string

// Result is the outcome of a tool run: either Value or Error is meaningful,
// selected by Status.
type Result struct {
	Status string `json:"status"`
	Value  string `json:"value,omitempty"`
	Error  string `json:"error,omitempty"`
}

const (
	StatusOK    = "ok"
	StatusError = "error"
)

// OK builds a successful result.
func OK(value string) Result {
	return Result{Status: StatusOK, Value: value}
}

// Err builds a failed result.
func Err(msg string) Result {
	return Result{Status: StatusError, Error: msg}
}

// IsError reports whether the result carries an error.
func (r Result) IsError() bool {
	return r.Status == StatusError
}

// ToolResult is the payload handed back to the model provider.
type ToolResult struct {
	Type   string        `json:"type"`
	ID     ToolRequestID `json:"id"`
	Result Result        `json:"result"`
}

// NewToolResult wraps a result for the given request.
func NewToolResult(id ToolRequestID, r Result) ToolResult {
	return ToolResult{Type: "tool_result", ID: id, Result: r}
}

// MarshalJSON keeps the value/error fields exclusive so an empty ok value is
// still emitted.
func (r Result) MarshalJSON() ([]byte, error) {
	if r.Status == StatusError {
		return json.Marshal(struct {
			Status string `json:"status"`
			Error  string `json:"error"`
		}{r.Status, r.Error})
	}
	return json.Marshal(struct {
		Status string `json:"status"`
		Value  string `json:"value"`
	}{r.Status, r.Value})
}

// ToolSpec is the declarative schema of a tool exposed to the provider.
type ToolSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

// Summary holds the results of an edit for display.
type Summary struct {
	Path    string
	Removed int
	Added   int
	Preview string
	Message string
	Failed  bool
}
