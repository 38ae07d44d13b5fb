package core

import (
	"encoding/json"
	"fmt"
	"time"
)

// ErrorKind classifies worker call failures. Every failure observed at the
// caller boundary maps to exactly one kind; nothing else crosses that boundary.
type ErrorKind string

const (
	// ErrorKindTimeout indicates the per-agent call deadline expired.
	ErrorKindTimeout ErrorKind = "timeout"
	// ErrorKindUnreachable indicates a transport failure (connection refused,
	// DNS, circuit open, agent not registered).
	ErrorKindUnreachable ErrorKind = "unreachable"
	// ErrorKindBadResponseShape indicates the worker answered with a payload
	// that does not match the handshake contract.
	ErrorKindBadResponseShape ErrorKind = "bad_response_shape"
	// ErrorKindAgentReportedError indicates the worker reported an explicit
	// error status.
	ErrorKindAgentReportedError ErrorKind = "agent_reported_error"
)

// WorkerInput is the input block of a worker request.
type WorkerInput struct {
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata"`
}

// RequestContext carries conversational context into a worker call.
type RequestContext struct {
	UserID         string       `json:"user_id"`
	ConversationID string       `json:"conversation_id"`
	Timestamp      time.Time    `json:"timestamp"`
	HistorySummary string       `json:"history_summary"`
	FileUploads    []FileUpload `json:"file_uploads,omitempty"`
}

// WorkerRequest is the handshake request sent to a worker agent. One value is
// constructed fresh per dispatched plan step; RequestID is unique per step.
type WorkerRequest struct {
	RequestID string         `json:"request_id"`
	AgentName string         `json:"agent_name"`
	Intent    string         `json:"intent"`
	Input     WorkerInput    `json:"input"`
	Context   RequestContext `json:"context"`
}

// Output is the substantive payload of a successful worker call.
type Output struct {
	Result     string   `json:"result"`
	Confidence *float64 `json:"confidence,omitempty"`
	Details    string   `json:"details,omitempty"`
}

// Failure describes an unsuccessful worker call.
type Failure struct {
	Kind    ErrorKind `json:"type"`
	Message string    `json:"message"`
}

// WorkerResult is the tagged outcome of one worker call: exactly one of Output
// (success) or Failure is set, never both and never neither. Construct values
// via Success or Failed to preserve that invariant.
type WorkerResult struct {
	Output  *Output
	Failure *Failure
}

// Success builds a successful result.
func Success(out Output) WorkerResult {
	return WorkerResult{Output: &out}
}

// Failed builds a failure result with a formatted message.
func Failed(kind ErrorKind, format string, args ...any) WorkerResult {
	return WorkerResult{Failure: &Failure{Kind: kind, Message: fmt.Sprintf(format, args...)}}
}

// OK reports whether the result is the success variant.
func (r WorkerResult) OK() bool { return r.Output != nil }

// Status returns the wire status string for the result.
func (r WorkerResult) Status() string {
	if r.OK() {
		return "success"
	}
	return "error"
}

// workerResultWire mirrors the worker response contract:
// {"status": "...", "output": {...}, "error": {...}}.
type workerResultWire struct {
	Status string   `json:"status"`
	Output *Output  `json:"output"`
	Error  *Failure `json:"error"`
}

// MarshalJSON renders the result in the worker wire shape so debug traces show
// exactly what a worker response looks like.
func (r WorkerResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(workerResultWire{Status: r.Status(), Output: r.Output, Error: r.Failure})
}

// UnmarshalJSON decodes the worker wire shape, enforcing the tagged-union
// invariant. Unknown statuses and success payloads without output are
// rejected; the caller boundary maps such errors to BadResponseShape.
func (r *WorkerResult) UnmarshalJSON(data []byte) error {
	var wire workerResultWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	switch wire.Status {
	case "success":
		if wire.Output == nil {
			return fmt.Errorf("worker result: status success without output")
		}
		r.Output = wire.Output
		r.Failure = nil
	case "error":
		if wire.Error == nil {
			wire.Error = &Failure{Kind: ErrorKindAgentReportedError, Message: "worker reported error without detail"}
		}
		r.Output = nil
		r.Failure = wire.Error
	default:
		return fmt.Errorf("worker result: unknown status %q", wire.Status)
	}
	return nil
}
