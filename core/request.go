package core

// QueryOptions carries per-request behavior toggles supplied by the caller.
type QueryOptions struct {
	// Debug enables the full per-step trace (intermediate results) in the
	// response. Intended for diagnosis; off by default.
	Debug bool `json:"debug"`
}

// FileUpload is an inbound file reference forwarded to workers that accept
// document input. The payload travels base64 encoded inside worker request
// metadata; the orchestrator never interprets it.
type FileUpload struct {
	Filename   string `json:"filename"`
	MimeType   string `json:"mime_type"`
	Base64Data string `json:"base64_data"`
}

// QueryRequest is the inbound contract at the orchestration boundary. The
// transport layer (not part of this module) decodes client payloads into this
// shape.
type QueryRequest struct {
	Query          string       `json:"query"`
	UserID         string       `json:"user_id,omitempty"`
	ConversationID string       `json:"conversation_id,omitempty"`
	Options        QueryOptions `json:"options"`
	FileUploads    []FileUpload `json:"file_uploads,omitempty"`
}

// AgentUse reports one (agent, intent) pair attempted during a request and
// whether the call succeeded. Order follows plan order for deterministic
// reporting.
type AgentUse struct {
	Name   string `json:"name"`
	Intent string `json:"intent"`
	Status string `json:"status"` // "success" or "error"
}

// QueryResponse is the outbound contract. A response is always produced, even
// when every planned step failed; in that case Answer explains the failure and
// Error is populated. Transport-level errors are never used for component
// faults.
type QueryResponse struct {
	Answer              string                  `json:"answer"`
	UsedAgents          []AgentUse              `json:"used_agents"`
	IntermediateResults map[string]WorkerResult `json:"intermediate_results,omitempty"`
	Error               string                  `json:"error,omitempty"`
}
