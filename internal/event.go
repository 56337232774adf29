package internal

import "encoding/json"

// Notification is the queue envelope carrying one inbound webhook from
// the HTTP front-end to the delivery worker.
type Notification struct {
	// Label is the raw X-Gitlab-Event header value.
	Label string `json:"label"`
	// Token is the X-Gitlab-Token header value, if any.
	Token string `json:"token,omitempty"`
	// HookID names a registered hook when the event arrived on a
	// per-hook route; empty for the default route.
	HookID string `json:"hook_id,omitempty"`
	// RequestID correlates log lines across the pipeline.
	RequestID string `json:"request_id,omitempty"`
	// Payload is the unmodified webhook body.
	Payload json.RawMessage `json:"payload"`
}
