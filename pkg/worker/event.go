package worker

import "encoding/json"

// Event represents a message received by the worker.
type Event struct {
	// Label is the raw X-Gitlab-Event header value carried in the envelope.
	Label string `json:"label"`
	// Token is the X-Gitlab-Token header value, if any.
	Token string `json:"token,omitempty"`
	// HookID names a registered hook when the event arrived on a
	// per-hook route; empty for the default route.
	HookID string `json:"hook_id,omitempty"`
	// RequestID correlates log lines across the pipeline.
	RequestID string `json:"request_id,omitempty"`
	// Topic is the name of the topic the message was received on.
	Topic string `json:"topic"`
	// Metadata contains message-broker-specific metadata.
	Metadata map[string]string `json:"metadata"`
	// Payload is the unmodified webhook body.
	Payload json.RawMessage `json:"payload"`
}
