package worker

import (
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"
)

// Codec is an interface for decoding messages from a message broker into an Event.
type Codec interface {
	// Decode transforms a Watermill message into an Event.
	Decode(topic string, msg *message.Message) (*Event, error)
}

// DefaultCodec is the default implementation of the Codec interface.
// It decodes a JSON notification envelope into an Event.
type DefaultCodec struct{}

// envelope is used to unmarshal the notification envelope fields.
type envelope struct {
	Label     string          `json:"label"`
	Token     string          `json:"token"`
	HookID    string          `json:"hook_id"`
	RequestID string          `json:"request_id"`
	Payload   json.RawMessage `json:"payload"`
}

// Decode unmarshals a Watermill message into an Event.
func (DefaultCodec) Decode(topic string, msg *message.Message) (*Event, error) {
	var env envelope
	if err := json.Unmarshal(msg.Payload, &env); err != nil {
		return nil, err
	}

	metadata := make(map[string]string, len(msg.Metadata))
	for key, value := range msg.Metadata {
		metadata[key] = value
	}

	label := env.Label
	if label == "" {
		label = msg.Metadata.Get("label")
	}
	hookID := env.HookID
	if hookID == "" {
		hookID = msg.Metadata.Get("hook_id")
	}
	requestID := env.RequestID
	if requestID == "" {
		requestID = msg.Metadata.Get("request_id")
	}

	return &Event{
		Label:     label,
		Token:     env.Token,
		HookID:    hookID,
		RequestID: requestID,
		Topic:     topic,
		Metadata:  metadata,
		Payload:   env.Payload,
	}, nil
}
