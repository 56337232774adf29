package internal

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// stubPublisher is a mock publisher for testing.
type stubPublisher struct {
	published    int
	lastTopic    string
	lastPayload  []byte
	lastMetadata message.Metadata
}

// Publish increments the published count and records the topic.
func (s *stubPublisher) Publish(topic string, msgs ...*message.Message) error {
	s.published += len(msgs)
	s.lastTopic = topic
	if len(msgs) > 0 {
		s.lastPayload = append([]byte(nil), msgs[0].Payload...)
		s.lastMetadata = msgs[0].Metadata
	}
	return nil
}

// Close is a no-op.
func (s *stubPublisher) Close() error {
	return nil
}

func swapFactory(t *testing.T, name string, factory PublisherFactory) {
	t.Helper()
	orig, had := publisherFactories[name]
	t.Cleanup(func() {
		if had {
			publisherFactories[name] = orig
		} else {
			delete(publisherFactories, name)
		}
	})
	RegisterPublisherDriver(name, factory)
}

// TestRegisterPublisherDriver tests that a custom publisher driver can be registered and used.
func TestRegisterPublisherDriver(t *testing.T) {
	const driverName = "custom"

	stub := &stubPublisher{}
	closed := false
	swapFactory(t, driverName, func(cfg WatermillConfig, logger watermill.LoggerAdapter) (message.Publisher, func() error, error) {
		return stub, func() error { closed = true; return nil }, nil
	})

	pub, err := NewPublisher(WatermillConfig{Driver: driverName})
	if err != nil {
		t.Fatalf("new publisher: %v", err)
	}

	notification := Notification{Label: "Push Hook", Payload: json.RawMessage(`{}`)}
	if err := pub.Publish(context.Background(), "custom.topic", notification); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if stub.published != 1 || stub.lastTopic != "custom.topic" {
		t.Fatalf("expected publish to custom.topic once, got %d to %q", stub.published, stub.lastTopic)
	}

	if err := pub.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !closed {
		t.Fatalf("expected custom close to be called")
	}
}

// TestHTTPURLTarget tests that the HTTP target URL is constructed correctly.
func TestHTTPURLTarget(t *testing.T) {
	url, err := httpTargetURL(HTTPConfig{Mode: "base_url", BaseURL: "http://localhost:8080/hooks"}, "topic")
	if err != nil {
		t.Fatalf("httpTargetURL: %v", err)
	}
	if url != "http://localhost:8080/hooks/topic" {
		t.Fatalf("unexpected url: %q", url)
	}
}

// TestMultipleDrivers tests that the publisher can be configured to publish to multiple drivers.
func TestMultipleDrivers(t *testing.T) {
	a := &stubPublisher{}
	b := &stubPublisher{}

	swapFactory(t, "multi-a", func(cfg WatermillConfig, logger watermill.LoggerAdapter) (message.Publisher, func() error, error) {
		return a, nil, nil
	})
	swapFactory(t, "multi-b", func(cfg WatermillConfig, logger watermill.LoggerAdapter) (message.Publisher, func() error, error) {
		return b, nil, nil
	})

	pub, err := NewPublisher(WatermillConfig{Drivers: []string{"multi-a", "multi-b"}})
	if err != nil {
		t.Fatalf("new publisher: %v", err)
	}

	if err := pub.Publish(context.Background(), "multi.topic", Notification{Label: "Push Hook"}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if a.published != 1 || b.published != 1 {
		t.Fatalf("expected publish to both drivers, got a=%d b=%d", a.published, b.published)
	}
}

// TestPublishEnvelopeAndMetadata ensures the envelope round-trips and metadata is set.
func TestPublishEnvelopeAndMetadata(t *testing.T) {
	const driverName = "envelope"

	stub := &stubPublisher{}
	swapFactory(t, driverName, func(cfg WatermillConfig, logger watermill.LoggerAdapter) (message.Publisher, func() error, error) {
		return stub, nil, nil
	})

	pub, err := NewPublisher(WatermillConfig{Driver: driverName})
	if err != nil {
		t.Fatalf("new publisher: %v", err)
	}

	raw := json.RawMessage(`{"object_kind":"push"}`)
	notification := Notification{
		Label:     "Push Hook",
		Token:     "secret",
		HookID:    "hook-1",
		RequestID: "req-123",
		Payload:   raw,
	}
	if err := pub.Publish(context.Background(), "envelope.topic", notification); err != nil {
		t.Fatalf("publish: %v", err)
	}

	var decoded Notification
	if err := json.Unmarshal(stub.lastPayload, &decoded); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if decoded.Label != "Push Hook" || decoded.Token != "secret" || decoded.HookID != "hook-1" {
		t.Fatalf("unexpected envelope: %+v", decoded)
	}
	if string(decoded.Payload) != string(raw) {
		t.Fatalf("expected raw payload to round-trip, got %s", decoded.Payload)
	}
	if stub.lastMetadata.Get("label") != "Push Hook" {
		t.Fatalf("expected label metadata")
	}
	if stub.lastMetadata.Get("hook_id") != "hook-1" {
		t.Fatalf("expected hook_id metadata")
	}
	if stub.lastMetadata.Get("request_id") != "req-123" {
		t.Fatalf("expected request_id metadata")
	}
}
