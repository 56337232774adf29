package webhook

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gitcord/internal"
)

// stubPublisher records notifications handed to the queue.
type stubPublisher struct {
	published []internal.Notification
	topics    []string
}

func (s *stubPublisher) Publish(ctx context.Context, topic string, notification internal.Notification) error {
	s.published = append(s.published, notification)
	s.topics = append(s.topics, topic)
	return nil
}

func (s *stubPublisher) Close() error {
	return nil
}

const pushBody = `{
	"object_kind": "push",
	"user_name": "Testmaster",
	"total_commits_count": 1,
	"ref": "refs/heads/master",
	"project": {"name": "Project", "web_url": "https://gitlab.example.com/project"},
	"commits": []
}`

func newGitLabRequest(body, event, token string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/webhooks/gitlab", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	if event != "" {
		r.Header.Set("X-Gitlab-Event", event)
	}
	if token != "" {
		r.Header.Set("X-Gitlab-Token", token)
	}
	return r
}

func TestGitLabHandlerAcceptsAndPublishes(t *testing.T) {
	pub := &stubPublisher{}
	handler, err := NewGitLabHandler("", "discord.notifications", pub, nil)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, newGitLabRequest(pushBody, "Push Hook", "token-1"))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if len(pub.published) != 1 {
		t.Fatalf("expected one publish, got %d", len(pub.published))
	}
	notification := pub.published[0]
	if notification.Label != "Push Hook" {
		t.Fatalf("unexpected label %q", notification.Label)
	}
	if notification.Token != "token-1" {
		t.Fatalf("unexpected token %q", notification.Token)
	}
	if notification.RequestID == "" {
		t.Fatalf("expected a request id")
	}
	if string(notification.Payload) != pushBody {
		t.Fatalf("expected raw body to be forwarded")
	}
	if pub.topics[0] != "discord.notifications" {
		t.Fatalf("unexpected topic %q", pub.topics[0])
	}
}

func TestGitLabHandlerRejectsBadToken(t *testing.T) {
	pub := &stubPublisher{}
	handler, err := NewGitLabHandler("expected", "discord.notifications", pub, nil)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, newGitLabRequest(pushBody, "Push Hook", "wrong"))

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
	if len(pub.published) != 0 {
		t.Fatalf("expected no publish on bad token")
	}
}

func TestGitLabHandlerMissingEventHeader(t *testing.T) {
	pub := &stubPublisher{}
	handler, err := NewGitLabHandler("", "discord.notifications", pub, nil)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, newGitLabRequest(pushBody, "", ""))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if len(pub.published) != 0 {
		t.Fatalf("expected no publish without event header")
	}
}

func TestGitLabHandlerIgnoresUnknownEvent(t *testing.T) {
	pub := &stubPublisher{}
	handler, err := NewGitLabHandler("", "discord.notifications", pub, nil)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, newGitLabRequest(`{}`, "Some Future Hook", ""))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for unknown event, got %d", w.Code)
	}
	if len(pub.published) != 0 {
		t.Fatalf("expected unknown event to be dropped")
	}
}
