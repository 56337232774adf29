package webhook

import (
	"bytes"
	"errors"
	"io"
	"log"
	"net/http"

	"gitcord/internal"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/go-playground/webhooks/v6/gitlab"
)

// GitLabHandler handles incoming webhooks from GitLab on the default route.
type GitLabHandler struct {
	hook      *gitlab.Webhook
	topic     string
	publisher internal.Publisher
	logger    *log.Logger
}

var gitlabEvents = []gitlab.Event{
	gitlab.PushEvents,
	gitlab.TagEvents,
	gitlab.IssuesEvents,
	gitlab.ConfidentialIssuesEvents,
	gitlab.CommentEvents,
	gitlab.ConfidentialCommentEvents,
	gitlab.MergeRequestEvents,
	gitlab.WikiPageEvents,
	gitlab.PipelineEvents,
	gitlab.BuildEvents,
	gitlab.JobEvents,
}

// NewGitLabHandler creates a new GitLabHandler. The secret, when set, is
// verified against X-Gitlab-Token before the event is accepted.
func NewGitLabHandler(secret, topic string, publisher internal.Publisher, logger *log.Logger) (*GitLabHandler, error) {
	options := make([]gitlab.Option, 0, 1)
	if secret != "" {
		options = append(options, gitlab.Options.Secret(secret))
	}
	hook, err := gitlab.New(options...)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}
	return &GitLabHandler{hook: hook, topic: topic, publisher: publisher, logger: logger}, nil
}

// ServeHTTP handles an incoming HTTP request.
func (h *GitLabHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rawBody, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(rawBody))

	if _, err := h.hook.Parse(r, gitlabEvents...); err != nil {
		switch {
		case errors.Is(err, gitlab.ErrGitLabTokenVerificationFailed):
			h.logger.Printf("gitlab token verification failed")
			w.WriteHeader(http.StatusForbidden)
		case errors.Is(err, gitlab.ErrEventNotFound):
			// Unrecognized event names are accepted and dropped so
			// GitLab does not disable the hook.
			h.logger.Printf("ignoring event %q", r.Header.Get("X-Gitlab-Event"))
			w.WriteHeader(http.StatusOK)
		default:
			h.logger.Printf("gitlab parse failed: %v", err)
			w.WriteHeader(http.StatusBadRequest)
		}
		return
	}

	notification := internal.Notification{
		Label:     r.Header.Get("X-Gitlab-Event"),
		Token:     r.Header.Get("X-Gitlab-Token"),
		RequestID: watermill.NewUUID(),
		Payload:   rawBody,
	}
	if err := h.publisher.Publish(r.Context(), h.topic, notification); err != nil {
		h.logger.Printf("publish failed: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	h.logger.Printf("accepted request_id=%s label=%s", notification.RequestID, notification.Label)
	w.WriteHeader(http.StatusOK)
}
