package webhook

import (
	"io"
	"log"
	"net/http"

	"gitcord/internal"
	"gitcord/pkg/storage"

	"github.com/ThreeDotsLabs/watermill"
)

// HookHandler accepts GitLab webhooks on per-hook routes. The hook id in
// the path selects the destination and the token the event is checked
// against.
type HookHandler struct {
	Store     storage.HookStore
	Topic     string
	Publisher internal.Publisher
	Logger    *log.Logger
}

func (h *HookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		http.Error(w, "storage not configured", http.StatusServiceUnavailable)
		return
	}
	id := r.PathValue("id")
	if id == "" {
		http.Error(w, "missing hook id", http.StatusBadRequest)
		return
	}
	record, err := h.Store.Get(r.Context(), id)
	if err != nil {
		http.Error(w, "hook lookup failed", http.StatusInternalServerError)
		if h.Logger != nil {
			h.Logger.Printf("hook lookup failed: %v", err)
		}
		return
	}
	if record == nil {
		http.Error(w, "unknown hook", http.StatusNotFound)
		return
	}

	label := r.Header.Get("X-Gitlab-Event")
	if label == "" {
		http.Error(w, "missing X-Gitlab-Event header", http.StatusBadRequest)
		return
	}
	rawBody, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	notification := internal.Notification{
		Label:     label,
		Token:     r.Header.Get("X-Gitlab-Token"),
		HookID:    record.ID,
		RequestID: watermill.NewUUID(),
		Payload:   rawBody,
	}
	if err := h.Publisher.Publish(r.Context(), h.Topic, notification); err != nil {
		if h.Logger != nil {
			h.Logger.Printf("publish failed: %v", err)
		}
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if h.Logger != nil {
		h.Logger.Printf("accepted request_id=%s hook_id=%s label=%s", notification.RequestID, record.ID, label)
	}
	w.WriteHeader(http.StatusOK)
}
