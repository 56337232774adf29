package webhook

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"gitcord/pkg/storage"

	"github.com/ThreeDotsLabs/watermill"
)

// HooksAPIHandler exposes CRUD for registered hooks.
type HooksAPIHandler struct {
	Store  storage.HookStore
	Logger *log.Logger
}

// List responds with all registered hooks.
func (h *HooksAPIHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		http.Error(w, "storage not configured", http.StatusServiceUnavailable)
		return
	}
	records, err := h.Store.List(r.Context())
	if err != nil {
		http.Error(w, "list hooks failed", http.StatusInternalServerError)
		if h.Logger != nil {
			h.Logger.Printf("list hooks failed: %v", err)
		}
		return
	}
	writeJSON(w, records)
}

// Upsert creates or updates a hook. A missing id gets a generated one.
func (h *HooksAPIHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		http.Error(w, "storage not configured", http.StatusServiceUnavailable)
		return
	}
	var record storage.HookRecord
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		http.Error(w, "invalid hook body", http.StatusBadRequest)
		return
	}
	record.ID = strings.TrimSpace(record.ID)
	if record.ID == "" {
		record.ID = watermill.NewUUID()
	}
	if strings.TrimSpace(record.DiscordURL) == "" {
		http.Error(w, "missing discord_url", http.StatusBadRequest)
		return
	}
	if err := h.Store.Upsert(r.Context(), record); err != nil {
		http.Error(w, "upsert hook failed", http.StatusInternalServerError)
		if h.Logger != nil {
			h.Logger.Printf("upsert hook failed: %v", err)
		}
		return
	}
	stored, err := h.Store.Get(r.Context(), record.ID)
	if err != nil || stored == nil {
		writeJSON(w, record)
		return
	}
	writeJSON(w, stored)
}

// Delete removes a hook by id.
func (h *HooksAPIHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		http.Error(w, "storage not configured", http.StatusServiceUnavailable)
		return
	}
	id := r.PathValue("id")
	if id == "" {
		http.Error(w, "missing hook id", http.StatusBadRequest)
		return
	}
	if err := h.Store.Delete(r.Context(), id); err != nil {
		http.Error(w, "delete hook failed", http.StatusInternalServerError)
		if h.Logger != nil {
			h.Logger.Printf("delete hook failed: %v", err)
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}
