// Package storage defines the persistence contract for the hook
// registry.
package storage

import (
	"context"
	"time"
)

// HookRecord is one registered inbound hook: its own shared secret and
// the destination webhook URL its notifications go to.
type HookRecord struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	GitLabToken string    `json:"gitlab_token"`
	DiscordURL  string    `json:"discord_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// HookStore defines persistence for hook records.
type HookStore interface {
	Upsert(ctx context.Context, record HookRecord) error
	Get(ctx context.Context, id string) (*HookRecord, error)
	List(ctx context.Context) ([]HookRecord, error)
	Delete(ctx context.Context, id string) error
	Close() error
}
