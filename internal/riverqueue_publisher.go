package internal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// riverQueuePublisher inserts notifications as jobs into a River job
// table, for deployments whose delivery workers run off River instead of
// a broker.
type riverQueuePublisher struct {
	db  *sql.DB
	cfg RiverQueueConfig
}

func newRiverQueuePublisher(cfg RiverQueueConfig) (*riverQueuePublisher, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = "postgres"
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("riverqueue dsn is required")
	}
	db, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		return nil, err
	}
	return &riverQueuePublisher{db: db, cfg: cfg}, nil
}

// Publish inserts a new job carrying the notification envelope.
func (p *riverQueuePublisher) Publish(ctx context.Context, topic string, notification Notification) error {
	args, err := json.Marshal(notification)
	if err != nil {
		return err
	}

	metadata := map[string]interface{}{
		"label":      notification.Label,
		"hook_id":    notification.HookID,
		"request_id": notification.RequestID,
		"topic":      topic,
	}
	metadataPayload, err := json.Marshal(metadata)
	if err != nil {
		return err
	}

	table := strings.TrimSpace(p.cfg.Table)
	if table == "" {
		table = "river_job"
	}

	query := fmt.Sprintf(
		`INSERT INTO %s (args, kind, max_attempts, metadata, priority, queue, scheduled_at, tags)
VALUES ($1, $2, $3, $4, $5, $6, now(), $7)`,
		table,
	)

	_, err = p.db.ExecContext(
		ctx,
		query,
		string(args),
		p.cfg.Kind,
		p.cfg.MaxAttempts,
		string(metadataPayload),
		p.cfg.Priority,
		p.cfg.Queue,
		pq.Array(p.cfg.Tags),
	)
	return err
}

// Close closes the underlying database connection.
func (p *riverQueuePublisher) Close() error {
	if p.db == nil {
		return nil
	}
	return p.db.Close()
}
