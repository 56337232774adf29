package hooks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gitcord/pkg/storage"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Config mirrors the storage configuration for the hooks table.
type Config struct {
	Driver      string
	DSN         string
	Dialect     string
	Table       string
	AutoMigrate bool
}

// Store implements storage.HookStore on top of GORM.
type Store struct {
	db    *gorm.DB
	table string
}

type row struct {
	ID          string    `gorm:"column:id;size:64;primaryKey"`
	Description string    `gorm:"column:description;size:255"`
	GitLabToken string    `gorm:"column:gitlab_token;size:255"`
	DiscordURL  string    `gorm:"column:discord_url;type:text;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// Open creates a GORM-backed hooks store.
func Open(cfg Config) (*Store, error) {
	if cfg.Driver == "" && cfg.Dialect == "" {
		return nil, errors.New("storage driver or dialect is required")
	}
	if cfg.DSN == "" {
		return nil, errors.New("storage dsn is required")
	}
	driver := normalizeDriver(cfg.Driver)
	if driver == "" {
		driver = normalizeDriver(cfg.Dialect)
	}
	if driver == "" {
		return nil, errors.New("unsupported storage driver")
	}

	gormDB, err := openGorm(driver, cfg.DSN)
	if err != nil {
		return nil, err
	}

	table := cfg.Table
	if table == "" {
		table = "gitcord_hooks"
	}
	store := &Store{
		db:    gormDB,
		table: table,
	}
	if cfg.AutoMigrate {
		if err := store.migrate(); err != nil {
			return nil, err
		}
	}
	return store, nil
}

// Close closes the underlying DB connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Upsert inserts or updates a hook record.
func (s *Store) Upsert(ctx context.Context, record storage.HookRecord) error {
	if s == nil || s.db == nil {
		return errors.New("store is not initialized")
	}
	if record.ID == "" {
		return errors.New("hook id is required")
	}
	if record.DiscordURL == "" {
		return errors.New("discord url is required")
	}
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	data := toRow(record)
	return s.tableDB().
		WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"description", "gitlab_token", "discord_url", "updated_at"}),
		}).
		Create(&data).Error
}

// Get fetches a single hook record. It returns nil without error when
// the id is unknown.
func (s *Store) Get(ctx context.Context, id string) (*storage.HookRecord, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	var data row
	err := s.tableDB().
		WithContext(ctx).
		Where("id = ?", id).
		Take(&data).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	record := fromRow(data)
	return &record, nil
}

// List returns all registered hooks.
func (s *Store) List(ctx context.Context) ([]storage.HookRecord, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	var data []row
	err := s.tableDB().
		WithContext(ctx).
		Order("created_at asc").
		Find(&data).Error
	if err != nil {
		return nil, err
	}
	records := make([]storage.HookRecord, 0, len(data))
	for _, item := range data {
		records = append(records, fromRow(item))
	}
	return records, nil
}

// Delete removes a hook record by id.
func (s *Store) Delete(ctx context.Context, id string) error {
	if s == nil || s.db == nil {
		return errors.New("store is not initialized")
	}
	return s.tableDB().
		WithContext(ctx).
		Where("id = ?", id).
		Delete(&row{}).Error
}

func (s *Store) migrate() error {
	return s.tableDB().AutoMigrate(&row{})
}

func (s *Store) tableDB() *gorm.DB {
	return s.db.Table(s.table)
}

func toRow(record storage.HookRecord) row {
	return row{
		ID:          record.ID,
		Description: record.Description,
		GitLabToken: record.GitLabToken,
		DiscordURL:  record.DiscordURL,
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
	}
}

func fromRow(data row) storage.HookRecord {
	return storage.HookRecord{
		ID:          data.ID,
		Description: data.Description,
		GitLabToken: data.GitLabToken,
		DiscordURL:  data.DiscordURL,
		CreatedAt:   data.CreatedAt,
		UpdatedAt:   data.UpdatedAt,
	}
}

func normalizeDriver(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	switch value {
	case "postgres", "postgresql", "pgx":
		return "postgres"
	case "mysql":
		return "mysql"
	case "sqlite", "sqlite3":
		return "sqlite"
	default:
		return ""
	}
}

func openGorm(driver, dsn string) (*gorm.DB, error) {
	switch driver {
	case "postgres":
		return gorm.Open(postgres.Open(dsn), &gorm.Config{})
	case "mysql":
		return gorm.Open(mysql.Open(dsn), &gorm.Config{})
	case "sqlite":
		return gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", driver)
	}
}
