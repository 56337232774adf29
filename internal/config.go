package internal

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the full application configuration. It is loaded once at
// startup and read-only afterwards.
type Config struct {
	// Server holds HTTP front-end configuration.
	Server struct {
		Port           int    `yaml:"port"`
		ReadTimeoutMS  int64  `yaml:"read_timeout_ms"`
		WriteTimeoutMS int64  `yaml:"write_timeout_ms"`
		IdleTimeoutMS  int64  `yaml:"idle_timeout_ms"`
		ReadHeaderMS   int64  `yaml:"read_header_timeout_ms"`
		MaxBodyBytes   int64  `yaml:"max_body_bytes"`
		RateLimitRPS   int64  `yaml:"rate_limit_rps"`
		RateLimitBurst int64  `yaml:"rate_limit_burst"`
		MetricsEnabled bool   `yaml:"metrics_enabled"`
		MetricsPath    string `yaml:"metrics_path"`
	} `yaml:"server"`
	// GitLab configures the inbound webhook route.
	GitLab GitLabConfig `yaml:"gitlab"`
	// Discord configures the outbound delivery engine.
	Discord DiscordConfig `yaml:"discord"`
	// Watermill configures the queue between the front-end and the
	// delivery worker.
	Watermill WatermillConfig `yaml:"watermill"`
	// Storage configures the optional hook registry.
	Storage StorageConfig `yaml:"storage"`
	// Mutes are operator-defined drop rules applied after the
	// built-in worthiness filters.
	Mutes []MuteRule `yaml:"mutes"`
	// Worker tunes the queue consumer.
	Worker WorkerConfig `yaml:"worker"`
}

// GitLabConfig holds the inbound webhook settings.
type GitLabConfig struct {
	Path   string `yaml:"path"`
	Secret string `yaml:"secret"`
}

// DiscordConfig holds the outbound webhook settings.
type DiscordConfig struct {
	WebhookURL string `yaml:"webhook_url"`
	MaxRetries int    `yaml:"max_retries"`
	TimeoutMS  int64  `yaml:"timeout_ms"`
}

// StorageConfig holds the hook registry settings.
type StorageConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Driver      string `yaml:"driver"`
	DSN         string `yaml:"dsn"`
	Dialect     string `yaml:"dialect"`
	Table       string `yaml:"table"`
	AutoMigrate bool   `yaml:"auto_migrate"`
	AdminAPI    bool   `yaml:"admin_api"`
}

// WorkerConfig tunes the queue consumer.
type WorkerConfig struct {
	Concurrency int `yaml:"concurrency"`
}

// WatermillConfig holds the configuration for Watermill, which carries
// notifications from the HTTP handler to the delivery worker.
type WatermillConfig struct {
	Driver     string           `yaml:"driver"`
	Drivers    []string         `yaml:"drivers"`
	Topic      string           `yaml:"topic"`
	GoChannel  GoChannelConfig  `yaml:"gochannel"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	NATS       NATSConfig       `yaml:"nats"`
	AMQP       AMQPConfig       `yaml:"amqp"`
	SQL        SQLConfig        `yaml:"sql"`
	HTTP       HTTPConfig       `yaml:"http"`
	RiverQueue RiverQueueConfig `yaml:"riverqueue"`
}

// GoChannelConfig holds configuration for the GoChannel pub/sub.
type GoChannelConfig struct {
	OutputChannelBuffer            int64 `yaml:"output_buffer"`
	Persistent                     bool  `yaml:"persistent"`
	BlockPublishUntilSubscriberAck bool  `yaml:"block_publish_until_subscriber_ack"`
}

// KafkaConfig holds configuration for the Kafka pub/sub.
type KafkaConfig struct {
	Brokers       []string `yaml:"brokers"`
	ConsumerGroup string   `yaml:"consumer_group"`
}

// NATSConfig holds configuration for the NATS streaming pub/sub.
type NATSConfig struct {
	ClusterID      string `yaml:"cluster_id"`
	ClientID       string `yaml:"client_id"`
	ClientIDSuffix string `yaml:"client_id_suffix"`
	URL            string `yaml:"url"`
	Durable        string `yaml:"durable"`
}

// AMQPConfig holds configuration for the AMQP pub/sub.
type AMQPConfig struct {
	URL  string `yaml:"url"`
	Mode string `yaml:"mode"`
}

// SQLConfig holds configuration for the SQL pub/sub.
type SQLConfig struct {
	Driver               string `yaml:"driver"`
	DSN                  string `yaml:"dsn"`
	Dialect              string `yaml:"dialect"`
	ConsumerGroup        string `yaml:"consumer_group"`
	InitializeSchema     bool   `yaml:"initialize_schema"`
	AutoInitializeSchema bool   `yaml:"auto_initialize_schema"`
}

// HTTPConfig holds configuration for the HTTP publisher.
type HTTPConfig struct {
	BaseURL string `yaml:"base_url"`
	Mode    string `yaml:"mode"`
}

// RiverQueueConfig holds configuration for the River job-table publisher.
type RiverQueueConfig struct {
	Driver      string   `yaml:"driver"`
	DSN         string   `yaml:"dsn"`
	Table       string   `yaml:"table"`
	Queue       string   `yaml:"queue"`
	Kind        string   `yaml:"kind"`
	MaxAttempts int      `yaml:"max_attempts"`
	Priority    int      `yaml:"priority"`
	Tags        []string `yaml:"tags"`
}

// LoadConfig loads the application configuration from a YAML file. It
// expands environment variables, applies defaults, and validates the
// result.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return cfg, err
	}

	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return cfg, err
	}
	normalized, err := normalizeMutes(cfg.Mutes)
	if err != nil {
		return cfg, err
	}
	cfg.Mutes = normalized

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeoutMS == 0 {
		cfg.Server.ReadTimeoutMS = 5000
	}
	if cfg.Server.WriteTimeoutMS == 0 {
		cfg.Server.WriteTimeoutMS = 10000
	}
	if cfg.Server.IdleTimeoutMS == 0 {
		cfg.Server.IdleTimeoutMS = 60000
	}
	if cfg.Server.ReadHeaderMS == 0 {
		cfg.Server.ReadHeaderMS = 5000
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = 1 << 20
	}
	if cfg.Server.MetricsPath == "" {
		cfg.Server.MetricsPath = "/metrics"
	}
	if cfg.GitLab.Path == "" {
		cfg.GitLab.Path = "/webhooks/gitlab"
	}
	if cfg.Discord.MaxRetries == 0 {
		cfg.Discord.MaxRetries = 3
	}
	if cfg.Discord.TimeoutMS == 0 {
		cfg.Discord.TimeoutMS = 10000
	}
	if cfg.Watermill.Driver == "" && len(cfg.Watermill.Drivers) == 0 {
		cfg.Watermill.Driver = "gochannel"
	}
	if cfg.Watermill.Topic == "" {
		cfg.Watermill.Topic = "discord.notifications"
	}
	if cfg.Watermill.GoChannel.OutputChannelBuffer == 0 {
		cfg.Watermill.GoChannel.OutputChannelBuffer = 64
	}
	if cfg.Watermill.HTTP.Mode == "" {
		cfg.Watermill.HTTP.Mode = "topic_url"
	}
	if cfg.Watermill.RiverQueue.Table == "" {
		cfg.Watermill.RiverQueue.Table = "river_job"
	}
	if cfg.Watermill.RiverQueue.Queue == "" {
		cfg.Watermill.RiverQueue.Queue = "default"
	}
	if cfg.Watermill.RiverQueue.Kind == "" {
		cfg.Watermill.RiverQueue.Kind = "gitcord.notification"
	}
	if cfg.Watermill.RiverQueue.MaxAttempts == 0 {
		cfg.Watermill.RiverQueue.MaxAttempts = 25
	}
	if cfg.Storage.Table == "" {
		cfg.Storage.Table = "hooks"
	}
	if cfg.Worker.Concurrency == 0 {
		cfg.Worker.Concurrency = 4
	}
}

func validate(cfg *Config) error {
	if cfg.Discord.WebhookURL == "" && !cfg.Storage.Enabled {
		return errors.New("discord webhook_url is required when the hook registry is disabled")
	}
	if cfg.Storage.Enabled && cfg.Storage.DSN == "" {
		return errors.New("storage dsn is required when the hook registry is enabled")
	}
	return nil
}

func normalizeMutes(rules []MuteRule) ([]MuteRule, error) {
	out := make([]MuteRule, 0, len(rules))
	for i := range rules {
		rule := rules[i]
		rule.When = strings.TrimSpace(rule.When)
		if rule.When == "" {
			return nil, fmt.Errorf("mute rule %d is missing when", i)
		}
		out = append(out, rule)
	}
	return out, nil
}

// PrimaryDriver names the first configured queue driver.
func (c WatermillConfig) PrimaryDriver() string {
	if len(c.Drivers) > 0 {
		return strings.ToLower(strings.TrimSpace(c.Drivers[0]))
	}
	if c.Driver != "" {
		return strings.ToLower(strings.TrimSpace(c.Driver))
	}
	return "gochannel"
}
