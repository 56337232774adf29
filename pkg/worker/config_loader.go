package worker

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type AppConfig struct {
	Watermill struct {
		SubscriberConfig `yaml:",inline"`
		Topic            string `yaml:"topic"`
	} `yaml:"watermill"`
}

// LoadSubscriberConfig reads the watermill section of the application
// config. Standalone workers share the config file with the server.
func LoadSubscriberConfig(path string) (SubscriberConfig, error) {
	cfg, err := loadAppConfig(path)
	if err != nil {
		return SubscriberConfig{}, err
	}
	return cfg.Watermill.SubscriberConfig, nil
}

// LoadTopicFromConfig reads the queue topic from the application config.
func LoadTopicFromConfig(path string) (string, error) {
	cfg, err := loadAppConfig(path)
	if err != nil {
		return "", err
	}
	topic := strings.TrimSpace(cfg.Watermill.Topic)
	if topic == "" {
		topic = "discord.notifications"
	}
	return topic, nil
}

func loadAppConfig(path string) (AppConfig, error) {
	var cfg AppConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return cfg, err
	}
	applySubscriberDefaults(&cfg.Watermill.SubscriberConfig)
	return cfg, nil
}

func applySubscriberDefaults(cfg *SubscriberConfig) {
	if cfg.Driver == "" && len(cfg.Drivers) == 0 {
		cfg.Driver = "gochannel"
	}
	if cfg.GoChannel.OutputChannelBuffer == 0 {
		cfg.GoChannel.OutputChannelBuffer = 64
	}
	if cfg.NATS.ClientIDSuffix == "" {
		cfg.NATS.ClientIDSuffix = "-worker"
	}
}
