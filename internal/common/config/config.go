// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	DataAPI       DataAPIConfig      `mapstructure:"data_api"`
	Content       ContentConfig      `mapstructure:"content"`
	Database      DatabaseConfig     `mapstructure:"database"`
	Storage       StorageConfig      `mapstructure:"storage"`
	Cache         CacheConfig        `mapstructure:"cache"`
	Integrations  IntegrationConfig  `mapstructure:"integrations"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Logging       LoggingConfig      `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// DataAPIConfig holds settings for the external document store API.
type DataAPIConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	AuthToken string `mapstructure:"auth_token"`
	Timeout   int    `mapstructure:"timeout"` // milliseconds
}

// ContentConfig holds settings for the framework content on disk.
type ContentConfig struct {
	Root      string `mapstructure:"root"`       // directory containing frameworks/<slug>/...
	IndexPath string `mapstructure:"index_path"` // framework index JSON
}

type DatabaseConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// StorageConfig holds object storage settings for uploaded documents.
type StorageConfig struct {
	Region            string `mapstructure:"region"`
	DocumentsBucket   string `mapstructure:"documents_bucket"`
	SubmissionsBucket string `mapstructure:"submissions_bucket"`
	URLExpiry         int    `mapstructure:"url_expiry"` // milliseconds
}

// CacheConfig holds TTLs for redis-cached reads.
type CacheConfig struct {
	DeclarationTTL int `mapstructure:"declaration_ttl"` // milliseconds
	FrameworkTTL   int `mapstructure:"framework_ttl"`   // milliseconds
}

// IntegrationConfig holds settings for AWS-backed side channels.
type IntegrationConfig struct {
	AWS struct {
		Region string `mapstructure:"region"`
		SES    struct {
			Enabled   bool   `mapstructure:"enabled"`
			FromEmail string `mapstructure:"from_email"`
		} `mapstructure:"ses"`
		SNS struct {
			Enabled       bool   `mapstructure:"enabled"`
			AlertTopicARN string `mapstructure:"alert_topic_arn"`
		} `mapstructure:"sns"`
	} `mapstructure:"aws"`
}

// NotificationConfig holds settings for outbound supplier notifications.
type NotificationConfig struct {
	Email struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
		ReplyTo   string `mapstructure:"reply_to"`
	} `mapstructure:"email"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// GetBaseURL returns the API base URL without a trailing slash.
func (d DataAPIConfig) GetBaseURL() string {
	if n := len(d.BaseURL); n > 0 && d.BaseURL[n-1] == '/' {
		return d.BaseURL[:n-1]
	}
	return d.BaseURL
}

// Validate reports missing content settings early, before any load is attempted.
func (c ContentConfig) Validate() error {
	if c.Root == "" {
		return fmt.Errorf("content.root is required")
	}
	if c.IndexPath == "" {
		return fmt.Errorf("content.index_path is required")
	}
	return nil
}
