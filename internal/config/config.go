// Package config loads and validates the resolved migration configuration.
// The rest of the tool treats the loaded Config as immutable.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"sf2gh/internal/models"
)

// Config represents the application configuration.
type Config struct {
	SourceForge SourceForgeConfig `mapstructure:"sourceforge"`
	GitHub      GitHubConfig      `mapstructure:"github"`
	Migration   MigrationConfig   `mapstructure:"migration"`
}

// SourceForgeConfig contains source tracker connection settings.
type SourceForgeConfig struct {
	Project  string `mapstructure:"project"`
	Tracker  string `mapstructure:"tracker"`
	BaseURL  string `mapstructure:"base_url"`
	PageSize int    `mapstructure:"page_size"`
}

// GitHubConfig contains destination connection settings.
type GitHubConfig struct {
	Token              string `mapstructure:"token"`
	AppCertificatePath string `mapstructure:"app_certificate_path"`
	AppId              int64  `mapstructure:"app_id"`
	InstallationId     int64  `mapstructure:"installation_id"`
	Owner              string `mapstructure:"owner"`
	Repository         string `mapstructure:"repository"`
	BaseURL            string `mapstructure:"base_url"` // For GitHub Enterprise
	EnsureLabels       bool   `mapstructure:"ensure_labels"`
}

// MigrationConfig contains migration-specific settings.
type MigrationConfig struct {
	Status          string            `mapstructure:"status"`
	Limit           int               `mapstructure:"limit"`
	DryRun          bool              `mapstructure:"dry_run"`
	IncludeDetails  bool              `mapstructure:"include_details"`
	RequestInterval time.Duration     `mapstructure:"request_interval"`
	MaxRetries      int               `mapstructure:"max_retries"`
	StatusMapping   map[string]string `mapstructure:"status_mapping"`
}

// LoadConfig loads configuration from file and environment variables.
// A .env file in the working directory is honored when present.
func LoadConfig(configPath string) (*Config, error) {
	// Optional .env support; a missing file is not an error.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.sf2gh")
	}

	// Environment variable overrides, e.g. SF2GH_MIGRATION_DRY_RUN for
	// migration.dry_run.
	v.SetEnvPrefix("SF2GH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Classic fallback for the destination credential. Resolved once here;
	// the core never reads the process environment itself.
	_ = v.BindEnv("github.token", "SF2GH_GITHUB_TOKEN", "GITHUB_TOKEN")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := Validate(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("sourceforge.tracker", "bugs")
	v.SetDefault("sourceforge.base_url", "https://sourceforge.net/rest")
	v.SetDefault("sourceforge.page_size", 100)
	v.SetDefault("github.base_url", "https://api.github.com")
	v.SetDefault("github.ensure_labels", false)
	v.SetDefault("migration.status", models.StatusOpen)
	v.SetDefault("migration.limit", 0)
	v.SetDefault("migration.dry_run", false)
	v.SetDefault("migration.include_details", false)
	v.SetDefault("migration.request_interval", "2s")
	v.SetDefault("migration.max_retries", 3)
}

// Validate checks that all required fields are present and well-formed.
func Validate(config *Config) error {
	if config.SourceForge.Project == "" {
		return fmt.Errorf("sourceforge.project is required")
	}

	if config.SourceForge.Tracker == "" {
		return fmt.Errorf("sourceforge.tracker is required")
	}

	if config.SourceForge.PageSize <= 0 {
		return fmt.Errorf("sourceforge.page_size must be greater than 0")
	}

	if config.GitHub.Token == "" && config.GitHub.AppCertificatePath == "" {
		return fmt.Errorf("github.token is required (config file, SF2GH_GITHUB_TOKEN or GITHUB_TOKEN)")
	}

	if config.GitHub.Owner == "" {
		return fmt.Errorf("github.owner is required")
	}

	if config.GitHub.Repository == "" {
		return fmt.Errorf("github.repository is required")
	}

	return config.Migration.Validate()
}

// Validate checks the migration-specific settings. The orchestrator calls
// this again before fetching anything so a bad config never starts a run.
func (c *MigrationConfig) Validate() error {
	switch c.Status {
	case models.StatusOpen, models.StatusClosed, models.StatusAll:
	default:
		return fmt.Errorf("migration.status must be one of open, closed, all (got %q)", c.Status)
	}

	if c.Limit < 0 {
		return fmt.Errorf("migration.limit must not be negative")
	}

	if c.RequestInterval <= 0 {
		return fmt.Errorf("migration.request_interval must be greater than 0")
	}

	if c.MaxRetries < 0 {
		return fmt.Errorf("migration.max_retries must not be negative")
	}

	for status, class := range c.StatusMapping {
		if class != models.StatusOpen && class != models.StatusClosed {
			return fmt.Errorf("migration.status_mapping[%q] must map to open or closed (got %q)", status, class)
		}
	}

	return nil
}

// SaveConfig writes a configuration file, creating the directory if needed.
func SaveConfig(config *Config, configPath string) error {
	if configPath == "" {
		configPath = "./configs/config.yaml"
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.Set("sourceforge", map[string]any{
		"project":   config.SourceForge.Project,
		"tracker":   config.SourceForge.Tracker,
		"base_url":  config.SourceForge.BaseURL,
		"page_size": config.SourceForge.PageSize,
	})
	v.Set("github", map[string]any{
		"token":         config.GitHub.Token,
		"owner":         config.GitHub.Owner,
		"repository":    config.GitHub.Repository,
		"base_url":      config.GitHub.BaseURL,
		"ensure_labels": config.GitHub.EnsureLabels,
	})
	v.Set("migration", map[string]any{
		"status":           config.Migration.Status,
		"limit":            config.Migration.Limit,
		"dry_run":          config.Migration.DryRun,
		"include_details":  config.Migration.IncludeDetails,
		"request_interval": config.Migration.RequestInterval.String(),
		"max_retries":      config.Migration.MaxRetries,
	})

	return v.WriteConfigAs(configPath)
}
