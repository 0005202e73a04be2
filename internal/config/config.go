// Package config loads pipeline settings from the .autopilotconfig YAML file
// using Viper, falling back to defaults when the file or individual keys are
// absent.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// PipelineConfig holds system-wide tunables for the autonomy pipeline.
type PipelineConfig struct {
	IntentionTTL      time.Duration `yaml:"intention_ttl" mapstructure:"intention_ttl"`
	DecisionTTL       time.Duration `yaml:"decision_ttl" mapstructure:"decision_ttl"`
	ApprovalTimeout   time.Duration `yaml:"approval_timeout" mapstructure:"approval_timeout"`
	SweepInterval     time.Duration `yaml:"sweep_interval" mapstructure:"sweep_interval"`
	ReminderWindow    time.Duration `yaml:"reminder_window" mapstructure:"reminder_window"`
	MaxBulkApprovals  int           `yaml:"max_bulk_approvals" mapstructure:"max_bulk_approvals"`
	ConfidenceFloor   float64       `yaml:"confidence_floor" mapstructure:"confidence_floor"`
	WebhookURL        string        `yaml:"webhook_url" mapstructure:"webhook_url"`
	DefaultPermission string        `yaml:"default_permission" mapstructure:"default_permission"`
}

// Manager defines the interface for loading pipeline configuration.
type Manager interface {
	Load() (*PipelineConfig, error)
}

// viperManager implements Manager using Viper to read .autopilotconfig.
type viperManager struct {
	basePath string
}

// NewManager creates a Manager that reads configuration relative to basePath.
func NewManager(basePath string) Manager {
	return &viperManager{basePath: basePath}
}

// Default returns a PipelineConfig populated with the built-in defaults.
func Default() *PipelineConfig {
	return &PipelineConfig{
		IntentionTTL:      24 * time.Hour,
		DecisionTTL:       time.Hour,
		ApprovalTimeout:   time.Hour,
		SweepInterval:     5 * time.Minute,
		ReminderWindow:    10 * time.Minute,
		MaxBulkApprovals:  20,
		ConfidenceFloor:   0.3,
		DefaultPermission: "supervised",
	}
}

// Load reads .autopilotconfig from the base path. A missing file returns the
// defaults; a malformed file is an error.
func (m *viperManager) Load() (*PipelineConfig, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigName(".autopilotconfig")
	v.SetConfigType("yaml")
	v.AddConfigPath(m.basePath)

	v.SetDefault("ttl.intention", cfg.IntentionTTL)
	v.SetDefault("ttl.decision", cfg.DecisionTTL)
	v.SetDefault("approval.timeout", cfg.ApprovalTimeout)
	v.SetDefault("approval.sweep_interval", cfg.SweepInterval)
	v.SetDefault("approval.reminder_window", cfg.ReminderWindow)
	v.SetDefault("approval.max_bulk", cfg.MaxBulkApprovals)
	v.SetDefault("confidence.floor", cfg.ConfidenceFloor)
	v.SetDefault("notify.webhook_url", cfg.WebhookURL)
	v.SetDefault("permission.default", cfg.DefaultPermission)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading .autopilotconfig: %w", err)
	}

	cfg.IntentionTTL = v.GetDuration("ttl.intention")
	cfg.DecisionTTL = v.GetDuration("ttl.decision")
	cfg.ApprovalTimeout = v.GetDuration("approval.timeout")
	cfg.SweepInterval = v.GetDuration("approval.sweep_interval")
	cfg.ReminderWindow = v.GetDuration("approval.reminder_window")
	cfg.MaxBulkApprovals = v.GetInt("approval.max_bulk")
	cfg.ConfidenceFloor = v.GetFloat64("confidence.floor")
	cfg.WebhookURL = v.GetString("notify.webhook_url")
	cfg.DefaultPermission = v.GetString("permission.default")

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate rejects configurations that would wedge the pipeline.
func validate(cfg *PipelineConfig) error {
	if cfg.SweepInterval <= 0 {
		return fmt.Errorf("validating config: sweep interval must be positive, got %s", cfg.SweepInterval)
	}
	if cfg.ApprovalTimeout <= 0 {
		return fmt.Errorf("validating config: approval timeout must be positive, got %s", cfg.ApprovalTimeout)
	}
	if cfg.MaxBulkApprovals <= 0 {
		return fmt.Errorf("validating config: max bulk approvals must be positive, got %d", cfg.MaxBulkApprovals)
	}
	if cfg.ConfidenceFloor < 0 || cfg.ConfidenceFloor > 1 {
		return fmt.Errorf("validating config: confidence floor must be in [0,1], got %.2f", cfg.ConfidenceFloor)
	}
	return nil
}
