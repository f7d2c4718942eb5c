package config

import (
	"fmt"
	"time"

	"github.com/accountdesk/enrichment/internal/directory"
	"github.com/accountdesk/enrichment/internal/matcher"
	"github.com/accountdesk/enrichment/internal/scheduler"
)

// Default configuration values.
const (
	defaultServiceName      = "enrichment"
	defaultServiceVersion   = "1.0.0"
	defaultServicePort      = 8084
	defaultShutdownTimeout  = 10 * time.Second
	defaultDirectoryTimeout = 30 * time.Second
	defaultLogLevel         = "info"
)

// Config holds all configuration for the enrichment service.
type Config struct {
	Service   ServiceConfig    `yaml:"service"`
	Directory directory.Config `yaml:"directory"`
	Matching  matcher.Options  `yaml:"matching"`
	Scheduler scheduler.Config `yaml:"scheduler"`
	Logging   LoggingConfig    `yaml:"logging"`
}

// ServiceConfig holds service-level configuration.
type ServiceConfig struct {
	Name            string        `yaml:"name"`
	Version         string        `yaml:"version"`
	Port            int           `env:"ENRICHMENT_PORT" yaml:"port"`
	Debug           bool          `env:"APP_DEBUG"       yaml:"debug"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level       string `env:"LOG_LEVEL" yaml:"level"`
	Development bool   `yaml:"development"`
	Output      string `yaml:"output"`
}

// Load loads configuration from the specified path.
func Load(path string) (*Config, error) {
	cfg, err := LoadWithDefaults[Config](path, setDefaults)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the loaded configuration for structural problems.
func (c *Config) Validate() error {
	if c.Service.Port <= 0 || c.Service.Port > 65535 {
		return fmt.Errorf("service port %d out of range", c.Service.Port)
	}
	if err := c.Directory.Validate(); err != nil {
		return fmt.Errorf("directory: %w", err)
	}
	if err := c.Scheduler.Validate(); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	return nil
}

// setDefaults applies default values to the config.
func setDefaults(cfg *Config) {
	setServiceDefaults(&cfg.Service)
	setDirectoryDefaults(&cfg.Directory)
	setMatchingDefaults(&cfg.Matching)
	setSchedulerDefaults(&cfg.Scheduler)
	setLoggingDefaults(&cfg.Logging)
}

func setServiceDefaults(s *ServiceConfig) {
	if s.Name == "" {
		s.Name = defaultServiceName
	}
	if s.Version == "" {
		s.Version = defaultServiceVersion
	}
	if s.Port == 0 {
		s.Port = defaultServicePort
	}
	if s.ShutdownTimeout == 0 {
		s.ShutdownTimeout = defaultShutdownTimeout
	}
}

func setDirectoryDefaults(d *directory.Config) {
	if d.Timeout == 0 {
		d.Timeout = defaultDirectoryTimeout
	}
}

func setMatchingDefaults(m *matcher.Options) {
	if m.EmailWeight == 0 && m.NameWeight == 0 && m.CompanyWeight == 0 && m.TitleWeight == 0 {
		*m = matcher.DefaultOptions()
	}
}

func setSchedulerDefaults(s *scheduler.Config) {
	if s.Concurrency == 0 {
		s.Concurrency = scheduler.DefaultConcurrency
	}
}

func setLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = defaultLogLevel
	}
}
