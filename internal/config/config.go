// Package config loads the service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	minGitHubTimeout = 8 * time.Second
	maxGitHubTimeout = 15 * time.Second
)

type Mail struct {
	Host     string   `env:"SMTP_HOST"`
	Port     int      `env:"SMTP_PORT" envDefault:"587"`
	User     string   `env:"SMTP_USER"`
	Password string   `env:"SMTP_PASS"`
	From     string   `env:"MAIL_FROM" envDefault:"noreply@lead-inbox.local"`
	NotifyTo []string `env:"MAIL_NOTIFY_TO" envSeparator:","`
}

// Enabled reports whether lead notices can be e-mailed.
func (m Mail) Enabled() bool {
	return m.Host != "" && len(m.NotifyTo) > 0
}

type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	GitHubToken   string        `env:"GH_TOKEN"`
	RepoFullName  string        `env:"GH_REPO_FULLNAME"`
	AdminToken    string        `env:"ADMIN_TOKEN"`
	GitHubAPIURL  string        `env:"GH_API_URL" envDefault:"https://api.github.com"`
	GitHubTimeout time.Duration `env:"GH_TIMEOUT" envDefault:"10s"`

	DefaultSite      string `env:"DEFAULT_SITE" envDefault:"unknown"`
	DiagnosticMaxLen int    `env:"DIAGNOSTIC_MAX_LEN" envDefault:"256"`

	AllowedOrigins []string      `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat      string        `env:"LOG_FORMAT" envDefault:"json"`
	SlowRequest    time.Duration `env:"SLOW_REQUEST" envDefault:"2s"`

	AMQPURL     string `env:"AMQP_URL"`
	DatabaseURL string `env:"DATABASE_URL"`
	Mail        Mail

	QuotaCheckInterval time.Duration `env:"QUOTA_CHECK_INTERVAL" envDefault:"5m"`

	Version   string `env:"APP_VERSION" envDefault:"dev"`
	Commit    string `env:"GIT_COMMIT_SHA"`
	PublicURL string `env:"PUBLIC_URL"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return Parse()
}

// Parse reads the process environment only.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.normalize()
	return &cfg, nil
}

func (c *Config) normalize() {
	c.DefaultSite = strings.ToLower(strings.TrimSpace(c.DefaultSite))
	if c.DefaultSite == "" {
		c.DefaultSite = "unknown"
	}
	c.GitHubTimeout = ClampTimeout(c.GitHubTimeout)
	if c.DiagnosticMaxLen <= 0 {
		c.DiagnosticMaxLen = 256
	}
}

// ClampTimeout keeps the GitHub client timeout within 8..15s.
func ClampTimeout(d time.Duration) time.Duration {
	switch {
	case d < minGitHubTimeout:
		return minGitHubTimeout
	case d > maxGitHubTimeout:
		return maxGitHubTimeout
	}
	return d
}

// Validate fails fast on the settings without which no lead can be stored
// or read back.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.GitHubToken) == "" {
		errs = append(errs, errors.New("GH_TOKEN is required"))
	}
	if strings.TrimSpace(c.RepoFullName) == "" {
		errs = append(errs, errors.New("GH_REPO_FULLNAME is required"))
	} else if owner, repo, ok := strings.Cut(c.RepoFullName, "/"); !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		errs = append(errs, fmt.Errorf("GH_REPO_FULLNAME must be owner/repo, got %q", c.RepoFullName))
	}
	if strings.TrimSpace(c.AdminToken) == "" {
		errs = append(errs, errors.New("ADMIN_TOKEN is required"))
	}
	return errors.Join(errs...)
}
