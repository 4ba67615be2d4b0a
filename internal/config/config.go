// Package config provides configuration loading for issuesmith.
//
// Configuration is loaded from a YAML file and overridden by environment
// variables. Secrets (session signing key, GitHub client secret, LLM API
// key) are wrapped in the Secret type so they never leak into logs.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config holds the complete issuesmith configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	GitHub    GitHubConfig    `koanf:"github"`
	Session   SessionConfig   `koanf:"session"`
	LLM       LLMConfig       `koanf:"llm"`
	Synthesis SynthesisConfig `koanf:"synthesis"`
	Commit    CommitConfig    `koanf:"commit"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// LoggingConfig holds logger configuration.
type LoggingConfig struct {
	Level  string `koanf:"level"`  // trace, debug, info, warn, error
	Format string `koanf:"format"` // json or console
}

// GitHubConfig holds OAuth application credentials and scopes.
type GitHubConfig struct {
	ClientID     string   `koanf:"client_id"`
	ClientSecret Secret   `koanf:"client_secret"`
	Scopes       []string `koanf:"scopes"`
	RedirectURL  string   `koanf:"redirect_url"`
}

// SessionConfig holds session credential configuration.
//
// SigningKey is process-wide and read-only: it is loaded once at startup
// and never rotated while the process runs.
type SessionConfig struct {
	SigningKey   Secret        `koanf:"signing_key"`
	TTL          time.Duration `koanf:"ttl"`
	CookieName   string        `koanf:"cookie_name"`
	CookieSecure bool          `koanf:"cookie_secure"`
}

// LLMConfig holds generative model provider configuration.
type LLMConfig struct {
	APIKey      Secret  `koanf:"api_key"`
	Model       string  `koanf:"model"`
	BaseURL     string  `koanf:"base_url"`
	Temperature float64 `koanf:"temperature"`
	MaxTokens   int     `koanf:"max_tokens"`
}

// SynthesisConfig bounds the requirement-to-issue pipeline.
type SynthesisConfig struct {
	MaxDocumentBytes int `koanf:"max_document_bytes"`
	MaxCandidates    int `koanf:"max_candidates"`
}

// CommitConfig holds bulk committer tuning.
//
// Concurrency caps how many issue-creation calls run at once. Zero means
// unbounded: the batch size is the concurrency level. This is a tuning
// knob for tracker rate limits, never a correctness requirement.
type CommitConfig struct {
	Concurrency int `koanf:"concurrency"`
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if len(cfg.GitHub.Scopes) == 0 {
		cfg.GitHub.Scopes = []string{"repo", "read:user"}
	}

	if cfg.Session.TTL == 0 {
		cfg.Session.TTL = 24 * time.Hour
	}
	if cfg.Session.CookieName == "" {
		cfg.Session.CookieName = "session_token"
	}

	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gpt-4o"
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = 0.2
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 4000
	}

	if cfg.Synthesis.MaxDocumentBytes == 0 {
		cfg.Synthesis.MaxDocumentBytes = 2 * 1024 * 1024
	}
	if cfg.Synthesis.MaxCandidates == 0 {
		cfg.Synthesis.MaxCandidates = 25
	}
}

// Validate checks the configuration for missing or inconsistent values.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format))
	}

	if c.GitHub.ClientID == "" {
		errs = append(errs, errors.New("github.client_id is required"))
	}
	if !c.GitHub.ClientSecret.IsSet() {
		errs = append(errs, errors.New("github.client_secret is required"))
	}

	if !c.Session.SigningKey.IsSet() {
		errs = append(errs, errors.New("session.signing_key is required"))
	} else if len(c.Session.SigningKey.Value()) < 32 {
		errs = append(errs, errors.New("session.signing_key must be at least 32 bytes"))
	}
	if c.Session.TTL < time.Minute {
		errs = append(errs, fmt.Errorf("session.ttl too short: %s", c.Session.TTL))
	}

	if !c.LLM.APIKey.IsSet() {
		errs = append(errs, errors.New("llm.api_key is required"))
	}

	if c.Commit.Concurrency < 0 {
		errs = append(errs, fmt.Errorf("commit.concurrency cannot be negative: %d", c.Commit.Concurrency))
	}

	return errors.Join(errs...)
}
