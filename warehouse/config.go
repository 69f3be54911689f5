package warehouse

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultSleepTime403  = 10 // seconds between forbidden-error retries
	defaultQueryAttempts = 5
	defaultLoadRetries   = 10
)

// Config is the warehouse integration surface loaded at startup. Durations
// arrive as integer seconds to match the historical configuration keys.
type Config struct {
	// ProjectID is the cloud project queries run against.
	ProjectID string `yaml:"project_id"`
	// CredentialsPath points at the service-account credentials file. When
	// set, the file must exist at startup.
	CredentialsPath string `yaml:"credentials_path"`
	// AuthCacheStore names the backing cache store used for auth tokens.
	AuthCacheStore string `yaml:"auth_cache_store"`
	// ClientOptions is passed through to the client factory untouched.
	ClientOptions map[string]any `yaml:"client_options"`
	// SleepTime403 is the back-off, in seconds, between retries of a query
	// rejected with an access-denied status. 0 means the default (10s).
	SleepTime403 int `yaml:"sleep_time_403"`
	// QueryAttempts is the total attempt budget for query submission.
	QueryAttempts int `yaml:"query_attempts"`
	// LoadPollRetries caps the backoff polls waiting for a load job.
	LoadPollRetries uint64 `yaml:"load_poll_retries"`
}

// LoadConfigFile reads, defaults, and validates a YAML config.
func LoadConfigFile(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Field: "config file", Path: path, Err: err}
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, &ConfigError{Field: "config file", Path: path, Err: err}
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.SleepTime403 <= 0 {
		c.SleepTime403 = defaultSleepTime403
	}
	if c.QueryAttempts <= 0 {
		c.QueryAttempts = defaultQueryAttempts
	}
	if c.LoadPollRetries == 0 {
		c.LoadPollRetries = defaultLoadRetries
	}
}

// Validate checks required fields and that the credentials file, when
// configured, exists. Failures surface at startup and are never retried.
func (c *Config) Validate() error {
	if c.ProjectID == "" {
		return &ConfigError{Field: "project_id", Err: fmt.Errorf("required")}
	}
	if c.CredentialsPath != "" {
		if _, err := os.Stat(c.CredentialsPath); err != nil {
			return &ConfigError{Field: "credentials_path", Path: c.CredentialsPath, Err: err}
		}
	}
	return nil
}

func (c *Config) forbiddenBackoff() time.Duration {
	return time.Duration(c.SleepTime403) * time.Second
}
