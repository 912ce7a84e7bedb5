package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gaswatch/gaswatch/pkg/gas"
	"github.com/gaswatch/gaswatch/pkg/regulatory"
)

// Default values for the server configuration.
const (
	DefaultHTTPPort       = 8080
	DefaultAnalysisTTL    = 15 * time.Minute
	DefaultProfile        = "nn-158-13"
	DefaultBroadcastEvery = 5 * time.Second
)

// Config holds the server-side configuration parsed from the `server:`
// section of config.yaml. The `agent:` key in the same file is ignored.
type Config struct {
	Server ServerConfig `yaml:"server"`
}

// ServerConfig holds all server-side settings.
type ServerConfig struct {
	// HTTPPort is the port the REST API, ingest endpoint, and WebSocket hub
	// listen on (default 8080).
	HTTPPort int `yaml:"http_port"`

	// Auth configures how the server authenticates incoming clients.
	Auth AuthConfig `yaml:"auth"`

	// Analysis controls validation tolerance, retention, and the default
	// regulatory profile.
	Analysis AnalysisConfig `yaml:"analysis"`

	// Broadcast is how often the WebSocket hub pushes the current snapshot.
	Broadcast time.Duration `yaml:"broadcast"`

	// Profiles holds additional regulatory profiles, merged over the
	// builtins. A profile with a builtin name replaces it.
	Profiles []regulatory.Profile `yaml:"profiles"`

	// Alerts holds rule definitions and webhook delivery targets.
	Alerts AlertsConfig `yaml:"alerts"`
}

// AuthConfig controls client authentication.
type AuthConfig struct {
	// Mode is one of: apikey | none.
	Mode string `yaml:"mode"`

	// KeyEnv is the name of the environment variable that holds the expected
	// API key. Used when Mode == "apikey".
	KeyEnv string `yaml:"key_env"`

	// Header is the HTTP header name to read the key from.
	// Defaults to "x-api-key" if empty.
	Header string `yaml:"header"`
}

// Key returns the expected API key resolved from the environment.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// EffectiveHeader returns the configured header name, or the default "x-api-key".
func (a AuthConfig) EffectiveHeader() string {
	if a.Header != "" {
		return a.Header
	}
	return "x-api-key"
}

// AnalysisConfig controls sample analysis and retention.
type AnalysisConfig struct {
	// TTL is how long a source's analysis remains in the store after its
	// last update. When TTL elapses without a new sample from a source, the
	// entry is evicted. Default: 15m.
	TTL time.Duration `yaml:"ttl"`

	// Tolerance is the permitted deviation of the mole-fraction sum from 1.0
	// before a composition is rejected. Default: 1e-6.
	Tolerance float64 `yaml:"tolerance"`

	// DefaultProfile names the regulatory profile used when a sample does
	// not select one. Default: nn-158-13.
	DefaultProfile string `yaml:"default_profile"`
}

// AlertsConfig holds alerting rules and webhook delivery targets.
type AlertsConfig struct {
	Rules    []AlertRule     `yaml:"rules"`
	Webhooks []WebhookConfig `yaml:"webhooks"`
}

// AlertRule defines one threshold-based alert condition.
type AlertRule struct {
	// Name is the human-readable alert identifier, used as the
	// deduplication key.
	Name string `yaml:"name"`

	// Condition is a simple expression: "hhv_kwh_m3 < 10.28",
	// "co2_mol_pct > 2.5", "status == noncompliant".
	Condition string `yaml:"condition"`

	// Severity is one of: critical | warning | info.
	Severity string `yaml:"severity"`

	// Cooldown suppresses re-fires for this duration after an alert fires.
	// Defaults to 15 minutes if zero.
	Cooldown time.Duration `yaml:"cooldown"`
}

// WebhookConfig defines one webhook delivery target.
type WebhookConfig struct {
	// Type is one of: teams | slack | pagerduty | http.
	Type string `yaml:"type"`

	// URLEnv is the name of the environment variable that holds the webhook URL.
	URLEnv string `yaml:"url_env"`
}

// URL returns the webhook URL resolved from the environment.
func (w WebhookConfig) URL() string {
	if w.URLEnv == "" {
		return ""
	}
	return os.Getenv(w.URLEnv)
}

// Load reads and parses the config file at path, returning the server
// configuration. Missing fields are filled with sensible defaults before
// validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("server config: read %q: %w", path, err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("server config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("server config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:  DefaultHTTPPort,
			Broadcast: DefaultBroadcastEvery,
			Analysis: AnalysisConfig{
				TTL:            DefaultAnalysisTTL,
				Tolerance:      gas.DefaultTolerance,
				DefaultProfile: DefaultProfile,
			},
		},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	if cfg.Server.HTTPPort <= 0 || cfg.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", cfg.Server.HTTPPort)
	}
	switch cfg.Server.Auth.Mode {
	case "apikey", "none", "":
	default:
		return fmt.Errorf("server.auth.mode %q unknown: want apikey|none", cfg.Server.Auth.Mode)
	}
	if cfg.Server.Analysis.TTL < 0 {
		return fmt.Errorf("server.analysis.ttl must not be negative")
	}
	if cfg.Server.Analysis.Tolerance < 0 {
		return fmt.Errorf("server.analysis.tolerance must not be negative")
	}
	if cfg.Server.Broadcast <= 0 {
		return fmt.Errorf("server.broadcast must be positive")
	}
	for i, p := range cfg.Server.Profiles {
		if p.Name == "" {
			return fmt.Errorf("server.profiles[%d]: name is required", i)
		}
		if len(p.Limits) == 0 {
			return fmt.Errorf("server.profiles[%d] %q: limits are required", i, p.Name)
		}
	}

	// The default profile must resolve against builtins or the configured set.
	name := cfg.Server.Analysis.DefaultProfile
	if _, ok := regulatory.Builtin()[name]; !ok {
		found := false
		for _, p := range cfg.Server.Profiles {
			if p.Name == name {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("server.analysis.default_profile %q is not a known profile", name)
		}
	}
	return nil
}
