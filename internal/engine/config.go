package engine

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/anatolykoptev/go-kit/env"
)

// Config holds all service configuration, loaded once in main.
type Config struct {
	Port   string
	APIKey string

	WebshareUsername  string
	WebsharePassword  string
	WebshareDomain    string
	WebsharePort      int
	WebshareLocations []string
	WebshareAPIKey    string // non-empty = stealth client over the Webshare proxy pool

	Languages       []string
	UpstreamTimeout time.Duration
	UpstreamRPS     float64 // 0 = unthrottled

	DefaultLimits    string
	TranscriptLimits string

	TrustProxy bool
	MCPEnabled bool

	LogLevel  string
	LogFormat string
}

// ConfigError reports configuration the service refuses to start with.
type ConfigError struct {
	Key    string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Key, e.Reason)
}

// LoadConfig reads the process environment and validates the result.
func LoadConfig() (Config, error) {
	c := Config{
		Port:              env.Str("PORT", "5000"),
		APIKey:            env.Str("API_KEY", ""),
		WebshareUsername:  env.Str("WEBSHARE_USERNAME", ""),
		WebsharePassword:  env.Str("WEBSHARE_PASSWORD", ""),
		WebshareDomain:    env.Str("WEBSHARE_DOMAIN", "p.webshare.io"),
		WebsharePort:      env.Int("WEBSHARE_PORT", 80),
		WebshareLocations: compact(env.List("WEBSHARE_LOCATIONS", "")),
		WebshareAPIKey:    env.Str("WEBSHARE_API_KEY", ""),
		Languages:         compact(env.List("TRANSCRIPT_LANGUAGES", "en")),
		UpstreamTimeout:   env.Duration("UPSTREAM_TIMEOUT", 30*time.Second),
		UpstreamRPS:       env.Float("UPSTREAM_RPS", 0),
		DefaultLimits:     env.Str("RATE_LIMIT_DEFAULT", "200 per day; 50 per hour"),
		TranscriptLimits:  env.Str("RATE_LIMIT_TRANSCRIPT", "10 per minute"),
		LogLevel:          strings.ToLower(env.Str("LOG_LEVEL", "info")),
		LogFormat:         strings.ToLower(env.Str("LOG_FORMAT", "json")),
	}

	var err error
	if c.TrustProxy, err = parseBool("TRUST_PROXY"); err != nil {
		return c, err
	}
	if c.MCPEnabled, err = parseBool("MCP_ENABLED"); err != nil {
		return c, err
	}
	if len(c.Languages) == 0 {
		c.Languages = []string{"en"}
	}
	return c, c.Validate()
}

// Validate checks invariants that LoadConfig cannot express as defaults.
// All problems are reported together.
func (c Config) Validate() error {
	var errs []error
	if c.APIKey == "" {
		errs = append(errs, &ConfigError{Key: "API_KEY", Reason: "must be set"})
	}
	if p, err := strconv.Atoi(c.Port); err != nil || p < 1 || p > 65535 {
		errs = append(errs, &ConfigError{Key: "PORT", Reason: fmt.Sprintf("invalid port %q", c.Port)})
	}
	if (c.WebshareUsername == "") != (c.WebsharePassword == "") {
		errs = append(errs, &ConfigError{Key: "WEBSHARE_USERNAME", Reason: "username and password must be set together"})
	}
	if c.WebshareUsername != "" && (c.WebsharePort < 1 || c.WebsharePort > 65535) {
		errs = append(errs, &ConfigError{Key: "WEBSHARE_PORT", Reason: fmt.Sprintf("invalid port %d", c.WebsharePort)})
	}
	if c.UpstreamTimeout <= 0 {
		errs = append(errs, &ConfigError{Key: "UPSTREAM_TIMEOUT", Reason: "must be positive"})
	}
	if c.UpstreamRPS < 0 {
		errs = append(errs, &ConfigError{Key: "UPSTREAM_RPS", Reason: "must not be negative"})
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, &ConfigError{Key: "LOG_LEVEL", Reason: fmt.Sprintf("unsupported level %q", c.LogLevel)})
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		errs = append(errs, &ConfigError{Key: "LOG_FORMAT", Reason: fmt.Sprintf("unsupported format %q", c.LogFormat)})
	}
	return errors.Join(errs...)
}

// Proxy returns the residential proxy settings, or nil for direct connections.
func (c Config) Proxy() *WebshareProxy {
	if c.WebshareUsername == "" {
		return nil
	}
	return &WebshareProxy{
		Username:  c.WebshareUsername,
		Password:  c.WebsharePassword,
		Domain:    c.WebshareDomain,
		Port:      c.WebsharePort,
		Locations: c.WebshareLocations,
	}
}

func parseBool(key string) (bool, error) {
	raw := env.Str(key, "false")
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false, &ConfigError{Key: key, Reason: fmt.Sprintf("invalid boolean %q", raw)}
	}
	return v, nil
}

// compact trims entries and drops empty ones.
func compact(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	return out
}
