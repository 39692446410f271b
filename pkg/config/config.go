// Package config loads vareport configuration. Values are resolved in
// order: built-in defaults, an optional YAML file, VAREPORT_* environment
// variables, then command-line flags applied by the caller.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vareport/vareport/pkg/defaults"
	"github.com/vareport/vareport/pkg/duration"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "VAREPORT_"

// Config holds all vareport configuration.
type Config struct {
	Output   OutputConfig   `yaml:"output"`
	Report   ReportConfig   `yaml:"report"`
	Server   ServerConfig   `yaml:"server"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Hooks    HooksConfig    `yaml:"hooks"`
	Log      LogConfig      `yaml:"log"`
}

// OutputConfig controls where and how artifacts are written.
type OutputConfig struct {
	Dir              string `yaml:"dir"`
	FileNameTemplate string `yaml:"filename_template"`
	Compress         bool   `yaml:"compress"`
	Validate         bool   `yaml:"validate"`
}

// ReportConfig controls report content.
type ReportConfig struct {
	// TargetIP is used when the input carries no usable address.
	TargetIP string `yaml:"target_ip"`
	// TextFile is a YAML file overriding the embedded report text.
	TextFile string `yaml:"text_file"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	ListenAddr   string        `yaml:"listen_addr"`
	RateLimit    float64       `yaml:"rate_limit"`
	RateBurst    int           `yaml:"rate_burst"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// UpstreamConfig configures the collaborator client.
type UpstreamConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
	Retries int           `yaml:"retries"`
	// LogGenerations posts every generation record to the collaborator.
	LogGenerations bool `yaml:"log_generations"`
}

// HooksConfig enables event hooks. Empty values disable the hook.
type HooksConfig struct {
	WebhookURL   string `yaml:"webhook_url"`
	NATSURL      string `yaml:"nats_url"`
	NATSSubject  string `yaml:"nats_subject"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	Prometheus   bool   `yaml:"prometheus"`
	EventLog     string `yaml:"event_log"`
}

// LogConfig configures process logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Output: OutputConfig{
			Dir:              defaults.OutputDir,
			FileNameTemplate: defaults.FileNameTemplate,
			Compress:         true,
		},
		Report: ReportConfig{TargetIP: defaults.TargetIP},
		Server: ServerConfig{
			ListenAddr:   defaults.ListenAddr,
			RateLimit:    defaults.RateLimit,
			RateBurst:    defaults.RateBurst,
			MaxBodyBytes: defaults.MaxBodyBytes,
			ReadTimeout:  duration.ServerRead,
			WriteTimeout: duration.ServerWrite,
		},
		Upstream: UpstreamConfig{
			Timeout: duration.UpstreamFetch,
			Retries: defaults.RetryLow,
		},
		Hooks: HooksConfig{NATSSubject: defaults.NATSSubject},
		Log:   LogConfig{Level: "info", Format: "text"},
	}
}

// Load returns the defaults overlaid with the YAML file at path (skipped
// when path is empty) and the environment. lookup defaults to os.LookupEnv.
func Load(path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, path, err)
		}
	}
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}
	return cfg, nil
}

type envBinding struct {
	name string
	set  func(c *Config, v string) error
}

func str(field func(*Config) *string) func(*Config, string) error {
	return func(c *Config, v string) error {
		*field(c) = v
		return nil
	}
}

func boolean(field func(*Config) *bool) func(*Config, string) error {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*field(c) = b
		return nil
	}
}

var envBindings = []envBinding{
	{"OUTPUT_DIR", str(func(c *Config) *string { return &c.Output.Dir })},
	{"FILENAME_TEMPLATE", str(func(c *Config) *string { return &c.Output.FileNameTemplate })},
	{"VALIDATE", boolean(func(c *Config) *bool { return &c.Output.Validate })},
	{"TARGET_IP", str(func(c *Config) *string { return &c.Report.TargetIP })},
	{"REPORT_TEXT", str(func(c *Config) *string { return &c.Report.TextFile })},
	{"LISTEN_ADDR", str(func(c *Config) *string { return &c.Server.ListenAddr })},
	{"RATE_LIMIT", func(c *Config, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		c.Server.RateLimit = f
		return err
	}},
	{"UPSTREAM_URL", str(func(c *Config) *string { return &c.Upstream.BaseURL })},
	{"UPSTREAM_TIMEOUT", func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		c.Upstream.Timeout = d
		return err
	}},
	{"UPSTREAM_RETRIES", func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		c.Upstream.Retries = n
		return err
	}},
	{"WEBHOOK_URL", str(func(c *Config) *string { return &c.Hooks.WebhookURL })},
	{"NATS_URL", str(func(c *Config) *string { return &c.Hooks.NATSURL })},
	{"NATS_SUBJECT", str(func(c *Config) *string { return &c.Hooks.NATSSubject })},
	{"OTLP_ENDPOINT", str(func(c *Config) *string { return &c.Hooks.OTLPEndpoint })},
	{"PROMETHEUS", boolean(func(c *Config) *bool { return &c.Hooks.Prometheus })},
	{"EVENT_LOG", str(func(c *Config) *string { return &c.Hooks.EventLog })},
	{"LOG_LEVEL", str(func(c *Config) *string { return &c.Log.Level })},
	{"LOG_FORMAT", str(func(c *Config) *string { return &c.Log.Format })},
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	for _, b := range envBindings {
		v, ok := lookup(EnvPrefix + b.name)
		if !ok {
			continue
		}
		if err := b.set(c, strings.TrimSpace(v)); err != nil {
			return fmt.Errorf("%w: %s%s: %w", ErrInvalidConfig, EnvPrefix, b.name, err)
		}
	}
	return nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Output.Dir) == "" {
		return fmt.Errorf("%w: output.dir", ErrMissingRequired)
	}
	if c.Server.RateLimit <= 0 {
		return fmt.Errorf("%w: server.rate_limit must be positive", ErrInvalidConfig)
	}
	if c.Server.RateBurst < 1 {
		return fmt.Errorf("%w: server.rate_burst must be at least 1", ErrInvalidConfig)
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("%w: server.max_body_bytes must be positive", ErrInvalidConfig)
	}
	if c.Upstream.Timeout <= 0 {
		return fmt.Errorf("%w: upstream.timeout must be positive", ErrInvalidConfig)
	}
	if c.Upstream.Retries < 0 {
		return fmt.Errorf("%w: upstream.retries must not be negative", ErrInvalidConfig)
	}
	if err := checkURL("upstream.base_url", c.Upstream.BaseURL); err != nil {
		return err
	}
	if err := checkURL("hooks.webhook_url", c.Hooks.WebhookURL); err != nil {
		return err
	}
	if c.Hooks.NATSURL != "" && c.Hooks.NATSSubject == "" {
		return fmt.Errorf("%w: hooks.nats_subject", ErrMissingRequired)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log.format %q (want text or json)", ErrInvalidConfig, c.Log.Format)
	}
	return nil
}

func checkURL(field, raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %s %q is not an http(s) URL", ErrInvalidConfig, field, raw)
	}
	return nil
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(name)); err != nil {
		return 0, fmt.Errorf("%w: log.level %q", ErrInvalidConfig, name)
	}
	return l, nil
}
