package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the central typed configuration struct.
// Embed or extend it in your app's own AppConfig.
type Config struct {
	App     AppConfig
	Log     LogConfig
	Invoker InvokerConfig
}

type AppConfig struct {
	Name  string
	Env   string // local | production | testing
	Debug bool
	URL   string
	Port  string
}

type LogConfig struct {
	Level  slog.Level
	Format string // text | json
}

// InvokerConfig configures handler invocation.
type InvokerConfig struct {
	// Rules is the rule chain in order; empty means the default chain.
	Rules []string
	// DTOFactories maps handler parameter names to DTO factory ids.
	DTOFactories map[string]string
	// File is the optional YAML file Rules and DTOFactories were read from.
	File string
}

// invokerFile is the layout of INVOKER_CONFIG:
//
//	rules:
//	  - flexible-signature
//	  - make-dto
//	dto_factories:
//	  userDto: user.update
type invokerFile struct {
	Rules        []string          `yaml:"rules"`
	DTOFactories map[string]string `yaml:"dto_factories"`
}

// ErrBadFactoryMapping is returned for INVOKER_DTO_FACTORIES entries that
// are not param=factory pairs.
var ErrBadFactoryMapping = errors.New("dto factory mapping must be param=factory")

// Load reads .env (if present) and populates a Config from environment variables.
// Call once at bootstrap: cfg, err := config.Load()
func Load(envFiles ...string) (*Config, error) {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	// Non-fatal: .env may not exist in production
	_ = godotenv.Load(files...)

	cfg := &Config{
		App: AppConfig{
			Name:  env("APP_NAME", "GoInvoker"),
			Env:   env("APP_ENV", "local"),
			Debug: envBool("APP_DEBUG", true),
			URL:   env("APP_URL", "http://localhost"),
			Port:  env("APP_PORT", "8000"),
		},
		Log: LogConfig{
			Format: strings.ToLower(env("LOG_FORMAT", "text")),
		},
		Invoker: InvokerConfig{
			Rules: GetList("INVOKER_RULES", nil),
			File:  env("INVOKER_CONFIG", ""),
		},
	}

	if err := cfg.Log.Level.UnmarshalText([]byte(env("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("config: LOG_LEVEL: %w", err)
	}
	if cfg.Log.Format != "text" && cfg.Log.Format != "json" {
		return nil, fmt.Errorf("config: LOG_FORMAT must be text or json, got %q", cfg.Log.Format)
	}

	factories, err := parseFactories(GetList("INVOKER_DTO_FACTORIES", nil))
	if err != nil {
		return nil, fmt.Errorf("config: INVOKER_DTO_FACTORIES: %w", err)
	}
	cfg.Invoker.DTOFactories = factories

	if cfg.Invoker.File != "" {
		if err := cfg.Invoker.loadFile(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// loadFile overrides the environment with the non-empty sections of File.
func (c *InvokerConfig) loadFile() error {
	b, err := os.ReadFile(c.File)
	if err != nil {
		return fmt.Errorf("config: INVOKER_CONFIG: %w", err)
	}
	var f invokerFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("config: %s: %w", c.File, err)
	}
	if len(f.Rules) > 0 {
		c.Rules = f.Rules
	}
	if len(f.DTOFactories) > 0 {
		c.DTOFactories = f.DTOFactories
	}
	return nil
}

func parseFactories(entries []string) (map[string]string, error) {
	out := make(map[string]string, len(entries))
	for _, e := range entries {
		name, id, ok := strings.Cut(e, "=")
		name, id = strings.TrimSpace(name), strings.TrimSpace(id)
		if !ok || name == "" || id == "" {
			return nil, fmt.Errorf("%q: %w", e, ErrBadFactoryMapping)
		}
		out[name] = id
	}
	return out, nil
}

// Get returns a raw env value, falling back to defaultVal.
func Get(key, defaultVal string) string {
	return env(key, defaultVal)
}

// GetInt returns an int env value.
func GetInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

// GetBool returns a bool env value.
func GetBool(key string, defaultVal bool) bool {
	return envBool(key, defaultVal)
}

// GetList returns a comma-separated env value with blank items dropped.
func GetList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// ── helpers ─────────────────────────────────────────────────────────────────

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
