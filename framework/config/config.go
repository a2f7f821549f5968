package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Settings is the typed container configuration.
// Precedence: defaults < YAML file (LoadFile) < environment variables.
type Settings struct {
	App      AppSettings `yaml:"app"`
	Log      LogSettings `yaml:"log"`
	Profiles []string    `yaml:"profiles"`
}

type AppSettings struct {
	Name  string `yaml:"name"`
	Env   string `yaml:"env"` // local | production | testing
	Debug bool   `yaml:"debug"`
	Port  string `yaml:"port"`
}

type LogSettings struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // json | console
}

// Load reads .env (if present) and populates Settings from environment
// variables. Call once at bootstrap: cfg := config.Load()
func Load(envFiles ...string) *Settings {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	// Non-fatal: .env may not exist in production
	_ = godotenv.Load(files...)

	s := defaults()
	s.applyEnv()
	return s
}

// LoadFile reads a YAML settings file, then applies environment overrides
// on top of it.
func LoadFile(path string, envFiles ...string) (*Settings, error) {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	_ = godotenv.Load(files...)

	s := defaults()

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, s); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	s.applyEnv()
	return s, nil
}

func defaults() *Settings {
	return &Settings{
		App: AppSettings{
			Name:  "loom",
			Env:   "local",
			Debug: true,
			Port:  "8000",
		},
		Log: LogSettings{
			Level:  "info",
			Format: "console",
		},
	}
}

// applyEnv overrides any setting with its LOOM_* environment variable.
func (s *Settings) applyEnv() {
	s.App.Name = env("LOOM_APP_NAME", s.App.Name)
	s.App.Env = env("LOOM_ENV", s.App.Env)
	s.App.Debug = envBool("LOOM_DEBUG", s.App.Debug)
	s.App.Port = env("LOOM_PORT", s.App.Port)
	s.Log.Level = env("LOOM_LOG_LEVEL", s.Log.Level)
	s.Log.Format = env("LOOM_LOG_FORMAT", s.Log.Format)

	if raw := os.Getenv("LOOM_PROFILES"); raw != "" {
		s.Profiles = splitProfiles(raw)
	}
}

// HasProfile reports whether a profile is listed in the settings.
func (s *Settings) HasProfile(name string) bool {
	for _, p := range s.Profiles {
		if p == name {
			return true
		}
	}
	return false
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

// ── helpers ─────────────────────────────────────────────────────────────────

func splitProfiles(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

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
