package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the typed configuration of an application.
type Config struct {
	App  AppConfig
	Log  LogConfig
	HTTP HTTPConfig
}

type AppConfig struct {
	Name    string
	Env     string // local | production | testing
	Debug   bool
	URL     string
	Port    string
	BaseDir string
}

// IsLocal reports whether the app runs in a development environment.
func (c AppConfig) IsLocal() bool { return c.Env == "local" || c.Env == "testing" }

type LogConfig struct {
	Level  string // debug | info | warn | error
	Format string // text | json
}

type HTTPConfig struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	ClientTimeout   time.Duration
	ClientBaseURL   string
}

// Load reads the env files (".env" by default, missing files are fine) and
// populates a Config from environment variables. Variables already set in
// the environment win over the files.
//
//	cfg := config.Load()
func Load(envFiles ...string) *Config {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		_ = godotenv.Load(f)
	}

	return &Config{
		App: AppConfig{
			Name:    env("APP_NAME", "SimpleStructure"),
			Env:     env("APP_ENV", "local"),
			Debug:   envBool("APP_DEBUG", true),
			URL:     env("APP_URL", "http://localhost"),
			Port:    env("APP_PORT", "8000"),
			BaseDir: env("APP_BASE_DIR", "."),
		},
		Log: LogConfig{
			Level:  env("LOG_LEVEL", "info"),
			Format: env("LOG_FORMAT", "text"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:     GetDuration("HTTP_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    GetDuration("HTTP_WRITE_TIMEOUT", 15*time.Second),
			ShutdownTimeout: GetDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
			ClientTimeout:   GetDuration("HTTP_CLIENT_TIMEOUT", 30*time.Second),
			ClientBaseURL:   env("HTTP_CLIENT_BASE_URL", ""),
		},
	}
}

// Read parses an env file without touching the environment.
func Read(file string) (map[string]string, error) {
	return godotenv.Read(file)
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

// GetDuration returns a duration env value such as "5s". A bare number is
// read as seconds.
func GetDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
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
