package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	DefaultPort             = "8000"
	DefaultModelName        = "facebook/blenderbot_small-90M"
	DefaultModelMaxLength   = 100
	DefaultModelConcurrency = 1

	BackendHF    = "hf"
	BackendLocal = "local"

	hfInferenceBase = "https://api-inference.huggingface.co/models/"
)

// Config holds everything the process reads once at startup.
type Config struct {
	AppEnv       string
	IsStaging    bool
	IsProduction bool

	Port string

	// DatabaseURL selects whether the persistence hook is active. Empty disables it.
	DatabaseURL string
	DBMaxConns  int

	ModelBackend               string
	ModelName                  string
	ModelEndpoint              string
	ModelToken                 string
	ModelMaxLength             int
	ModelConcurrency           int
	ModelLoadTimeoutSeconds    int
	ModelRequestTimeoutSeconds int

	CORSOrigins []string
}

// fileConfig mirrors the optional TOML file named by CONFIG_FILE.
type fileConfig struct {
	AppEnv      string   `toml:"app_env"`
	Port        string   `toml:"port"`
	DatabaseURL string   `toml:"database_url"`
	DBMaxConns  int      `toml:"db_max_conns"`
	CORSOrigins []string `toml:"cors_origins"`
	Model       struct {
		Backend               string `toml:"backend"`
		Name                  string `toml:"name"`
		Endpoint              string `toml:"endpoint"`
		MaxLength             int    `toml:"max_length"`
		Concurrency           int    `toml:"concurrency"`
		LoadTimeoutSeconds    int    `toml:"load_timeout_seconds"`
		RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
	} `toml:"model"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		AppEnv:                     "development",
		Port:                       DefaultPort,
		DBMaxConns:                 4,
		ModelBackend:               BackendHF,
		ModelName:                  DefaultModelName,
		ModelMaxLength:             DefaultModelMaxLength,
		ModelConcurrency:           DefaultModelConcurrency,
		ModelLoadTimeoutSeconds:    120,
		ModelRequestTimeoutSeconds: 300,
		CORSOrigins:                []string{"*"},
	}
}

// loadDotEnv loads .env outside production. A missing file is not an error.
func loadDotEnv() {
	if os.Getenv("APP_ENV") == "production" {
		return
	}
	if err := godotenv.Load(); err != nil {
		log.Printf("[config] .env not loaded: %v", err)
	}
}

// Load builds the process configuration: defaults, then the optional TOML
// file, then environment variables.
func Load() (*Config, error) {
	loadDotEnv()

	cfg := Default()
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	cfg.logSummary()
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	setString(&c.AppEnv, fc.AppEnv)
	setString(&c.Port, fc.Port)
	setString(&c.DatabaseURL, fc.DatabaseURL)
	setInt(&c.DBMaxConns, fc.DBMaxConns)
	if len(fc.CORSOrigins) > 0 {
		c.CORSOrigins = fc.CORSOrigins
	}
	setString(&c.ModelBackend, fc.Model.Backend)
	setString(&c.ModelName, fc.Model.Name)
	setString(&c.ModelEndpoint, fc.Model.Endpoint)
	setInt(&c.ModelMaxLength, fc.Model.MaxLength)
	setInt(&c.ModelConcurrency, fc.Model.Concurrency)
	setInt(&c.ModelLoadTimeoutSeconds, fc.Model.LoadTimeoutSeconds)
	setInt(&c.ModelRequestTimeoutSeconds, fc.Model.RequestTimeoutSeconds)
	return nil
}

func (c *Config) applyEnv() {
	setString(&c.AppEnv, os.Getenv("APP_ENV"))
	setString(&c.Port, os.Getenv("PORT"))
	setString(&c.DatabaseURL, os.Getenv("DATA_BASE_URL"))
	c.DBMaxConns = atoiOr(os.Getenv("DB_MAX_CONNS"), c.DBMaxConns)

	setString(&c.ModelBackend, os.Getenv("MODEL_BACKEND"))
	setString(&c.ModelName, os.Getenv("MODEL_NAME"))
	setString(&c.ModelEndpoint, os.Getenv("MODEL_ENDPOINT"))
	setString(&c.ModelToken, os.Getenv("HF_TOKEN"))
	c.ModelMaxLength = atoiOr(os.Getenv("MODEL_MAX_LENGTH"), c.ModelMaxLength)
	c.ModelConcurrency = atoiOr(os.Getenv("MODEL_CONCURRENCY"), c.ModelConcurrency)
	c.ModelLoadTimeoutSeconds = atoiOr(os.Getenv("MODEL_LOAD_TIMEOUT_SECONDS"), c.ModelLoadTimeoutSeconds)
	c.ModelRequestTimeoutSeconds = atoiOr(os.Getenv("MODEL_REQUEST_TIMEOUT_SECONDS"), c.ModelRequestTimeoutSeconds)

	if v := strings.TrimSpace(os.Getenv("CORS_ORIGINS")); v != "" {
		c.CORSOrigins = splitList(v)
	}
}

func (c *Config) finalize() error {
	c.AppEnv = strings.ToLower(strings.TrimSpace(c.AppEnv))
	if !slices.Contains([]string{"development", "staging", "production"}, c.AppEnv) {
		return fmt.Errorf("config: APP_ENV must be 'development', 'staging' or 'production', got %q", c.AppEnv)
	}
	c.IsStaging = c.AppEnv == "staging"
	c.IsProduction = c.AppEnv == "production"

	c.ModelBackend = strings.ToLower(strings.TrimSpace(c.ModelBackend))
	if c.ModelBackend != BackendHF && c.ModelBackend != BackendLocal {
		return fmt.Errorf("config: MODEL_BACKEND must be %q or %q, got %q", BackendHF, BackendLocal, c.ModelBackend)
	}
	if c.ModelEndpoint == "" {
		c.ModelEndpoint = hfInferenceBase + c.ModelName
	}
	if c.ModelMaxLength <= 0 {
		return errors.New("config: MODEL_MAX_LENGTH must be positive")
	}
	if c.ModelConcurrency <= 0 {
		c.ModelConcurrency = DefaultModelConcurrency
	}
	if c.DBMaxConns <= 0 {
		c.DBMaxConns = 4
	}
	c.DatabaseURL = strings.TrimSpace(c.DatabaseURL)
	if len(c.CORSOrigins) == 0 {
		c.CORSOrigins = []string{"*"}
	}
	return nil
}

// PersistenceEnabled reports whether a connection string was supplied.
func (c *Config) PersistenceEnabled() bool {
	return c.DatabaseURL != ""
}

// AllowAllOrigins reports whether CORS should echo any origin.
func (c *Config) AllowAllOrigins() bool {
	return slices.Contains(c.CORSOrigins, "*")
}

func (c *Config) logSummary() {
	log.Printf("[config] AppEnv=%s IsStaging=%v IsProduction=%v Port=%s", c.AppEnv, c.IsStaging, c.IsProduction, c.Port)
	log.Printf("[config] ModelBackend=%s ModelName=%s HFTokenPresent=%v", c.ModelBackend, c.ModelName, c.ModelToken != "")
	log.Printf("[config] ModelMaxLength=%d ModelConcurrency=%d loadTimeout=%ds requestTimeout=%ds",
		c.ModelMaxLength, c.ModelConcurrency, c.ModelLoadTimeoutSeconds, c.ModelRequestTimeoutSeconds)
	log.Printf("[config] PersistenceEnabled=%v DBMaxConns=%d CORSOrigins=%v", c.PersistenceEnabled(), c.DBMaxConns, c.CORSOrigins)
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func atoiOr(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}
