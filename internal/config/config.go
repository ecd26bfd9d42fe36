// Package config loads service settings from an optional YAML file, an optional
// .env file and the process environment. Environment variables win.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/tinoosan/bizledger/internal/ledger"
)

// Storage drivers.
const (
	DriverMemory    = "memory"
	DriverPostgres  = "postgres"
	DriverBolt      = "bolt"
	DriverPostgREST = "supabase"
)

// Config is the full service configuration.
type Config struct {
	Addr     string         `yaml:"addr"`
	Currency string         `yaml:"currency"`
	Log      LogConfig      `yaml:"log"`
	Storage  StorageConfig  `yaml:"storage"`
	Supabase SupabaseConfig `yaml:"supabase"`
	Auth     AuthConfig     `yaml:"auth"`
	// DevSeed loads the demo chart of accounts into an empty store.
	DevSeed bool `yaml:"dev_seed"`
	// ForbidReferencedDelete rejects deleting accounts still used by journal items.
	ForbidReferencedDelete bool `yaml:"forbid_referenced_account_delete"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json|text
}

type StorageConfig struct {
	Driver      string `yaml:"driver"`
	DatabaseURL string `yaml:"database_url"`
	BoltPath    string `yaml:"bolt_path"`
}

type SupabaseConfig struct {
	URL            string `yaml:"url"`
	AnonKey        string `yaml:"anon_key"`
	ServiceRoleKey string `yaml:"service_role_key"`
}

type AuthConfig struct {
	HS256Secret string `yaml:"jwt_hs256_secret"`
	Issuer      string `yaml:"jwt_issuer"`
	Audience    string `yaml:"jwt_audience"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Addr:     ":8080",
		Currency: ledger.DefaultCurrency,
		Log:      LogConfig{Level: "info", Format: "json"},
		Storage:  StorageConfig{BoltPath: "ledger.db"},
	}
}

// Load builds a Config. yamlPath and envPath may be empty. A missing default
// .env is ignored; an explicitly named file that cannot be read is an error.
func Load(yamlPath, envPath string) (Config, error) {
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil {
			return Config{}, fmt.Errorf("loading env file: %w", err)
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}

	cfg := Default()
	if yamlPath != "" {
		data, err := os.ReadFile(yamlPath)
		if err != nil {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config: %w", err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	cfg.Storage.Driver = strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = inferDriver(cfg)
	}
	return cfg, cfg.Validate()
}

// inferDriver picks postgres when a DSN is present and memory otherwise.
func inferDriver(cfg Config) string {
	if cfg.Storage.DatabaseURL != "" {
		return DriverPostgres
	}
	return DriverMemory
}

func (c *Config) applyEnv() error {
	setString(&c.Addr, "ADDR")
	setString(&c.Currency, "LEDGER_CURRENCY")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Format, "LOG_FORMAT")
	setString(&c.Storage.Driver, "STORAGE_DRIVER")
	setString(&c.Storage.DatabaseURL, "DATABASE_URL")
	setString(&c.Storage.BoltPath, "BOLT_PATH")
	setString(&c.Supabase.URL, "SUPABASE_URL")
	setString(&c.Supabase.AnonKey, "SUPABASE_ANON_KEY")
	setString(&c.Supabase.ServiceRoleKey, "SUPABASE_SERVICE_ROLE_KEY")
	setString(&c.Auth.HS256Secret, "JWT_HS256_SECRET")
	setString(&c.Auth.Issuer, "JWT_ISSUER")
	setString(&c.Auth.Audience, "JWT_AUDIENCE")
	if err := setBool(&c.DevSeed, "DEV_SEED"); err != nil {
		return err
	}
	return setBool(&c.ForbidReferencedDelete, "FORBID_REFERENCED_ACCOUNT_DELETE")
}

// Validate checks that the selected driver has what it needs.
func (c Config) Validate() error {
	if !ledger.ValidCurrency(c.Currency) {
		return fmt.Errorf("unknown currency %q", c.Currency)
	}
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Storage.DatabaseURL == "" {
			return errors.New("postgres storage requires DATABASE_URL")
		}
	case DriverBolt:
		if c.Storage.BoltPath == "" {
			return errors.New("bolt storage requires BOLT_PATH")
		}
	case DriverPostgREST:
		if c.Supabase.URL == "" || c.Supabase.AnonKey == "" {
			return errors.New("supabase storage requires SUPABASE_URL and SUPABASE_ANON_KEY")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

// setBool accepts 1/0, true/false and yes/no.
func setBool(dst *bool, key string) error {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch v {
	case "":
		return nil
	case "yes", "y", "on":
		*dst = true
		return nil
	case "no", "n", "off":
		*dst = false
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %q", key, v)
	}
	*dst = b
	return nil
}
