package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar overrides the location of the optional YAML config file.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfigPaths are searched in order when CONFIG_PATH is not set.
var defaultConfigPaths = []string{"config.yaml", "config.yml"}

// Config holds all configuration for the application
type Config struct {
	Env Environment `koanf:"-"`

	Server     ServerConfig     `koanf:"server"`
	Database   DatabaseConfig   `koanf:"db"`
	Redis      RedisConfig      `koanf:"redis"`
	Auth       AuthConfig       `koanf:"auth"`
	Storage    StorageConfig    `koanf:"storage"`
	Recipes    RecipeConfig     `koanf:"recipes"`
	Pagination PaginationConfig `koanf:"pagination"`
	Log        LogConfig        `koanf:"log"`
}

// ServerConfig configures the HTTP listener
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            string        `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	AllowedOrigins  []string      `koanf:"allowed_origins"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// DatabaseConfig configures the relational store
type DatabaseConfig struct {
	Driver       string `koanf:"driver"`
	Host         string `koanf:"host"`
	Port         string `koanf:"port"`
	User         string `koanf:"user"`
	Password     string `koanf:"password"`
	Name         string `koanf:"name"`
	SSLMode      string `koanf:"ssl_mode"`
	SQLitePath   string `koanf:"sqlite_path"`
	MaxOpenConns int    `koanf:"max_open_conns"`
}

// DSN builds a postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// URL builds a postgres URL, as used by database/sql with lib/pq.
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

// RedisConfig configures the optional redis connection
type RedisConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Host     string `koanf:"host"`
	Port     string `koanf:"port"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
	URL      string `koanf:"url"`
}

// AuthConfig configures token issuance
type AuthConfig struct {
	JWTSecret string        `koanf:"jwt_secret"`
	TokenTTL  time.Duration `koanf:"token_ttl"`
}

// StorageConfig selects where recipe images and avatars are written
type StorageConfig struct {
	Backend       string `koanf:"backend"`
	Bucket        string `koanf:"bucket"`
	Region        string `koanf:"region"`
	Endpoint      string `koanf:"endpoint"`
	PublicBaseURL string `koanf:"public_base_url"`
	MediaRoot     string `koanf:"media_root"`
	MediaURL      string `koanf:"media_url"`
}

// RecipeConfig holds the bounds and short-link settings of the recipe domain
type RecipeConfig struct {
	MinAmount            int           `koanf:"min_amount"`
	MaxAmount            int           `koanf:"max_amount"`
	MinCookingTime       int           `koanf:"min_cooking_time"`
	MaxCookingTime       int           `koanf:"max_cooking_time"`
	ShortLinkLength      int           `koanf:"short_link_length"`
	ShortLinkMaxAttempts int           `koanf:"short_link_max_attempts"`
	ShortDomain          string        `koanf:"short_domain"`
	CreateLimit          int           `koanf:"create_limit"`
	CreateWindow         time.Duration `koanf:"create_window"`
}

// PaginationConfig holds list page sizes
type PaginationConfig struct {
	PageSize    int `koanf:"page_size"`
	MaxPageSize int `koanf:"max_page_size"`
}

// LogConfig selects the logger mode ("dev" or "prod")
type LogConfig struct {
	Mode string `koanf:"mode"`
}

const devJWTSecret = "dev-secret-change-me"

// Default returns the built-in configuration. Every other layer overrides it.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "8000",
			ShutdownTimeout: 5 * time.Second,
			AllowedOrigins:  []string{"http://localhost:3000", "http://localhost"},
		},
		Database: DatabaseConfig{
			Driver:       "postgres",
			Host:         "localhost",
			Port:         "5432",
			User:         "foodgram",
			Name:         "foodgram",
			SSLMode:      "disable",
			SQLitePath:   "foodgram.db",
			MaxOpenConns: 25,
		},
		Redis: RedisConfig{
			Enabled: false,
			Host:    "localhost",
			Port:    "6379",
		},
		Auth: AuthConfig{
			JWTSecret: devJWTSecret,
			TokenTTL:  24 * time.Hour,
		},
		Storage: StorageConfig{
			Backend:   "local",
			Region:    "us-east-1",
			MediaRoot: "media",
			MediaURL:  "/media/",
		},
		Recipes: RecipeConfig{
			MinAmount:            1,
			MaxAmount:            32000,
			MinCookingTime:       1,
			MaxCookingTime:       32000,
			ShortLinkLength:      3,
			ShortLinkMaxAttempts: 16,
			ShortDomain:          "http://localhost:8000",
			CreateLimit:          30,
			CreateWindow:         time.Hour,
		},
		Pagination: PaginationConfig{
			PageSize:    6,
			MaxPageSize: 100,
		},
		Log: LogConfig{Mode: "dev"},
	}
}

// LoadConfig builds the configuration from, in increasing priority: defaults,
// an optional YAML file, environment variables and docker secrets.
func LoadConfig() (*Config, error) {
	environment := GetEnvironment()
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := loadSecrets(k); err != nil {
		return nil, fmt.Errorf("failed to load secrets: %w", err)
	}

	if raw, ok := k.Get("server.allowed_origins").(string); ok {
		if err := k.Set("server.allowed_origins", splitList(raw)); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	cfg.Env = environment
	if cfg.Env == Production && !k.Exists("log.mode") {
		cfg.Log.Mode = "prod"
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range defaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// sections are the top-level keys environment variables may address.
var sections = map[string]bool{
	"server": true, "db": true, "redis": true, "auth": true, "storage": true,
	"recipes": true, "pagination": true, "log": true,
}

// envAliases keeps the flat variable names used by existing deployments.
var envAliases = map[string]string{
	"jwt_secret":     "auth.jwt_secret",
	"short_domain":   "recipes.short_domain",
	"s3_bucket_name": "storage.bucket",
	"aws_region":     "storage.region",
	"redis_url":      "redis.url",
	"page_size":      "pagination.page_size",
}

// envKey maps DB_HOST to db.host and RECIPES_SHORT_DOMAIN to
// recipes.short_domain. Unknown variables map to "" and are dropped.
func envKey(name string) string {
	name = strings.ToLower(name)
	if alias, ok := envAliases[name]; ok {
		return alias
	}
	section, rest, found := strings.Cut(name, "_")
	if !found || !sections[section] || rest == "" {
		return ""
	}
	return section + "." + rest
}

// secretKeys maps docker secret file names to config keys.
var secretKeys = map[string]string{
	"db_user":               "db.user",
	"db_password":           "db.password",
	"jwt_secret":            "auth.jwt_secret",
	"redis_password":        "redis.password",
	"aws_secret_access_key": "",
}

func loadSecrets(k *koanf.Koanf) error {
	for name, key := range secretKeys {
		value := readSecret(name)
		if value == "" {
			continue
		}
		if key == "" {
			// consumed by the AWS SDK's environment credential chain
			if os.Getenv("AWS_SECRET_ACCESS_KEY") == "" {
				_ = os.Setenv("AWS_SECRET_ACCESS_KEY", value)
			}
			continue
		}
		if err := k.Set(key, value); err != nil {
			return err
		}
	}
	return nil
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	if data, err := os.ReadFile(filepath.Join(secretsDir, name)); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
