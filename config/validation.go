package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every problem found in one pass.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, v := range e {
		msgs[i] = v.Error()
	}
	return strings.Join(msgs, "\n")
}

// ValidateConfig checks the configuration against the requirements of its
// environment.
func ValidateConfig(cfg *Config) error {
	var errs ValidationErrors
	add := func(field, format string, args ...interface{}) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if cfg.Server.Port == "" {
		add("server.port", "is required")
	}

	switch cfg.Database.Driver {
	case "postgres":
		if cfg.Database.Host == "" {
			add("db.host", "is required for postgres")
		}
		if cfg.Database.Name == "" {
			add("db.name", "is required for postgres")
		}
		if cfg.Database.User == "" {
			add("db.user", "is required for postgres")
		}
	case "sqlite":
		if cfg.Env.IsProduction() {
			add("db.driver", "sqlite is not allowed in production")
		}
	default:
		add("db.driver", "unknown driver %q", cfg.Database.Driver)
	}

	if cfg.Auth.JWTSecret == "" {
		add("auth.jwt_secret", "is required")
	} else if cfg.Env.IsProduction() && cfg.Auth.JWTSecret == devJWTSecret {
		add("auth.jwt_secret", "the development secret cannot be used in production")
	}
	if cfg.Auth.TokenTTL <= 0 {
		add("auth.token_ttl", "must be positive")
	}

	switch cfg.Storage.Backend {
	case "s3":
		if cfg.Storage.Bucket == "" {
			add("storage.bucket", "is required for the s3 backend")
		}
	case "local":
		if cfg.Storage.MediaRoot == "" {
			add("storage.media_root", "is required for the local backend")
		}
	default:
		add("storage.backend", "unknown backend %q", cfg.Storage.Backend)
	}

	r := cfg.Recipes
	if r.MinAmount < 1 || r.MaxAmount < r.MinAmount {
		add("recipes.min_amount", "bounds [%d, %d] are invalid", r.MinAmount, r.MaxAmount)
	}
	if r.MinCookingTime < 1 || r.MaxCookingTime < r.MinCookingTime {
		add("recipes.min_cooking_time", "bounds [%d, %d] are invalid", r.MinCookingTime, r.MaxCookingTime)
	}
	if r.ShortLinkLength < 1 {
		add("recipes.short_link_length", "must be at least 1")
	}
	if r.ShortLinkMaxAttempts < 1 {
		add("recipes.short_link_max_attempts", "must be at least 1")
	}

	if cfg.Pagination.PageSize < 1 {
		add("pagination.page_size", "must be at least 1")
	}
	if cfg.Pagination.MaxPageSize < cfg.Pagination.PageSize {
		add("pagination.max_page_size", "must not be smaller than page_size")
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
