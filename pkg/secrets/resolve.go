package secrets

import (
	"context"
	"errors"
	"fmt"

	"github.com/jordanlanch/fieldsales/config"
)

// Secret keys
const (
	KeyJWTSecret   = "JWT_SECRET"
	KeyDatabaseURL = "DATABASE_URL"
	KeyRedisURL    = "REDIS_URL"
)

// Apply overwrites the sensitive fields of cfg with values from m.
// Missing secrets keep the configured value, except the JWT secret in
// production.
func Apply(ctx context.Context, m Manager, cfg *config.Config) error {
	fields := []struct {
		key      string
		dst      *string
		required bool
	}{
		{KeyJWTSecret, &cfg.JWTSecret, cfg.IsProduction()},
		{KeyDatabaseURL, &cfg.DatabaseURL, false},
		{KeyRedisURL, &cfg.RedisURL, false},
	}

	for _, f := range fields {
		v, err := m.GetSecret(ctx, f.key)
		switch {
		case err == nil:
			*f.dst = v
		case errors.Is(err, ErrNotFound) && !f.required:
		case errors.Is(err, ErrNotFound):
			return fmt.Errorf("required secret %s is not set", f.key)
		default:
			return err
		}
	}
	return nil
}
