// internal/app/auth.go
package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/shrimpsizemoose/trekker/logger"
)

type Auth struct {
	enabled     bool
	redis       *redis.Client
	keyTemplate string
	tokenHeader string
}

func newRedisClient(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// NewAuth returns a disabled Auth unless the server enables token checks.
// The redis client is shared and owned by the caller.
func NewAuth(config *Config, client *redis.Client) *Auth {
	if !config.Server.EnableAuth {
		return &Auth{enabled: false, tokenHeader: config.Auth.TokenHeader}
	}

	return &Auth{
		enabled:     true,
		redis:       client,
		keyTemplate: config.Auth.TokenKeyTemplate,
		tokenHeader: config.Auth.TokenHeader,
	}
}

func tokenKey(template, class, student string) string {
	return strings.NewReplacer(
		"{class}", class,
		"{student}", student,
	).Replace(template)
}

func (a *Auth) ValidateToken(ctx context.Context, class, student, token string) error {
	if !a.enabled {
		return nil
	}

	key := tokenKey(a.keyTemplate, class, student)

	fields, err := a.redis.HGetAll(ctx, key).Result()
	if err != nil {
		logger.Debug.Printf("Redis error: %v", err)
		return fmt.Errorf("redis error: %w", err)
	}
	// HGETALL on a missing key is an empty hash, not redis.Nil
	if len(fields) == 0 {
		logger.Debug.Printf("Token not found for key: %s", key)
		return fmt.Errorf("%w: token not found", ErrUnauthorized)
	}

	if fields["token"] != token {
		logger.Debug.Printf(
			"Token mismatch for class/student=%s/%s and what's found in %s",
			class,
			student,
			key,
		)
		return fmt.Errorf("%w: invalid token", ErrUnauthorized)
	}

	return nil
}
