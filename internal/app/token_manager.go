package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shrimpsizemoose/peerbulle/internal/models"
)

const (
	timeFormat  = "2006-01-02 15:04:05"
	tokenPrefix = "sk-peerbll-"
)

// TokenManager issues the per-student API tokens that Auth checks.
type TokenManager struct {
	redis       *redis.Client
	keyTemplate string
	now         func() time.Time
}

func NewTokenManager(redis *redis.Client, keyTemplate string) *TokenManager {
	if keyTemplate == "" {
		keyTemplate = defaultTokenKeyTemplate
	}
	return &TokenManager{redis: redis, keyTemplate: keyTemplate, now: time.Now}
}

func generateToken() (string, error) {
	randomBytes := make([]byte, 12)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	return tokenPrefix + hex.EncodeToString(randomBytes), nil
}

// FetchOrCreateStudentToken returns the student's token, creating it on first
// use. The bool is true when a new token was generated.
func (tm *TokenManager) FetchOrCreateStudentToken(ctx context.Context, class, student string) (*models.TokenInfo, bool, error) {
	key := tokenKey(tm.keyTemplate, class, student)

	token, err := tm.redis.HGet(ctx, key, "token").Result()
	if err != nil && err != redis.Nil {
		return nil, false, fmt.Errorf("failed to check token: %w", err)
	}

	now := tm.now().UTC()
	isNewToken := false

	if err == redis.Nil {
		token, err = generateToken()
		if err != nil {
			return nil, false, fmt.Errorf("failed to generate token: %w", err)
		}

		if err := tm.redis.HSet(ctx, key, map[string]interface{}{
			"token":                 token,
			"request_count":         1,
			"last_request_dttm_utc": now.Format(timeFormat),
			"created_dttm_utc":      now.Format(timeFormat),
		}).Err(); err != nil {
			return nil, false, fmt.Errorf("failed to create token: %w", err)
		}

		isNewToken = true
	} else {
		pipe := tm.redis.Pipeline()
		pipe.HIncrBy(ctx, key, "request_count", 1)
		pipe.HSet(ctx, key, "last_request_dttm_utc", now.Format(timeFormat))

		if _, err := pipe.Exec(ctx); err != nil {
			return nil, false, fmt.Errorf("failed to update token stats: %w", err)
		}
	}

	values, err := tm.redis.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to get token info: %w", err)
	}

	lastReqTime, _ := time.Parse(timeFormat, values["last_request_dttm_utc"])
	createdTime, _ := time.Parse(timeFormat, values["created_dttm_utc"])
	reqCount, _ := strconv.Atoi(values["request_count"])

	return &models.TokenInfo{
		StudentID:       student,
		ClassID:         class,
		Token:           values["token"],
		RequestCount:    reqCount,
		LastRequestTime: lastReqTime,
		CreatedTime:     createdTime,
	}, isNewToken, nil
}

// RevokeStudentToken deletes the student's token. Revoking a missing token is
// not an error.
func (tm *TokenManager) RevokeStudentToken(ctx context.Context, class, student string) error {
	if err := tm.redis.Del(ctx, tokenKey(tm.keyTemplate, class, student)).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}
