package review

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

// RoundState answers whether a class currently accepts ratings for a round.
type RoundState interface {
	IsOpen(ctx context.Context, classID string, round int) (bool, error)
}

// StaticRounds is the configured round state: Open lists rounds open for every
// class, PerClass overrides it for individual classes.
type StaticRounds struct {
	Open     []int
	PerClass map[string][]int
}

func (s *StaticRounds) IsOpen(_ context.Context, classID string, round int) (bool, error) {
	open := s.Open
	if rounds, ok := s.PerClass[classID]; ok {
		open = rounds
	}
	for _, r := range open {
		if r == round {
			return true, nil
		}
	}
	return false, nil
}

// RedisRounds keeps the round gate in Redis so it can be flipped per class
// without a restart. Unset keys fall back to Defaults.
type RedisRounds struct {
	redis       *redis.Client
	keyTemplate string
	Defaults    RoundState
}

func NewRedisRounds(client *redis.Client, keyTemplate string, defaults RoundState) *RedisRounds {
	if keyTemplate == "" {
		keyTemplate = "round:{class}:{round}"
	}
	return &RedisRounds{
		redis:       client,
		keyTemplate: keyTemplate,
		Defaults:    defaults,
	}
}

func (r *RedisRounds) key(classID string, round int) string {
	return strings.NewReplacer(
		"{class}", classID,
		"{round}", strconv.Itoa(round),
	).Replace(r.keyTemplate)
}

func (r *RedisRounds) IsOpen(ctx context.Context, classID string, round int) (bool, error) {
	value, err := r.redis.Get(ctx, r.key(classID, round)).Result()
	if err == redis.Nil {
		if r.Defaults == nil {
			return false, nil
		}
		return r.Defaults.IsOpen(ctx, classID, round)
	}
	if err != nil {
		return false, fmt.Errorf("redis error: %w", err)
	}
	return value == "open", nil
}

func (r *RedisRounds) Open(ctx context.Context, classID string, round int) error {
	return r.redis.Set(ctx, r.key(classID, round), "open", 0).Err()
}

func (r *RedisRounds) Close(ctx context.Context, classID string, round int) error {
	return r.redis.Set(ctx, r.key(classID, round), "closed", 0).Err()
}
