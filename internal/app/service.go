package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/peerbulle/internal/metrics"
	"github.com/shrimpsizemoose/peerbulle/internal/models"
	"github.com/shrimpsizemoose/peerbulle/internal/review"
	"github.com/shrimpsizemoose/peerbulle/internal/scoring"
	"github.com/shrimpsizemoose/peerbulle/internal/store"
)

var ErrUnauthorized = errors.New("unauthorized")

type Service struct {
	Config *Config
	Store  store.ReviewStore
	Auth   *Auth
	Rounds review.RoundState
	Review *review.Service

	redis *redis.Client
}

func NewService(configPath string) (*Service, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	st, err := NewStore(config.Database.DSN, config.Database.MigrationsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to init store: %w", err)
	}

	var client *redis.Client
	if config.needsRedis() {
		client, err = newRedisClient(config.Auth.RedisURL)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("failed to init redis: %w", err)
		}
	}

	return NewServiceWith(config, st, client), nil
}

// NewServiceWith wires a service around an already opened store. client may
// be nil when neither auth nor redis round state is configured.
func NewServiceWith(config *Config, st store.ReviewStore, client *redis.Client) *Service {
	var rounds review.RoundState = config.StaticRounds()
	if config.Review.RoundState == RoundStateRedis && client != nil {
		rounds = review.NewRedisRounds(client, config.Review.RoundKeyTemplate, rounds)
	}

	sampler := review.NewSampler(config.Review.TargetsPerReviewer, config.Review.IncludeUnsubmitted)

	return &Service{
		Config: config,
		Store:  st,
		Auth:   NewAuth(config, client),
		Rounds: rounds,
		Review: review.NewService(st, rounds, sampler),
		redis:  client,
	}
}

// TokenManager is only available when a redis client is configured.
func (s *Service) TokenManager() (*TokenManager, error) {
	if s.redis == nil {
		return nil, fmt.Errorf("redis is not configured")
	}
	return NewTokenManager(s.redis, s.Config.Auth.TokenKeyTemplate), nil
}

// RedisRounds is only available when the round state lives in redis.
func (s *Service) RedisRounds() (*review.RedisRounds, error) {
	rounds, ok := s.Rounds.(*review.RedisRounds)
	if !ok {
		return nil, fmt.Errorf("round state is %q, not %q", s.Config.Review.RoundState, RoundStateRedis)
	}
	return rounds, nil
}

func (s *Service) ValidateAuthAndStudent(r *http.Request, class, student string) error {
	if !s.Config.Server.EnableAuth {
		return nil
	}

	authHeader := r.Header.Get(s.Auth.tokenHeader)
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return fmt.Errorf("%w: invalid authorization header format", ErrUnauthorized)
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")

	return s.Auth.ValidateToken(r.Context(), class, student, token)
}

func (s *Service) ValidateHeaders(headers map[string][]string) bool {
	for _, required := range s.Config.API.RequiredHeaders {
		value := headers[http.CanonicalHeaderKey(required.Name)]
		if len(value) == 0 || !strings.EqualFold(value[0], required.Value) {
			return false
		}
	}
	return true
}

// CurrentStudent resolves the calling student of class from the request
// headers. Students of other classes are reported as not found.
func (s *Service) CurrentStudent(r *http.Request, class string) (*models.Student, error) {
	id := r.Header.Get(s.Config.API.StudentIDHeader)
	if id == "" {
		return nil, fmt.Errorf("%w: missing student id", ErrUnauthorized)
	}

	if err := s.ValidateAuthAndStudent(r, class, id); err != nil {
		return nil, err
	}

	student, err := s.Store.GetStudent(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if student == nil || student.ClassID != class {
		return nil, fmt.Errorf("%w: %s in class %s", models.ErrStudentNotFound, id, class)
	}
	return student, nil
}

// Analyze builds the ranked report for one class. Ratings are scoped by the
// reviewer's class, round and optionally the reviewer group.
func (s *Service) Analyze(ctx context.Context, req models.AnalysisRequest) ([]models.AnalysisRow, error) {
	start := time.Now()
	defer func() {
		metrics.AnalysisDuration.WithLabelValues(req.ClassID).Observe(time.Since(start).Seconds())
	}()

	classmates, err := s.Store.StudentsIn(ctx, req.ClassID, models.AnyGroup, false)
	if err != nil {
		return nil, err
	}
	students := make([]models.Student, 0, len(classmates))
	for _, c := range classmates {
		students = append(students, c.Student)
	}

	ratings, err := s.Store.RatingsBy(ctx, models.RatingFilter{
		Round:         req.Round,
		ReviewerClass: req.ClassID,
		ReviewerGroup: req.ReviewerGroup,
	})
	if err != nil {
		return nil, err
	}

	rows := scoring.BuildReport(students, ratings, s.Config.Analysis.TieEpsilon)
	for _, row := range rows {
		metrics.InversionCountHistogram.WithLabelValues(req.ClassID).Observe(float64(row.InversionCount))
	}

	logger.Info.Printf(
		"Analysis for class %s round %d: %d ratings, %d ranked students",
		req.ClassID,
		req.Round,
		len(ratings),
		len(rows),
	)
	return rows, nil
}

// Compare builds the per-reviewer pairwise table for one round. Round 0
// falls back to the first round, as passes of different rounds are not
// comparable.
func (s *Service) Compare(ctx context.Context, req models.AnalysisRequest) (models.ComparisonTable, error) {
	if req.Round == 0 {
		req.Round = 1
	}

	ratings, err := s.Store.RatingsBy(ctx, models.RatingFilter{
		Round:         req.Round,
		ReviewerClass: req.ClassID,
		ReviewerGroup: req.ReviewerGroup,
	})
	if err != nil {
		return models.ComparisonTable{}, err
	}

	table := scoring.Comparisons(ratings, s.Config.Analysis.TieEpsilon)
	logger.Debug.Printf(
		"Pairwise comparison for class %s round %d: %d reviewers, %d pairs",
		req.ClassID,
		req.Round,
		len(table.Reviewers),
		len(table.Pairs),
	)
	return table, nil
}

func (s *Service) Close() error {
	var errs []error

	if err := s.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store: %w", err))
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors while closing: %v", errs)
	}
	return nil
}
