package app

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/peerbulle/internal/review"
	"github.com/shrimpsizemoose/peerbulle/internal/scoring"
)

const (
	RoundStateStatic = "static"
	RoundStateRedis  = "redis"

	defaultTokenKeyTemplate = "auth:{class}:{student}"
	defaultRoundKeyTemplate = "round:{class}:{round}"
)

var configValidator = validator.New()

type HeaderConfig struct {
	Name  string `toml:"name" validate:"required"`
	Value string `toml:"value"`
}

type Config struct {
	Server struct {
		Port       string `toml:"port"`
		EnableAuth bool   `toml:"enable_auth"`
	} `toml:"server"`

	Auth struct {
		RedisURL         string `toml:"redis_url"`
		TokenHeader      string `toml:"token_header"`
		TokenKeyTemplate string `toml:"token_key_template"`
	} `toml:"auth"`

	API struct {
		StudentIDHeader string         `toml:"student_id_header" validate:"required"`
		RequiredHeaders []HeaderConfig `toml:"required_headers" validate:"dive"`
	} `toml:"api"`

	Database struct {
		DSN           string `toml:"dsn" validate:"required"`
		MigrationsDir string `toml:"migrations_dir"`
	} `toml:"database"`

	Review struct {
		TargetsPerReviewer int              `toml:"targets_per_reviewer" validate:"gte=1"`
		IncludeUnsubmitted bool             `toml:"include_unsubmitted"`
		OpenRounds         []int            `toml:"open_rounds" validate:"dive,gte=1"`
		ClassRounds        map[string][]int `toml:"class_rounds"`
		RoundState         string           `toml:"round_state" validate:"oneof=static redis"`
		RoundKeyTemplate   string           `toml:"round_key_template"`
	} `toml:"review"`

	Analysis struct {
		TieEpsilon   float64 `toml:"tie_epsilon" validate:"gt=0"`
		DefaultRound int     `toml:"default_round" validate:"gte=0"`
	} `toml:"analysis"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	config, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("error reading config file %s\n> Error: %w", path, err)
	}
	return config, nil
}

func ParseConfig(data []byte) (*Config, error) {
	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%w\n> Content:\n%s", err, string(data))
	}

	if config.Server.Port == "" {
		return nil, fmt.Errorf("Server port is not specified in config, use a value like :9999")
	}

	config.setDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	logger.Debug.Printf("Loaded review config: %+v", config.Review)
	logger.Debug.Printf("Loaded analysis config: %+v", config.Analysis)

	return &config, nil
}

func (c *Config) setDefaults() {
	if c.Auth.TokenHeader == "" {
		c.Auth.TokenHeader = "Authorization"
	}
	if c.Auth.TokenKeyTemplate == "" {
		c.Auth.TokenKeyTemplate = defaultTokenKeyTemplate
	}
	if c.API.StudentIDHeader == "" {
		c.API.StudentIDHeader = "X-Student-ID"
	}
	if c.Review.TargetsPerReviewer == 0 {
		c.Review.TargetsPerReviewer = review.DefaultTargetsPerReviewer
	}
	if c.Review.OpenRounds == nil {
		c.Review.OpenRounds = []int{1}
	}
	if c.Review.RoundState == "" {
		c.Review.RoundState = RoundStateStatic
	}
	if c.Review.RoundKeyTemplate == "" {
		c.Review.RoundKeyTemplate = defaultRoundKeyTemplate
	}
	if c.Analysis.TieEpsilon == 0 {
		c.Analysis.TieEpsilon = scoring.DefaultTieEpsilon
	}
}

func (c *Config) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.needsRedis() && c.Auth.RedisURL == "" {
		return fmt.Errorf("invalid config: auth.redis_url is required when auth or redis round state is enabled")
	}
	return nil
}

func (c *Config) needsRedis() bool {
	return c.Server.EnableAuth || c.Review.RoundState == RoundStateRedis
}

func (c *Config) StaticRounds() *review.StaticRounds {
	return &review.StaticRounds{
		Open:     c.Review.OpenRounds,
		PerClass: c.Review.ClassRounds,
	}
}
