package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"timed-quiz-service/internal/domain"
	"timed-quiz-service/internal/game"
)

type Config struct {
	Server struct {
		Port           string   `yaml:"port"`
		AllowedOrigins []string `yaml:"allowedOrigins"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Catalog struct {
		TTL                string `yaml:"ttl"`
		OptionsPerQuestion int    `yaml:"optionsPerQuestion"`
	} `yaml:"catalog"`
	Game GameConfig `yaml:"game"`
}

// GameConfig mirrors game.Settings with pointers so a missing key is
// distinguishable from a zero value.
type GameConfig struct {
	GameDuration           *int `yaml:"gameDuration" validate:"required,gt=0"`
	PointsPerAnswer        *int `yaml:"pointsPerAnswer" validate:"required,gt=0"`
	StreakRequirement      *int `yaml:"streakRequirement" validate:"required,gt=0"`
	StreakBonus            *int `yaml:"streakBonus" validate:"required,gt=0"`
	PenaltyPerWrongPoints  *int `yaml:"penaltyPerWrongPoints" validate:"required,gte=0"`
	PenaltyPerWrongSeconds *int `yaml:"penaltyPerWrongSeconds" validate:"required,gte=0"`
	CheatCost              *int `yaml:"cheatCost" validate:"required,gte=0"`
	CheatAnswersRemoved    *int `yaml:"cheatAnswersRemoved" validate:"required,gte=0"`
	LeaderboardEntries     *int `yaml:"leaderboardEntries" validate:"required,gt=0"`

	WarningSeconds    *int              `yaml:"warningSeconds" validate:"omitempty,gte=0"`
	SettleDelay       string            `yaml:"settleDelay"`
	NextQuestionDelay string            `yaml:"nextQuestionDelay"`
	FeedbackDuration  string            `yaml:"feedbackDuration"`
	Sounds            map[string]string `yaml:"sounds"`
}

var validate = validator.New()

// Load reads YAML config from path. A .env file next to the process is
// applied to the environment first if present.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	applyEnv(&cfg)
	return cfg, nil
}

// applyEnv lets deployments override connection settings without editing the file.
func applyEnv(cfg *Config) {
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.URL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = parseOrigins(v)
	}
}

func parseOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

// GameSettings converts the game section into validated settings.
func (c Config) GameSettings() (game.Settings, error) {
	g := c.Game
	if err := validate.Struct(g); err != nil {
		return game.Settings{}, fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
	}

	settings := game.Settings{
		GameDuration:           *g.GameDuration,
		PointsPerAnswer:        *g.PointsPerAnswer,
		StreakRequirement:      *g.StreakRequirement,
		StreakBonus:            *g.StreakBonus,
		PenaltyPerWrongPoints:  *g.PenaltyPerWrongPoints,
		PenaltyPerWrongSeconds: *g.PenaltyPerWrongSeconds,
		CheatCost:              *g.CheatCost,
		CheatAnswersRemoved:    *g.CheatAnswersRemoved,
		LeaderboardEntries:     *g.LeaderboardEntries,
		WarningSeconds:         game.DefaultWarningSeconds,
		SettleDelay:            TTLDuration(g.SettleDelay, game.DefaultSettleDelay),
		NextQuestionDelay:      TTLDuration(g.NextQuestionDelay, game.DefaultNextQuestionDelay),
		FeedbackDuration:       TTLDuration(g.FeedbackDuration, game.DefaultFeedbackDuration),
		Sounds:                 g.Sounds,
	}
	if g.WarningSeconds != nil {
		settings.WarningSeconds = *g.WarningSeconds
	}
	if err := settings.Validate(); err != nil {
		return game.Settings{}, err
	}
	return settings, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
