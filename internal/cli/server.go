package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/spf13/cobra"

	"timed-quiz-service/internal/app"
	"timed-quiz-service/internal/config"
	"timed-quiz-service/internal/domain"
	"timed-quiz-service/internal/game"
	"timed-quiz-service/internal/infra/memory"
	pgstore "timed-quiz-service/internal/infra/postgres"
	rediscache "timed-quiz-service/internal/infra/redis"
	"timed-quiz-service/internal/logger"
	transport "timed-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the game server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := logger.Setup(cfg.Log.Level, cfg.Log.Format)

	settings, err := cfg.GameSettings()
	if err != nil {
		log.Error().Err(err).Msg("invalid game settings")
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, log, false); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	redisClient, err := connectRedis(ctx, cfg)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		log.Info().Str("addr", cfg.Redis.Addr).Msg("redis connected")
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		log.Info().Msg("postgres connected")
	}

	var loader memory.CatalogLoader = memory.NewStaticCatalogLoader(sampleTitles())
	var board game.LeaderboardProvider = memory.NewLeaderboard()
	if pool != nil {
		loader = pgstore.NewCatalogLoader(pool)
		board = pgstore.NewLeaderboardStore(pool)
	}
	if redisClient != nil {
		board = rediscache.NewLeaderboard(redisClient, board, redisTTL)
	}
	catalogTTL := config.TTLDuration(cfg.Catalog.TTL, 10*time.Minute)
	bank := memory.NewQuestionBank(loader, catalogTTL, cfg.Catalog.OptionsPerQuestion)

	var store app.SessionRepository
	if redisClient != nil {
		store = rediscache.NewSessionStore(redisClient, redisTTL)
	} else {
		store = memory.NewSessionStore()
	}

	sched := game.NewClockScheduler(clockwork.NewRealClock())
	service := app.NewGameService(store, bank, board, sched, settings, log)

	mux := http.NewServeMux()
	transport.NewRESTHandler(service, log).Register(mux)
	mux.HandleFunc("/ws", transport.NewWSHandler(service, log, cfg.Server.AllowedOrigins).ServeWS)

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     withCORS(mux, cfg.Server.AllowedOrigins),
		ReadTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("port", finalPort).Msg("starting game server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info().Msg("shutting down server...")
	case <-ctx.Done():
		log.Info().Msg("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// connectRedis returns nil when no address is configured. Addresses may be
// plain host:port or a redis:// URL.
func connectRedis(ctx context.Context, cfg config.Config) (*redis.Client, error) {
	if cfg.Redis.Addr == "" {
		return nil, nil
	}
	opts := &redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	if strings.HasPrefix(cfg.Redis.Addr, "redis://") || strings.HasPrefix(cfg.Redis.Addr, "rediss://") {
		parsed, err := redis.ParseURL(cfg.Redis.Addr)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opts = parsed
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func withCORS(h http.Handler, allowedOrigins []string) http.Handler {
	origins := allowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedOrigins: origins,
		AllowedHeaders: []string{"*"},
	}).Handler(h)
}

// sampleTitles is the catalog served when no database is configured.
func sampleTitles() []domain.Title {
	titles := []struct{ id, title string }{
		{"tt0111161", "The Shawshank Redemption"},
		{"tt0068646", "The Godfather"},
		{"tt0468569", "The Dark Knight"},
		{"tt0071562", "The Godfather Part II"},
		{"tt0050083", "12 Angry Men"},
		{"tt0108052", "Schindler's List"},
		{"tt0167260", "The Lord of the Rings: The Return of the King"},
		{"tt0110912", "Pulp Fiction"},
		{"tt0060196", "The Good, the Bad and the Ugly"},
		{"tt0137523", "Fight Club"},
		{"tt0109830", "Forrest Gump"},
		{"tt1375666", "Inception"},
		{"tt0080684", "The Empire Strikes Back"},
		{"tt0133093", "The Matrix"},
		{"tt0099685", "Goodfellas"},
		{"tt0073486", "One Flew Over the Cuckoo's Nest"},
		{"tt0114369", "Se7en"},
		{"tt0047478", "Seven Samurai"},
		{"tt0102926", "The Silence of the Lambs"},
		{"tt0245429", "Spirited Away"},
	}
	out := make([]domain.Title, 0, len(titles))
	for _, t := range titles {
		out = append(out, domain.Title{
			ID:     t.id,
			Title:  t.title,
			Visual: "/static/posters/" + t.id + ".jpg",
		})
	}
	return out
}

