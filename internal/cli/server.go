package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"quiz-challenge-service/internal/app"
	"quiz-challenge-service/internal/config"
	"quiz-challenge-service/internal/domain"
	"quiz-challenge-service/internal/infra/memory"
	pgloader "quiz-challenge-service/internal/infra/postgres"
	infraredis "quiz-challenge-service/internal/infra/redis"
	transport "quiz-challenge-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the challenge server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

// treasury is what the challenge service and the operator commands need from a vault.
type treasury interface {
	app.EntryFees
	app.Rewards
	transport.BalanceReader
	Fund(ctx context.Context, amount int64) error
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
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

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var loader memory.QuizLoader = memory.NewStaticQuizLoader(sampleQuizzes())
	if pool != nil {
		loader = pgloader.NewQuizLoader(pool)
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo app.QuizRepository
	if redisClient != nil {
		quizRepo = infraredis.NewQuizRepository(redisClient, loader, quizTTL)
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
	}

	var store app.ChallengeRepository
	if redisClient != nil {
		store = infraredis.NewChallengeStore(redisClient, redisTTL)
	} else {
		store = memory.NewChallengeStore()
	}

	vault, err := newVault(ctx, cfg, redisClient)
	if err != nil {
		return err
	}

	settings, err := challengeSettings(cfg)
	if err != nil {
		return err
	}
	generator := app.NewTopicGenerator(sampleTopicPools(), 3, nil)
	service := app.NewChallengeService(store, quizRepo, vault, vault, settings, app.WithGenerator(generator))

	tickInterval := config.TTLDuration(cfg.Challenge.TickInterval, time.Second)
	oauthHandler := transport.NewOAuthHandler(transport.OAuthConfig{
		TokenURL:     cfg.OAuth.TokenURL,
		UserURL:      cfg.OAuth.UserURL,
		ClientID:     cfg.OAuth.ClientID,
		ClientSecret: cfg.OAuth.ClientSecret,
	}, nil)

	router := transport.NewRouter(transport.Routes{
		WS:    transport.NewWSHandler(service, tickInterval),
		Quiz:  transport.NewQuizHandler(service, generatedQuizID),
		OAuth: oauthHandler,
		Vault: vault,
	})

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("[Server] starting challenge service on :%s (tick %s, entry fee %d lamports)", finalPort, tickInterval, settings.EntryFee)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("[Server] failed to start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("[Server] shutting down...")
	case <-ctx.Done():
		log.Println("[Server] context canceled, shutting down...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func newVault(ctx context.Context, cfg config.Config, client *redis.Client) (treasury, error) {
	minFee := cfg.Vault.MinEntryFee
	if minFee <= 0 {
		minFee = 1_000_000
	}
	entryTTL := config.TTLDuration(cfg.Vault.EntryTTL, time.Hour)

	if client == nil {
		vault := memory.NewVault(0, minFee, entryTTL)
		if cfg.Vault.InitialBalance > 0 {
			if err := vault.Fund(ctx, cfg.Vault.InitialBalance); err != nil {
				return nil, err
			}
		}
		return vault, nil
	}
	vault := infraredis.NewVault(client, minFee, entryTTL)
	if err := vault.Init(ctx, cfg.Vault.InitialBalance); err != nil {
		return nil, err
	}
	return vault, nil
}

func challengeSettings(cfg config.Config) (app.Settings, error) {
	settings := app.DefaultSettings()
	if cfg.Vault.EntryFee > 0 {
		settings.EntryFee = cfg.Vault.EntryFee
	}
	if cfg.Challenge.AnswerSeconds > 0 {
		settings.TimeBudget = cfg.Challenge.AnswerSeconds
	}
	if cfg.Challenge.RevealTicks != nil {
		settings.RevealTicks = *cfg.Challenge.RevealTicks
	}
	if cfg.Challenge.OpponentAccuracy != nil {
		settings.OpponentAccuracy = *cfg.Challenge.OpponentAccuracy
	}
	if cfg.Challenge.DefaultMode != "" {
		mode := domain.Mode(cfg.Challenge.DefaultMode)
		if !mode.Valid() {
			return settings, domain.ErrInvalidConfiguration
		}
		settings.DefaultMode = mode
	}
	return settings, nil
}
