package cli

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"quiz-challenge-service/internal/config"
	"quiz-challenge-service/internal/infra/postgres"
	infraredis "quiz-challenge-service/internal/infra/redis"
)

// NewSeedCmd loads the built-in quiz catalogue into Postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Migrate and upsert the sample quizzes into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			return runSeed(cmd.Context(), cfg)
		},
	}
}

func runSeed(ctx context.Context, cfg config.Config) error {
	if err := runMigrationsWithConfig(ctx, cfg); err != nil {
		return err
	}

	db := postgres.OpenDB(cfg.Postgres.URL)
	defer db.Close()
	writer := postgres.NewQuizWriter(db)

	quizzes := sampleQuizzes()
	ids := make([]string, 0, len(quizzes))
	for id := range quizzes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if err := writer.SaveQuiz(ctx, quizzes[id]); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}

	stored, err := writer.ListQuizIDs(ctx)
	if err != nil {
		return err
	}
	log.Printf("[Seed] upserted %d quizzes, %d stored", len(ids), len(stored))

	if cfg.Redis.Addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer client.Close()
	return evictCachedQuizzes(ctx, client, ids)
}

// evictCachedQuizzes drops cached copies so servers reload the seeded content.
func evictCachedQuizzes(ctx context.Context, client *redis.Client, ids []string) error {
	cache := infraredis.NewQuizRepository(client, nil, 0)
	for _, id := range ids {
		if err := cache.Invalidate(ctx, id); err != nil {
			return fmt.Errorf("evict cached quiz %s: %w", id, err)
		}
	}
	log.Printf("[Seed] evicted %d cached quizzes", len(ids))
	return nil
}
