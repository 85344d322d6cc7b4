package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"quiz-challenge-service/internal/config"
)

// NewFundCmd tops up the shared reward vault.
func NewFundCmd(configPath *string) *cobra.Command {
	var amount int64
	cmd := &cobra.Command{
		Use:   "fund",
		Short: "Add lamports to the Redis-backed reward vault",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			return runFund(cmd.Context(), cmd.OutOrStdout(), cfg, amount)
		},
	}
	cmd.Flags().Int64Var(&amount, "amount", 0, "lamports to add")
	return cmd
}

func runFund(ctx context.Context, out io.Writer, cfg config.Config, amount int64) error {
	// Without Redis the vault only lives inside a running server.
	if cfg.Redis.Addr == "" {
		return errors.New("fund: redis.addr is not configured")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer client.Close()

	vault, err := newVault(ctx, cfg, client)
	if err != nil {
		return err
	}
	if err := vault.Fund(ctx, amount); err != nil {
		return fmt.Errorf("fund: %w", err)
	}
	balance, err := vault.Balance(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "vault funded with %d lamports, balance %d\n", amount, balance)
	return nil
}
