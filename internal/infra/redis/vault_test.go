package redis

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"quiz-challenge-service/internal/domain"
)

func newTestVault(t *testing.T, balance int64) (*Vault, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	vault := NewVault(newClient(mr), 1000, time.Hour)
	vault.rnd = rand.New(rand.NewSource(1))
	if err := vault.Init(context.Background(), balance); err != nil {
		t.Fatalf("init vault: %v", err)
	}
	return vault, mr
}

func TestVaultPayEntryFee(t *testing.T) {
	ctx := context.Background()
	vault, mr := newTestVault(t, 0)

	if _, err := vault.PayEntryFee(ctx, domain.EntryFee{UserID: "u1", QuizID: "q", Amount: 10}); !errors.Is(err, domain.ErrMinimumAmount) {
		t.Fatalf("expected minimum amount, got %v", err)
	}
	receipt, err := vault.PayEntryFee(ctx, domain.EntryFee{UserID: "u1", QuizID: "q", Amount: 1000})
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if got := mr.HGet("vault:entry:u1", "id"); got != receipt.ID {
		t.Fatalf("expected entry hash with receipt id, got %q", got)
	}
	if ttl := mr.TTL("vault:entry:u1"); ttl != time.Hour {
		t.Fatalf("expected entry ttl 1h, got %v", ttl)
	}
	if _, err := vault.PayEntryFee(ctx, domain.EntryFee{UserID: "u1", QuizID: "q", Amount: 1000}); !errors.Is(err, domain.ErrActiveEntryExists) {
		t.Fatalf("expected active entry, got %v", err)
	}
	if balance, _ := vault.Balance(ctx); balance != 1000 {
		t.Fatalf("expected balance 1000, got %d", balance)
	}

	// An expired entry disappears and no longer blocks a new one.
	mr.FastForward(time.Hour + time.Second)
	if _, err := vault.PayEntryFee(ctx, domain.EntryFee{UserID: "u1", QuizID: "q", Amount: 1000}); err != nil {
		t.Fatalf("pay after expiry: %v", err)
	}
}

func TestVaultClaimReward(t *testing.T) {
	ctx := context.Background()
	vault, mr := newTestVault(t, 10_000)

	// Init does not overwrite an existing balance.
	if err := vault.Init(ctx, 5); err != nil {
		t.Fatalf("init: %v", err)
	}

	entry, err := vault.PayEntryFee(ctx, domain.EntryFee{UserID: "u1", QuizID: "q", Amount: 1000})
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	claim := domain.RewardClaim{UserID: "u1", EntryReceiptID: entry.ID, Result: domain.ResultHumanWins, CorrectAnswers: 2, TotalQuestions: 3}

	wrong := claim
	wrong.EntryReceiptID = "other"
	if _, err := vault.ClaimReward(ctx, wrong); !errors.Is(err, domain.ErrReceiptMismatch) {
		t.Fatalf("expected mismatch, got %v", err)
	}

	reward, err := vault.ClaimReward(ctx, claim)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if reward.Bonus < 50 || reward.Bonus > 250 || reward.Amount != 1000+reward.Bonus || reward.QuizID != "q" {
		t.Fatalf("unexpected reward %+v", reward)
	}
	if balance, _ := vault.Balance(ctx); balance != 11_000-reward.Amount {
		t.Fatalf("unexpected balance %d", balance)
	}
	if mr.Exists("vault:entry:u1") {
		t.Fatalf("expected entry closed")
	}
	if _, err := vault.ClaimReward(ctx, claim); !errors.Is(err, domain.ErrNoActiveEntry) {
		t.Fatalf("expected no active entry, got %v", err)
	}
}

func TestVaultClaimRewardFailures(t *testing.T) {
	ctx := context.Background()
	vault, mr := newTestVault(t, 0)

	entry, _ := vault.PayEntryFee(ctx, domain.EntryFee{UserID: "u1", QuizID: "q", Amount: 1000})
	perfect := domain.RewardClaim{UserID: "u1", EntryReceiptID: entry.ID, CorrectAnswers: 3, TotalQuestions: 3}
	if _, err := vault.ClaimReward(ctx, perfect); !errors.Is(err, domain.ErrInsufficientVaultFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}

	// The hash outlives the clock here, so the age check reports expiry.
	vault.clock = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := vault.ClaimReward(ctx, perfect); !errors.Is(err, domain.ErrEntryExpired) {
		t.Fatalf("expected expired entry, got %v", err)
	}
	if mr.Exists("vault:entry:u1") {
		t.Fatalf("expected expired entry removed")
	}
}

var errDelRefused = errors.New("del refused")

// refuseDel fails every DEL so cleanup errors surface.
type refuseDel struct{}

func (refuseDel) DialHook(next redis.DialHook) redis.DialHook { return next }

func (refuseDel) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		if cmd.Name() == "del" {
			return errDelRefused
		}
		return next(ctx, cmd)
	}
}

func (refuseDel) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func TestVaultExpiredEntryCleanupErrorIsReported(t *testing.T) {
	ctx := context.Background()
	vault, mr := newTestVault(t, 10_000)

	entry, err := vault.PayEntryFee(ctx, domain.EntryFee{UserID: "u1", QuizID: "q", Amount: 1000})
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	vault.client.AddHook(refuseDel{})
	vault.clock = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, err = vault.ClaimReward(ctx, domain.RewardClaim{UserID: "u1", EntryReceiptID: entry.ID, CorrectAnswers: 3, TotalQuestions: 3})
	if !errors.Is(err, domain.ErrEntryExpired) || !errors.Is(err, errDelRefused) {
		t.Fatalf("expected expiry joined with the cleanup error, got %v", err)
	}
	if !mr.Exists("vault:entry:u1") {
		t.Fatalf("entry should survive a refused delete")
	}
}

func TestVaultPoorRunKeepsFee(t *testing.T) {
	ctx := context.Background()
	vault, _ := newTestVault(t, 0)

	entry, _ := vault.PayEntryFee(ctx, domain.EntryFee{UserID: "u1", QuizID: "q", Amount: 1000})
	reward, err := vault.ClaimReward(ctx, domain.RewardClaim{UserID: "u1", EntryReceiptID: entry.ID, CorrectAnswers: 0, TotalQuestions: 3})
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if reward.Amount != 0 {
		t.Fatalf("expected no payout, got %d", reward.Amount)
	}
	if balance, _ := vault.Balance(ctx); balance != 1000 {
		t.Fatalf("expected fee kept, got %d", balance)
	}
}

func TestVaultForfeitAndFund(t *testing.T) {
	ctx := context.Background()
	vault, mr := newTestVault(t, 0)

	entry, _ := vault.PayEntryFee(ctx, domain.EntryFee{UserID: "u1", QuizID: "q", Amount: 1000})
	if err := vault.Forfeit(ctx, "u1", "nope"); !errors.Is(err, domain.ErrReceiptMismatch) {
		t.Fatalf("expected mismatch, got %v", err)
	}
	if err := vault.Forfeit(ctx, "u1", entry.ID); err != nil {
		t.Fatalf("forfeit: %v", err)
	}
	if mr.Exists("vault:entry:u1") {
		t.Fatalf("expected entry removed")
	}
	if err := vault.Fund(ctx, 0); !errors.Is(err, domain.ErrInvalidAmount) {
		t.Fatalf("expected invalid amount, got %v", err)
	}
	if err := vault.Fund(ctx, 500); err != nil {
		t.Fatalf("fund: %v", err)
	}
	if balance, _ := vault.Balance(ctx); balance != 1500 {
		t.Fatalf("expected 1500, got %d", balance)
	}
}
