package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"quiz-challenge-service/internal/domain"
)

// Vault holds entry fees and pays rewards out of the same balance.
// It implements app.EntryFees and app.Rewards.
type Vault struct {
	minFee   int64
	entryTTL time.Duration
	clock    func() time.Time
	rnd      *rand.Rand

	mu      sync.Mutex
	balance int64
	entries map[string]vaultEntry
}

type vaultEntry struct {
	receipt domain.Receipt
	paidAt  time.Time
}

func NewVault(initialBalance, minFee int64, entryTTL time.Duration) *Vault {
	return NewVaultWithClock(initialBalance, minFee, entryTTL, time.Now, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewVaultWithClock is test-only for deterministic expiry and bonuses.
func NewVaultWithClock(initialBalance, minFee int64, entryTTL time.Duration, now func() time.Time, rnd *rand.Rand) *Vault {
	return &Vault{
		minFee:   minFee,
		entryTTL: entryTTL,
		clock:    now,
		rnd:      rnd,
		balance:  initialBalance,
		entries:  make(map[string]vaultEntry),
	}
}

func (v *Vault) PayEntryFee(_ context.Context, fee domain.EntryFee) (domain.Receipt, error) {
	if fee.Amount <= 0 {
		return domain.Receipt{}, domain.ErrInvalidAmount
	}
	if fee.Amount < v.minFee {
		return domain.Receipt{}, domain.ErrMinimumAmount
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	now := v.clock()
	if entry, ok := v.entries[fee.UserID]; ok && !v.expired(entry, now) {
		return domain.Receipt{}, domain.ErrActiveEntryExists
	}

	receipt := domain.Receipt{
		ID:        uuid.NewString(),
		UserID:    fee.UserID,
		QuizID:    fee.QuizID,
		Amount:    fee.Amount,
		CreatedAt: now,
	}
	v.entries[fee.UserID] = vaultEntry{receipt: receipt, paidAt: now}
	v.balance += fee.Amount
	return receipt, nil
}

func (v *Vault) ClaimReward(_ context.Context, claim domain.RewardClaim) (domain.Receipt, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	entry, ok := v.entries[claim.UserID]
	if !ok {
		return domain.Receipt{}, domain.ErrNoActiveEntry
	}
	if entry.receipt.ID != claim.EntryReceiptID {
		return domain.Receipt{}, domain.ErrReceiptMismatch
	}
	now := v.clock()
	if v.expired(entry, now) {
		delete(v.entries, claim.UserID)
		return domain.Receipt{}, domain.ErrEntryExpired
	}

	payout, bonus := domain.ComputeReward(entry.receipt.Amount, claim.CorrectAnswers, claim.TotalQuestions, v.rnd.Intn)
	if payout > v.balance {
		return domain.Receipt{}, domain.ErrInsufficientVaultFunds
	}
	v.balance -= payout
	delete(v.entries, claim.UserID)

	return domain.Receipt{
		ID:        uuid.NewString(),
		UserID:    claim.UserID,
		QuizID:    entry.receipt.QuizID,
		Amount:    payout,
		Bonus:     bonus,
		CreatedAt: now,
	}, nil
}

func (v *Vault) Forfeit(_ context.Context, userID, receiptID string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	entry, ok := v.entries[userID]
	if !ok {
		return domain.ErrNoActiveEntry
	}
	if entry.receipt.ID != receiptID {
		return domain.ErrReceiptMismatch
	}
	delete(v.entries, userID)
	return nil
}

// Fund adds to the balance available for rewards.
func (v *Vault) Fund(_ context.Context, amount int64) error {
	if amount <= 0 {
		return domain.ErrInvalidAmount
	}
	v.mu.Lock()
	v.balance += amount
	v.mu.Unlock()
	return nil
}

func (v *Vault) Balance(_ context.Context) (int64, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.balance, nil
}

func (v *Vault) expired(entry vaultEntry, now time.Time) bool {
	return v.entryTTL > 0 && now.Sub(entry.paidAt) > v.entryTTL
}
