package redis

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"quiz-challenge-service/internal/domain"
)

const (
	balanceKey     = "vault:balance"
	entryKeyPrefix = "vault:entry:"
	maxTxRetries   = 5
)

// Vault keeps the treasury balance and the active entry of every user in Redis.
// Entries live in a hash per user whose TTL is the entry lifetime:
//
//	HSET vault:entry:{userID} id {receiptID} quiz {quizID} amount {lamports} paid_at {unixNano}
//
// Every mutation runs in a WATCH/MULTI transaction and is retried on conflicts.
type Vault struct {
	client   *redis.Client
	minFee   int64
	entryTTL time.Duration
	clock    func() time.Time

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewVault(client *redis.Client, minFee int64, entryTTL time.Duration) *Vault {
	return &Vault{
		client:   client,
		minFee:   minFee,
		entryTTL: entryTTL,
		clock:    time.Now,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Init seeds the balance unless the vault already holds one.
func (v *Vault) Init(ctx context.Context, initialBalance int64) error {
	return v.client.SetNX(ctx, balanceKey, initialBalance, 0).Err()
}

func (v *Vault) PayEntryFee(ctx context.Context, fee domain.EntryFee) (domain.Receipt, error) {
	if fee.Amount <= 0 {
		return domain.Receipt{}, domain.ErrInvalidAmount
	}
	if fee.Amount < v.minFee {
		return domain.Receipt{}, domain.ErrMinimumAmount
	}

	key := entryKeyPrefix + fee.UserID
	var receipt domain.Receipt
	err := v.transact(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return domain.ErrActiveEntryExists
		}

		now := v.clock()
		receipt = domain.Receipt{
			ID:        uuid.NewString(),
			UserID:    fee.UserID,
			QuizID:    fee.QuizID,
			Amount:    fee.Amount,
			CreatedAt: now,
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, map[string]interface{}{
				"id":      receipt.ID,
				"quiz":    receipt.QuizID,
				"amount":  receipt.Amount,
				"paid_at": now.UnixNano(),
			})
			if v.entryTTL > 0 {
				pipe.Expire(ctx, key, v.entryTTL)
			}
			pipe.IncrBy(ctx, balanceKey, fee.Amount)
			return nil
		})
		return err
	}, key)
	if err != nil {
		return domain.Receipt{}, err
	}
	return receipt, nil
}

func (v *Vault) ClaimReward(ctx context.Context, claim domain.RewardClaim) (domain.Receipt, error) {
	key := entryKeyPrefix + claim.UserID
	var reward domain.Receipt
	err := v.transact(ctx, func(tx *redis.Tx) error {
		entry, err := readEntry(ctx, tx, key)
		if err != nil {
			return err
		}
		if entry.ID != claim.EntryReceiptID {
			return domain.ErrReceiptMismatch
		}
		now := v.clock()
		if v.entryTTL > 0 && now.Sub(entry.CreatedAt) > v.entryTTL {
			if err := tx.Del(ctx, key).Err(); err != nil {
				return errors.Join(domain.ErrEntryExpired, fmt.Errorf("drop expired entry %s: %w", entry.ID, err))
			}
			return domain.ErrEntryExpired
		}

		balance, err := tx.Get(ctx, balanceKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		payout, bonus := domain.ComputeReward(entry.Amount, claim.CorrectAnswers, claim.TotalQuestions, v.intn)
		if payout > balance {
			return domain.ErrInsufficientVaultFunds
		}

		reward = domain.Receipt{
			ID:        uuid.NewString(),
			UserID:    claim.UserID,
			QuizID:    entry.QuizID,
			Amount:    payout,
			Bonus:     bonus,
			CreatedAt: now,
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if payout > 0 {
				pipe.DecrBy(ctx, balanceKey, payout)
			}
			pipe.Del(ctx, key)
			return nil
		})
		return err
	}, key, balanceKey)
	if err != nil {
		return domain.Receipt{}, err
	}
	return reward, nil
}

func (v *Vault) Forfeit(ctx context.Context, userID, receiptID string) error {
	key := entryKeyPrefix + userID
	return v.transact(ctx, func(tx *redis.Tx) error {
		entry, err := readEntry(ctx, tx, key)
		if err != nil {
			return err
		}
		if entry.ID != receiptID {
			return domain.ErrReceiptMismatch
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			return nil
		})
		return err
	}, key)
}

// Fund adds to the balance available for rewards.
func (v *Vault) Fund(ctx context.Context, amount int64) error {
	if amount <= 0 {
		return domain.ErrInvalidAmount
	}
	return v.client.IncrBy(ctx, balanceKey, amount).Err()
}

func (v *Vault) Balance(ctx context.Context) (int64, error) {
	balance, err := v.client.Get(ctx, balanceKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return balance, err
}

func (v *Vault) transact(ctx context.Context, fn func(tx *redis.Tx) error, keys ...string) error {
	for i := 0; i < maxTxRetries; i++ {
		err := v.client.Watch(ctx, fn, keys...)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("vault transaction: too many conflicts on %v", keys)
}

func (v *Vault) intn(n int) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.rnd.Intn(n)
}

func readEntry(ctx context.Context, tx *redis.Tx, key string) (domain.Receipt, error) {
	fields, err := tx.HGetAll(ctx, key).Result()
	if err != nil {
		return domain.Receipt{}, err
	}
	if len(fields) == 0 {
		return domain.Receipt{}, domain.ErrNoActiveEntry
	}
	amount, err := strconv.ParseInt(fields["amount"], 10, 64)
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("decode entry amount: %w", err)
	}
	paidAt, err := strconv.ParseInt(fields["paid_at"], 10, 64)
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("decode entry time: %w", err)
	}
	return domain.Receipt{
		ID:        fields["id"],
		QuizID:    fields["quiz"],
		Amount:    amount,
		CreatedAt: time.Unix(0, paidAt),
	}, nil
}
