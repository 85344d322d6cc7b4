package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"quiz-challenge-service/internal/app"
)

// ChallengeStore is a Redis-aware implementation of app.ChallengeRepository.
// Notes:
//   - Engines tick in-process, so challenges stay in a local map.
//   - Redis holds a liveness marker per challenge (owner id as value) so other
//     instances and operators can see what is running.
type ChallengeStore struct {
	client     *redis.Client
	ttl        time.Duration
	mu         sync.RWMutex
	challenges map[string]*app.Challenge
}

func NewChallengeStore(client *redis.Client, ttl time.Duration) *ChallengeStore {
	return &ChallengeStore{
		client:     client,
		ttl:        ttl,
		challenges: make(map[string]*app.Challenge),
	}
}

func (s *ChallengeStore) Save(c *app.Challenge) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.challenges[c.ID()] = c
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(c.ID()), c.UserID(), s.ttl).Err()
}

func (s *ChallengeStore) Get(id string) (*app.Challenge, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.challenges[id]
	return c, ok
}

func (s *ChallengeStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.challenges[id]; !ok {
		return
	}
	delete(s.challenges, id)
	_ = s.client.Del(context.Background(), s.key(id)).Err()
}

// Touch extends the liveness marker of a running challenge.
func (s *ChallengeStore) Touch(ctx context.Context, id string) error {
	return s.client.Expire(ctx, s.key(id), s.ttl).Err()
}

func (s *ChallengeStore) key(id string) string {
	return "challenge:session:" + id
}
