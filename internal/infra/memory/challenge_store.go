package memory

import (
	"sync"

	"quiz-challenge-service/internal/app"
)

// ChallengeStore is an in-memory implementation of app.ChallengeRepository.
type ChallengeStore struct {
	mu         sync.RWMutex
	challenges map[string]*app.Challenge
}

func NewChallengeStore() *ChallengeStore {
	return &ChallengeStore{
		challenges: make(map[string]*app.Challenge),
	}
}

func (s *ChallengeStore) Save(c *app.Challenge) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.challenges[c.ID()] = c
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
	delete(s.challenges, id)
}

// Len reports how many challenges are running.
func (s *ChallengeStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.challenges)
}
