package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"quiz-challenge-service/internal/challenge"
	"quiz-challenge-service/internal/domain"
)

// ChallengeRepository abstracts where running challenges are kept (in-memory, Redis-marked, etc).
type ChallengeRepository interface {
	Save(c *Challenge)
	Get(id string) (*Challenge, bool)
	Delete(id string)
}

// livenessToucher is implemented by stores that expire idle challenges.
type livenessToucher interface {
	Touch(ctx context.Context, id string) error
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// EntryFees collects the fee that unlocks a challenge.
type EntryFees interface {
	PayEntryFee(ctx context.Context, fee domain.EntryFee) (domain.Receipt, error)
	// Forfeit closes an entry without paying anything back.
	Forfeit(ctx context.Context, userID, receiptID string) error
}

// Rewards pays out after a favorable result.
type Rewards interface {
	ClaimReward(ctx context.Context, claim domain.RewardClaim) (domain.Receipt, error)
}

// Settings tunes new challenges.
type Settings struct {
	EntryFee         int64
	TimeBudget       int
	RevealTicks      int
	OpponentAccuracy float64
	DefaultMode      domain.Mode
}

// DefaultSettings mirrors the engine defaults with a 0.001 SOL entry fee.
func DefaultSettings() Settings {
	return Settings{
		EntryFee:         1_000_000,
		TimeBudget:       challenge.DefaultTimeBudget,
		RevealTicks:      challenge.DefaultRevealTicks,
		OpponentAccuracy: challenge.DefaultOpponentAccuracy,
		DefaultMode:      domain.ModeRace,
	}
}

// ServiceOption customizes a ChallengeService.
type ServiceOption func(*ChallengeService)

// WithGenerator serves generated quizzes for the ids the generator knows.
func WithGenerator(g *TopicGenerator) ServiceOption {
	return func(s *ChallengeService) { s.generator = g }
}

// WithRandomSourceFactory controls the opponent randomness of new challenges.
func WithRandomSourceFactory(f func() challenge.RandomSource) ServiceOption {
	return func(s *ChallengeService) { s.newSource = f }
}

// WithClock is used by tests for deterministic timestamps.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *ChallengeService) { s.now = now }
}

// ChallengeService contains the challenge use cases.
type ChallengeService struct {
	challenges ChallengeRepository
	quizzes    QuizRepository
	generator  *TopicGenerator
	fees       EntryFees
	rewards    Rewards
	settings   Settings
	newSource  func() challenge.RandomSource
	now        func() time.Time
}

func NewChallengeService(store ChallengeRepository, quizzes QuizRepository, fees EntryFees, rewards Rewards, settings Settings, opts ...ServiceOption) *ChallengeService {
	s := &ChallengeService{
		challenges: store,
		quizzes:    quizzes,
		fees:       fees,
		rewards:    rewards,
		settings:   settings,
		newSource:  challenge.NewRandomSource,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start pays the entry fee and begins a new challenge for the user.
func (s *ChallengeService) Start(ctx context.Context, req domain.StartRequest) (domain.ChallengeView, error) {
	if req.UserID == "" {
		return domain.ChallengeView{}, fmt.Errorf("%w: missing user", domain.ErrInvalidConfiguration)
	}
	mode := req.Mode
	if mode == "" {
		mode = s.settings.DefaultMode
	}
	if !mode.Valid() {
		return domain.ChallengeView{}, fmt.Errorf("%w: unknown mode %q", domain.ErrInvalidConfiguration, mode)
	}

	quiz, err := s.resolveQuiz(ctx, req.QuizID)
	if err != nil {
		return domain.ChallengeView{}, err
	}
	// Never charge for a quiz that cannot be played.
	if err := challenge.ValidateQuestions(quiz.Questions); err != nil {
		return domain.ChallengeView{}, err
	}

	receipt, err := s.fees.PayEntryFee(ctx, domain.EntryFee{
		UserID: req.UserID,
		QuizID: quiz.ID,
		Amount: s.settings.EntryFee,
	})
	if err != nil {
		return domain.ChallengeView{}, fmt.Errorf("%w: %w", domain.ErrPaymentFailed, err)
	}

	engine, err := challenge.Start(quiz.Questions,
		challenge.WithMode(mode),
		challenge.WithTimeBudget(s.settings.TimeBudget),
		challenge.WithRevealTicks(s.settings.RevealTicks),
		challenge.WithOpponentAccuracy(s.settings.OpponentAccuracy),
		challenge.WithRandomSource(s.newSource()),
	)
	if err != nil {
		if ferr := s.fees.Forfeit(ctx, req.UserID, receipt.ID); ferr != nil {
			log.Printf("[Challenge] forfeit entry %s after failed start: %v", receipt.ID, ferr)
		}
		return domain.ChallengeView{}, err
	}

	c := NewChallenge(uuid.NewString(), req.UserID, quiz, receipt, engine, s.now)
	s.challenges.Save(c)
	log.Printf("[Challenge] %s started by %s on quiz %s (%s mode, %d questions)", c.id, req.UserID, quiz.ID, mode, len(quiz.Questions))
	return c.view(), nil
}

// Get returns the current view of a challenge.
func (s *ChallengeService) Get(_ context.Context, id string) (domain.ChallengeView, error) {
	c, ok := s.challenges.Get(id)
	if !ok {
		return domain.ChallengeView{}, domain.ErrChallengeNotFound
	}
	return c.view(), nil
}

// Answer submits the human's option for the current question. The result names
// the question the option was applied to.
func (s *ChallengeService) Answer(_ context.Context, id, userID string, option int) (domain.AnswerResult, domain.ChallengeView, error) {
	c, err := s.owned(id, userID)
	if err != nil {
		return domain.AnswerResult{}, domain.ChallengeView{}, err
	}
	return c.answer(option)
}

// Tick advances the challenge clock by one unit.
func (s *ChallengeService) Tick(_ context.Context, id string) (domain.ChallengeView, challenge.Event, error) {
	c, ok := s.challenges.Get(id)
	if !ok {
		return domain.ChallengeView{}, challenge.Event{}, domain.ErrChallengeNotFound
	}
	view, ev := c.tick()
	if ev.Kind == challenge.EventTimeout {
		log.Printf("[Challenge] %s: %s ran out of time on question %d, restarting", id, c.userID, ev.QuestionIndex)
	}
	return view, ev, nil
}

// Run ticks the challenge once per interval until ctx is done or the challenge is gone.
func (s *ChallengeService) Run(ctx context.Context, id string, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, _, err := s.Tick(ctx, id); err != nil {
				if errors.Is(err, domain.ErrChallengeNotFound) {
					return nil
				}
				return err
			}
			if toucher, ok := s.challenges.(livenessToucher); ok {
				if err := toucher.Touch(ctx, id); err != nil {
					log.Printf("[Challenge] %s: refresh liveness: %v", id, err)
				}
			}
		}
	}
}

// Restart starts over after a completed run that earned no reward.
func (s *ChallengeService) Restart(_ context.Context, id, userID string) (domain.ChallengeView, error) {
	c, err := s.owned(id, userID)
	if err != nil {
		return domain.ChallengeView{}, err
	}
	return c.restart()
}

// Claim asks the reward collaborator to pay out a won or tied challenge. Only one claim succeeds.
func (s *ChallengeService) Claim(ctx context.Context, id, userID string) (domain.Receipt, error) {
	c, err := s.owned(id, userID)
	if err != nil {
		return domain.Receipt{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	claim, err := c.claimLocked()
	if err != nil {
		return domain.Receipt{}, err
	}
	receipt, err := s.rewards.ClaimReward(ctx, claim)
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("%w: %w", domain.ErrClaimFailed, err)
	}
	c.reward = &receipt
	c.lastEvent = "reward_claimed"
	c.broadcastLocked()
	log.Printf("[Challenge] %s: %s claimed %d lamports (bonus %d)", id, userID, receipt.Amount, receipt.Bonus)
	return receipt, nil
}

// Subscribe returns a channel that receives view updates for a challenge.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *ChallengeService) Subscribe(_ context.Context, id string) (<-chan domain.ChallengeView, func(), error) {
	c, ok := s.challenges.Get(id)
	if !ok {
		return nil, nil, domain.ErrChallengeNotFound
	}
	ch, cancel := c.subscribe()
	return ch, cancel, nil
}

// Abandon drops a challenge the user walked away from; an unclaimed entry is forfeited.
func (s *ChallengeService) Abandon(ctx context.Context, id, userID string) error {
	c, err := s.owned(id, userID)
	if err != nil {
		return err
	}
	s.challenges.Delete(id)
	if !c.close() {
		return nil
	}
	if c.claimed() {
		return nil
	}
	if err := s.fees.Forfeit(ctx, userID, c.entry.ID); err != nil {
		return fmt.Errorf("forfeit entry %s: %w", c.entry.ID, err)
	}
	log.Printf("[Challenge] %s abandoned by %s", id, userID)
	return nil
}

func (s *ChallengeService) owned(id, userID string) (*Challenge, error) {
	c, ok := s.challenges.Get(id)
	if !ok {
		return nil, domain.ErrChallengeNotFound
	}
	if c.userID != userID {
		return nil, domain.ErrNotChallengeOwner
	}
	return c, nil
}

// Quiz returns the full quiz for id, answers included. Generated ids produce a
// fresh draw on every call.
func (s *ChallengeService) Quiz(ctx context.Context, id string) (domain.Quiz, error) {
	return s.resolveQuiz(ctx, id)
}

func (s *ChallengeService) resolveQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	if quizID == "" {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if s.generator != nil {
		if quiz, ok := s.generator.Generate(quizID); ok {
			return quiz, nil
		}
	}
	return s.quizzes.GetQuiz(ctx, quizID)
}
