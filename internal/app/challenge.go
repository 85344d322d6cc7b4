package app

import (
	"fmt"
	"sync"
	"time"

	"quiz-challenge-service/internal/challenge"
	"quiz-challenge-service/internal/domain"
)

// Challenge wraps one engine session together with who paid for it and who is watching it.
type Challenge struct {
	id     string
	userID string
	quiz   domain.Quiz
	entry  domain.Receipt
	now    func() time.Time

	mu          sync.Mutex
	engine      *challenge.Session
	lastEvent   string
	restarts    int
	reward      *domain.Receipt
	closed      bool
	subscribers map[chan domain.ChallengeView]struct{}
}

// NewChallenge binds a started engine session to its owner and entry receipt.
// A nil now defaults to time.Now.
func NewChallenge(id, userID string, quiz domain.Quiz, entry domain.Receipt, engine *challenge.Session, now func() time.Time) *Challenge {
	if now == nil {
		now = time.Now
	}
	return &Challenge{
		id:          id,
		userID:      userID,
		quiz:        quiz,
		entry:       entry,
		now:         now,
		engine:      engine,
		lastEvent:   "started",
		subscribers: make(map[chan domain.ChallengeView]struct{}),
	}
}

// ID returns the challenge identifier.
func (c *Challenge) ID() string { return c.id }

// UserID returns the owner of the challenge.
func (c *Challenge) UserID() string { return c.userID }

func (c *Challenge) tick() (domain.ChallengeView, challenge.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ev := c.engine.Tick()
	if ev.Kind == challenge.EventIdle {
		return c.viewLocked(), ev
	}
	if ev.Kind == challenge.EventTimeout {
		c.restarts++
	}
	c.lastEvent = string(ev.Kind)
	return c.broadcastLocked(), ev
}

// answer submits the option and reports which question it was applied to.
// The index is read under the same lock as the submission so a concurrent
// tick cannot move the session in between.
func (c *Challenge) answer(option int) (domain.AnswerResult, domain.ChallengeView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx, _ := c.engine.CurrentQuestion()
	outcome, err := c.engine.SubmitAnswer(option)
	if err != nil {
		return domain.AnswerResult{}, c.viewLocked(), err
	}
	c.lastEvent = "answered"
	if c.engine.Phase() == domain.PhaseCompleted {
		c.lastEvent = string(challenge.EventCompleted)
	}
	res := domain.AnswerResult{QuestionIndex: idx, OptionIndex: option, Outcome: outcome}
	return res, c.broadcastLocked(), nil
}

func (c *Challenge) restart() (domain.ChallengeView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := c.engine.Snapshot()
	if snap.Phase != domain.PhaseCompleted || domain.RewardEligible(snap) {
		return c.viewLocked(), fmt.Errorf("%w: restart is only offered after a run that earned nothing", domain.ErrInvalidState)
	}
	c.engine.Restart()
	c.restarts++
	c.lastEvent = "restarted"
	return c.broadcastLocked(), nil
}

// claimLocked builds the reward claim; callers hold c.mu for the whole claim.
func (c *Challenge) claimLocked() (domain.RewardClaim, error) {
	if c.reward != nil {
		return domain.RewardClaim{}, domain.ErrAlreadyClaimed
	}
	snap := c.engine.Snapshot()
	if snap.Phase != domain.PhaseCompleted {
		return domain.RewardClaim{}, fmt.Errorf("%w: challenge is not completed", domain.ErrInvalidState)
	}
	if !domain.RewardEligible(snap) {
		if snap.Mode == domain.ModeSolo {
			return domain.RewardClaim{}, fmt.Errorf("%w: %d of %d correct earns no reward", domain.ErrInvalidState, snap.HumanScore, snap.TotalQuestions)
		}
		return domain.RewardClaim{}, fmt.Errorf("%w: no reward for %s", domain.ErrInvalidState, snap.Result)
	}
	return domain.RewardClaim{
		UserID:         c.userID,
		QuizID:         c.quiz.ID,
		EntryReceiptID: c.entry.ID,
		Result:         snap.Result,
		CorrectAnswers: snap.HumanScore,
		TotalQuestions: snap.TotalQuestions,
	}, nil
}

func (c *Challenge) close() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.closed = true
	return true
}

func (c *Challenge) claimed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reward != nil
}

func (c *Challenge) view() domain.ChallengeView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

func (c *Challenge) subscribe() (<-chan domain.ChallengeView, func()) {
	ch := make(chan domain.ChallengeView, 8)

	c.mu.Lock()
	c.subscribers[ch] = struct{}{}
	initial := c.viewLocked()
	c.mu.Unlock()

	ch <- initial

	cancel := func() {
		c.mu.Lock()
		if _, ok := c.subscribers[ch]; ok {
			delete(c.subscribers, ch)
			close(ch)
		}
		c.mu.Unlock()
	}
	return ch, cancel
}

func (c *Challenge) broadcastLocked() domain.ChallengeView {
	view := c.viewLocked()
	for ch := range c.subscribers {
		select {
		case ch <- view:
		default:
			// Drop the oldest update so a slow reader never blocks the clock.
			select {
			case <-ch:
			default:
			}
			ch <- view
		}
	}
	return view
}

func (c *Challenge) viewLocked() domain.ChallengeView {
	snap := c.engine.Snapshot()
	idx, q := c.engine.CurrentQuestion()
	qv := &domain.QuestionView{
		Index:   idx,
		Prompt:  q.Prompt,
		Options: q.Options,
	}
	if snap.Phase == domain.PhaseCompleted {
		correct := q.CorrectIndex
		qv.CorrectIndex = &correct
	}

	view := domain.ChallengeView{
		ID:        c.id,
		QuizID:    c.quiz.ID,
		UserID:    c.userID,
		State:     snap,
		Question:  qv,
		LastEvent: c.lastEvent,
		Restarts:  c.restarts,
		Entry:     c.entry,
		UpdatedAt: c.now(),
	}
	if c.reward != nil {
		r := *c.reward
		view.Reward = &r
	}
	return view
}
