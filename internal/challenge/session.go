// Package challenge implements the timed quiz race between a human and a
// simulated opponent.
//
// A Session is driven by an external clock calling Tick once per time unit
// and by the human calling SubmitAnswer. Nothing here blocks or spawns
// goroutines; a Session is not safe for concurrent use.
package challenge

import (
	"fmt"

	"quiz-challenge-service/internal/domain"
)

const (
	// DefaultTimeBudget is the number of ticks each side gets per question.
	DefaultTimeBudget = 5
	// DefaultRevealTicks is how long an opponent answer stays on screen in turns mode.
	DefaultRevealTicks = 2
)

// EventKind describes what a Tick did.
type EventKind string

const (
	EventIdle             EventKind = "idle"
	EventCountdown        EventKind = "countdown"
	EventTimeout          EventKind = "timeout"
	EventOpponentAnswered EventKind = "opponent_answered"
	EventRoundResolved    EventKind = "round_resolved"
	EventCompleted        EventKind = "completed"
)

// Event is returned by Tick.
type Event struct {
	Kind          EventKind
	QuestionIndex int
	// OpponentOption is set for timeout and opponent_answered events.
	OpponentOption int
	// Outcome is set for timeout, round_resolved and completed events.
	Outcome domain.Outcome
}

type settings struct {
	mode        domain.Mode
	budget      int
	revealTicks int
	opponent    *Opponent
	accuracy    float64
	rnd         RandomSource
}

// Option configures a Session.
type Option func(*settings)

func WithMode(m domain.Mode) Option {
	return func(s *settings) { s.mode = m }
}

func WithTimeBudget(ticks int) Option {
	return func(s *settings) { s.budget = ticks }
}

func WithRevealTicks(ticks int) Option {
	return func(s *settings) { s.revealTicks = ticks }
}

// WithOpponentAccuracy overrides the probability of a correct opponent answer.
func WithOpponentAccuracy(p float64) Option {
	return func(s *settings) { s.accuracy = p }
}

// WithRandomSource injects the opponent's randomness.
func WithRandomSource(rnd RandomSource) Option {
	return func(s *settings) { s.rnd = rnd }
}

// WithOpponent replaces the opponent entirely; accuracy and source options are ignored.
func WithOpponent(o *Opponent) Option {
	return func(s *settings) { s.opponent = o }
}

// Session is one run of the challenge.
type Session struct {
	questions   []domain.Question
	mode        domain.Mode
	budget      int
	revealTicks int
	opponent    *Opponent

	currentIndex          int
	humanScore            int
	opponentScore         int
	outcomes              []domain.Outcome
	phase                 domain.Phase
	humanTimeRemaining    int
	opponentTimeRemaining int
	revealRemaining       int
	result                domain.Result

	// turns mode only: the human's answer for the round waiting on the opponent.
	pendingHumanCorrect bool
	reveal              *domain.OpponentReveal
}

// Start validates questions and returns a fresh session.
func Start(questions []domain.Question, opts ...Option) (*Session, error) {
	cfg := settings{
		mode:        domain.ModeRace,
		budget:      DefaultTimeBudget,
		revealTicks: DefaultRevealTicks,
		accuracy:    DefaultOpponentAccuracy,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := validateSettings(cfg); err != nil {
		return nil, err
	}
	if err := ValidateQuestions(questions); err != nil {
		return nil, err
	}

	opponent := cfg.opponent
	if opponent == nil {
		opponent = NewOpponent(cfg.accuracy, cfg.rnd)
	}

	s := &Session{
		questions:   copyQuestions(questions),
		mode:        cfg.mode,
		budget:      cfg.budget,
		revealTicks: cfg.revealTicks,
		opponent:    opponent,
	}
	s.reset()
	return s, nil
}

// ValidateQuestions checks that questions can drive a session.
func ValidateQuestions(questions []domain.Question) error {
	if len(questions) == 0 {
		return fmt.Errorf("%w: no questions", domain.ErrInvalidConfiguration)
	}
	for i, q := range questions {
		if q.Prompt == "" {
			return fmt.Errorf("%w: question %d has no prompt", domain.ErrInvalidConfiguration, i)
		}
		if len(q.Options) < 2 {
			return fmt.Errorf("%w: question %d needs at least 2 options", domain.ErrInvalidConfiguration, i)
		}
		if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
			return fmt.Errorf("%w: question %d correct index %d out of range", domain.ErrInvalidConfiguration, i, q.CorrectIndex)
		}
	}
	return nil
}

func validateSettings(cfg settings) error {
	if !cfg.mode.Valid() {
		return fmt.Errorf("%w: unknown mode %q", domain.ErrInvalidConfiguration, cfg.mode)
	}
	if cfg.budget <= 0 {
		return fmt.Errorf("%w: time budget must be positive", domain.ErrInvalidConfiguration)
	}
	if cfg.revealTicks < 0 {
		return fmt.Errorf("%w: reveal ticks must not be negative", domain.ErrInvalidConfiguration)
	}
	if cfg.opponent == nil && (cfg.accuracy < 0 || cfg.accuracy > 1) {
		return fmt.Errorf("%w: opponent accuracy %v outside [0,1]", domain.ErrInvalidConfiguration, cfg.accuracy)
	}
	return nil
}

// reset puts every mutable field back to its start-of-session value.
func (s *Session) reset() {
	s.currentIndex = 0
	s.humanScore = 0
	s.opponentScore = 0
	s.outcomes = []domain.Outcome{}
	s.phase = domain.PhaseAwaitingHumanAnswer
	s.humanTimeRemaining = s.budget
	s.opponentTimeRemaining = s.budget
	s.revealRemaining = 0
	s.result = domain.ResultNone
	s.pendingHumanCorrect = false
	s.reveal = nil
}

// Restart discards all progress, as if Start were called again with the same questions.
func (s *Session) Restart() {
	s.reset()
}

// Tick advances the clock by one unit. Solo sessions have no clock.
func (s *Session) Tick() Event {
	if s.mode == domain.ModeSolo {
		return Event{Kind: EventIdle, QuestionIndex: s.currentIndex}
	}
	switch s.phase {
	case domain.PhaseAwaitingHumanAnswer:
		if s.humanTimeRemaining > 0 {
			s.humanTimeRemaining--
		}
		if s.humanTimeRemaining > 0 {
			return Event{Kind: EventCountdown, QuestionIndex: s.currentIndex}
		}
		return s.timeout()

	case domain.PhaseOpponentThinking:
		if s.opponentTimeRemaining > 0 {
			s.opponentTimeRemaining--
		}
		if s.opponentTimeRemaining > 0 {
			return Event{Kind: EventCountdown, QuestionIndex: s.currentIndex}
		}
		q := s.questions[s.currentIndex]
		choice := s.opponent.Answer(q)
		s.reveal = &domain.OpponentReveal{
			QuestionIndex: s.currentIndex,
			OptionIndex:   choice,
			Correct:       choice == q.CorrectIndex,
		}
		if s.revealTicks == 0 {
			return s.resolveTurn()
		}
		s.phase = domain.PhaseRevealingOpponentAnswer
		s.revealRemaining = s.revealTicks
		return Event{Kind: EventOpponentAnswered, QuestionIndex: s.currentIndex, OpponentOption: choice}

	case domain.PhaseRevealingOpponentAnswer:
		if s.revealRemaining > 0 {
			s.revealRemaining--
		}
		if s.revealRemaining > 0 {
			return Event{Kind: EventCountdown, QuestionIndex: s.currentIndex}
		}
		return s.resolveTurn()
	}
	return Event{Kind: EventIdle, QuestionIndex: s.currentIndex}
}

// Advance calls Tick units times and returns every event.
func (s *Session) Advance(units int) []Event {
	if units <= 0 {
		return nil
	}
	events := make([]Event, 0, units)
	for i := 0; i < units; i++ {
		events = append(events, s.Tick())
	}
	return events
}

// timeout: the opponent answers the question the human missed, then the
// human loses the whole run and the session restarts.
func (s *Session) timeout() Event {
	idx := s.currentIndex
	q := s.questions[idx]
	choice := s.opponent.Answer(q)
	outcome := domain.Outcome{
		HumanAnswered:   false,
		HumanCorrect:    false,
		OpponentCorrect: choice == q.CorrectIndex,
	}
	s.outcomes = append(s.outcomes, outcome)
	if outcome.OpponentCorrect {
		s.opponentScore++
	}
	s.reset()
	return Event{Kind: EventTimeout, QuestionIndex: idx, OpponentOption: choice, Outcome: outcome}
}

// SubmitAnswer records the human's choice for the current question.
// In turns mode the returned outcome has OpponentCorrect unset; the round
// resolves after the opponent's reveal.
func (s *Session) SubmitAnswer(option int) (domain.Outcome, error) {
	if s.phase != domain.PhaseAwaitingHumanAnswer || s.humanTimeRemaining <= 0 {
		return domain.Outcome{}, fmt.Errorf("%w: cannot answer during %s", domain.ErrInvalidState, s.phase)
	}
	q := s.questions[s.currentIndex]
	if option < 0 || option >= len(q.Options) {
		return domain.Outcome{}, fmt.Errorf("%w: %d", domain.ErrOptionNotFound, option)
	}
	correct := option == q.CorrectIndex

	if s.mode == domain.ModeTurns {
		s.pendingHumanCorrect = correct
		s.phase = domain.PhaseOpponentThinking
		s.opponentTimeRemaining = s.budget
		return domain.Outcome{HumanAnswered: true, HumanCorrect: correct}, nil
	}

	// In race mode the human beat the opponent to it and in solo mode there is
	// no opponent, so the opponent gets nothing this round.
	outcome := domain.Outcome{HumanAnswered: true, HumanCorrect: correct, OpponentCorrect: false}
	s.record(outcome)
	return outcome, nil
}

func (s *Session) resolveTurn() Event {
	idx := s.currentIndex
	outcome := domain.Outcome{
		HumanAnswered:   true,
		HumanCorrect:    s.pendingHumanCorrect,
		OpponentCorrect: s.reveal != nil && s.reveal.Correct,
	}
	s.record(outcome)
	kind := EventRoundResolved
	if s.phase == domain.PhaseCompleted {
		kind = EventCompleted
	}
	return Event{Kind: kind, QuestionIndex: idx, Outcome: outcome}
}

// record appends the outcome and either advances or completes the session.
func (s *Session) record(outcome domain.Outcome) {
	s.outcomes = append(s.outcomes, outcome)
	if outcome.HumanCorrect {
		s.humanScore++
	}
	if outcome.OpponentCorrect {
		s.opponentScore++
	}
	s.pendingHumanCorrect = false

	if s.currentIndex == len(s.questions)-1 {
		s.complete()
		return
	}
	s.currentIndex++
	s.humanTimeRemaining = s.budget
	s.opponentTimeRemaining = s.budget
	s.revealRemaining = 0
	s.reveal = nil
	s.phase = domain.PhaseAwaitingHumanAnswer
}

func (s *Session) complete() {
	human, opponent := tally(s.outcomes)
	s.humanScore = human
	s.opponentScore = opponent
	switch {
	case human > opponent:
		s.result = domain.ResultHumanWins
	case opponent > human:
		s.result = domain.ResultOpponentWins
	default:
		s.result = domain.ResultTie
	}
	s.revealRemaining = 0
	s.phase = domain.PhaseCompleted
}

func tally(outcomes []domain.Outcome) (human, opponent int) {
	for _, o := range outcomes {
		if o.HumanCorrect {
			human++
		}
		if o.OpponentCorrect {
			opponent++
		}
	}
	return human, opponent
}

func (s *Session) Phase() domain.Phase   { return s.phase }
func (s *Session) Result() domain.Result { return s.result }
func (s *Session) Mode() domain.Mode     { return s.mode }

// CurrentQuestion returns the question being played, or the last one once completed.
func (s *Session) CurrentQuestion() (int, domain.Question) {
	q := s.questions[s.currentIndex]
	q.Options = append([]string(nil), q.Options...)
	return s.currentIndex, q
}

// QuestionCount returns the number of questions in the session.
func (s *Session) QuestionCount() int {
	return len(s.questions)
}

// Snapshot copies the session state.
func (s *Session) Snapshot() domain.Snapshot {
	snap := domain.Snapshot{
		Mode:                  s.mode,
		Phase:                 s.phase,
		CurrentIndex:          s.currentIndex,
		TotalQuestions:        len(s.questions),
		HumanScore:            s.humanScore,
		OpponentScore:         s.opponentScore,
		HumanTimeRemaining:    s.humanTimeRemaining,
		OpponentTimeRemaining: s.opponentTimeRemaining,
		RevealRemaining:       s.revealRemaining,
		Outcomes:              append([]domain.Outcome{}, s.outcomes...),
		Result:                s.result,
	}
	if s.reveal != nil {
		r := *s.reveal
		snap.Reveal = &r
	}
	return snap
}

func copyQuestions(in []domain.Question) []domain.Question {
	out := make([]domain.Question, len(in))
	for i, q := range in {
		q.Options = append([]string(nil), q.Options...)
		out[i] = q
	}
	return out
}
