package domain

import "time"

// Question models an MCQ question with exactly one correct option.
type Question struct {
	ID           string   `json:"id"`
	Prompt       string   `json:"prompt"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
	Explanation  string   `json:"explanation,omitempty"`
}

// Quiz is a collection of questions.
type Quiz struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Questions   []Question `json:"questions"`
}

// Topic groups candidate questions used to generate quizzes on the fly.
type Topic struct {
	Name      string     `json:"name"`
	Questions []Question `json:"questions"`
}

// Mode selects how the opponent takes part in each round.
type Mode string

const (
	// ModeRace: the human answers first; the opponent only answers when the human runs out of time.
	ModeRace Mode = "race"
	// ModeTurns: after every human answer the opponent answers on its own countdown.
	ModeTurns Mode = "turns"
	// ModeSolo: no opponent and no clock; the run is judged on the reward tier alone.
	ModeSolo Mode = "solo"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeRace || m == ModeTurns || m == ModeSolo
}

// Phase is the stage of the per-question state machine.
type Phase string

const (
	PhaseAwaitingHumanAnswer     Phase = "awaiting_human_answer"
	PhaseOpponentThinking        Phase = "opponent_thinking"
	PhaseRevealingOpponentAnswer Phase = "revealing_opponent_answer"
	PhaseCompleted               Phase = "completed"
)

// Result is the winner of a completed challenge.
type Result string

const (
	ResultNone         Result = ""
	ResultHumanWins    Result = "human_wins"
	ResultOpponentWins Result = "opponent_wins"
	ResultTie          Result = "tie"
)

// Favorable reports whether the result entitles the human to claim a reward.
func (r Result) Favorable() bool {
	return r == ResultHumanWins || r == ResultTie
}

// RewardEligible reports whether a completed run may claim a reward. Solo runs
// need a paying reward tier; runs against the opponent need a favorable result.
func RewardEligible(snap Snapshot) bool {
	if snap.Phase != PhaseCompleted {
		return false
	}
	if snap.Mode == ModeSolo {
		_, ok := RewardTier(snap.HumanScore, snap.TotalQuestions)
		return ok
	}
	return snap.Result.Favorable()
}

// Outcome is the immutable record of one resolved question.
type Outcome struct {
	HumanAnswered   bool `json:"humanAnswered"`
	HumanCorrect    bool `json:"humanCorrect"`
	OpponentCorrect bool `json:"opponentCorrect"`
}

// AnswerResult is what a human answer produced: the question it applied to and,
// once known, the round outcome.
type AnswerResult struct {
	QuestionIndex int     `json:"questionIndex"`
	OptionIndex   int     `json:"optionIndex"`
	Outcome       Outcome `json:"outcome"`
}

// OpponentReveal is the opponent answer shown while a round is being revealed.
type OpponentReveal struct {
	QuestionIndex int  `json:"questionIndex"`
	OptionIndex   int  `json:"optionIndex"`
	Correct       bool `json:"correct"`
}

// Snapshot is a copy of the full engine state.
type Snapshot struct {
	Mode                  Mode            `json:"mode"`
	Phase                 Phase           `json:"phase"`
	CurrentIndex          int             `json:"currentIndex"`
	TotalQuestions        int             `json:"totalQuestions"`
	HumanScore            int             `json:"humanScore"`
	OpponentScore         int             `json:"opponentScore"`
	HumanTimeRemaining    int             `json:"humanTimeRemaining"`
	OpponentTimeRemaining int             `json:"opponentTimeRemaining"`
	RevealRemaining       int             `json:"revealRemaining"`
	Outcomes              []Outcome       `json:"outcomes"`
	Reveal                *OpponentReveal `json:"reveal,omitempty"`
	Result                Result          `json:"result,omitempty"`
}

// QuestionView is the client-facing form of the current question. The correct
// index is only filled in once the challenge is completed.
type QuestionView struct {
	Index        int      `json:"index"`
	Prompt       string   `json:"prompt"`
	Options      []string `json:"options"`
	CorrectIndex *int     `json:"correctIndex,omitempty"`
}

// ChallengeView is what subscribers and API callers see of a running challenge.
type ChallengeView struct {
	ID        string        `json:"id"`
	QuizID    string        `json:"quizId"`
	UserID    string        `json:"userId"`
	State     Snapshot      `json:"state"`
	Question  *QuestionView `json:"question,omitempty"`
	LastEvent string        `json:"lastEvent,omitempty"`
	Restarts  int           `json:"restarts"`
	Entry     Receipt       `json:"entry"`
	Reward    *Receipt      `json:"reward,omitempty"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// StartRequest carries what a user picks before a challenge begins.
type StartRequest struct {
	UserID string
	QuizID string
	Mode   Mode
}

// EntryFee is the payment required before a challenge starts. Amounts are lamports.
type EntryFee struct {
	UserID string `json:"userId"`
	QuizID string `json:"quizId"`
	Amount int64  `json:"amount"`
}

// RewardClaim is handed to the reward collaborator after a favorable result.
type RewardClaim struct {
	UserID         string `json:"userId"`
	QuizID         string `json:"quizId"`
	EntryReceiptID string `json:"entryReceiptId"`
	Result         Result `json:"result"`
	CorrectAnswers int    `json:"correctAnswers"`
	TotalQuestions int    `json:"totalQuestions"`
}

// Receipt acknowledges a vault operation.
type Receipt struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	QuizID    string    `json:"quizId"`
	Amount    int64     `json:"amount"`
	Bonus     int64     `json:"bonus,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
