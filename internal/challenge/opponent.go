package challenge

import (
	"math/rand"
	"time"

	"quiz-challenge-service/internal/domain"
)

// DefaultOpponentAccuracy is the probability that the opponent picks the correct option.
const DefaultOpponentAccuracy = 0.85

// RandomSource is the randomness the opponent draws from. *rand.Rand satisfies it.
type RandomSource interface {
	Float64() float64
	Intn(n int) int
}

// NewRandomSource returns a time-seeded source. It is not safe for concurrent use.
func NewRandomSource() RandomSource {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// Opponent is the simulated player.
type Opponent struct {
	accuracy float64
	rnd      RandomSource
}

func NewOpponent(accuracy float64, rnd RandomSource) *Opponent {
	if rnd == nil {
		rnd = NewRandomSource()
	}
	return &Opponent{accuracy: accuracy, rnd: rnd}
}

// Answer draws the opponent's option for q: the correct one when the source
// returns a value below the accuracy, otherwise a uniformly chosen wrong one.
func (o *Opponent) Answer(q domain.Question) int {
	if o.rnd.Float64() < o.accuracy {
		return q.CorrectIndex
	}
	wrong := make([]int, 0, len(q.Options)-1)
	for i := range q.Options {
		if i != q.CorrectIndex {
			wrong = append(wrong, i)
		}
	}
	if len(wrong) == 0 {
		return q.CorrectIndex
	}
	return wrong[o.rnd.Intn(len(wrong))]
}
