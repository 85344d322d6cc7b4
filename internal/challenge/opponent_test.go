package challenge

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"quiz-challenge-service/internal/domain"
)

func TestOpponentAnswersCorrectBelowAccuracy(t *testing.T) {
	q := domain.Question{Prompt: "p", Options: []string{"a", "b", "c", "d"}, CorrectIndex: 2}
	for _, r := range []float64{0, 0.5, 0.849} {
		o := NewOpponent(DefaultOpponentAccuracy, &scriptedSource{floats: []float64{r}})
		assert.Equal(t, 2, o.Answer(q), "r=%v", r)
	}
}

func TestOpponentPicksWrongOptionAtOrAboveAccuracy(t *testing.T) {
	q := domain.Question{Prompt: "p", Options: []string{"a", "b", "c", "d"}, CorrectIndex: 2}
	// Wrong options in order: 0, 1, 3.
	for pick, want := range []int{0, 1, 3} {
		o := NewOpponent(DefaultOpponentAccuracy, &scriptedSource{floats: []float64{0.85}, ints: []int{pick}})
		assert.Equal(t, want, o.Answer(q))
	}
}

func TestOpponentWrongPicksAreUniform(t *testing.T) {
	q := domain.Question{Prompt: "p", Options: []string{"a", "b", "c", "d"}, CorrectIndex: 0}
	o := NewOpponent(0, rand.New(rand.NewSource(42)))

	counts := make(map[int]int)
	const draws = 3000
	for i := 0; i < draws; i++ {
		counts[o.Answer(q)]++
	}
	assert.Zero(t, counts[0])
	for _, idx := range []int{1, 2, 3} {
		assert.InDelta(t, draws/3, counts[idx], draws/10, "option %d", idx)
	}
}

func TestOpponentAccuracyIsRoughlyHonored(t *testing.T) {
	q := domain.Question{Prompt: "p", Options: []string{"a", "b", "c", "d"}, CorrectIndex: 1}
	o := NewOpponent(DefaultOpponentAccuracy, rand.New(rand.NewSource(7)))

	correct := 0
	const draws = 5000
	for i := 0; i < draws; i++ {
		if o.Answer(q) == 1 {
			correct++
		}
	}
	assert.InDelta(t, DefaultOpponentAccuracy, float64(correct)/draws, 0.03)
}
