package app

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"quiz-challenge-service/internal/domain"
)

// TopicGenerator builds a fresh quiz per request by shuffling topic pools and
// taking one random question from each of the first few topics.
type TopicGenerator struct {
	pools   map[string]GeneratedQuiz
	perQuiz int

	mu  sync.Mutex
	rnd *rand.Rand
}

// GeneratedQuiz describes a quiz id served by the generator.
type GeneratedQuiz struct {
	Title  string
	Topics []domain.Topic
}

func NewTopicGenerator(pools map[string]GeneratedQuiz, questionsPerQuiz int, rnd *rand.Rand) *TopicGenerator {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if questionsPerQuiz <= 0 {
		questionsPerQuiz = 3
	}
	return &TopicGenerator{pools: pools, perQuiz: questionsPerQuiz, rnd: rnd}
}

// Generate returns a new quiz for quizID, or false if the id is not generated.
func (g *TopicGenerator) Generate(quizID string) (domain.Quiz, bool) {
	pool, ok := g.pools[quizID]
	if !ok {
		return domain.Quiz{}, false
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	topics := append([]domain.Topic(nil), pool.Topics...)
	g.rnd.Shuffle(len(topics), func(i, j int) { topics[i], topics[j] = topics[j], topics[i] })

	questions := make([]domain.Question, 0, g.perQuiz)
	used := make([]string, 0, g.perQuiz)
	for _, topic := range topics {
		if len(questions) == g.perQuiz {
			break
		}
		if len(topic.Questions) == 0 {
			continue
		}
		q := topic.Questions[g.rnd.Intn(len(topic.Questions))]
		q.Options = append([]string(nil), q.Options...)
		questions = append(questions, q)
		used = append(used, topic.Name)
	}

	return domain.Quiz{
		ID:          quizID,
		Title:       pool.Title,
		Description: "Dynamic quiz covering: " + strings.Join(used, ", "),
		Questions:   questions,
	}, true
}
