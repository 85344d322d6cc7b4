package http

import (
	"context"
	"errors"
	"log"
	"net/http"

	"quiz-challenge-service/internal/domain"
)

// QuizSource resolves a quiz id to its questions.
type QuizSource interface {
	Quiz(ctx context.Context, id string) (domain.Quiz, error)
}

// QuizHandler serves GET /quiz for clients that render a quiz themselves.
type QuizHandler struct {
	source    QuizSource
	defaultID string
}

// NewQuizHandler answers requests without an id with defaultID.
func NewQuizHandler(source QuizSource, defaultID string) *QuizHandler {
	return &QuizHandler{source: source, defaultID: defaultID}
}

type quizQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
}

type quizBody struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Questions   []quizQuestion `json:"questions"`
}

type quizResponse struct {
	Quiz      quizBody `json:"quiz"`
	Timestamp string   `json:"timestamp"`
}

type errorResponse struct {
	Error     string `json:"error"`
	Timestamp string `json:"timestamp"`
}

// ServeQuiz handles GET /quiz?id=<quiz id>.
func (h *QuizHandler) ServeQuiz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed", Timestamp: timestamp()})
		return
	}
	id := r.URL.Query().Get("id")
	if id == "" {
		id = h.defaultID
	}

	quiz, err := h.source.Quiz(r.Context(), id)
	switch {
	case errors.Is(err, domain.ErrQuizNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "quiz not found: " + id, Timestamp: timestamp()})
		return
	case err != nil:
		log.Printf("[HTTP] quiz %s: %v", id, err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to generate quiz data", Timestamp: timestamp()})
		return
	}

	body := quizBody{
		ID:          quiz.ID,
		Title:       quiz.Title,
		Description: quiz.Description,
		Questions:   make([]quizQuestion, 0, len(quiz.Questions)),
	}
	for _, q := range quiz.Questions {
		body.Questions = append(body.Questions, quizQuestion{
			Question:      q.Prompt,
			Options:       q.Options,
			CorrectAnswer: q.CorrectIndex,
			Explanation:   q.Explanation,
		})
	}
	writeJSON(w, http.StatusOK, quizResponse{Quiz: body, Timestamp: timestamp()})
}
