package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"quiz-challenge-service/internal/challenge"
	"quiz-challenge-service/internal/domain"
)

// QuizRecord is the bun model of the quizzes table.
type QuizRecord struct {
	bun.BaseModel `bun:"table:quizzes"`

	ID        string          `bun:"id,pk"`
	Title     string          `bun:"title,notnull"`
	Data      json.RawMessage `bun:"data,type:jsonb,notnull"`
	CreatedAt time.Time       `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time       `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// OpenDB opens a bun handle over the pgdriver connector.
func OpenDB(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

// QuizWriter upserts quiz content.
type QuizWriter struct {
	db *bun.DB
}

func NewQuizWriter(db *bun.DB) *QuizWriter {
	return &QuizWriter{db: db}
}

// SaveQuiz stores a playable quiz, replacing any previous version with the same id.
func (w *QuizWriter) SaveQuiz(ctx context.Context, quiz domain.Quiz) error {
	if quiz.ID == "" {
		return fmt.Errorf("%w: quiz id is required", domain.ErrInvalidConfiguration)
	}
	if err := challenge.ValidateQuestions(quiz.Questions); err != nil {
		return fmt.Errorf("quiz %s: %w", quiz.ID, err)
	}
	data, err := json.Marshal(quiz)
	if err != nil {
		return fmt.Errorf("marshal quiz: %w", err)
	}

	record := &QuizRecord{
		ID:        quiz.ID,
		Title:     quiz.Title,
		Data:      data,
		UpdatedAt: time.Now(),
	}
	_, err = w.db.NewInsert().
		Model(record).
		On("CONFLICT (id) DO UPDATE").
		Set("title = EXCLUDED.title").
		Set("data = EXCLUDED.data").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("save quiz %s: %w", quiz.ID, err)
	}
	return nil
}

// ListQuizIDs returns stored quiz ids in order.
func (w *QuizWriter) ListQuizIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := w.db.NewSelect().
		Model((*QuizRecord)(nil)).
		Column("id").
		Order("id ASC").
		Scan(ctx, &ids)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	return ids, nil
}
