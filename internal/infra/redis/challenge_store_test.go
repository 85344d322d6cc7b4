package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"quiz-challenge-service/internal/app"
	"quiz-challenge-service/internal/challenge"
	"quiz-challenge-service/internal/domain"
)

func TestChallengeStoreSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewChallengeStore(newClient(mr), time.Minute)

	quiz := sampleQuiz()
	engine, err := challenge.Start(quiz.Questions)
	if err != nil {
		t.Fatalf("start engine: %v", err)
	}
	store.Save(app.NewChallenge("c1", "u1", quiz, domain.Receipt{ID: "r1"}, engine, nil))

	if got, _ := mr.Get("challenge:session:c1"); got != "u1" {
		t.Fatalf("expected liveness marker with owner, got %q", got)
	}
	if _, ok := store.Get("c1"); !ok {
		t.Fatalf("expected challenge in local map")
	}

	mr.FastForward(30 * time.Second)
	if err := store.Touch(context.Background(), "c1"); err != nil {
		t.Fatalf("touch: %v", err)
	}
	if ttl := mr.TTL("challenge:session:c1"); ttl != time.Minute {
		t.Fatalf("expected ttl refreshed, got %v", ttl)
	}

	store.Delete("c1")
	if mr.Exists("challenge:session:c1") {
		t.Fatalf("expected redis key to be removed")
	}
	if _, ok := store.Get("c1"); ok {
		t.Fatalf("expected challenge removed")
	}
}
