package http

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"quiz-challenge-service/internal/app"
	"quiz-challenge-service/internal/domain"
	"quiz-challenge-service/internal/infra/memory"
)

type testServer struct {
	server *httptest.Server
	store  *memory.ChallengeStore
	vault  *memory.Vault
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memory.NewChallengeStore()
	quizRepo := memory.NewQuizRepository(memory.NewStaticQuizLoader(sampleQuiz()), time.Minute)
	vault := memory.NewVault(10_000, 1000, time.Hour)

	settings := app.DefaultSettings()
	settings.EntryFee = 1000
	settings.TimeBudget = 1000
	generator := app.NewTopicGenerator(map[string]app.GeneratedQuiz{
		"ai-generated": {Title: "AI Knowledge Challenge", Topics: sampleTopics()},
	}, 2, rand.New(rand.NewSource(3)))
	service := app.NewChallengeService(store, quizRepo, vault, vault, settings, app.WithGenerator(generator))

	// A long interval keeps the clock out of the way of the scripted exchange.
	server := httptest.NewServer(NewRouter(Routes{
		WS:    NewWSHandler(service, time.Hour),
		Quiz:  NewQuizHandler(service, "ai-generated"),
		Vault: vault,
	}))
	t.Cleanup(server.Close)
	return &testServer{server: server, store: store, vault: vault}
}

func (ts *testServer) dial(t *testing.T, query string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(ts.server.URL, "http") + "/ws/challenge?" + query
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func TestWebSocketChallengeFlow(t *testing.T) {
	ts := newTestServer(t)
	conn := ts.dial(t, "quizId=quiz-1&userId=u1")
	defer conn.Close()

	typ, payload := readNext(conn, t, "started")
	if typ != "started" || payload["id"] == nil {
		t.Fatalf("expected started payload, got %v", payload)
	}
	question, _ := payload["question"].(map[string]any)
	if _, leaked := question["correctIndex"]; leaked {
		t.Fatalf("correct index must stay hidden while answering")
	}

	if err := conn.WriteJSON(map[string]any{"type": "answer", "payload": map[string]any{"optionIndex": 1}}); err != nil {
		t.Fatalf("write answer: %v", err)
	}

	var result map[string]any
	completed := false
	for i := 0; i < 4 && (result == nil || !completed); i++ {
		typ, payload := readNext(conn, t, "")
		switch typ {
		case "answerResult":
			result = payload
		case "state":
			state, _ := payload["state"].(map[string]any)
			completed = state["phase"] == string(domain.PhaseCompleted) && state["result"] == string(domain.ResultHumanWins)
		}
	}
	if result == nil || !completed {
		t.Fatalf("expected answerResult and completed state, got result=%v completed=%v", result, completed)
	}
	outcome, _ := result["outcome"].(map[string]any)
	if outcome["humanCorrect"] != true {
		t.Fatalf("expected correct answer, got %v", result)
	}

	if err := conn.WriteJSON(map[string]any{"type": "claim"}); err != nil {
		t.Fatalf("write claim: %v", err)
	}
	claimed := false
	for i := 0; i < 3 && !claimed; i++ {
		typ, payload := readNext(conn, t, "")
		if typ == "rewardClaimed" {
			claimed = true
			if amount, _ := payload["amount"].(float64); amount < 1100 || amount > 1900 {
				t.Fatalf("unexpected payout %v", payload)
			}
		}
	}
	if !claimed {
		t.Fatalf("expected rewardClaimed")
	}

	if err := conn.WriteJSON(map[string]any{"type": "claim"}); err != nil {
		t.Fatalf("write second claim: %v", err)
	}
	for i := 0; ; i++ {
		typ, payload := readNext(conn, t, "")
		if typ == "error" {
			if payload["message"] == nil {
				t.Fatalf("expected error message, got %v", payload)
			}
			break
		}
		if typ != "state" || i > 2 {
			t.Fatalf("expected error for second claim, got %s %v", typ, payload)
		}
	}
}

func TestWebSocketRejectsBadInput(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.server.URL + "/ws/challenge?quizId=quiz-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	conn := ts.dial(t, "quizId=missing&userId=u1")
	defer conn.Close()
	if typ, _ := readNext(conn, t, "error"); typ != "error" {
		t.Fatalf("expected error for unknown quiz")
	}
	if balance, _ := ts.vault.Balance(context.Background()); balance != 10_000 {
		t.Fatalf("unknown quiz must not be charged, balance %d", balance)
	}

	conn2 := ts.dial(t, "quizId=quiz-1&userId=u2")
	defer conn2.Close()
	readNext(conn2, t, "started")
	if err := conn2.WriteJSON(map[string]any{"type": "answer", "payload": map[string]any{}}); err != nil {
		t.Fatalf("write: %v", err)
	}
	readNext(conn2, t, "error")
	if err := conn2.WriteJSON(map[string]any{"type": "dance"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	readNext(conn2, t, "error")
}

func TestWebSocketDisconnectAbandons(t *testing.T) {
	ts := newTestServer(t)
	conn := ts.dial(t, "quizId=quiz-1&userId=u1")
	readNext(conn, t, "started")
	_ = conn.Close()

	deadline := time.Now().Add(5 * time.Second)
	for ts.store.Len() > 0 {
		if time.Now().After(deadline) {
			t.Fatalf("expected challenge to be dropped after disconnect")
		}
		time.Sleep(10 * time.Millisecond)
	}

	// The forfeited entry no longer blocks a new challenge.
	conn = ts.dial(t, "quizId=quiz-1&userId=u1")
	defer conn.Close()
	readNext(conn, t, "started")
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.server.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("unexpected health response %d %v", resp.StatusCode, resp.Header)
	}
	var body struct {
		Status       string `json:"status"`
		VaultBalance *int64 `json:"vaultBalance"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "healthy" || body.VaultBalance == nil || *body.VaultBalance != 10_000 {
		t.Fatalf("unexpected health body %+v", body)
	}
}

type failingVault struct{}

func (failingVault) Balance(context.Context) (int64, error) { return 0, errors.New("redis down") }

func TestHealthDegradedWhenVaultFails(t *testing.T) {
	rec := httptest.NewRecorder()
	Health(failingVault{})(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusServiceUnavailable || !strings.Contains(rec.Body.String(), "degraded") {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
}

type quizPayload struct {
	Quiz struct {
		ID        string `json:"id"`
		Questions []struct {
			Question      string   `json:"question"`
			Options       []string `json:"options"`
			CorrectAnswer int      `json:"correctAnswer"`
			Explanation   string   `json:"explanation"`
		} `json:"questions"`
	} `json:"quiz"`
	Timestamp string `json:"timestamp"`
	Error     string `json:"error"`
}

func getQuiz(t *testing.T, url string) (int, quizPayload) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	var body quizPayload
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp.StatusCode, body
}

func TestQuizEndpoint(t *testing.T) {
	ts := newTestServer(t)

	status, generated := getQuiz(t, ts.server.URL+"/quiz")
	if status != http.StatusOK || generated.Quiz.ID != "ai-generated" || len(generated.Quiz.Questions) != 2 || generated.Timestamp == "" {
		t.Fatalf("unexpected generated quiz %d %+v", status, generated)
	}
	for _, q := range generated.Quiz.Questions {
		if q.Question == "" || q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
			t.Fatalf("malformed question %+v", q)
		}
	}

	status, stored := getQuiz(t, ts.server.URL+"/quiz?id=quiz-1")
	if status != http.StatusOK || len(stored.Quiz.Questions) != 1 {
		t.Fatalf("unexpected stored quiz %d %+v", status, stored)
	}
	if q := stored.Quiz.Questions[0]; q.Question != "What is 2 + 2?" || q.CorrectAnswer != 1 || q.Explanation != "2 + 2 = 4" {
		t.Fatalf("unexpected question %+v", q)
	}

	status, missing := getQuiz(t, ts.server.URL+"/quiz?id=nope")
	if status != http.StatusNotFound || missing.Error == "" || missing.Timestamp == "" {
		t.Fatalf("unexpected missing quiz response %d %+v", status, missing)
	}
}

type brokenSource struct{}

func (brokenSource) Quiz(context.Context, string) (domain.Quiz, error) {
	return domain.Quiz{}, errors.New("loader unavailable")
}

func TestQuizEndpointFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	NewQuizHandler(brokenSource{}, "ai-generated").ServeQuiz(rec, httptest.NewRequest(http.MethodGet, "/quiz", nil))

	var body quizPayload
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.Code != http.StatusInternalServerError || body.Error != "Failed to generate quiz data" || body.Timestamp == "" {
		t.Fatalf("unexpected failure response %d %+v", rec.Code, body)
	}

	rec = httptest.NewRecorder()
	NewQuizHandler(brokenSource{}, "ai-generated").ServeQuiz(rec, httptest.NewRequest(http.MethodPost, "/quiz", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s", expect, msg.Type)
	}
	return msg.Type, msg.Payload
}

func sampleQuiz() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-1": {
			ID:    "quiz-1",
			Title: "Arithmetic",
			Questions: []domain.Question{
				{
					ID:           "q1",
					Prompt:       "What is 2 + 2?",
					Options:      []string{"3", "4", "5"},
					CorrectIndex: 1,
					Explanation:  "2 + 2 = 4",
				},
			},
		},
	}
}

func sampleTopics() []domain.Topic {
	topic := func(name string) domain.Topic {
		return domain.Topic{Name: name, Questions: []domain.Question{
			{ID: name + "-1", Prompt: name + "?", Options: []string{"yes", "no"}, CorrectIndex: 0},
		}}
	}
	return []domain.Topic{topic("ml"), topic("nlp"), topic("vision")}
}
