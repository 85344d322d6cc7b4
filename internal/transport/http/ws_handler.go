package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"quiz-challenge-service/internal/app"
	"quiz-challenge-service/internal/domain"
)

type WSHandler struct {
	service      *app.ChallengeService
	tickInterval time.Duration
	upgrader     websocket.Upgrader
}

func NewWSHandler(service *app.ChallengeService, tickInterval time.Duration) *WSHandler {
	if tickInterval <= 0 {
		tickInterval = time.Second
	}
	return &WSHandler{
		service:      service,
		tickInterval: tickInterval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	OptionIndex *int `json:"optionIndex"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request, pays for and starts a challenge, and runs its
// clock for as long as the connection stays open.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	userID := r.URL.Query().Get("userId")
	mode := domain.Mode(r.URL.Query().Get("mode"))
	if quizID == "" || userID == "" {
		http.Error(w, "missing quizId or userId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ChallengeWS] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx, stop := context.WithCancel(r.Context())
	defer stop()

	started, err := h.service.Start(ctx, domain.StartRequest{UserID: userID, QuizID: quizID, Mode: mode})
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	id := started.ID

	updates, cancel, err := h.service.Subscribe(ctx, id)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer cancel()
	defer func() {
		// Walking away forfeits an unclaimed entry.
		if err := h.service.Abandon(context.Background(), id, userID); err != nil && !errors.Is(err, domain.ErrChallengeNotFound) {
			log.Printf("[ChallengeWS] abandon %s: %v", id, err)
		}
	}()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})
	clockDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("[ChallengeWS] write error: %v", err)
				return
			}
		}
	}()

	// The first update is the view at subscribe time; the started message covers it.
	<-updates

	send <- outboundMessage[any]{Type: "started", Payload: started}

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "state", Payload: update}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	go func() {
		defer close(clockDone)
		if err := h.service.Run(ctx, id, h.tickInterval); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("[ChallengeWS] clock for %s stopped: %v", id, err)
		}
	}()

	reply := func(msg outboundMessage[any]) {
		select {
		case send <- msg:
		case <-writerDone:
		}
	}
	fail := func(message string) {
		reply(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: message}})
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.OptionIndex == nil {
				fail("invalid answer payload")
				continue
			}
			result, _, err := h.service.Answer(ctx, id, userID, *payload.OptionIndex)
			if err != nil {
				fail(err.Error())
				continue
			}
			reply(outboundMessage[any]{Type: "answerResult", Payload: result})
		case "restart":
			if _, err := h.service.Restart(ctx, id, userID); err != nil {
				fail(err.Error())
			}
		case "claim":
			receipt, err := h.service.Claim(ctx, id, userID)
			if err != nil {
				fail(err.Error())
				continue
			}
			reply(outboundMessage[any]{Type: "rewardClaimed", Payload: receipt})
		default:
			fail("unsupported message type")
		}
	}

	stop()
	<-clockDone
	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}
