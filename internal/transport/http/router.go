package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[HTTP] encode response: %v", err)
	}
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// CORS allows any origin, matching the browser client's deployment.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// BalanceReader reports the reward vault balance in lamports.
type BalanceReader interface {
	Balance(ctx context.Context) (int64, error)
}

type healthResponse struct {
	Status       string `json:"status"`
	Timestamp    string `json:"timestamp"`
	VaultBalance *int64 `json:"vaultBalance,omitempty"`
}

// Health answers liveness checks. With a vault it also reports the balance;
// an unreachable vault marks the service degraded.
func Health(vault BalanceReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "healthy", Timestamp: timestamp()}
		if vault == nil {
			writeJSON(w, http.StatusOK, resp)
			return
		}
		balance, err := vault.Balance(r.Context())
		if err != nil {
			log.Printf("[HTTP] vault balance: %v", err)
			resp.Status = "degraded"
			writeJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
		resp.VaultBalance = &balance
		writeJSON(w, http.StatusOK, resp)
	}
}

// Routes holds the handlers NewRouter mounts. Nil optional handlers are skipped.
type Routes struct {
	WS    *WSHandler
	Quiz  *QuizHandler
	OAuth *OAuthHandler
	Vault BalanceReader
}

// NewRouter mounts every endpoint behind the CORS wrapper.
func NewRouter(routes Routes) http.Handler {
	mux := http.NewServeMux()
	health := Health(routes.Vault)
	mux.HandleFunc("/healthz", health)
	mux.HandleFunc("/health", health)
	mux.HandleFunc("/ws/challenge", routes.WS.ServeWS)
	if routes.Quiz != nil {
		mux.HandleFunc("/quiz", routes.Quiz.ServeQuiz)
	}
	if routes.OAuth != nil {
		mux.HandleFunc("/api/oauth/token", routes.OAuth.ExchangeToken)
		mux.HandleFunc("/api/x/me", routes.OAuth.Me)
	}
	return CORS(mux)
}

