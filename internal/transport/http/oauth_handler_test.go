package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProvider(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "client" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid_client"})
			return
		}
		assert.NoError(t, r.ParseForm())
		if r.PostForm.Get("code") != "good" {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant", "error_description": "code expired"})
			return
		}
		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		assert.Equal(t, "verifier", r.PostForm.Get("code_verifier"))
		assert.Equal(t, "https://app.test/cb", r.PostForm.Get("redirect_uri"))
		assert.Equal(t, "client", r.PostForm.Get("client_id"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "at",
			"token_type":    "bearer",
			"expires_in":    7200,
			"refresh_token": "rt",
			"scope":         "users.read",
		})
	})
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"title":"Unauthorized"}`))
			return
		}
		_, _ = w.Write([]byte(`{"data":{"id":"42","username":"alice"}}`))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func postToken(t *testing.T, h *OAuthHandler, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	h.ExchangeToken(rec, httptest.NewRequest(http.MethodPost, "/api/oauth/token", bytes.NewReader(raw)))
	return rec
}

func TestExchangeToken(t *testing.T) {
	provider := newProvider(t)
	h := NewOAuthHandler(OAuthConfig{
		TokenURL:     provider.URL + "/token",
		ClientID:     "client",
		ClientSecret: "secret",
	}, provider.Client())

	rec := postToken(t, h, map[string]string{"code": "good", "codeVerifier": "verifier", "redirectUri": "https://app.test/cb"})
	require.Equal(t, http.StatusOK, rec.Code)
	var token tokenResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&token))
	assert.Equal(t, tokenResponse{AccessToken: "at", TokenType: "bearer", ExpiresIn: 7200, RefreshToken: "rt", Scope: "users.read"}, token)

	rec = postToken(t, h, map[string]string{"code": "stale", "codeVerifier": "verifier", "redirectUri": "https://app.test/cb"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var failure apiError
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&failure))
	assert.Equal(t, "Token exchange failed", failure.Error)
	assert.Equal(t, "code expired", failure.Details)
}

func TestExchangeTokenValidation(t *testing.T) {
	h := NewOAuthHandler(OAuthConfig{TokenURL: "http://unused"}, nil)

	rec := postToken(t, h, map[string]string{"code": "good"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postToken(t, h, map[string]string{"code": "good", "codeVerifier": "v", "redirectUri": "r"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = httptest.NewRecorder()
	h.ExchangeToken(rec, httptest.NewRequest(http.MethodGet, "/api/oauth/token", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestMe(t *testing.T) {
	provider := newProvider(t)
	h := NewOAuthHandler(OAuthConfig{UserURL: provider.URL + "/me"}, provider.Client())

	rec := httptest.NewRecorder()
	h.Me(rec, httptest.NewRequest(http.MethodGet, "/api/x/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/x/me", nil)
	req.Header.Set("Authorization", "Bearer at")
	rec = httptest.NewRecorder()
	h.Me(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":{"id":"42","username":"alice"}}`, rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/api/x/me", nil)
	req.Header.Set("Authorization", "Bearer nope")
	rec = httptest.NewRecorder()
	h.Me(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Failed to fetch user data")
}

func TestCORSPreflight(t *testing.T) {
	handler := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("preflight must not reach the handler")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/oauth/token", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
