package http

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// OAuthConfig holds the provider endpoints and client credentials.
type OAuthConfig struct {
	TokenURL     string
	UserURL      string
	ClientID     string
	ClientSecret string
}

// OAuthHandler proxies the authorization-code + PKCE token exchange and the
// profile lookup so browsers never talk to the provider directly.
type OAuthHandler struct {
	cfg    OAuthConfig
	client *http.Client
}

func NewOAuthHandler(cfg OAuthConfig, client *http.Client) *OAuthHandler {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &OAuthHandler{cfg: cfg, client: client}
}

type tokenRequest struct {
	Code         string `json:"code"`
	CodeVerifier string `json:"codeVerifier"`
	RedirectURI  string `json:"redirectUri"`
}

type providerToken struct {
	AccessToken      string `json:"access_token"`
	TokenType        string `json:"token_type"`
	ExpiresIn        int    `json:"expires_in"`
	RefreshToken     string `json:"refresh_token,omitempty"`
	Scope            string `json:"scope,omitempty"`
	Error            string `json:"error,omitempty"`
	ErrorDescription string `json:"error_description,omitempty"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

type apiError struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// ExchangeToken handles POST /api/oauth/token.
func (h *OAuthHandler) ExchangeToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, apiError{Error: "method not allowed"})
		return
	}

	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid JSON body"})
		return
	}
	if req.Code == "" || req.CodeVerifier == "" || req.RedirectURI == "" {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "Missing required fields: code, codeVerifier, redirectUri"})
		return
	}
	if h.cfg.ClientID == "" || h.cfg.ClientSecret == "" {
		log.Printf("[OAuth] client credentials are not configured")
		writeJSON(w, http.StatusInternalServerError, apiError{Error: "Server configuration error: Missing OAuth credentials"})
		return
	}

	form := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {req.Code},
		"redirect_uri":  {req.RedirectURI},
		"code_verifier": {req.CodeVerifier},
		"client_id":     {h.cfg.ClientID},
	}
	upstream, err := http.NewRequestWithContext(r.Context(), http.MethodPost, h.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, apiError{Error: "Internal server error during token exchange"})
		return
	}
	upstream.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	upstream.SetBasicAuth(h.cfg.ClientID, h.cfg.ClientSecret)

	resp, err := h.client.Do(upstream)
	if err != nil {
		log.Printf("[OAuth] token exchange: %v", err)
		writeJSON(w, http.StatusInternalServerError, apiError{Error: "Internal server error during token exchange"})
		return
	}
	defer resp.Body.Close()

	var token providerToken
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		log.Printf("[OAuth] decode token response: %v", err)
		writeJSON(w, http.StatusInternalServerError, apiError{Error: "Internal server error during token exchange"})
		return
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		details := token.ErrorDescription
		if details == "" {
			details = token.Error
		}
		log.Printf("[OAuth] provider rejected token exchange (%d): %s", resp.StatusCode, details)
		writeJSON(w, resp.StatusCode, apiError{Error: "Token exchange failed", Details: details})
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  token.AccessToken,
		TokenType:    token.TokenType,
		ExpiresIn:    token.ExpiresIn,
		RefreshToken: token.RefreshToken,
		Scope:        token.Scope,
	})
}

// Me handles GET /api/x/me by forwarding the caller's bearer token.
func (h *OAuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		writeJSON(w, http.StatusUnauthorized, apiError{Error: "Missing Authorization header"})
		return
	}

	upstream, err := http.NewRequestWithContext(r.Context(), http.MethodGet, h.cfg.UserURL, nil)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, apiError{Error: "Internal server error fetching user data"})
		return
	}
	upstream.Header.Set("Authorization", auth)
	upstream.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(upstream)
	if err != nil {
		log.Printf("[OAuth] user lookup: %v", err)
		writeJSON(w, http.StatusInternalServerError, apiError{Error: "Internal server error fetching user data"})
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil || !json.Valid(body) {
		writeJSON(w, http.StatusInternalServerError, apiError{Error: "Internal server error fetching user data"})
		return
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		writeJSON(w, resp.StatusCode, apiError{Error: "Failed to fetch user data", Details: json.RawMessage(body)})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
