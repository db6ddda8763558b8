package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/giselegal/quiz-sell-genius-66-sub005/pkg/webcore"
)

const (
	tokenIssuer = "funneld"
	tokenTTL    = time.Hour
)

// Auth verifies editor session tokens. When no admin secret is configured
// the whole API is open, which is the expected mode for local single-user
// editing.
type Auth struct {
	secret string
	now    func() time.Time
}

// NewAuth creates an Auth layer. An empty secret disables enforcement.
func NewAuth(secret string, now func() time.Time) *Auth {
	if now == nil {
		now = time.Now
	}
	return &Auth{secret: secret, now: now}
}

// Enabled reports whether tokens are enforced.
func (a *Auth) Enabled() bool {
	return a.secret != ""
}

// Issue mints a session token for the editor UI.
func (a *Auth) Issue() (string, error) {
	now := a.now()
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString([]byte(a.secret))
}

// Verify checks a bearer token string.
func (a *Auth) Verify(raw string) error {
	_, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{},
		func(t *jwt.Token) (any, error) {
			return []byte(a.secret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	return err
}

// Require is middleware that rejects requests without a valid session token.
func (a *Auth) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Enabled() {
			next.ServeHTTP(w, r)
			return
		}
		header := r.Header.Get("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			webcore.Error(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		if err := a.Verify(raw); err != nil {
			webcore.Error(w, http.StatusUnauthorized, "invalid token: "+err.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// IssueToken handles POST /auth/token, exchanging the admin secret for a
// short-lived session token.
func (h *Handler) IssueToken(w http.ResponseWriter, r *http.Request) {
	if !h.auth.Enabled() {
		webcore.JSON(w, http.StatusOK, map[string]any{
			"auth_required": false,
		})
		return
	}

	var req struct {
		Secret string `json:"secret"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		webcore.Error(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Secret != h.auth.secret {
		webcore.Error(w, http.StatusUnauthorized, "invalid secret")
		return
	}

	token, err := h.auth.Issue()
	if err != nil {
		webcore.Error(w, http.StatusInternalServerError, "token signing failed: "+err.Error())
		return
	}
	webcore.JSON(w, http.StatusOK, map[string]any{
		"auth_required": true,
		"token":         token,
		"expires_in":    int(tokenTTL.Seconds()),
	})
}
