package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

// AdminAuth guards the admin surface with bearer tokens issued by Login.
type AdminAuth struct {
	username string
	password string
	secret   []byte
	tokenTTL time.Duration
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func NewAdminAuth(username, password, secret string, tokenTTL time.Duration) *AdminAuth {
	if secret == "" {
		log.Warn().Msg("JWT secret not configured, admin routes will reject all tokens")
	}
	return &AdminAuth{
		username: username,
		password: password,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
	}
}

// Login exchanges admin credentials for a signed bearer token.
func (a *AdminAuth) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if req.Username != a.username || req.Password != a.password || a.password == "" {
		writeError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}

	claims := jwt.MapClaims{
		"sub": req.Username,
		"exp": jwt.NewNumericDate(time.Now().UTC().Add(a.tokenTTL)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		log.Error().Err(err).Msg("sign admin token")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

// Protect wraps next with bearer-token validation.
func (a *AdminAuth) Protect(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		raw := strings.TrimPrefix(authHeader, "Bearer ")

		token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
			return a.secret, nil
		}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithExpirationRequired())
		if err != nil || !token.Valid {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		if sub, _ := claims["sub"].(string); sub != a.username {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		next.ServeHTTP(w, r)
	}
}
