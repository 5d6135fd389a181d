package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"shortlink/internal/service"
)

// URLService is what the transport needs from the resolution core.
type URLService interface {
	CreateShortenURL(ctx context.Context, rawURL, customName string) (string, error)
	Resolve(ctx context.Context, code string) (string, error)
	List(ctx context.Context, page, limit int) ([]service.PageItem, error)
	DailyAnalytics(ctx context.Context, code string) ([]service.DayRow, error)
}

type Handler struct {
	Service     URLService
	Auth        *AdminAuth
	RateLimiter *SimpleRateLimiter
}

type shortenRequest struct {
	URL        string `json:"url"`
	CustomName string `json:"customName,omitempty"`
}

type shortenResponse struct {
	Success bool   `json:"success"`
	URL     string `json:"url"`
}

type listRequest struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func NewHandler(s URLService, auth *AdminAuth, rl *SimpleRateLimiter) *Handler {
	return &Handler{
		Service:     s,
		Auth:        auth,
		RateLimiter: rl,
	}
}

func (h *Handler) Routes() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/", h.Home).Methods("GET")
	r.HandleFunc("/healthz", h.Healthz).Methods("GET")
	r.HandleFunc("/get-shorten-url", h.RateLimitMiddleware(h.CreateShort)).Methods("POST")
	r.HandleFunc("/admin-login", h.Auth.Login).Methods("POST")
	r.HandleFunc("/get-urls", h.Auth.Protect(h.ListURLs)).Methods("POST")
	r.HandleFunc("/get-analytics/{code}", h.Analytics).Methods("GET")
	r.HandleFunc("/{code}", h.RateLimitMiddleware(h.Redirect)).Methods("GET")

	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			log.Info().Str("method", req.Method).Str("path", req.URL.Path).Msg("request")
			next.ServeHTTP(w, req)
		})
	})

	return r
}

func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Welcome to URL shortener"})
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (h *Handler) CreateShort(w http.ResponseWriter, r *http.Request) {
	var req shortenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "url missing")
		return
	}

	short, err := h.Service.CreateShortenURL(r.Context(), req.URL, req.CustomName)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, shortenResponse{Success: true, URL: short})
}

func (h *Handler) Redirect(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	if code == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	original, err := h.Service.Resolve(r.Context(), code)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	http.Redirect(w, r, original, http.StatusTemporaryRedirect)
}

func (h *Handler) ListURLs(w http.ResponseWriter, r *http.Request) {
	req := listRequest{Page: 1, Limit: 50}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	items, err := h.Service.List(r.Context(), req.Page, req.Limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) Analytics(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	rows, err := h.Service.DailyAnalytics(r.Context(), code)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *Handler) RateLimitMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !h.RateLimiter.Allow(ip) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.SplitN(fwd, ",", 2)[0])
	}
	return r.RemoteAddr
}

// writeServiceError maps service error kinds to status codes. Expected
// outcomes surface as client errors; anything else is a server error.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrAlreadyExists):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "URL not found")
	default:
		log.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}
