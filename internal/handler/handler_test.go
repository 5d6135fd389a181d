package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"shortlink/internal/service"
)

type stubService struct {
	createURL  string
	createErr  error
	resolveURL string
	resolveErr error
	items      []service.PageItem
	rows       []service.DayRow
	rowsErr    error

	gotURL  string
	gotName string
}

func (s *stubService) CreateShortenURL(_ context.Context, rawURL, customName string) (string, error) {
	s.gotURL = rawURL
	s.gotName = customName
	return s.createURL, s.createErr
}

func (s *stubService) Resolve(_ context.Context, code string) (string, error) {
	return s.resolveURL, s.resolveErr
}

func (s *stubService) List(_ context.Context, page, limit int) ([]service.PageItem, error) {
	return s.items, nil
}

func (s *stubService) DailyAnalytics(_ context.Context, code string) ([]service.DayRow, error) {
	return s.rows, s.rowsErr
}

func newTestHandler(s *stubService) *Handler {
	auth := NewAdminAuth("admin", "hunter2", "test-secret", time.Hour)
	return NewHandler(s, auth, NewSimpleRateLimiter(100, 1000))
}

func postJSON(t *testing.T, router http.Handler, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateShort(t *testing.T) {
	stub := &stubService{createURL: "http://sho.rt/abc123"}
	router := newTestHandler(stub).Routes()

	rec := postJSON(t, router, "/get-shorten-url",
		map[string]string{"url": "https://example.com/page", "customName": "myBrand"}, nil)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	var resp shortenResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Success || resp.URL != "http://sho.rt/abc123" {
		t.Errorf("response = %+v", resp)
	}
	if stub.gotURL != "https://example.com/page" || stub.gotName != "myBrand" {
		t.Errorf("service received url=%q name=%q", stub.gotURL, stub.gotName)
	}
}

func TestCreateShortBadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", "{not json"},
		{"missing url", `{"customName":"x"}`},
	}
	router := newTestHandler(&stubService{}).Routes()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/get-shorten-url", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestCreateShortErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"invalid input", service.ErrInvalidInput, http.StatusBadRequest},
		{"name taken", service.ErrAlreadyExists, http.StatusBadRequest},
		{"store down", errors.New("connection refused"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestHandler(&stubService{createErr: tt.err}).Routes()
			rec := postJSON(t, router, "/get-shorten-url",
				map[string]string{"url": "https://example.com"}, nil)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestRedirect(t *testing.T) {
	stub := &stubService{resolveURL: "https://example.com/target"}
	router := newTestHandler(stub).Routes()

	req := httptest.NewRequest(http.MethodGet, "/abc123", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d, want 307", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "https://example.com/target" {
		t.Errorf("Location = %q", loc)
	}
}

func TestRedirectNotFound(t *testing.T) {
	stub := &stubService{resolveErr: service.ErrNotFound}
	router := newTestHandler(stub).Routes()

	req := httptest.NewRequest(http.MethodGet, "/ghost", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestAnalytics(t *testing.T) {
	stub := &stubService{rows: []service.DayRow{
		{Date: "01/02/2025", TotalClicks: 3, URL: "https://example.com", ShortURL: "http://sho.rt/abc"},
	}}
	router := newTestHandler(stub).Routes()

	req := httptest.NewRequest(http.MethodGet, "/get-analytics/abc", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var rows []service.DayRow
	if err := json.NewDecoder(rec.Body).Decode(&rows); err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].TotalClicks != 3 {
		t.Errorf("rows = %+v", rows)
	}
}

func TestAnalyticsNotFound(t *testing.T) {
	router := newTestHandler(&stubService{rowsErr: service.ErrNotFound}).Routes()

	req := httptest.NewRequest(http.MethodGet, "/get-analytics/ghost", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestListRequiresAuth(t *testing.T) {
	router := newTestHandler(&stubService{}).Routes()

	rec := postJSON(t, router, "/get-urls", map[string]int{"page": 1, "limit": 10}, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status without token = %d, want 401", rec.Code)
	}

	rec = postJSON(t, router, "/get-urls", map[string]int{"page": 1, "limit": 10},
		map[string]string{"Authorization": "Bearer garbage"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status with bad token = %d, want 401", rec.Code)
	}
}

func TestLoginAndList(t *testing.T) {
	stub := &stubService{items: []service.PageItem{{ID: 1, ShortCode: "http://sho.rt/a"}}}
	router := newTestHandler(stub).Routes()

	rec := postJSON(t, router, "/admin-login",
		map[string]string{"username": "admin", "password": "hunter2"}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d", rec.Code)
	}
	var tok tokenResponse
	if err := json.NewDecoder(rec.Body).Decode(&tok); err != nil {
		t.Fatal(err)
	}
	if tok.TokenType != "bearer" || tok.AccessToken == "" {
		t.Fatalf("token response = %+v", tok)
	}

	rec = postJSON(t, router, "/get-urls", map[string]int{"page": 1, "limit": 10},
		map[string]string{"Authorization": "Bearer " + tok.AccessToken})
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var items []service.PageItem
	if err := json.NewDecoder(rec.Body).Decode(&items); err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].ID != 1 {
		t.Errorf("items = %+v", items)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	router := newTestHandler(&stubService{}).Routes()

	rec := postJSON(t, router, "/admin-login",
		map[string]string{"username": "admin", "password": "wrong"}, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestHome(t *testing.T) {
	router := newTestHandler(&stubService{}).Routes()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["message"] == "" {
		t.Error("missing welcome message")
	}
}

func TestRateLimitedRedirect(t *testing.T) {
	stub := &stubService{resolveURL: "https://example.com"}
	auth := NewAdminAuth("admin", "hunter2", "test-secret", time.Hour)
	h := NewHandler(stub, auth, NewSimpleRateLimiter(0.001, 2))
	router := h.Routes()

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/abc", nil)
		req.RemoteAddr = "9.9.9.9:1234"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusTemporaryRedirect {
			t.Fatalf("request %d status = %d", i+1, rec.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/abc", nil)
	req.RemoteAddr = "9.9.9.9:1234"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", rec.Code)
	}
}
