package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hive-corporation/trustscore/internal/core/domain"
)

func newTestRouter(scorer *fakeScorer, repo *fakeRepository, token string) http.Handler {
	var service *ScoreService
	var h *RestHandler
	if repo != nil {
		service = NewScoreService(scorer, repo, nil, 0)
		h = NewRestHandler(service, repo)
	} else {
		service = NewScoreService(scorer, nil, nil, 0)
		h = NewRestHandler(service, nil)
	}
	return NewRouter(h, token)
}

func doRequest(t *testing.T, h http.Handler, method, target, body string, headers map[string]string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var decoded map[string]interface{}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, decoded
}

func TestRestHandler_Health(t *testing.T) {
	router := newTestRouter(&fakeScorer{}, nil, "secret")

	rec, body := doRequest(t, router, "GET", "/api/v1/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body["status"] != "healthy" || body["service"] != "trustscore-api" {
		t.Errorf("unexpected health body %v", body)
	}
}

func TestRestHandler_GetTrustScore(t *testing.T) {
	scorer := &fakeScorer{score: 6.693147, reviewCount: 1}
	router := newTestRouter(scorer, nil, "")

	rec, body := doRequest(t, router, "GET", "/api/v1/trustscore?domain=example.com", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	if scorer.gotLimit != domain.DefaultLimit {
		t.Errorf("expected default limit %d, got %d", domain.DefaultLimit, scorer.gotLimit)
	}
	if body["domain"] != "example.com" || body["limit"] != float64(300) {
		t.Errorf("unexpected body %v", body)
	}
	if body["trust_score"] != 6.7 {
		t.Errorf("expected trust_score rounded to 6.7, got %v", body["trust_score"])
	}
	if body["review_count"] != float64(1) {
		t.Errorf("expected review_count 1, got %v", body["review_count"])
	}
}

func TestRestHandler_GetTrustScoreExplicitLimit(t *testing.T) {
	scorer := &fakeScorer{score: 5}
	router := newTestRouter(scorer, nil, "")

	rec, _ := doRequest(t, router, "GET", "/api/v1/trustscore?domain=example.com&limit=25", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if scorer.gotLimit != 25 {
		t.Errorf("expected limit 25, got %d", scorer.gotLimit)
	}
}

func TestRestHandler_GetTrustScoreNonIntegerLimit(t *testing.T) {
	scorer := &fakeScorer{score: 5}
	router := newTestRouter(scorer, nil, "")

	for _, limit := range []string{"abc", "2.5", "10x"} {
		t.Run(limit, func(t *testing.T) {
			rec, body := doRequest(t, router, "GET", "/api/v1/trustscore?domain=example.com&limit="+limit, "", nil)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rec.Code)
			}
			if body["kind"] != domain.KindInvalidLimit {
				t.Errorf("expected kind invalid_limit, got %v", body["kind"])
			}
		})
	}

	if scorer.calls != 0 {
		t.Errorf("expected no computation for malformed limits, got %d", scorer.calls)
	}
}

func TestRestHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   string
	}{
		{"invalid domain", domain.ErrInvalidDomain, http.StatusBadRequest, "invalid_domain"},
		{"invalid limit", fmt.Errorf("%w: -1", domain.ErrInvalidLimit), http.StatusBadRequest, "invalid_limit"},
		{"not found", domain.ErrDomainNotFound, http.StatusNotFound, "domain_not_found"},
		{"source down", fmt.Errorf("fetch: %w: timeout", domain.ErrSourceUnavailable), http.StatusBadGateway, "source_unavailable"},
		{"bad rating", domain.ErrInvalidRating, http.StatusBadGateway, "invalid_rating"},
		{"bad age", domain.ErrInvalidAge, http.StatusBadGateway, "invalid_age"},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&fakeScorer{err: tt.err}, nil, "")

			rec, body := doRequest(t, router, "GET", "/api/v1/trustscore?domain=example.com", "", nil)
			if rec.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
			if body["kind"] != tt.wantKind {
				t.Errorf("expected kind %s, got %v", tt.wantKind, body["kind"])
			}
			if tt.wantKind == "internal" && body["error"] != "internal error" {
				t.Errorf("expected internal details to be hidden, got %v", body["error"])
			}
		})
	}
}

func TestRestHandler_PostTrustScore(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantLimit int
	}{
		{"explicit limit", `{"domain": "example.com", "limit": 50}`, 50},
		{"default limit", `{"domain": "example.com"}`, domain.DefaultLimit},
		{"zero limit reaches validation", `{"domain": "example.com", "limit": 0}`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scorer := &fakeScorer{score: 8.04}
			router := newTestRouter(scorer, nil, "")

			rec, body := doRequest(t, router, "POST", "/api/v1/trustscore", tt.body, nil)
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}
			if scorer.gotLimit != tt.wantLimit {
				t.Errorf("expected limit %d, got %d", tt.wantLimit, scorer.gotLimit)
			}
			if body["trust_score"] != 8.0 {
				t.Errorf("expected 8.0, got %v", body["trust_score"])
			}
		})
	}
}

func TestRestHandler_PostTrustScoreInvalidJSON(t *testing.T) {
	scorer := &fakeScorer{}
	router := newTestRouter(scorer, nil, "")

	rec, body := doRequest(t, router, "POST", "/api/v1/trustscore", `{"domain": `, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	if body["kind"] != "invalid_request" {
		t.Errorf("expected kind invalid_request, got %v", body["kind"])
	}
	if scorer.calls != 0 {
		t.Error("expected no computation for invalid JSON")
	}
}

func TestRestHandler_PostTrustScoreNonIntegerLimit(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"fractional", `{"domain": "example.com", "limit": 3.5}`},
		{"exponent", `{"domain": "example.com", "limit": 1e2}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scorer := &fakeScorer{}
			router := newTestRouter(scorer, nil, "")

			rec, body := doRequest(t, router, "POST", "/api/v1/trustscore", tt.body, nil)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rec.Code)
			}
			if body["kind"] != "invalid_limit" {
				t.Errorf("expected kind invalid_limit, got %v", body["kind"])
			}
			if scorer.calls != 0 {
				t.Error("expected no computation for a non-integer limit")
			}
		})
	}
}

func TestRestHandler_Auth(t *testing.T) {
	router := newTestRouter(&fakeScorer{score: 5}, nil, "secret")

	tests := []struct {
		name       string
		path       string
		header     string
		wantStatus int
	}{
		{"missing token", "/api/v1/trustscore?domain=example.com", "", http.StatusUnauthorized},
		{"wrong token", "/api/v1/trustscore?domain=example.com", "Bearer nope", http.StatusUnauthorized},
		{"valid token", "/api/v1/trustscore?domain=example.com", "Bearer secret", http.StatusOK},
		{"metrics protected", "/metrics", "", http.StatusUnauthorized},
		{"metrics with token", "/metrics", "Bearer secret", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := map[string]string{}
			if tt.header != "" {
				headers["Authorization"] = tt.header
			}
			rec, _ := doRequest(t, router, "GET", tt.path, "", headers)
			if rec.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
		})
	}
}

func TestRestHandler_History(t *testing.T) {
	repo := &fakeRepository{
		history: []domain.ScoreRecord{
			{ID: uuid.New(), Domain: "example.com", TrustScore: 7.26, RawScore: 7.26, ReviewCount: 40, Limit: 300, Source: "trustpilot", ComputedAt: computedAt},
			{ID: uuid.New(), Domain: "example.com", TrustScore: 6.5, RawScore: 6.5, ReviewCount: 38, Limit: 300, Source: "trustpilot", ComputedAt: computedAt.Add(-24 * time.Hour)},
		},
	}
	router := newTestRouter(&fakeScorer{}, repo, "")

	rec, body := doRequest(t, router, "GET", "/api/v1/trustscore/history?domain=example.com&limit=5", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if repo.gotLim != 5 {
		t.Errorf("expected limit 5, got %d", repo.gotLim)
	}
	if body["count"] != float64(2) {
		t.Errorf("expected count 2, got %v", body["count"])
	}

	scores := body["scores"].([]interface{})
	first := scores[0].(map[string]interface{})
	if first["trust_score"] != 7.3 || first["computed_at"] != "2026-10-01T12:00:00Z" {
		t.Errorf("unexpected first score %v", first)
	}
}

func TestRestHandler_HistoryValidation(t *testing.T) {
	router := newTestRouter(&fakeScorer{}, &fakeRepository{}, "")

	tests := []struct {
		name     string
		target   string
		wantKind string
	}{
		{"missing domain", "/api/v1/trustscore/history", "invalid_domain"},
		{"non-integer limit", "/api/v1/trustscore/history?domain=example.com&limit=x", "invalid_limit"},
		{"zero limit", "/api/v1/trustscore/history?domain=example.com&limit=0", "invalid_limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := doRequest(t, router, "GET", tt.target, "", nil)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rec.Code)
			}
			if body["kind"] != tt.wantKind {
				t.Errorf("expected kind %s, got %v", tt.wantKind, body["kind"])
			}
		})
	}
}

func TestRestHandler_HistoryLimitCapped(t *testing.T) {
	repo := &fakeRepository{}
	router := newTestRouter(&fakeScorer{}, repo, "")

	rec, _ := doRequest(t, router, "GET", "/api/v1/trustscore/history?domain=example.com&limit=100000", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if repo.gotLim != maxHistoryLimit {
		t.Errorf("expected limit capped to %d, got %d", maxHistoryLimit, repo.gotLim)
	}
}

func TestRestHandler_HistoryDisabled(t *testing.T) {
	router := newTestRouter(&fakeScorer{}, nil, "")

	rec, body := doRequest(t, router, "GET", "/api/v1/trustscore/history?domain=example.com", "", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
	if body["kind"] != "history_disabled" {
		t.Errorf("expected kind history_disabled, got %v", body["kind"])
	}
}

func TestRestHandler_HistoryQueryFailure(t *testing.T) {
	router := newTestRouter(&fakeScorer{}, &fakeRepository{err: errors.New("db down")}, "")

	rec, body := doRequest(t, router, "GET", "/api/v1/trustscore/history?domain=example.com", "", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	if body["kind"] != "internal" {
		t.Errorf("expected kind internal, got %v", body["kind"])
	}
}

func TestRestHandler_LatestScore(t *testing.T) {
	repo := &fakeRepository{
		history: []domain.ScoreRecord{
			{ID: uuid.New(), Domain: "example.com", TrustScore: 7.26, RawScore: 7.26, ReviewCount: 40, Limit: 300, Source: "trustpilot", ComputedAt: computedAt},
		},
	}
	router := newTestRouter(&fakeScorer{}, repo, "")

	rec, body := doRequest(t, router, "GET", "/api/v1/trustscore/history/latest?domain=example.com", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if body["domain"] != "example.com" || body["trust_score"] != 7.3 || body["computed_at"] != "2026-10-01T12:00:00Z" {
		t.Errorf("unexpected latest score %v", body)
	}
}

func TestRestHandler_LatestScoreErrors(t *testing.T) {
	tests := []struct {
		name     string
		repo     *fakeRepository
		target   string
		wantCode int
		wantKind string
	}{
		{"never scored", &fakeRepository{}, "/api/v1/trustscore/history/latest?domain=new.example", http.StatusNotFound, "no_history"},
		{"missing domain", &fakeRepository{}, "/api/v1/trustscore/history/latest", http.StatusBadRequest, "invalid_domain"},
		{"query failure", &fakeRepository{err: errors.New("db down")}, "/api/v1/trustscore/history/latest?domain=example.com", http.StatusInternalServerError, "internal"},
		{"history disabled", nil, "/api/v1/trustscore/history/latest?domain=example.com", http.StatusServiceUnavailable, "history_disabled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&fakeScorer{}, tt.repo, "")

			rec, body := doRequest(t, router, "GET", tt.target, "", nil)
			if rec.Code != tt.wantCode {
				t.Errorf("expected %d, got %d", tt.wantCode, rec.Code)
			}
			if body["kind"] != tt.wantKind {
				t.Errorf("expected kind %s, got %v", tt.wantKind, body["kind"])
			}
		})
	}
}

func TestWriteJSON_EncodingFailure(t *testing.T) {
	rec := httptest.NewRecorder()

	// Channels cannot be encoded; the failure is logged, not panicked on
	writeJSON(rec, http.StatusOK, map[string]interface{}{"bad": make(chan int)})

	if rec.Code != http.StatusOK {
		t.Errorf("expected status to be written before encoding, got %d", rec.Code)
	}
}

func TestRouter_RecoversFromPanics(t *testing.T) {
	router := NewRouter(NewRestHandler(NewScoreService(&fakeScorer{}, nil, nil, 0), nil), "")
	router.HandleFunc("/api/v1/panic", func(w http.ResponseWriter, r *http.Request) {
		panic("handler bug")
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/panic", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500 after a panic, got %d", rec.Code)
	}
}
