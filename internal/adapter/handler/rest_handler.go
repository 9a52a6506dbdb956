package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hive-corporation/trustscore/internal/core/domain"
	"github.com/hive-corporation/trustscore/internal/core/ports"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 500

	computeTimeout = 60 * time.Second
	queryTimeout   = 5 * time.Second
)

type RestHandler struct {
	service *ScoreService
	repo    ports.ScoreRepository // Optional, serves /trustscore/history
}

func NewRestHandler(service *ScoreService, repo ports.ScoreRepository) *RestHandler {
	return &RestHandler{
		service: service,
		repo:    repo,
	}
}

type trustScoreRequest struct {
	Domain string      `json:"domain"`
	Limit  json.Number `json:"limit"`
}

type trustScoreResponse struct {
	Domain      string  `json:"domain"`
	Limit       int     `json:"limit"`
	TrustScore  float64 `json:"trust_score"`
	ReviewCount int     `json:"review_count"`
}

// Health check endpoint
func (h *RestHandler) Health(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "trustscore-api",
	}
	writeJSON(w, http.StatusOK, response)
}

// GetTrustScore serves GET /api/v1/trustscore?domain=&limit=
func (h *RestHandler) GetTrustScore(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	limit, err := parseLimit(query.Get("limit"), domain.DefaultLimit)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.respondWithScore(w, r, query.Get("domain"), limit)
}

// PostTrustScore serves POST /api/v1/trustscore with a {"domain", "limit"} body
func (h *RestHandler) PostTrustScore(w http.ResponseWriter, r *http.Request) {
	var req trustScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("❌ Failed to decode trust score request: %v", err)
		writeError(w, http.StatusBadRequest, "invalid JSON payload", "invalid_request")
		return
	}

	limit, err := parseLimit(req.Limit.String(), domain.DefaultLimit)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.respondWithScore(w, r, req.Domain, limit)
}

func (h *RestHandler) respondWithScore(w http.ResponseWriter, r *http.Request, domainName string, limit int) {
	ctx, cancel := context.WithTimeout(r.Context(), computeTimeout)
	defer cancel()

	result, err := h.service.Score(ctx, "rest", domainName, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, trustScoreResponse{
		Domain:      result.Domain,
		Limit:       result.Limit,
		TrustScore:  result.Rounded(),
		ReviewCount: result.ReviewCount,
	})
}

// GetHistory serves GET /api/v1/trustscore/history?domain=&limit=
func (h *RestHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		writeError(w, http.StatusServiceUnavailable, "score history is not configured", "history_disabled")
		return
	}

	query := r.URL.Query()
	domainName := strings.TrimSpace(query.Get("domain"))
	if domainName == "" {
		writeDomainError(w, fmt.Errorf("%w: missing 'domain' parameter", domain.ErrInvalidDomain))
		return
	}

	limit, err := parseLimit(query.Get("limit"), defaultHistoryLimit)
	if err == nil && limit <= 0 {
		err = fmt.Errorf("%w: %d is not a positive number of records", domain.ErrInvalidLimit, limit)
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	limit = min(limit, maxHistoryLimit)

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	records, err := h.repo.FindHistory(ctx, domainName, limit)
	if err != nil {
		log.Printf("❌ Failed to query score history for %s: %v", domainName, err)
		writeError(w, http.StatusInternalServerError, "failed to query score history", domain.KindInternal)
		return
	}

	scores := make([]map[string]interface{}, len(records))
	for i, rec := range records {
		scores[i] = recordJSON(rec)
	}

	response := map[string]interface{}{
		"domain": domainName,
		"count":  len(records),
		"scores": scores,
	}
	writeJSON(w, http.StatusOK, response)
}

// GetLatestScore serves GET /api/v1/trustscore/history/latest?domain=
func (h *RestHandler) GetLatestScore(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		writeError(w, http.StatusServiceUnavailable, "score history is not configured", "history_disabled")
		return
	}

	domainName := strings.TrimSpace(r.URL.Query().Get("domain"))
	if domainName == "" {
		writeDomainError(w, fmt.Errorf("%w: missing 'domain' parameter", domain.ErrInvalidDomain))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	rec, err := h.repo.FindLatest(ctx, domainName)
	if errors.Is(err, ports.ErrNoHistory) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no score recorded for %s", domainName), "no_history")
		return
	}
	if err != nil {
		log.Printf("❌ Failed to query latest score for %s: %v", domainName, err)
		writeError(w, http.StatusInternalServerError, "failed to query score history", domain.KindInternal)
		return
	}

	response := recordJSON(*rec)
	response["domain"] = rec.Domain
	writeJSON(w, http.StatusOK, response)
}

func recordJSON(rec domain.ScoreRecord) map[string]interface{} {
	return map[string]interface{}{
		"id":           rec.ID.String(),
		"trust_score":  domain.RoundScore(rec.TrustScore),
		"raw_score":    rec.RawScore,
		"review_count": rec.ReviewCount,
		"limit":        rec.Limit,
		"source":       rec.Source,
		"computed_at":  rec.ComputedAt.Format(time.RFC3339),
	}
}

// parseLimit returns fallback for an empty value and ErrInvalidLimit for
// anything that is not an integer.
func parseLimit(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", domain.ErrInvalidLimit, raw)
	}
	return limit, nil
}

// httpStatus maps an error kind to the HTTP status returned to callers.
// Malformed reviews are a defect of the upstream data, hence a gateway error.
func httpStatus(kind string) int {
	switch kind {
	case domain.KindInvalidLimit, domain.KindInvalidDomain:
		return http.StatusBadRequest
	case domain.KindDomainNotFound:
		return http.StatusNotFound
	case domain.KindSourceUnavailable, domain.KindInvalidRating, domain.KindInvalidAge:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeDomainError(w http.ResponseWriter, err error) {
	kind := domain.ErrorKind(err)
	message := err.Error()
	if kind == domain.KindInternal {
		message = "internal error"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		message = "trust score computation timed out"
	}
	writeError(w, httpStatus(kind), message, kind)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message, kind string) {
	writeJSON(w, status, map[string]string{"error": message, "kind": kind})
}
