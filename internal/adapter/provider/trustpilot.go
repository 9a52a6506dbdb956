package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hive-corporation/trustscore/internal/adapter/metrics"
	"github.com/hive-corporation/trustscore/internal/core/domain"
)

// DefaultTrustpilotBaseURL is the public Trustpilot API.
const DefaultTrustpilotBaseURL = "https://api.trustpilot.com"

// maxPerPage is the largest page the reviews endpoint serves.
const maxPerPage = 100

type TrustpilotProvider struct {
	client  *ResilientClient
	baseURL string
	apiKey  string
	now     func() time.Time
}

func NewTrustpilotProvider(client *ResilientClient, baseURL, apiKey string) *TrustpilotProvider {
	if client == nil {
		client = NewResilientClient(30*time.Second, DefaultResilientClientConfig())
	}
	if baseURL == "" {
		baseURL = DefaultTrustpilotBaseURL
	}
	return &TrustpilotProvider{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		now:     time.Now,
	}
}

func (p *TrustpilotProvider) Name() string {
	return "trustpilot"
}

type businessUnit struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

type reviewsPage struct {
	Reviews []struct {
		ID                      string `json:"id"`
		Stars                   int    `json:"stars"`
		CreatedAt               string `json:"createdAt"`
		CountsTowardsTrustScore bool   `json:"countsTowardsTrustScore"`
	} `json:"reviews"`
	Links []struct {
		Href   string `json:"href"`
		Method string `json:"method"`
		Rel    string `json:"rel"`
	} `json:"links"`
}

// Resolve finds the business unit registered for domainName.
func (p *TrustpilotProvider) Resolve(ctx context.Context, domainName string) (domain.BusinessUnitID, error) {
	endpoint := fmt.Sprintf("%s/v1/business-units/find?%s", p.baseURL, url.Values{"name": {domainName}}.Encode())

	var unit businessUnit
	if err := p.getJSON(ctx, endpoint, &unit); err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return "", fmt.Errorf("%w: %s", domain.ErrDomainNotFound, domainName)
		}
		return "", fmt.Errorf("find business unit %s: %w: %w", domainName, domain.ErrSourceUnavailable, err)
	}
	if unit.ID == "" {
		return "", fmt.Errorf("%w: %s", domain.ErrDomainNotFound, domainName)
	}

	return domain.BusinessUnitID(unit.ID), nil
}

// FetchReviews pages through the reviews of unit, newest first, until limit
// reviews were yielded or there is no next page. Ages are measured from a
// single instant taken when iteration starts.
func (p *TrustpilotProvider) FetchReviews(ctx context.Context, unit domain.BusinessUnitID, limit int) iter.Seq2[domain.Review, error] {
	return func(yield func(domain.Review, error) bool) {
		if limit <= 0 {
			return
		}

		now := p.now()
		query := url.Values{"perPage": {strconv.Itoa(min(maxPerPage, limit))}}
		next := fmt.Sprintf("%s/v1/business-units/%s/reviews?%s", p.baseURL, url.PathEscape(string(unit)), query.Encode())
		yielded := 0

		for page := 1; next != ""; page++ {
			var data reviewsPage
			if err := p.getJSON(ctx, next, &data); err != nil {
				yield(domain.Review{}, fmt.Errorf("reviews page %d of %s: %w: %w", page, unit, domain.ErrSourceUnavailable, err))
				return
			}

			for _, r := range data.Reviews {
				created, err := time.Parse(time.RFC3339, r.CreatedAt)
				if err != nil {
					metrics.RecordSourceError("decode")
					yield(domain.Review{}, fmt.Errorf("review %s: %w: bad createdAt %q", r.ID, domain.ErrSourceUnavailable, r.CreatedAt))
					return
				}

				review := domain.Review{
					ID:                r.ID,
					Stars:             r.Stars,
					Age:               now.Sub(created),
					CountsTowardScore: r.CountsTowardsTrustScore,
				}
				if !yield(review, nil) {
					return
				}
				yielded++
				if yielded >= limit {
					return
				}
			}

			next = p.nextPage(data)
		}
	}
}

// nextPage returns the absolute URL of the next page, or "" on the last page.
func (p *TrustpilotProvider) nextPage(data reviewsPage) string {
	for _, link := range data.Links {
		if link.Rel != "next-page" || link.Href == "" {
			continue
		}
		base, err := url.Parse(p.baseURL + "/")
		if err != nil {
			return link.Href
		}
		ref, err := url.Parse(link.Href)
		if err != nil {
			return ""
		}
		return base.ResolveReference(ref).String()
	}
	return ""
}

func (p *TrustpilotProvider) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if p.apiKey != "" {
		req.Header.Set("apikey", p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		metrics.RecordSourceError("decode")
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
