// Package source fetches help-center articles and turns them into Markdown documents.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"ragsync/internal/domain"
	"ragsync/internal/logger"
)

// Defaults for the help-center client.
const (
	DefaultMaxArticles       = 200
	DefaultTimeout           = 10 * time.Second
	DefaultRequestsPerSecond = 2.0
)

// Article is one help-center article as returned by the API.
type Article struct {
	Title   string `json:"title"`
	HTMLURL string `json:"html_url"`
	Body    string `json:"body"`
}

type page struct {
	Articles []Article `json:"articles"`
	NextPage *string   `json:"next_page"`
}

// Config configures the help-center client.
type Config struct {
	APIURL            string
	MaxArticles       int
	RequestsPerSecond float64
	Timeout           time.Duration
}

// HelpCenter pages through a `{articles, next_page}` listing endpoint.
type HelpCenter struct {
	apiURL      string
	maxArticles int
	limiter     *rate.Limiter
	client      *http.Client
}

// NewHelpCenter creates a client. Zero values use the package defaults.
func NewHelpCenter(cfg Config) *HelpCenter {
	if cfg.MaxArticles <= 0 {
		cfg.MaxArticles = DefaultMaxArticles
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &HelpCenter{
		apiURL:      cfg.APIURL,
		maxArticles: cfg.MaxArticles,
		limiter:     rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		client:      &http.Client{Timeout: cfg.Timeout},
	}
}

// FetchArticles follows next_page links until none is left or the article limit
// is reached. A failing first page is an error; a failing later page ends paging
// with the articles collected so far.
func (h *HelpCenter) FetchArticles(ctx context.Context) ([]Article, error) {
	if h.apiURL == "" {
		return nil, fmt.Errorf("%w: API_URL is not set", domain.ErrInvalidInput)
	}
	var articles []Article
	next := h.apiURL
	for pageNo := 1; next != "" && len(articles) < h.maxArticles; pageNo++ {
		p, err := h.fetchPage(ctx, next)
		if err != nil {
			if pageNo == 1 {
				return nil, fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
			}
			logger.Warn("error fetching articles page %d: %v", pageNo, err)
			break
		}
		logger.Debug("page %d: %d articles", pageNo, len(p.Articles))
		articles = append(articles, p.Articles...)
		next = ""
		if p.NextPage != nil {
			next = *p.NextPage
		}
	}
	if len(articles) > h.maxArticles {
		articles = articles[:h.maxArticles]
	}
	return articles, nil
}

func (h *HelpCenter) fetchPage(ctx context.Context, url string) (*page, error) {
	if err := h.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("GET %s: %s", url, resp.Status)
	}
	var p page
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode %s: %w", url, err)
	}
	return &p, nil
}
