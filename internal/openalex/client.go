package openalex

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/deepscience/deepscience/internal/domain"
)

// Client queries the OpenAlex Works API.
type Client struct {
	baseURL    string
	mailto     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Config configures the OpenAlex client. Mailto is sent with each request for
// polite pool access and may be empty.
type Config struct {
	BaseURL        string
	Mailto         string
	Timeout        time.Duration
	RequestsPerSec int
}

// NewClient creates an OpenAlex client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openalex.org"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.RequestsPerSec <= 0 {
		cfg.RequestsPerSec = 5
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		mailto:     cfg.Mailto,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), cfg.RequestsPerSec),
	}
}

// Search queries the Works endpoint for the given text, sorted by relevance
// and restricted to works with a DOI. Results are returned in provider order.
func (c *Client) Search(ctx context.Context, query string, page, perPage int) ([]domain.Paper, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.ErrEmptyQuery
	}
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 10
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{
		"search":   {query},
		"page":     {fmt.Sprintf("%d", page)},
		"per_page": {fmt.Sprintf("%d", perPage)},
		"sort":     {"relevance_score:desc"},
		"filter":   {"has_doi:true"},
	}
	if c.mailto != "" {
		params.Set("mailto", c.mailto)
	}

	reqURL := c.baseURL + "/works?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openalex request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openalex returned HTTP %d", resp.StatusCode)
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing openalex response: %w", err)
	}
	if sr.Results == nil {
		return nil, fmt.Errorf("openalex response missing results")
	}

	papers := make([]domain.Paper, 0, len(sr.Results))
	for _, w := range sr.Results {
		papers = append(papers, normalizeWork(w))
	}
	return papers, nil
}

// GetByDOI fetches a single work by its DOI. A nil paper with nil error means
// the work was not found.
func (c *Client) GetByDOI(ctx context.Context, doi string) (*domain.Paper, error) {
	doi = strings.TrimPrefix(strings.TrimSpace(doi), "https://doi.org/")
	if doi == "" {
		return nil, fmt.Errorf("empty doi")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqURL := c.baseURL + "/works/doi:" + url.PathEscape(doi)
	if c.mailto != "" {
		reqURL += "?mailto=" + url.QueryEscape(c.mailto)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openalex request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openalex returned HTTP %d", resp.StatusCode)
	}

	var w work
	if err := json.NewDecoder(resp.Body).Decode(&w); err != nil {
		return nil, fmt.Errorf("parsing openalex work: %w", err)
	}
	paper := normalizeWork(w)
	return &paper, nil
}

// normalizeWork maps a raw provider record into a canonical Paper.
func normalizeWork(w work) domain.Paper {
	p := domain.Paper{
		ID:           w.ID,
		Title:        w.Title,
		Authors:      []string{},
		Year:         w.PublicationYear,
		Abstract:     ReconstructAbstract(w.AbstractInvertedIndex),
		CitedByCount: w.CitedByCount,
	}

	for _, a := range w.Authorships {
		if a.Author.DisplayName != "" {
			p.Authors = append(p.Authors, a.Author.DisplayName)
		}
	}

	if w.PrimaryLocation != nil {
		if w.PrimaryLocation.Source != nil {
			p.Journal = w.PrimaryLocation.Source.DisplayName
		}
		p.URL = w.PrimaryLocation.LandingPageURL
	}
	if p.URL == "" && w.DOI != "" {
		p.URL = "https://doi.org/" + strings.TrimPrefix(w.DOI, "https://doi.org/")
	}

	return p
}

// OpenAlex API JSON structures.
type searchResponse struct {
	Meta    meta   `json:"meta"`
	Results []work `json:"results"`
}

type meta struct {
	Count   int `json:"count"`
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

type work struct {
	ID                    string           `json:"id"`
	DOI                   string           `json:"doi"`
	Title                 string           `json:"title"`
	PublicationYear       int              `json:"publication_year"`
	PublicationDate       string           `json:"publication_date"`
	PrimaryLocation       *primaryLocation `json:"primary_location"`
	Authorships           []authorship     `json:"authorships"`
	AbstractInvertedIndex map[string][]int `json:"abstract_inverted_index"`
	CitedByCount          int              `json:"cited_by_count"`
}

type primaryLocation struct {
	Source         *source `json:"source"`
	LandingPageURL string  `json:"landing_page_url"`
}

type source struct {
	DisplayName string `json:"display_name"`
}

type authorship struct {
	Author author `json:"author"`
}

type author struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}
