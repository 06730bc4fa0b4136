package cards

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"deckerr/pkg/models"
	"deckerr/pkg/utils"
)

const (
	requestTimeout = 30 * time.Second
	maxRetries     = 3
	initialBackoff = 1 * time.Second
	maxBackoff     = 16 * time.Second

	// CollectionBatchSize is the Scryfall limit for /cards/collection.
	CollectionBatchSize = 75
)

// Client talks to the Scryfall REST API. Calls are spaced by a token
// bucket limiter and retried on network errors and HTTP 429.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	userAgent   string
	backoff     time.Duration
}

func NewClient(cfg utils.CardsConfig) *Client {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	return &Client{
		baseURL:     cfg.BaseURL,
		httpClient:  &http.Client{Timeout: requestTimeout},
		rateLimiter: rate.NewLimiter(rate.Every(interval), 1),
		userAgent:   cfg.UserAgent,
		backoff:     initialBackoff,
	}
}

type searchResponse struct {
	Object     string        `json:"object"`
	TotalCards int           `json:"total_cards"`
	HasMore    bool          `json:"has_more"`
	Data       []models.Card `json:"data"`
}

type identifier struct {
	ID string `json:"id"`
}

type collectionRequest struct {
	Identifiers []identifier `json:"identifiers"`
}

type collectionResponse struct {
	NotFound []identifier  `json:"not_found"`
	Data     []models.Card `json:"data"`
}

// Search runs a full-text Scryfall query and returns the first page of
// results. A query that matches nothing returns an empty slice.
func (c *Client) Search(ctx context.Context, query string) ([]models.Card, error) {
	u := c.baseURL + "/cards/search?" + url.Values{"q": {query}}.Encode()

	var res searchResponse
	if err := c.doRequest(ctx, http.MethodGet, u, nil, &res); err != nil {
		if _, ok := err.(*NotFoundError); ok {
			return []models.Card{}, nil
		}
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	if res.Data == nil {
		res.Data = []models.Card{}
	}
	return res.Data, nil
}

func (c *Client) GetByID(ctx context.Context, id string) (*models.Card, error) {
	var card models.Card
	if err := c.doRequest(ctx, http.MethodGet, c.baseURL+"/cards/"+url.PathEscape(id), nil, &card); err != nil {
		return nil, fmt.Errorf("get card %s: %w", id, err)
	}
	return &card, nil
}

// GetByIDs resolves many ids through /cards/collection in batches. Ids
// Scryfall does not know are returned in notFound.
func (c *Client) GetByIDs(ctx context.Context, ids []string) (found []models.Card, notFound []string, err error) {
	found = make([]models.Card, 0, len(ids))
	for i := 0; i < len(ids); i += CollectionBatchSize {
		end := min(i+CollectionBatchSize, len(ids))

		req := collectionRequest{Identifiers: make([]identifier, 0, end-i)}
		for _, id := range ids[i:end] {
			req.Identifiers = append(req.Identifiers, identifier{ID: id})
		}
		body, err := json.Marshal(req)
		if err != nil {
			return nil, nil, fmt.Errorf("encode collection request: %w", err)
		}

		var res collectionResponse
		if err := c.doRequest(ctx, http.MethodPost, c.baseURL+"/cards/collection", body, &res); err != nil {
			return nil, nil, fmt.Errorf("fetch batch %d-%d: %w", i, end, err)
		}
		found = append(found, res.Data...)
		for _, nf := range res.NotFound {
			notFound = append(notFound, nf.ID)
		}
	}
	return found, notFound, nil
}

// Random fetches n random cards, one request each.
func (c *Client) Random(ctx context.Context, n int) ([]models.Card, error) {
	out := make([]models.Card, 0, n)
	for i := 0; i < n; i++ {
		var card models.Card
		if err := c.doRequest(ctx, http.MethodGet, c.baseURL+"/cards/random", nil, &card); err != nil {
			return nil, fmt.Errorf("random card: %w", err)
		}
		out = append(out, card)
	}
	return out, nil
}

func (c *Client) doRequest(ctx context.Context, method, u string, body []byte, out any) error {
	var lastErr error
	backoff := c.backoff

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		var rd io.Reader
		if body != nil {
			rd = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, u, rd)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request: %w", err)
			if attempt < maxRetries && sleep(ctx, backoff) {
				backoff = min(backoff*2, maxBackoff)
				continue
			}
			return lastErr
		}

		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}

		switch resp.StatusCode {
		case http.StatusOK:
			if err := json.Unmarshal(data, out); err != nil {
				return fmt.Errorf("decode: %w", err)
			}
			return nil

		case http.StatusTooManyRequests:
			lastErr = fmt.Errorf("rate limited (HTTP 429)")
			wait := backoff
			if ra := resp.Header.Get("Retry-After"); ra != "" {
				if d, err := time.ParseDuration(ra + "s"); err == nil {
					wait = d
				}
			}
			if attempt < maxRetries && sleep(ctx, wait) {
				backoff = min(backoff*2, maxBackoff)
				continue
			}
			return lastErr

		case http.StatusNotFound:
			return &NotFoundError{URL: u}

		default:
			var apiErr APIError
			if err := json.Unmarshal(data, &apiErr); err == nil && apiErr.Object == "error" {
				return &apiErr
			}
			return fmt.Errorf("scryfall: status %d: %s", resp.StatusCode, string(data))
		}
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// sleep waits d or until ctx is done; it reports whether the wait completed.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
