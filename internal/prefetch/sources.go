package prefetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"deckerr/pkg/models"
)

type searcher interface {
	Search(ctx context.Context, query string) ([]models.Card, error)
}

type randomizer interface {
	Random(ctx context.Context, n int) ([]models.Card, error)
}

// QuerySource runs one search query, e.g. "t:basic" or "f:standard r:mythic".
type QuerySource struct {
	Client searcher
	Query  string
}

func NewQuerySource(client searcher, query string) *QuerySource {
	return &QuerySource{Client: client, Query: strings.TrimSpace(query)}
}

func (s *QuerySource) Name() string {
	return "query:" + s.Query
}

func (s *QuerySource) FetchAll(ctx context.Context) ([]models.Card, error) {
	if s.Query == "" {
		return nil, fmt.Errorf("query source: empty query")
	}
	return s.Client.Search(ctx, s.Query)
}

type RandomSource struct {
	Client randomizer
	Count  int
}

func NewRandomSource(client randomizer, count int) *RandomSource {
	return &RandomSource{Client: client, Count: count}
}

func (s *RandomSource) Name() string {
	return fmt.Sprintf("random:%d", s.Count)
}

func (s *RandomSource) FetchAll(ctx context.Context) ([]models.Card, error) {
	if s.Count <= 0 {
		return nil, nil
	}
	return s.Client.Random(ctx, s.Count)
}

// MirrorSource reads a JSON array of cards from GET {BaseURL}/cards, the
// shape served by the mirror-server command.
type MirrorSource struct {
	BaseURL string
	Client  *http.Client
}

func NewMirrorSource(baseURL string) *MirrorSource {
	return &MirrorSource{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (s *MirrorSource) Name() string {
	return "mirror"
}

func (s *MirrorSource) FetchAll(ctx context.Context) ([]models.Card, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+"/cards", nil)
	if err != nil {
		return nil, fmt.Errorf("mirror: build request: %w", err)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mirror: do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("mirror: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out []models.Card
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("mirror: decode: %w", err)
	}
	return out, nil
}
