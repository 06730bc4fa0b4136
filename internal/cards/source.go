package cards

import (
	"context"
	"fmt"
	"log"
	"time"

	"deckerr/pkg/models"
)

// Source resolves card records. The deck service and the land filler only
// depend on this.
type Source interface {
	Search(ctx context.Context, query string) ([]models.Card, error)
	GetByIDs(ctx context.Context, ids []string) ([]models.Card, error)
}

// CachedSource serves card lookups from the local cache and goes to
// Scryfall for anything missing or stale.
type CachedSource struct {
	Client *Client
	Repo   *Repo
	TTL    time.Duration

	now func() time.Time
}

func NewCachedSource(client *Client, repo *Repo, ttl time.Duration) *CachedSource {
	return &CachedSource{Client: client, Repo: repo, TTL: ttl, now: time.Now}
}

// Search always asks Scryfall and writes results through to the cache. If
// Scryfall cannot be reached, cached cards matching the query by name are
// returned instead.
func (s *CachedSource) Search(ctx context.Context, query string) ([]models.Card, error) {
	found, err := s.Client.Search(ctx, query)
	if err != nil {
		cached, cacheErr := s.Repo.SearchByName(ctx, query, 20)
		if cacheErr != nil || len(cached) == 0 {
			return nil, err
		}
		log.Printf("[cards] search %q failed, serving %d cached: %v", query, len(cached), err)
		return cached, nil
	}

	if err := s.Repo.Upsert(ctx, found); err != nil {
		log.Printf("[cards] cache write failed: %v", err)
	}
	return found, nil
}

// GetByIDs returns cards in the order of ids. Unknown ids are skipped.
func (s *CachedSource) GetByIDs(ctx context.Context, ids []string) ([]models.Card, error) {
	ids = uniqueIDs(ids)

	cached, err := s.Repo.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("read cache: %w", err)
	}

	byID := make(map[string]models.Card, len(ids))
	var missing []string
	for _, id := range ids {
		cc, ok := cached[id]
		if ok && s.fresh(cc.FetchedAt) {
			byID[id] = cc.Card
			continue
		}
		missing = append(missing, id)
	}

	if len(missing) > 0 {
		fetched, notFound, err := s.Client.GetByIDs(ctx, missing)
		if err != nil {
			// stale rows are better than nothing
			for _, id := range missing {
				if cc, ok := cached[id]; ok {
					byID[id] = cc.Card
				}
			}
			if len(byID) == 0 {
				return nil, err
			}
			log.Printf("[cards] refresh of %d cards failed: %v", len(missing), err)
		} else {
			if len(notFound) > 0 {
				log.Printf("[cards] %d ids unknown to card source", len(notFound))
			}
			if err := s.Repo.Upsert(ctx, fetched); err != nil {
				log.Printf("[cards] cache write failed: %v", err)
			}
			for _, c := range fetched {
				byID[c.ID] = c
			}
		}
	}

	out := make([]models.Card, 0, len(ids))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *CachedSource) GetByID(ctx context.Context, id string) (*models.Card, error) {
	cs, err := s.GetByIDs(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	if len(cs) == 0 {
		return nil, nil
	}
	return &cs[0], nil
}

func (s *CachedSource) Random(ctx context.Context, n int) ([]models.Card, error) {
	cs, err := s.Client.Random(ctx, n)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.Upsert(ctx, cs); err != nil {
		log.Printf("[cards] cache write failed: %v", err)
	}
	return cs, nil
}

func (s *CachedSource) fresh(fetchedAt time.Time) bool {
	if s.TTL <= 0 {
		return true
	}
	now := time.Now
	if s.now != nil {
		now = s.now
	}
	return now().Sub(fetchedAt) < s.TTL
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
