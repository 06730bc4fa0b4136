// Package prefetch warms the local card cache from one or more sources so
// deck validation and hydration keep working when the card API is slow or
// unreachable.
package prefetch

import (
	"context"
	"log"
	"sort"
	"strings"

	"deckerr/pkg/models"
)

// Source is one place cards can come from: a search query against the card
// API, a batch of random cards, or a local JSON mirror.
type Source interface {
	Name() string
	FetchAll(ctx context.Context) ([]models.Card, error)
}

type Aggregator struct {
	Sources []Source
}

func NewAggregator(sources ...Source) *Aggregator {
	return &Aggregator{Sources: sources}
}

// FetchAndMerge pulls every source and merges cards sharing an id. A source
// that fails is logged and skipped. The result is sorted by name, then id.
func (a *Aggregator) FetchAndMerge(ctx context.Context) ([]models.Card, error) {
	byID := make(map[string]models.Card)

	for _, src := range a.Sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		log.Printf("[prefetch] fetching from %s", src.Name())
		cards, err := src.FetchAll(ctx)
		if err != nil {
			log.Printf("[prefetch] source %s error: %v", src.Name(), err)
			continue
		}

		for _, c := range cards {
			c.ID = strings.TrimSpace(c.ID)
			if c.ID == "" {
				continue
			}
			if existing, ok := byID[c.ID]; ok {
				byID[c.ID] = mergeCard(existing, c)
			} else {
				byID[c.ID] = c
			}
		}
	}

	result := make([]models.Card, 0, len(byID))
	for _, c := range byID {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// mergeCard keeps base and fills whatever it is missing from incoming.
// Prices merge per currency; non-empty incoming prices win.
func mergeCard(base, incoming models.Card) models.Card {
	if base.Name == "" {
		base.Name = incoming.Name
	}
	if base.ManaCost == "" {
		base.ManaCost = incoming.ManaCost
	}
	if base.TypeLine == "" {
		base.TypeLine = incoming.TypeLine
	}
	if base.OracleText == "" {
		base.OracleText = incoming.OracleText
	}
	if base.Set == "" {
		base.Set = incoming.Set
	}
	if len(base.Colors) == 0 {
		base.Colors = incoming.Colors
	}
	if base.ImageURIs == nil {
		base.ImageURIs = incoming.ImageURIs
	}

	if len(incoming.Prices) > 0 {
		prices := make(map[string]string, len(base.Prices)+len(incoming.Prices))
		for k, v := range base.Prices {
			prices[k] = v
		}
		for k, v := range incoming.Prices {
			if v != "" {
				prices[k] = v
			}
		}
		base.Prices = prices
	}
	return base
}
