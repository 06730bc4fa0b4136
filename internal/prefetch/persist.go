package prefetch

import (
	"context"
	"fmt"
	"log"

	"deckerr/internal/cards"
	"deckerr/pkg/models"
)

const saveBatch = 200

// Save writes the cards into the cache in batches so one huge prefetch does
// not hold a single long transaction.
func Save(ctx context.Context, repo *cards.Repo, list []models.Card) error {
	for start := 0; start < len(list); start += saveBatch {
		end := start + saveBatch
		if end > len(list) {
			end = len(list)
		}
		if err := repo.Upsert(ctx, list[start:end]); err != nil {
			return fmt.Errorf("save cards %d-%d: %w", start, end, err)
		}
		log.Printf("[prefetch] cached %d/%d cards", end, len(list))
	}
	return nil
}
