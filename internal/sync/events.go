package sync

import "time"

const (
	DeckSaved   = "deck.saved"
	DeckDeleted = "deck.deleted"
)

// DeckEvent is pushed to every sync client when a deck changes.
type DeckEvent struct {
	Type       string    `json:"type"` // DeckSaved or DeckDeleted
	UserID     string    `json:"user_id"`
	DeckID     string    `json:"deck_id"`
	Format     string    `json:"format,omitempty"`
	TotalCards int       `json:"total_cards,omitempty"`
	IsValid    bool      `json:"is_valid"`
	At         time.Time `json:"at"`
}
