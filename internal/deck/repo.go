package deck

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"deckerr/pkg/models"
)

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// Save upserts the deck row and replaces its entries wholesale. Entries only
// carry card ids here; card data lives in the card cache.
func (r *Repo) Save(ctx context.Context, d models.Deck) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO decks (id, user_id, name, format, commander_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			format = excluded.format,
			commander_id = excluded.commander_id,
			updated_at = excluded.updated_at
	`, d.ID, d.UserID, d.Name, d.Format.String(), nullString(d.CommanderID), d.CreatedAt.UTC(), d.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("upsert deck: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM deck_cards WHERE deck_id = ?`, d.ID); err != nil {
		return fmt.Errorf("clear deck cards: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO deck_cards (deck_id, card_id, quantity, is_commander, position)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare stmt: %w", err)
	}
	defer stmt.Close()

	for i, e := range d.Entries {
		isCommander := d.CommanderID != "" && e.Card.ID == d.CommanderID
		if _, err := stmt.ExecContext(ctx, d.ID, e.Card.ID, e.Quantity, isCommander, i); err != nil {
			return fmt.Errorf("insert deck card %s: %w", e.Card.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Get returns the deck with id-only entries, or nil if it does not exist.
func (r *Repo) Get(ctx context.Context, id string) (*models.Deck, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, user_id, name, format, commander_id, created_at, updated_at
		FROM decks
		WHERE id = ?
	`, id)

	d, err := scanDeck(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get deck: %w", err)
	}

	entries, err := r.entries(ctx, []string{d.ID})
	if err != nil {
		return nil, err
	}
	d.Entries = entries[d.ID]
	return d, nil
}

// ListByUser returns a page of the user's decks, most recently updated
// first, together with the total count.
func (r *Repo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Deck, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM decks WHERE user_id = ?
	`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count decks: %w", err)
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, user_id, name, format, commander_id, created_at, updated_at
		FROM decks
		WHERE user_id = ?
		ORDER BY updated_at DESC, id ASC
		LIMIT ? OFFSET ?
	`, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list decks: %w", err)
	}

	var (
		out []models.Deck
		ids []string
	)
	for rows.Next() {
		d, err := scanDeck(rows)
		if err != nil {
			rows.Close()
			return nil, 0, fmt.Errorf("scan deck: %w", err)
		}
		out = append(out, *d)
		ids = append(ids, d.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows err: %w", err)
	}

	entries, err := r.entries(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range out {
		out[i].Entries = entries[out[i].ID]
	}
	return out, total, nil
}

func (r *Repo) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM decks WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete deck: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *Repo) entries(ctx context.Context, deckIDs []string) (map[string][]models.DeckEntry, error) {
	out := make(map[string][]models.DeckEntry, len(deckIDs))
	if len(deckIDs) == 0 {
		return out, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(deckIDs)), ",")
	args := make([]any, len(deckIDs))
	for i, id := range deckIDs {
		args[i] = id
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT deck_id, card_id, quantity
		FROM deck_cards
		WHERE deck_id IN (`+placeholders+`)
		ORDER BY deck_id, position
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("list deck cards: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			deckID string
			e      models.DeckEntry
		)
		if err := rows.Scan(&deckID, &e.Card.ID, &e.Quantity); err != nil {
			return nil, fmt.Errorf("scan deck card: %w", err)
		}
		out[deckID] = append(out[deckID], e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDeck(s scanner) (*models.Deck, error) {
	var (
		d         models.Deck
		format    string
		commander sql.NullString
		created   time.Time
		updated   time.Time
	)
	if err := s.Scan(&d.ID, &d.UserID, &d.Name, &format, &commander, &created, &updated); err != nil {
		return nil, err
	}
	f, err := models.ParseFormat(format)
	if err != nil {
		return nil, fmt.Errorf("deck %s: %w", d.ID, err)
	}
	d.Format = f
	d.CommanderID = commander.String
	d.CreatedAt = created
	d.UpdatedAt = updated
	return &d, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
