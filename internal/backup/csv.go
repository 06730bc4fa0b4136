// Package backup dumps decks to CSV and loads them back.
//
// The file holds one row per deck entry. A deck without entries is written
// as a single row with empty card columns so it survives a round trip.
package backup

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"deckerr/internal/deck"
	"deckerr/pkg/models"
)

var header = []string{
	"deck_id", "user_id", "name", "format", "commander_id",
	"created_at", "updated_at", "position", "card_id", "quantity",
}

// ExportDecks writes every deck in the database to w and returns how many
// decks were written.
func ExportDecks(ctx context.Context, repo *deck.Repo, w io.Writer) (int, error) {
	ids, err := deckIDs(ctx, repo.DB)
	if err != nil {
		return 0, err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return 0, err
	}

	for _, id := range ids {
		d, err := repo.Get(ctx, id)
		if err != nil {
			return 0, err
		}
		if d == nil {
			// deleted between listing and reading
			continue
		}

		base := []string{
			d.ID,
			d.UserID,
			d.Name,
			d.Format.String(),
			d.CommanderID,
			d.CreatedAt.UTC().Format(time.RFC3339),
			d.UpdatedAt.UTC().Format(time.RFC3339),
		}
		if len(d.Entries) == 0 {
			if err := cw.Write(append(base, "", "", "")); err != nil {
				return 0, err
			}
			continue
		}
		for i, e := range d.Entries {
			row := append(append([]string(nil), base...), strconv.Itoa(i), e.Card.ID, strconv.Itoa(e.Quantity))
			if err := cw.Write(row); err != nil {
				return 0, err
			}
		}
	}

	cw.Flush()
	return len(ids), cw.Error()
}

func deckIDs(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT id FROM decks ORDER BY user_id, id`)
	if err != nil {
		return nil, fmt.Errorf("list deck ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan deck id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

type positioned struct {
	pos   int
	entry models.DeckEntry
}

// ImportDecks reads a file written by ExportDecks and saves each deck,
// replacing decks that already exist. Owners must already exist.
func ImportDecks(ctx context.Context, repo *deck.Repo, r io.Reader) (int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	cols, err := readHeader(cr)
	if err != nil {
		return 0, err
	}

	var order []string
	decks := map[string]*models.Deck{}
	entries := map[string][]positioned{}

	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}
		if len(row) == 0 {
			continue
		}

		id := valueAt(cols, row, "deck_id")
		if id == "" {
			continue
		}

		if _, ok := decks[id]; !ok {
			d, err := parseDeck(cols, row)
			if err != nil {
				return 0, fmt.Errorf("line %d: %w", line, err)
			}
			decks[id] = d
			order = append(order, id)
		}

		cardID := valueAt(cols, row, "card_id")
		if cardID == "" {
			continue
		}
		qty, err := strconv.Atoi(valueAt(cols, row, "quantity"))
		if err != nil || qty < 1 {
			return 0, fmt.Errorf("line %d: invalid quantity %q", line, valueAt(cols, row, "quantity"))
		}
		pos, err := strconv.Atoi(valueAt(cols, row, "position"))
		if err != nil {
			pos = len(entries[id])
		}
		entries[id] = append(entries[id], positioned{
			pos:   pos,
			entry: models.DeckEntry{Card: models.Card{ID: cardID}, Quantity: qty},
		})
	}

	for _, id := range order {
		d := decks[id]
		es := entries[id]
		sort.SliceStable(es, func(i, j int) bool { return es[i].pos < es[j].pos })
		for _, p := range es {
			d.Entries = append(d.Entries, p.entry)
		}
		if err := repo.Save(ctx, *d); err != nil {
			return 0, fmt.Errorf("save deck %s: %w", id, err)
		}
	}
	return len(order), nil
}

func parseDeck(cols map[string]int, row []string) (*models.Deck, error) {
	f, err := models.ParseFormat(valueAt(cols, row, "format"))
	if err != nil {
		return nil, err
	}
	created, err := parseTime(valueAt(cols, row, "created_at"))
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	updated, err := parseTime(valueAt(cols, row, "updated_at"))
	if err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &models.Deck{
		ID:          valueAt(cols, row, "deck_id"),
		UserID:      valueAt(cols, row, "user_id"),
		Name:        valueAt(cols, row, "name"),
		Format:      f,
		CommanderID: valueAt(cols, row, "commander_id"),
		CreatedAt:   created,
		UpdatedAt:   updated,
	}, nil
}

func readHeader(r *csv.Reader) (map[string]int, error) {
	row, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(row))
	for idx, name := range row {
		cols[strings.TrimSpace(strings.ToLower(name))] = idx
	}
	if _, ok := cols["deck_id"]; !ok {
		return nil, fmt.Errorf("header has no deck_id column")
	}
	return cols, nil
}

func valueAt(cols map[string]int, row []string, key string) string {
	idx, ok := cols[key]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Now().UTC(), nil
	}
	return time.Parse(time.RFC3339, raw)
}
