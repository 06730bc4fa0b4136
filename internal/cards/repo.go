package cards

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"deckerr/pkg/models"
)

// Repo is the local card cache. Cards are stored as the JSON payload the
// card source returned so nothing is lost between fetches.
type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

func (r *Repo) Upsert(ctx context.Context, cards []models.Card) error {
	if len(cards) == 0 {
		return nil
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO cards (id, name, payload, fetched_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
		  name = excluded.name,
		  payload = excluded.payload,
		  fetched_at = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return fmt.Errorf("prepare stmt: %w", err)
	}
	defer stmt.Close()

	for _, c := range cards {
		if c.ID == "" {
			continue
		}
		payload, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("marshal card %s: %w", c.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, c.ID, c.Name, string(payload)); err != nil {
			return fmt.Errorf("exec upsert for %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (r *Repo) Get(ctx context.Context, id string) (*models.CachedCard, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT payload, fetched_at FROM cards WHERE id = ?
	`, id)

	cc, err := scanCached(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get card: %w", err)
	}
	return cc, nil
}

// GetMany returns every cached card among ids, keyed by id.
func (r *Repo) GetMany(ctx context.Context, ids []string) (map[string]models.CachedCard, error) {
	out := make(map[string]models.CachedCard, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT payload, fetched_at FROM cards WHERE id IN (`+placeholders+`)
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("get many cards: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		cc, err := scanCached(rows)
		if err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		out[cc.Card.ID] = *cc
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

// SearchByName is the offline fallback: a case-insensitive substring match
// over cached card names.
func (r *Repo) SearchByName(ctx context.Context, name string, limit int) ([]models.Card, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	kw := "%" + strings.ToLower(strings.TrimSpace(name)) + "%"

	rows, err := r.DB.QueryContext(ctx, `
		SELECT payload, fetched_at FROM cards
		WHERE LOWER(name) LIKE ?
		ORDER BY name ASC
		LIMIT ?
	`, kw, limit)
	if err != nil {
		return nil, fmt.Errorf("search cached cards: %w", err)
	}
	defer rows.Close()

	out := make([]models.Card, 0, limit)
	for rows.Next() {
		cc, err := scanCached(rows)
		if err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		out = append(out, cc.Card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

// List pages through the whole cache ordered by name.
func (r *Repo) List(ctx context.Context, limit, offset int) ([]models.Card, error) {
	if limit <= 0 {
		limit = 500
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT payload, fetched_at FROM cards
		ORDER BY name ASC, id ASC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list cached cards: %w", err)
	}
	defer rows.Close()

	var out []models.Card
	for rows.Next() {
		cc, err := scanCached(rows)
		if err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		out = append(out, cc.Card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCached(s scanner) (*models.CachedCard, error) {
	var (
		payload   string
		fetchedAt time.Time
	)
	if err := s.Scan(&payload, &fetchedAt); err != nil {
		return nil, err
	}
	var cc models.CachedCard
	if err := json.Unmarshal([]byte(payload), &cc.Card); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	cc.FetchedAt = fetchedAt
	return &cc, nil
}
