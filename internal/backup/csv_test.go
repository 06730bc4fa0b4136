package backup

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deckerr/internal/deck"
	"deckerr/pkg/database"
	"deckerr/pkg/models"
)

func newTestRepo(t *testing.T, name string) *deck.Repo {
	t.Helper()
	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), name)})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))
	insertUser(t, db, "u1")
	return deck.NewRepo(db)
}

func insertUser(t *testing.T, db *sql.DB, id string) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO users (id, username, email, password_hash) VALUES (?, ?, ?, 'x')`, id, id, id+"@example.com")
	require.NoError(t, err)
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newTestRepo(t, "src.db")

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	burn := models.Deck{
		ID:     "d1",
		UserID: "u1",
		Name:   "Burn, again",
		Format: models.Modern,
		Entries: []models.DeckEntry{
			{Card: models.Card{ID: "bolt"}, Quantity: 4},
			{Card: models.Card{ID: "mountain"}, Quantity: 20},
		},
		CreatedAt: at,
		UpdatedAt: at,
	}
	empty := models.Deck{ID: "d2", UserID: "u1", Name: "Empty", Format: models.Commander, CreatedAt: at, UpdatedAt: at}
	require.NoError(t, src.Save(ctx, burn))
	require.NoError(t, src.Save(ctx, empty))

	var buf bytes.Buffer
	n, err := ExportDecks(ctx, src, &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	rows, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, header, rows[0])
	assert.Equal(t, []string{"d1", "u1", "Burn, again", "modern", "", "2026-03-01T12:00:00Z", "2026-03-01T12:00:00Z", "0", "bolt", "4"}, rows[1])
	assert.Equal(t, "", rows[3][8])

	dst := newTestRepo(t, "dst.db")
	n, err = ImportDecks(ctx, dst, &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := dst.Get(ctx, "d1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Burn, again", got.Name)
	assert.Equal(t, models.Modern, got.Format)
	require.Len(t, got.Entries, 2)
	assert.Equal(t, "bolt", got.Entries[0].Card.ID)
	assert.Equal(t, 20, got.Entries[1].Quantity)

	got, err = dst.Get(ctx, "d2")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Empty(t, got.Entries)
}

func TestImportOrdersByPosition(t *testing.T) {
	repo := newTestRepo(t, "pos.db")
	in := strings.Join([]string{
		"deck_id,user_id,name,format,position,card_id,quantity",
		"d1,u1,Mixed,standard,1,second,2",
		"d1,u1,Mixed,standard,0,first,3",
	}, "\n")

	n, err := ImportDecks(context.Background(), repo, strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := repo.Get(context.Background(), "d1")
	require.NoError(t, err)
	require.Len(t, got.Entries, 2)
	assert.Equal(t, "first", got.Entries[0].Card.ID)
}

func TestImportRejectsBadRows(t *testing.T) {
	repo := newTestRepo(t, "bad.db")

	_, err := ImportDecks(context.Background(), repo, strings.NewReader("deck_id,user_id,name,format,card_id,quantity\nd1,u1,X,standard,bolt,0\n"))
	assert.ErrorContains(t, err, "invalid quantity")

	_, err = ImportDecks(context.Background(), repo, strings.NewReader("deck_id,user_id,name,format\nd1,u1,X,brawl\n"))
	assert.ErrorContains(t, err, "unknown format")

	_, err = ImportDecks(context.Background(), repo, strings.NewReader("name,format\nX,standard\n"))
	assert.ErrorContains(t, err, "deck_id")

	// owner missing: foreign key fails
	_, err = ImportDecks(context.Background(), repo, strings.NewReader("deck_id,user_id,name,format\nd1,nobody,X,standard\n"))
	assert.Error(t, err)
}
