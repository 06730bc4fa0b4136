package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"time"

	"deckerr/internal/backup"
	"deckerr/internal/deck"
	"deckerr/pkg/database"
	"deckerr/pkg/utils"
)

func main() {
	out := flag.String("out", "data/decks.csv", "output CSV path for decks")
	flag.Parse()

	cfg, err := utils.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := database.MustOpen(database.ConfigFor(cfg.DBPath))
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		log.Fatalf("create output dir: %v", err)
	}
	f, err := os.Create(*out)
	if err != nil {
		log.Fatalf("create %s: %v", *out, err)
	}
	defer f.Close()

	n, err := backup.ExportDecks(ctx, deck.NewRepo(db), f)
	if err != nil {
		log.Fatalf("export decks failed: %v", err)
	}
	log.Printf("exported %d decks to %s", n, *out)
}
