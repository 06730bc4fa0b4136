package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"deckerr/internal/backup"
	"deckerr/internal/deck"
	"deckerr/pkg/database"
	"deckerr/pkg/utils"
)

func main() {
	in := flag.String("in", "data/decks.csv", "input CSV path for decks")
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

	f, err := os.Open(*in)
	if err != nil {
		log.Fatalf("open %s: %v", *in, err)
	}
	defer f.Close()

	n, err := backup.ImportDecks(ctx, deck.NewRepo(db), f)
	if err != nil {
		log.Fatalf("import decks failed: %v", err)
	}
	log.Printf("imported %d decks from %s", n, *in)
}
