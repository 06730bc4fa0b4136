package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"path/filepath"
	"time"

	"deckerr/internal/cards"
	"deckerr/pkg/database"
	"deckerr/pkg/models"
	"deckerr/pkg/utils"
)

const page = 500

func main() {
	var (
		outPath = flag.String("out", "data/mirror.json", "output JSON path")
		limit   = flag.Int("limit", 0, "maximum cards to export (0 = all)")
	)
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

	repo := cards.NewRepo(db)
	out := []models.Card{}
	for offset := 0; ; offset += page {
		batch, err := repo.List(ctx, page, offset)
		if err != nil {
			log.Fatalf("list cards: %v", err)
		}
		out = append(out, batch...)
		if len(batch) < page || (*limit > 0 && len(out) >= *limit) {
			break
		}
	}
	if *limit > 0 && len(out) > *limit {
		out = out[:*limit]
	}

	if err := os.MkdirAll(filepath.Dir(*outPath), 0o755); err != nil {
		log.Fatalf("create output dir: %v", err)
	}
	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		log.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(*outPath, b, 0o644); err != nil {
		log.Fatalf("write %s: %v", *outPath, err)
	}
	log.Printf("exported %d cards to %s", len(out), *outPath)
}
