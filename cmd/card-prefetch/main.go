package main

import (
	"context"
	"flag"
	"log"
	"strings"
	"time"

	"deckerr/internal/cards"
	"deckerr/internal/prefetch"
	"deckerr/pkg/database"
	"deckerr/pkg/utils"
)

type queryList []string

func (q *queryList) String() string { return strings.Join(*q, ", ") }

func (q *queryList) Set(v string) error {
	*q = append(*q, v)
	return nil
}

func main() {
	var queries queryList
	flag.Var(&queries, "query", "search query to cache (repeatable)")
	random := flag.Int("random", 0, "also cache this many random cards")
	mirror := flag.String("mirror", "", "mirror-server base URL, e.g. http://localhost:9000")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall timeout")
	flag.Parse()

	if len(queries) == 0 && *random == 0 && *mirror == "" {
		// basic lands back land suggestions
		queries = queryList{"t:basic t:land"}
	}

	cfg, err := utils.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	db := database.MustOpen(database.ConfigFor(cfg.DBPath))
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	client := cards.NewClient(cfg.CardsConfig())

	var sources []prefetch.Source
	for _, q := range queries {
		sources = append(sources, prefetch.NewQuerySource(client, q))
	}
	if *random > 0 {
		sources = append(sources, prefetch.NewRandomSource(client, *random))
	}
	if *mirror != "" {
		sources = append(sources, prefetch.NewMirrorSource(*mirror))
	}

	merged, err := prefetch.NewAggregator(sources...).FetchAndMerge(ctx)
	if err != nil {
		log.Fatalf("prefetch failed: %v", err)
	}
	log.Printf("merged cards: %d", len(merged))

	if err := prefetch.Save(ctx, cards.NewRepo(db), merged); err != nil {
		log.Fatalf("save failed: %v", err)
	}
	log.Printf("card cache populated at %s", database.ConfigFor(cfg.DBPath).Path)
}
