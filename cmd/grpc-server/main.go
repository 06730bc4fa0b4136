package main

import (
	"log"
	"net"

	"google.golang.org/grpc"

	"deckerr/internal/cards"
	"deckerr/internal/deck"
	"deckerr/internal/grpcserver"
	"deckerr/pkg/database"
	"deckerr/pkg/utils"
)

func main() {
	cfg, err := utils.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db := database.MustOpen(database.ConfigFor(cfg.DBPath))
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	listener, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Fatalf("grpc listen failed: %v", err)
	}

	cardsCfg := cfg.CardsConfig()
	source := cards.NewCachedSource(cards.NewClient(cardsCfg), cards.NewRepo(db), cardsCfg.CacheTTL)
	svc := grpcserver.NewServer(deck.NewService(deck.NewRepo(db), source, nil))

	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(grpcserver.LoggingInterceptor))
	grpcserver.RegisterDeckServiceServer(grpcServer, svc)

	log.Printf("gRPC server listening on %s", cfg.GRPCAddr)
	if err := grpcServer.Serve(listener); err != nil {
		log.Fatalf("grpc server stopped: %v", err)
	}
}
