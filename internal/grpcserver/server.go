package grpcserver

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"deckerr/internal/deck"
	"deckerr/internal/rules"
)

type Server struct {
	Decks *deck.Service
}

func NewServer(decks *deck.Service) *Server {
	return &Server{Decks: decks}
}

func (s *Server) Validate(ctx context.Context, req *ValidateRequest) (*ValidateResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request required")
	}
	if !req.Deck.Format.Valid() {
		return nil, status.Error(codes.InvalidArgument, "unknown format")
	}
	return &ValidateResponse{Result: rules.Validate(req.Deck)}, nil
}

func (s *Server) SuggestLands(ctx context.Context, req *SuggestLandsRequest) (*SuggestLandsResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request required")
	}
	return &SuggestLandsResponse{Suggestion: rules.SuggestLands(req.Cards, req.Format)}, nil
}

func (s *Server) GetDeck(ctx context.Context, req *GetDeckRequest) (*GetDeckResponse, error) {
	userID := strings.TrimSpace(req.UserID)
	deckID := strings.TrimSpace(req.DeckID)
	if userID == "" || deckID == "" {
		return nil, status.Error(codes.InvalidArgument, "user_id and deck_id required")
	}
	if s.Decks == nil {
		return nil, status.Error(codes.Unavailable, "deck storage not configured")
	}

	d, err := s.Decks.Get(ctx, userID, deckID)
	switch {
	case errors.Is(err, deck.ErrNotFound):
		return nil, status.Error(codes.NotFound, "not found")
	case errors.Is(err, deck.ErrForbidden):
		return nil, status.Error(codes.PermissionDenied, "forbidden")
	case err != nil:
		return nil, status.Error(codes.Internal, "get failed")
	}

	return &GetDeckResponse{Deck: *d, Analysis: deck.AnalyzeDeck(*d)}, nil
}

// LoggingInterceptor logs method, status code and latency of unary calls.
func LoggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	log.Printf("[grpc] %s %s %s", info.FullMethod, status.Code(err), time.Since(start))
	return resp, err
}
