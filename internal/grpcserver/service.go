package grpcserver

import (
	"context"

	"google.golang.org/grpc"

	"deckerr/internal/deck"
	"deckerr/internal/rules"
	"deckerr/pkg/models"
)

const serviceName = "deckerr.DeckService"

type ValidateRequest struct {
	Deck models.Deck `json:"deck"`
}

type ValidateResponse struct {
	Result rules.ValidationResult `json:"result"`
}

type SuggestLandsRequest struct {
	Format models.Format      `json:"format"`
	Cards  []models.DeckEntry `json:"cards"`
}

type SuggestLandsResponse struct {
	Suggestion rules.LandSuggestion `json:"suggestion"`
}

type GetDeckRequest struct {
	UserID string `json:"user_id"`
	DeckID string `json:"deck_id"`
}

type GetDeckResponse struct {
	Deck     models.Deck   `json:"deck"`
	Analysis deck.Analysis `json:"analysis"`
}

// DeckServiceServer is implemented by Server.
type DeckServiceServer interface {
	Validate(context.Context, *ValidateRequest) (*ValidateResponse, error)
	SuggestLands(context.Context, *SuggestLandsRequest) (*SuggestLandsResponse, error)
	GetDeck(context.Context, *GetDeckRequest) (*GetDeckResponse, error)
}

func RegisterDeckServiceServer(s grpc.ServiceRegistrar, srv DeckServiceServer) {
	s.RegisterService(&DeckServiceDesc, srv)
}

var DeckServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*DeckServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Validate", Handler: validateHandler},
		{MethodName: "SuggestLands", Handler: suggestLandsHandler},
		{MethodName: "GetDeck", Handler: getDeckHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "deckerr/deck_service",
}

func fullMethod(name string) string {
	return "/" + serviceName + "/" + name
}

func validateHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ValidateRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DeckServiceServer).Validate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod("Validate")}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(DeckServiceServer).Validate(ctx, req.(*ValidateRequest))
	})
}

func suggestLandsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(SuggestLandsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DeckServiceServer).SuggestLands(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod("SuggestLands")}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(DeckServiceServer).SuggestLands(ctx, req.(*SuggestLandsRequest))
	})
}

func getDeckHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetDeckRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DeckServiceServer).GetDeck(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod("GetDeck")}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(DeckServiceServer).GetDeck(ctx, req.(*GetDeckRequest))
	})
}
