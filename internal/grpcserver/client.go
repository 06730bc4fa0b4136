package grpcserver

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Client calls DeckService with the JSON codec.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Dial opens a plaintext connection to addr. The caller closes it.
func Dial(addr string, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(CodecName)),
	}, opts...)
	cc, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return cc, nil
}

func (c *Client) Validate(ctx context.Context, in *ValidateRequest) (*ValidateResponse, error) {
	out := new(ValidateResponse)
	if err := c.invoke(ctx, "Validate", in, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SuggestLands(ctx context.Context, in *SuggestLandsRequest) (*SuggestLandsResponse, error) {
	out := new(SuggestLandsResponse)
	if err := c.invoke(ctx, "SuggestLands", in, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetDeck(ctx context.Context, in *GetDeckRequest) (*GetDeckResponse, error) {
	out := new(GetDeckResponse)
	if err := c.invoke(ctx, "GetDeck", in, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) invoke(ctx context.Context, method string, in, out any) error {
	return c.cc.Invoke(ctx, fullMethod(method), in, out, grpc.CallContentSubtype(CodecName))
}
