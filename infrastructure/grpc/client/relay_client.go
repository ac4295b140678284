package client

import (
	"chat-relay/api/relay"
	"chat-relay/domain"
	"chat-relay/errors"
	"context"
	stderrors "errors"
	"fmt"
	"io"

	"github.com/samber/lo"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

// RelayClient speaks to a relay server on behalf of one user.
type RelayClient struct {
	conn *grpc.ClientConn
	api  *relay.Client
	name string
}

// Dial prepares the connection; gRPC connects lazily on the first call.
func Dial(address, name string, opts ...grpc.DialOption) (*RelayClient, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(address, opts...)
	if err != nil {
		return nil, fmt.Errorf("could not connect to server at %s: %w", address, err)
	}
	return &RelayClient{conn: conn, api: relay.NewClient(conn), name: name}, nil
}

func (c *RelayClient) Name() string {
	return c.name
}

func (c *RelayClient) Close() error {
	return c.conn.Close()
}

// Listen registers the user and calls onMessage for every delivered message.
// It blocks until ctx is done or the server ends the stream; registration errors
// such as ErrNameInUse are returned as relay sentinels.
func (c *RelayClient) Listen(ctx context.Context, onMessage func(domain.Message)) error {
	stream, err := c.api.Connect(ctx, &relay.ConnectRequest{Name: c.name})
	if err != nil {
		return errors.FromGRPCError(err)
	}
	for {
		event, err := stream.Recv()
		switch {
		case err == nil:
			onMessage(event.ToMessage())
		case stderrors.Is(err, io.EOF), status.Code(err) == codes.Canceled:
			return nil
		default:
			return errors.FromGRPCError(err)
		}
	}
}

func (c *RelayClient) Send(ctx context.Context, to, text string) error {
	_, err := c.api.SendMessage(ctx, &relay.SendMessageRequest{Sender: c.name, To: to, Text: text})
	return errors.FromGRPCError(err)
}

func (c *RelayClient) Unregister(ctx context.Context) error {
	_, err := c.api.Unregister(ctx, &relay.UnregisterRequest{Name: c.name})
	return errors.FromGRPCError(err)
}

// History fetches the last limit messages; a nil limit lets the server decide.
func (c *RelayClient) History(ctx context.Context, limit *int) ([]domain.Message, error) {
	resp, err := c.api.GetHistory(ctx, &relay.GetHistoryRequest{Limit: limit})
	if err != nil {
		return nil, errors.FromGRPCError(err)
	}
	return lo.Map(resp.Messages, func(item *relay.ChatEvent, _ int) domain.Message {
		return item.ToMessage()
	}), nil
}

func (c *RelayClient) Online(ctx context.Context) ([]string, error) {
	resp, err := c.api.ListClients(ctx, &relay.ListClientsRequest{})
	if err != nil {
		return nil, errors.FromGRPCError(err)
	}
	return resp.Names, nil
}
