package server

import (
	"chat-relay/api/relay"
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/sink"
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-playground/validator/v10"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var validate = validator.New()

// RelayService is the relay as seen by the transports: the inbound operations plus
// the end-of-connection hook.
type RelayService interface {
	contract.IRelay
	Leave(ctx context.Context, record domain.ClientRecord) bool
}

type RelayServer struct {
	relay                RelayService
	connectionBufferSize int
	historyLimit         int
	log                  *slog.Logger
	stopping             chan struct{}
	stopOnce             sync.Once
}

var _ relay.RelayServer = (*RelayServer)(nil)

func NewRelayServer(log *slog.Logger, relayService RelayService, connectionBufferSize, historyLimit int) *RelayServer {
	if historyLimit <= 0 {
		historyLimit = relay.DefaultHistoryLimit
	}
	return &RelayServer{
		relay:                relayService,
		connectionBufferSize: connectionBufferSize,
		historyLimit:         historyLimit,
		log:                  log,
		stopping:             make(chan struct{}),
	}
}

// Shutdown ends every open Connect stream so that GracefulStop can return.
// Must be called before GracefulStop.
func (s *RelayServer) Shutdown() {
	s.stopOnce.Do(func() { close(s.stopping) })
}

// Connect registers the caller and turns the stream into its ClientHandle.
// This method blocks until the client disconnects, the relay drops the session,
// the server shuts down or a network error occurs.
// The session is dropped on return, unless the name was unregistered or taken over meanwhile.
func (s *RelayServer) Connect(req *relay.ConnectRequest, stream relay.ConnectServer) error {
	if err := validateRequest(req); err != nil {
		return err
	}
	handle := sink.NewConnectionSink(s.connectionBufferSize)
	record, err := s.relay.Register(stream.Context(), req.Name, handle)
	if err != nil {
		return errors.MapToGRPCError(err)
	}
	defer func() {
		handle.Close()
		s.relay.Leave(context.WithoutCancel(stream.Context()), record)
	}()

	for {
		select {
		case <-stream.Context().Done():
			s.log.Info("Client disconnected", "name", record.Name)
			return nil
		case <-s.stopping:
			s.log.Info("Closing stream on shutdown", "name", record.Name)
			return status.Error(codes.Unavailable, "relay shutting down")
		case <-handle.Done():
			s.log.Warn("Session dropped by the relay", "name", record.Name)
			return status.Error(codes.Aborted, "session dropped after a failed delivery")
		case msg := <-handle.Events():
			if err := stream.Send(relay.FromMessage(msg)); err != nil {
				s.log.Error("failed to push message to stream",
					"name", record.Name,
					"message_id", msg.ID,
					"error", err)
				return err
			}
		}
	}
}

func (s *RelayServer) Unregister(ctx context.Context, req *relay.UnregisterRequest) (*relay.Ack, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if err := s.relay.Unregister(ctx, req.Name); err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &relay.Ack{Ok: true}, nil
}

// SendMessage routes the message and returns once deliveries are queued.
// The sender receives its own copy of a private message through its Connect stream.
func (s *RelayServer) SendMessage(ctx context.Context, req *relay.SendMessageRequest) (*relay.Ack, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if err := s.relay.SendMessage(ctx, req.Sender, req.To, req.Text); err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &relay.Ack{Ok: true}, nil
}

func (s *RelayServer) GetHistory(ctx context.Context, req *relay.GetHistoryRequest) (*relay.GetHistoryResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	limit := s.historyLimit
	if req.Limit != nil {
		limit = *req.Limit
	}
	messages, err := s.relay.GetHistory(ctx, limit)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &relay.GetHistoryResponse{Messages: relay.FromMessages(messages)}, nil
}

func (s *RelayServer) ListClients(_ context.Context, _ *relay.ListClientsRequest) (*relay.ListClientsResponse, error) {
	return &relay.ListClientsResponse{Names: s.relay.ListClients()}, nil
}

func validateRequest(req any) error {
	if err := validate.Struct(req); err != nil {
		return errors.MapToGRPCError(fmt.Errorf("%w: %v", errors.ErrInvalidRequest, err))
	}
	return nil
}
