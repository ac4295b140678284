package main

import (
	"chat-relay/api/relay"
	"chat-relay/contract"
	"chat-relay/infrastructure/grpc/server"
	"chat-relay/infrastructure/websocket"
	"chat-relay/internal"
	"chat-relay/moderation"
	"chat-relay/observability"
	"chat-relay/repositories"
	"chat-relay/runtime"
	"chat-relay/runtime/workers"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"google.golang.org/grpc"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run wires every component, serves until a signal arrives and returns
// so that deferred cleanups always execute.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. History backend
	history, closeHistory, err := openHistory(config, log)
	if err != nil {
		return err
	}
	defer closeHistory()

	// 3. Moderation, only when a dictionary is configured
	var censor runtime.Censor
	if words := moderation.ParseWords(config.CensoredWords); len(words) > 0 {
		replacement, _ := internal.CharacterRune(config.CharReplacement)
		moderator, err := moderation.NewModerator(words, replacement, log)
		if err != nil {
			return fmt.Errorf("moderation setup failed: %w", err)
		}
		censor = moderator
	}

	// 4. Relay core
	relayService := runtime.NewRelay(log, history, runtime.Options{
		NumberOfWorkers: config.NumberOfWorkers,
		BufferSize:      config.BufferSize,
		DeliveryTimeout: config.DeliveryTimeout,
		RestartInterval: config.RestartInterval,
		Censor:          censor,
	})
	relayService.Add(workers.NewTelemetryWorker(log, config.MetricInterval, relayService.Stats, observability.SampleProcess))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	relayService.Start(ctx)

	// 5. gRPC server
	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", address, err)
	}
	s := grpc.NewServer()
	relayServer := server.NewRelayServer(log, relayService, config.ConnectionBufferSize, config.HistoryDefaultLimit)
	relay.RegisterRelayServer(s, relayServer)

	errChan := make(chan error, 3)
	go func() {
		log.Info("Starting gRPC server", "address", address, "at", time.Now().UTC())
		if err := s.Serve(listener); err != nil && !stderrors.Is(err, grpc.ErrServerStopped) {
			errChan <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	// 6. Optional HTTP servers
	var httpServers []*http.Server
	if config.WebsocketPort > 0 {
		gateway := websocket.NewGateway(log, relayService, config.ConnectionBufferSize)
		httpServers = append(httpServers, &http.Server{
			Addr:              fmt.Sprintf("%s:%d", config.Host, config.WebsocketPort),
			Handler:           gateway.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		})
	}
	if config.DebugPort > 0 {
		httpServers = append(httpServers, internal.NewDebugServer(log, config.DebugPort, relayService, config.HistoryDefaultLimit))
	}
	for _, srv := range httpServers {
		go func(srv *http.Server) {
			log.Info("Starting HTTP server", "address", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
				errChan <- fmt.Errorf("HTTP server %s error: %w", srv.Addr, err)
			}
		}(srv)
	}

	// 7. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 8. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, srv := range httpServers {
		_ = srv.Shutdown(shutdownCtx)
	}
	relayServer.Shutdown()
	stopGRPC(shutdownCtx, s, log)
	relayService.Stop()
	log.Info("Program stopped cleanly")

	return nil
}

// stopGRPC waits for in-flight RPCs until ctx expires, then closes the remaining ones.
func stopGRPC(ctx context.Context, s *grpc.Server, log *slog.Logger) {
	done := make(chan struct{})
	go func() {
		s.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		log.Warn("gRPC graceful stop timed out, forcing")
		s.Stop()
	}
}

func openHistory(config internal.Config, log *slog.Logger) (contract.IHistory, func(), error) {
	if config.HistoryBackend != internal.HistoryBackendBadger {
		return runtime.NewHistory(), func() {}, nil
	}
	db, err := repositories.OpenInMemory()
	if err != nil {
		return nil, nil, fmt.Errorf("history opening failed: %w", err)
	}
	return repositories.NewHistoryRepository(db, log), func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}, nil
}
