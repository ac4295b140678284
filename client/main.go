package main

import (
	"bufio"
	grpcclient "chat-relay/infrastructure/grpc/client"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mama165/sdk-go/logs"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

const callTimeout = 5 * time.Second

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	config, err := LoadConfig()
	if err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := grpcclient.Dial(config.ServerAddress, config.User)
	if err != nil {
		return exitRuntime, err
	}
	defer func() {
		log.Debug("Closing connection...")
		_ = client.Close()
	}()

	renderer := NewRenderer(os.Stdout, config.User, config.Colours)

	// The stream registers the user; it ends on server shutdown or name conflict.
	listenErr := make(chan error, 1)
	go func() {
		listenErr <- client.Listen(ctx, renderer.Message)
	}()

	renderer.Info(fmt.Sprintf(">>> Connected to %s as %s (/help for commands)", config.ServerAddress, config.User))

	lines := make(chan string)
	go readLines(os.Stdin, lines)

	for {
		select {
		case <-ctx.Done():
			unregister(client, log)
			return exitOK, nil
		case err := <-listenErr:
			if err != nil {
				return exitRuntime, fmt.Errorf("stream error: %w", err)
			}
			return exitOK, nil
		case line, ok := <-lines:
			if !ok {
				unregister(client, log)
				return exitOK, nil
			}
			cmd, err := ParseCommand(line)
			if err != nil {
				renderer.Error(err)
				continue
			}
			if cmd.Kind == CommandExit {
				unregister(client, log)
				return exitOK, nil
			}
			if err := execute(ctx, client, renderer, cmd); err != nil {
				renderer.Error(err)
			}
		}
	}
}

func execute(ctx context.Context, client *grpcclient.RelayClient, renderer *Renderer, cmd Command) error {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	switch cmd.Kind {
	case CommandSend:
		return client.Send(ctx, cmd.To, cmd.Text)
	case CommandWho:
		names, err := client.Online(ctx)
		if err != nil {
			return err
		}
		renderer.Online(names)
	case CommandHistory:
		messages, err := client.History(ctx, cmd.Limit)
		if err != nil {
			return err
		}
		renderer.History(messages)
	case CommandHelp:
		renderer.Info(helpText)
	}
	return nil
}

func unregister(client *grpcclient.RelayClient, log *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()
	if err := client.Unregister(ctx); err != nil {
		log.Debug("Unregister failed", "error", err)
	}
}

func readLines(in io.Reader, lines chan<- string) {
	defer close(lines)
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		lines <- scanner.Text()
	}
}
