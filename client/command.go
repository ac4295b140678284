package main

import (
	"chat-relay/domain"
	"fmt"
	"strconv"
	"strings"
)

type CommandKind int

const (
	CommandNone CommandKind = iota
	CommandSend
	CommandWho
	CommandHistory
	CommandExit
	CommandHelp
)

// Command is one parsed line of user input.
type Command struct {
	Kind  CommandKind
	To    string
	Text  string
	Limit *int
}

// ParseCommand reads one input line.
//
//	@bob hello    private message to bob
//	hello         message to everyone
//	/who          online users
//	/history [n]  last n messages
//	exit          unregister and quit
func ParseCommand(line string) (Command, error) {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return Command{Kind: CommandNone}, nil
	case line == "exit" || line == "/exit" || line == "/quit":
		return Command{Kind: CommandExit}, nil
	case line == "/who":
		return Command{Kind: CommandWho}, nil
	case line == "/help":
		return Command{Kind: CommandHelp}, nil
	case line == "/history" || strings.HasPrefix(line, "/history "):
		arg := strings.TrimSpace(strings.TrimPrefix(line, "/history"))
		if arg == "" {
			return Command{Kind: CommandHistory}, nil
		}
		n, err := strconv.Atoi(arg)
		if err != nil || n < 0 {
			return Command{}, fmt.Errorf("usage: /history [n], got %q", arg)
		}
		return Command{Kind: CommandHistory, Limit: &n}, nil
	case strings.HasPrefix(line, "/"):
		return Command{}, fmt.Errorf("unknown command %q, try /help", line)
	case strings.HasPrefix(line, "@"):
		to, text, _ := strings.Cut(line[1:], " ")
		if to == "" {
			return Command{}, fmt.Errorf("usage: @name message")
		}
		return Command{Kind: CommandSend, To: to, Text: strings.TrimSpace(text)}, nil
	default:
		return Command{Kind: CommandSend, To: domain.Everyone, Text: line}, nil
	}
}

const helpText = `@name message   private message
message         message to everyone
/who            online users
/history [n]    last n messages
exit            leave the chat`
