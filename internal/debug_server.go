package internal

import (
	"chat-relay/domain"
	"chat-relay/observability"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

//go:embed inspect.html
var templatesFS embed.FS

// Inspectable is the read side of the relay shown by the debug server.
type Inspectable interface {
	Clients() []domain.ClientRecord
	GetHistory(ctx context.Context, limit int) ([]domain.Message, error)
	Stats() observability.RelayStats
}

type InspectRow struct {
	Timestamp string
	ID        string
	From      string
	To        string
	Kind      string
	Text      string
}

type ClientRow struct {
	Name         string
	Session      string
	RegisteredAt string
}

type PageData struct {
	Limit    int
	Clients  []ClientRow
	Items    []InspectRow
	Stats    observability.RelayStats
	Process  *observability.ProcessStats
	Rendered string
}

// NewDebugServer builds the inspection server; the caller owns ListenAndServe and Shutdown.
// GET /inspect renders the page, /inspect.json returns the same data as JSON.
func NewDebugServer(log *slog.Logger, port int, relay Inspectable, defaultLimit int) *http.Server {
	tmpl := template.Must(template.ParseFS(templatesFS, "inspect.html"))
	mux := http.NewServeMux()

	mux.HandleFunc("/inspect", func(w http.ResponseWriter, r *http.Request) {
		data, err := buildPage(r, relay, defaultLimit)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := tmpl.Execute(w, data); err != nil {
			log.Warn("inspect page rendering failed", "error", err)
		}
	})

	mux.HandleFunc("/inspect.json", func(w http.ResponseWriter, r *http.Request) {
		data, err := buildPage(r, relay, defaultLimit)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(data)
	})

	return &http.Server{
		Addr:              fmt.Sprintf("0.0.0.0:%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func buildPage(r *http.Request, relay Inspectable, defaultLimit int) (PageData, error) {
	limit := defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return PageData{}, fmt.Errorf("invalid limit %q", raw)
		}
		limit = parsed
	}
	messages, err := relay.GetHistory(r.Context(), limit)
	if err != nil {
		return PageData{}, err
	}

	data := PageData{
		Limit:    limit,
		Stats:    relay.Stats(),
		Rendered: time.Now().Format(time.TimeOnly),
	}
	for _, c := range relay.Clients() {
		data.Clients = append(data.Clients, ClientRow{
			Name:         c.Name,
			Session:      c.SessionID.String()[:8],
			RegisteredAt: c.RegisteredAt.Format(time.TimeOnly),
		})
	}
	for _, m := range messages {
		data.Items = append(data.Items, MessageRow(m))
	}
	if proc, err := observability.SampleProcess(); err == nil {
		data.Process = &proc
	}
	return data, nil
}

func MessageRow(m domain.Message) InspectRow {
	id := m.ID.String()
	if len(id) > 8 {
		id = id[:8]
	}
	return InspectRow{
		Timestamp: m.At.Format("15:04:05.000"),
		ID:        id,
		From:      m.From,
		To:        m.To,
		Kind:      string(m.Kind),
		Text:      m.Text,
	}
}
