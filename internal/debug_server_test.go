package internal

import (
	"chat-relay/domain"
	"chat-relay/observability"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

type fakeRelay struct {
	messages []domain.Message
}

func (f fakeRelay) Clients() []domain.ClientRecord {
	return []domain.ClientRecord{{Name: "alice", SessionID: uuid.New(), RegisteredAt: time.Now()}}
}

func (f fakeRelay) GetHistory(_ context.Context, limit int) ([]domain.Message, error) {
	return f.messages[max(len(f.messages)-limit, 0):], nil
}

func (f fakeRelay) Stats() observability.RelayStats {
	return observability.RelayStats{Clients: 1, Delivered: 3}
}

func newFakeRelay() fakeRelay {
	return fakeRelay{messages: []domain.Message{
		domain.NewMessage(domain.System, domain.Everyone, "alice joined", domain.KindSystem, time.Now()),
		domain.NewMessage("alice", domain.Everyone, "<b>hello</b>", domain.KindChat, time.Now()),
	}}
}

func TestDebugServer_Inspect_Page(t *testing.T) {
	req := require.New(t)
	server := NewDebugServer(logs.GetLoggerFromLevel(slog.LevelDebug), 0, newFakeRelay(), 50)

	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/inspect", nil))

	req.Equal(http.StatusOK, rec.Code)
	body := rec.Body.String()
	req.Contains(body, "alice joined")
	req.Contains(body, "&lt;b&gt;hello&lt;/b&gt;")
	req.Contains(body, "delivered 3")
}

func TestDebugServer_Inspect_JSON_With_Limit(t *testing.T) {
	req := require.New(t)
	server := NewDebugServer(logs.GetLoggerFromLevel(slog.LevelDebug), 0, newFakeRelay(), 50)

	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/inspect.json?limit=1", nil))

	req.Equal(http.StatusOK, rec.Code)
	var data PageData
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &data))
	req.Equal(1, data.Limit)
	req.Len(data.Items, 1)
	req.Equal("alice", data.Items[0].From)
	req.Len(data.Clients, 1)
	req.Equal(uint64(3), data.Stats.Delivered)
}

func TestDebugServer_Invalid_Limit(t *testing.T) {
	req := require.New(t)
	server := NewDebugServer(logs.GetLoggerFromLevel(slog.LevelDebug), 0, newFakeRelay(), 50)

	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/inspect?limit=abc", nil))

	req.Equal(http.StatusBadRequest, rec.Code)
}

func TestConfig_Validate(t *testing.T) {
	req := require.New(t)
	config := Config{
		NumberOfWorkers: 4,
		BufferSize:      10,
		DeliveryTimeout: time.Second,
		HistoryBackend:  HistoryBackendMemory,
		CharReplacement: "*",
	}
	req.NoError(config.Validate())

	badBackend := config
	badBackend.HistoryBackend = "postgres"
	req.Error(badBackend.Validate())

	badChar := config
	badChar.CharReplacement = "**"
	req.Error(badChar.Validate())

	noWorker := config
	noWorker.NumberOfWorkers = 0
	req.Error(noWorker.Validate())
}

func TestCharacterRune(t *testing.T) {
	req := require.New(t)
	r, err := CharacterRune("#")
	req.NoError(err)
	req.Equal('#', r)

	_, err = CharacterRune("")
	req.Error(err)
}
