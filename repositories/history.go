package repositories

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/internal/wire"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protowire"
)

const historyPrefix = "msg:"

var _ contract.IHistory = (*HistoryRepository)(nil)

// HistoryRepository keeps the message log in a BadgerDB opened in memory.
// The key is formatted as "msg:{sequence_padded}": the 20-digit zero padding keeps the
// lexicographical order of the keys equal to the arrival order of the messages.
type HistoryRepository struct {
	mu  sync.Mutex // serializes sequence allocation and write
	db  *badger.DB
	log *slog.Logger
	seq uint64
}

// diskMessage is stored in the protobuf wire format of disk_message.proto.
type diskMessage struct {
	ID   uuid.UUID
	From string
	To   string
	Text string
	At   int64 // unix nanoseconds
	Kind string
}

func (dm *diskMessage) MarshalWire(b []byte) []byte {
	b = wire.AppendBytes(b, 1, dm.ID[:])
	b = wire.AppendString(b, 2, dm.From)
	b = wire.AppendString(b, 3, dm.To)
	b = wire.AppendString(b, 4, dm.Text)
	b = wire.AppendInt64(b, 5, dm.At)
	return wire.AppendString(b, 6, dm.Kind)
}

func (dm *diskMessage) UnmarshalWire(b []byte) error {
	*dm = diskMessage{}
	return wire.Unmarshal(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			var id []byte
			n, err := wire.Bytes(typ, b, &id)
			if err != nil || n == 0 {
				return n, err
			}
			if dm.ID, err = uuid.FromBytes(id); err != nil {
				return 0, fmt.Errorf("stored message id: %w", err)
			}
			return n, nil
		case 2:
			return wire.String(typ, b, &dm.From)
		case 3:
			return wire.String(typ, b, &dm.To)
		case 4:
			return wire.String(typ, b, &dm.Text)
		case 5:
			return wire.Int64(typ, b, &dm.At)
		case 6:
			return wire.String(typ, b, &dm.Kind)
		}
		return 0, nil
	})
}

// OpenInMemory opens a BadgerDB without any directory: nothing survives the process.
func OpenInMemory() (*badger.DB, error) {
	return badger.Open(badger.DefaultOptions("").
		WithInMemory(true).
		WithLogger(nil))
}

func NewHistoryRepository(db *badger.DB, log *slog.Logger) *HistoryRepository {
	return &HistoryRepository{db: db, log: log}
}

func (h *HistoryRepository) Append(_ context.Context, message domain.Message) error {
	dm := fromMessage(message)
	bytes := dm.MarshalWire(nil)

	h.mu.Lock()
	defer h.mu.Unlock()
	key := fmt.Sprintf("%s%020d", historyPrefix, h.seq+1)
	if err := h.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	}); err != nil {
		return err
	}
	h.seq++
	return nil
}

// Tail scans the log backwards from the newest key and returns the last limit
// messages, oldest first.
func (h *HistoryRepository) Tail(_ context.Context, limit int) ([]domain.Message, error) {
	if limit < 0 {
		return nil, fmt.Errorf("%d: %w", limit, errors.ErrInvalidLimit)
	}
	if limit == 0 {
		return []domain.Message{}, nil
	}

	var byteMessages [][]byte
	err := h.db.View(func(txn *badger.Txn) error {
		prefix := []byte(historyPrefix)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		options.PrefetchSize = min(limit, options.PrefetchSize)
		it := txn.NewIterator(options)
		defer it.Close()

		// Seek past the largest possible sequence, then walk back.
		for it.Seek(append(prefix, 0xFF)); it.ValidForPrefix(prefix); it.Next() {
			if len(byteMessages) == limit {
				break
			}
			value, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			byteMessages = append(byteMessages, value)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	messages := make([]domain.Message, 0, len(byteMessages))
	for _, b := range byteMessages {
		var dm diskMessage
		if err = dm.UnmarshalWire(b); err != nil {
			return nil, err
		}
		messages = append(messages, toMessage(dm))
	}
	slices.Reverse(messages)
	return messages, nil
}

func (h *HistoryRepository) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return int(h.seq)
}

func fromMessage(message domain.Message) diskMessage {
	return diskMessage{
		ID:   message.ID,
		From: message.From,
		To:   message.To,
		Text: message.Text,
		At:   message.At.UnixNano(),
		Kind: string(message.Kind),
	}
}

func toMessage(dm diskMessage) domain.Message {
	return domain.Message{
		ID:   dm.ID,
		From: dm.From,
		To:   dm.To,
		Text: dm.Text,
		At:   time.Unix(0, dm.At).UTC(),
		Kind: domain.Kind(dm.Kind),
	}
}
