package relay

import (
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func TestCodec_Reads_Standard_Protobuf(t *testing.T) {
	req := require.New(t)

	// Given bytes written by the protobuf runtime, StringValue shares ConnectRequest's layout
	data, err := proto.Marshal(wrapperspb.String("alice"))
	req.NoError(err)

	// When the relay decodes them
	var connect ConnectRequest
	req.NoError(codec{}.Unmarshal(data, &connect))

	// Then the name is there
	req.Equal("alice", connect.Name)

	// And the way back is byte for byte the same
	encoded, err := codec{}.Marshal(&connect)
	req.NoError(err)
	req.Equal(data, encoded)
}

func TestCodec_Field_Layout(t *testing.T) {
	req := require.New(t)

	encoded, err := codec{}.Marshal(&SendMessageRequest{Sender: "a", To: "b", Text: "c"})
	req.NoError(err)
	req.Equal([]byte{0x0a, 1, 'a', 0x12, 1, 'b', 0x1a, 1, 'c'}, encoded)

	// Zero values are not written
	empty, err := codec{}.Marshal(&SendMessageRequest{})
	req.NoError(err)
	req.Empty(empty)
}

func TestCodec_History_Limit_Presence(t *testing.T) {
	req := require.New(t)

	// A zero limit is a real request for nothing, not the default
	zero := 0
	encoded, err := codec{}.Marshal(&GetHistoryRequest{Limit: &zero})
	req.NoError(err)
	var decoded GetHistoryRequest
	req.NoError(codec{}.Unmarshal(encoded, &decoded))
	req.NotNil(decoded.Limit)
	req.Equal(0, *decoded.Limit)

	negative := -3
	encoded, err = codec{}.Marshal(&GetHistoryRequest{Limit: &negative})
	req.NoError(err)
	req.NoError(codec{}.Unmarshal(encoded, &decoded))
	req.Equal(-3, *decoded.Limit)

	encoded, err = codec{}.Marshal(&GetHistoryRequest{})
	req.NoError(err)
	req.NoError(codec{}.Unmarshal(encoded, &decoded))
	req.Nil(decoded.Limit)
}

func TestCodec_Skips_Unknown_Fields(t *testing.T) {
	req := require.New(t)

	event := &ChatEvent{ID: "id", From: "alice", To: "EVERYONE", Text: "hi", Ts: 1_700_000_000_000, Kind: "chat"}
	encoded, err := codec{}.Marshal(&GetHistoryResponse{Messages: []*ChatEvent{event, {}}})
	req.NoError(err)

	// Given a newer server adding a field
	encoded = protowire.AppendTag(encoded, 9, protowire.VarintType)
	encoded = protowire.AppendVarint(encoded, 42)

	var decoded GetHistoryResponse
	req.NoError(codec{}.Unmarshal(encoded, &decoded))
	req.Len(decoded.Messages, 2)
	req.Equal(event, decoded.Messages[0])
	req.Equal(&ChatEvent{}, decoded.Messages[1])
}

func TestCodec_Errors(t *testing.T) {
	req := require.New(t)

	_, err := codec{}.Marshal(struct{}{})
	req.Error(err)

	var names ListClientsResponse
	req.Error(codec{}.Unmarshal([]byte{0x0a, 5, 'a'}, &names))
	req.Error(codec{}.Unmarshal([]byte{0x0a}, &struct{}{}))
}
