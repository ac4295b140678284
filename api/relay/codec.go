package relay

import (
	"chat-relay/internal/wire"
	"fmt"

	"google.golang.org/grpc/encoding"
	"google.golang.org/protobuf/proto"
)

// CodecName is the gRPC content-subtype of the relay: "application/grpc+proto".
// The codec replaces the default one so that stubs generated from relay.proto
// talk to the relay unchanged.
const CodecName = "proto"

// codec writes the relay documents in the protobuf wire format of relay.proto.
// Generated protobuf messages still go through proto.Marshal.
type codec struct{}

func (codec) Marshal(v any) ([]byte, error) {
	switch m := v.(type) {
	case wire.Message:
		return m.MarshalWire(nil), nil
	case proto.Message:
		return proto.Marshal(m)
	default:
		return nil, fmt.Errorf("relay codec: cannot marshal %T", v)
	}
}

func (codec) Unmarshal(data []byte, v any) error {
	switch m := v.(type) {
	case wire.Message:
		return m.UnmarshalWire(data)
	case proto.Message:
		return proto.Unmarshal(data, m)
	default:
		return fmt.Errorf("relay codec: cannot unmarshal into %T", v)
	}
}

func (codec) Name() string {
	return CodecName
}

func init() {
	encoding.RegisterCodec(codec{})
}
