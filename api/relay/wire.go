package relay

import (
	"chat-relay/internal/wire"

	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers follow relay.proto.

var (
	_ wire.Message = (*ConnectRequest)(nil)
	_ wire.Message = (*UnregisterRequest)(nil)
	_ wire.Message = (*SendMessageRequest)(nil)
	_ wire.Message = (*GetHistoryRequest)(nil)
	_ wire.Message = (*ListClientsRequest)(nil)
	_ wire.Message = (*Ack)(nil)
	_ wire.Message = (*GetHistoryResponse)(nil)
	_ wire.Message = (*ListClientsResponse)(nil)
	_ wire.Message = (*ChatEvent)(nil)
)

func (r *ConnectRequest) MarshalWire(b []byte) []byte {
	return wire.AppendString(b, 1, r.Name)
}

func (r *ConnectRequest) UnmarshalWire(b []byte) error {
	*r = ConnectRequest{}
	return wire.Unmarshal(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == 1 {
			return wire.String(typ, b, &r.Name)
		}
		return 0, nil
	})
}

func (r *UnregisterRequest) MarshalWire(b []byte) []byte {
	return wire.AppendString(b, 1, r.Name)
}

func (r *UnregisterRequest) UnmarshalWire(b []byte) error {
	*r = UnregisterRequest{}
	return wire.Unmarshal(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == 1 {
			return wire.String(typ, b, &r.Name)
		}
		return 0, nil
	})
}

func (r *SendMessageRequest) MarshalWire(b []byte) []byte {
	b = wire.AppendString(b, 1, r.Sender)
	b = wire.AppendString(b, 2, r.To)
	return wire.AppendString(b, 3, r.Text)
}

func (r *SendMessageRequest) UnmarshalWire(b []byte) error {
	*r = SendMessageRequest{}
	return wire.Unmarshal(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return wire.String(typ, b, &r.Sender)
		case 2:
			return wire.String(typ, b, &r.To)
		case 3:
			return wire.String(typ, b, &r.Text)
		}
		return 0, nil
	})
}

// A nil Limit is not written at all, a zero Limit is.
func (r *GetHistoryRequest) MarshalWire(b []byte) []byte {
	if r.Limit == nil {
		return b
	}
	return wire.AppendOptionalInt64(b, 1, int64(*r.Limit))
}

func (r *GetHistoryRequest) UnmarshalWire(b []byte) error {
	*r = GetHistoryRequest{}
	return wire.Unmarshal(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return 0, nil
		}
		var limit int64
		n, err := wire.Int64(typ, b, &limit)
		if n > 0 {
			r.Limit = new(int)
			*r.Limit = int(limit)
		}
		return n, err
	})
}

func (r *ListClientsRequest) MarshalWire(b []byte) []byte {
	return b
}

func (r *ListClientsRequest) UnmarshalWire(b []byte) error {
	return wire.Unmarshal(b, func(protowire.Number, protowire.Type, []byte) (int, error) {
		return 0, nil
	})
}

func (a *Ack) MarshalWire(b []byte) []byte {
	return wire.AppendBool(b, 1, a.Ok)
}

func (a *Ack) UnmarshalWire(b []byte) error {
	*a = Ack{}
	return wire.Unmarshal(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == 1 {
			return wire.Bool(typ, b, &a.Ok)
		}
		return 0, nil
	})
}

func (r *GetHistoryResponse) MarshalWire(b []byte) []byte {
	for _, event := range r.Messages {
		b = wire.AppendMessage(b, 1, event)
	}
	return b
}

func (r *GetHistoryResponse) UnmarshalWire(b []byte) error {
	*r = GetHistoryResponse{}
	return wire.Unmarshal(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return 0, nil
		}
		event := &ChatEvent{}
		n, err := wire.Embedded(typ, b, event)
		if n > 0 {
			r.Messages = append(r.Messages, event)
		}
		return n, err
	})
}

func (r *ListClientsResponse) MarshalWire(b []byte) []byte {
	for _, name := range r.Names {
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendString(b, name)
	}
	return b
}

func (r *ListClientsResponse) UnmarshalWire(b []byte) error {
	*r = ListClientsResponse{}
	return wire.Unmarshal(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return 0, nil
		}
		var name string
		n, err := wire.String(typ, b, &name)
		if n > 0 {
			r.Names = append(r.Names, name)
		}
		return n, err
	})
}

func (e *ChatEvent) MarshalWire(b []byte) []byte {
	b = wire.AppendString(b, 1, e.ID)
	b = wire.AppendString(b, 2, e.From)
	b = wire.AppendString(b, 3, e.To)
	b = wire.AppendString(b, 4, e.Text)
	b = wire.AppendInt64(b, 5, e.Ts)
	return wire.AppendString(b, 6, e.Kind)
}

func (e *ChatEvent) UnmarshalWire(b []byte) error {
	*e = ChatEvent{}
	return wire.Unmarshal(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return wire.String(typ, b, &e.ID)
		case 2:
			return wire.String(typ, b, &e.From)
		case 3:
			return wire.String(typ, b, &e.To)
		case 4:
			return wire.String(typ, b, &e.Text)
		case 5:
			return wire.Int64(typ, b, &e.Ts)
		case 6:
			return wire.String(typ, b, &e.Kind)
		}
		return 0, nil
	})
}
