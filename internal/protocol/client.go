package protocol

import "fmt"

// MarshalClient encodes a ClientMessage.
func MarshalClient(m ClientMessage) ([]byte, error) {
	var e encoder
	e.uint(fieldClientSequence, uint64(m.Sequence))
	switch p := m.Payload.(type) {
	case Auth:
		e.message(fieldClientAuth, func(e *encoder) {
			e.string(1, p.Token)
			e.string(2, p.ClientVersion)
		})
	case Ping:
		e.message(fieldClientPing, func(e *encoder) { e.int(1, p.ClientTimeMs) })
	case PlayerAction:
		e.bytes(fieldClientPlayerAction, p.Raw)
	case MovementMode:
		e.bytes(fieldClientMovementMode, p.Raw)
	case InventoryOpRequest:
		e.message(fieldClientInventoryOp, func(e *encoder) {
			e.message(1, func(e *encoder) { encodeOp(e, p.Op) })
		})
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownPayload, m.Payload)
	}
	return e.b, nil
}

// UnmarshalClient decodes a ClientMessage. A frame without a known payload
// decodes with a nil Payload so the caller can still answer using its sequence.
func UnmarshalClient(b []byte) (ClientMessage, error) {
	var m ClientMessage
	if len(b) > MaxFrameSize {
		return m, fmt.Errorf("%w: %d bytes", ErrMalformed, len(b))
	}
	err := walk(b, func(f field) error {
		if f.Num == fieldClientSequence {
			if err := f.wantVarint(); err != nil {
				return err
			}
			m.Sequence = f.u32()
			return nil
		}
		if f.Num < fieldClientAuth || f.Num > fieldClientInventoryOp {
			return nil
		}
		if err := f.wantBytes(); err != nil {
			return err
		}
		var err error
		switch f.Num {
		case fieldClientAuth:
			m.Payload, err = decodeAuth(f.Bytes)
		case fieldClientPing:
			m.Payload, err = decodePing(f.Bytes)
		case fieldClientPlayerAction:
			m.Payload = PlayerAction{Raw: append([]byte(nil), f.Bytes...)}
		case fieldClientMovementMode:
			m.Payload = MovementMode{Raw: append([]byte(nil), f.Bytes...)}
		case fieldClientInventoryOp:
			m.Payload, err = decodeOpRequest(f.Bytes)
		}
		return err
	})
	return m, err
}

func decodeAuth(b []byte) (Auth, error) {
	var a Auth
	err := walk(b, func(f field) error {
		switch f.Num {
		case 1:
			a.Token = string(f.Bytes)
		case 2:
			a.ClientVersion = string(f.Bytes)
		default:
			return nil
		}
		return f.wantBytes()
	})
	return a, err
}

func decodePing(b []byte) (Ping, error) {
	var p Ping
	err := walk(b, func(f field) error {
		if f.Num != 1 {
			return nil
		}
		p.ClientTimeMs = int64(f.Varint)
		return f.wantVarint()
	})
	return p, err
}

func decodeOpRequest(b []byte) (InventoryOpRequest, error) {
	var r InventoryOpRequest
	found := false
	err := walk(b, func(f field) error {
		if f.Num != 1 {
			return nil
		}
		if err := f.wantBytes(); err != nil {
			return err
		}
		op, err := decodeOp(f.Bytes)
		r.Op, found = op, true
		return err
	})
	if err == nil && !found {
		err = fmt.Errorf("%w: inventory op without op", ErrMalformed)
	}
	return r, err
}

// ClientType names the payload of m for logs and metrics.
func ClientType(m ClientMessage) string {
	switch m.Payload.(type) {
	case Auth:
		return TypeAuth
	case Ping:
		return TypePing
	case PlayerAction:
		return TypePlayerAction
	case MovementMode:
		return TypeMovementMode
	case InventoryOpRequest:
		return TypeInventoryOp
	}
	return TypeUnknown
}
