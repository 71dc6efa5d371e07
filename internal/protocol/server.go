package protocol

import (
	"fmt"

	"github.com/osse101/invengine/internal/domain"
)

// MarshalServer encodes a ServerMessage. The encoding is deterministic, so
// a replayed OpResult yields the same bytes as the original.
func MarshalServer(m ServerMessage) ([]byte, error) {
	var e encoder
	e.uint(fieldServerSequence, uint64(m.Sequence))
	switch p := m.Payload.(type) {
	case AuthResult:
		e.message(fieldServerAuthResult, func(e *encoder) {
			e.bool(1, p.Success)
			e.string(2, p.ErrorMessage)
		})
	case Pong:
		e.message(fieldServerPong, func(e *encoder) {
			e.int(1, p.ClientTimeMs)
			e.int(2, p.ServerTimeMs)
		})
	case InventoryOpResult:
		if p.Result == nil {
			return nil, fmt.Errorf("%w: nil op result", ErrUnknownPayload)
		}
		e.message(fieldServerInventoryOpResult, func(e *encoder) { encodeResult(e, p.Result) })
	case InventoryUpdate:
		e.message(fieldServerInventoryUpdate, func(e *encoder) {
			for _, st := range p.Updated {
				e.message(1, func(e *encoder) { encodeState(e, st) })
			}
		})
	case ContainerOpened:
		e.message(fieldServerContainerOpened, func(e *encoder) {
			e.message(1, func(e *encoder) { encodeState(e, p.State) })
		})
	case ContainerClosed:
		e.message(fieldServerContainerClosed, func(e *encoder) { e.uint(1, p.EntityID) })
	case Error:
		e.message(fieldServerError, func(e *encoder) {
			e.int(1, int64(p.Code))
			e.string(2, p.Message)
		})
	case Warning:
		e.message(fieldServerWarning, func(e *encoder) {
			e.int(1, int64(p.Code))
			e.string(2, p.Message)
		})
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownPayload, m.Payload)
	}
	return e.b, nil
}

// UnmarshalServer decodes a ServerMessage.
func UnmarshalServer(b []byte) (ServerMessage, error) {
	var m ServerMessage
	err := walk(b, func(f field) error {
		if f.Num == fieldServerSequence {
			if err := f.wantVarint(); err != nil {
				return err
			}
			m.Sequence = f.u32()
			return nil
		}
		if f.Num < fieldServerAuthResult || f.Num > fieldServerWarning {
			return nil
		}
		if err := f.wantBytes(); err != nil {
			return err
		}
		var err error
		switch f.Num {
		case fieldServerAuthResult:
			m.Payload, err = decodeAuthResult(f.Bytes)
		case fieldServerPong:
			m.Payload, err = decodePong(f.Bytes)
		case fieldServerInventoryOpResult:
			var r *domain.OpResult
			r, err = decodeResult(f.Bytes)
			m.Payload = InventoryOpResult{Result: r}
		case fieldServerInventoryUpdate:
			m.Payload, err = decodeUpdate(f.Bytes)
		case fieldServerContainerOpened:
			m.Payload, err = decodeOpened(f.Bytes)
		case fieldServerContainerClosed:
			var c ContainerClosed
			err = walk(f.Bytes, func(f field) error {
				if f.Num == 1 {
					c.EntityID = f.Varint
				}
				return nil
			})
			m.Payload = c
		case fieldServerError:
			var code int32
			var msg string
			code, msg, err = decodeCoded(f.Bytes)
			m.Payload = Error{Code: domain.ErrorCode(code), Message: msg}
		case fieldServerWarning:
			var code int32
			var msg string
			code, msg, err = decodeCoded(f.Bytes)
			m.Payload = Warning{Code: domain.WarningCode(code), Message: msg}
		}
		return err
	})
	return m, err
}

func decodeAuthResult(b []byte) (AuthResult, error) {
	var a AuthResult
	err := walk(b, func(f field) error {
		switch f.Num {
		case 1:
			a.Success = f.Varint != 0
		case 2:
			a.ErrorMessage = string(f.Bytes)
		}
		return nil
	})
	return a, err
}

func decodePong(b []byte) (Pong, error) {
	var p Pong
	err := walk(b, func(f field) error {
		switch f.Num {
		case 1:
			p.ClientTimeMs = int64(f.Varint)
		case 2:
			p.ServerTimeMs = int64(f.Varint)
		}
		return nil
	})
	return p, err
}

func decodeUpdate(b []byte) (InventoryUpdate, error) {
	var u InventoryUpdate
	err := walk(b, func(f field) error {
		if f.Num != 1 {
			return nil
		}
		st, err := decodeState(f.Bytes)
		if err != nil {
			return err
		}
		u.Updated = append(u.Updated, st)
		return nil
	})
	return u, err
}

func decodeOpened(b []byte) (ContainerOpened, error) {
	var o ContainerOpened
	err := walk(b, func(f field) error {
		if f.Num != 1 {
			return nil
		}
		st, err := decodeState(f.Bytes)
		o.State = st
		return err
	})
	return o, err
}

func decodeCoded(b []byte) (int32, string, error) {
	var code int32
	var msg string
	err := walk(b, func(f field) error {
		switch f.Num {
		case 1:
			code = int32(f.Varint)
		case 2:
			msg = string(f.Bytes)
		}
		return nil
	})
	return code, msg, err
}

// ServerType names the payload of m for logs and metrics.
func ServerType(m ServerMessage) string {
	switch m.Payload.(type) {
	case AuthResult:
		return "auth_result"
	case Pong:
		return "pong"
	case InventoryOpResult:
		return "inventory_op_result"
	case InventoryUpdate:
		return "inventory_update"
	case ContainerOpened:
		return "container_opened"
	case ContainerClosed:
		return "container_closed"
	case Error:
		return "error"
	case Warning:
		return "warning"
	}
	return TypeUnknown
}
