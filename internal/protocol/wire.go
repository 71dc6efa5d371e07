package protocol

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// ErrMalformed is returned for frames that are not valid protobuf.
var ErrMalformed = errors.New("malformed frame")

// ErrUnknownPayload is returned when a frame carries no payload this server understands.
var ErrUnknownPayload = errors.New("unknown payload")

// encoder appends proto3 fields. Zero scalars are omitted; messages are always written.
type encoder struct {
	b []byte
}

func (e *encoder) uint(num protowire.Number, v uint64) {
	if v == 0 {
		return
	}
	e.b = protowire.AppendTag(e.b, num, protowire.VarintType)
	e.b = protowire.AppendVarint(e.b, v)
}

func (e *encoder) int(num protowire.Number, v int64) {
	e.uint(num, uint64(v))
}

// optUint writes v even when it is zero.
func (e *encoder) optUint(num protowire.Number, v *uint64) {
	if v == nil {
		return
	}
	e.b = protowire.AppendTag(e.b, num, protowire.VarintType)
	e.b = protowire.AppendVarint(e.b, *v)
}

func (e *encoder) bool(num protowire.Number, v bool) {
	if v {
		e.uint(num, protowire.EncodeBool(v))
	}
}

func (e *encoder) string(num protowire.Number, s string) {
	if s == "" {
		return
	}
	e.b = protowire.AppendTag(e.b, num, protowire.BytesType)
	e.b = protowire.AppendString(e.b, s)
}

func (e *encoder) bytes(num protowire.Number, v []byte) {
	e.b = protowire.AppendTag(e.b, num, protowire.BytesType)
	e.b = protowire.AppendBytes(e.b, v)
}

func (e *encoder) message(num protowire.Number, fn func(*encoder)) {
	var sub encoder
	fn(&sub)
	e.bytes(num, sub.b)
}

// field is one decoded field. Varint holds varint values, Bytes length-delimited ones.
type field struct {
	Num    protowire.Number
	Type   protowire.Type
	Varint uint64
	Bytes  []byte
}

// walk calls fn for each field in b. Fixed-width and group fields are skipped.
func walk(b []byte, fn func(f field) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		b = b[n:]

		f := field{Num: num, Type: typ}
		switch typ {
		case protowire.VarintType:
			v, m := protowire.ConsumeVarint(b)
			if m < 0 {
				return fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(m))
			}
			f.Varint, n = v, m
		case protowire.BytesType:
			v, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(m))
			}
			f.Bytes, n = v, m
		default:
			m := protowire.ConsumeFieldValue(num, typ, b)
			if m < 0 {
				return fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(m))
			}
			b = b[m:]
			continue
		}
		b = b[n:]
		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}

// wantBytes fails when a field that should be a message or string arrived as another wire type.
func (f field) wantBytes() error {
	if f.Type != protowire.BytesType {
		return fmt.Errorf("%w: field %d: expected length-delimited", ErrMalformed, f.Num)
	}
	return nil
}

func (f field) wantVarint() error {
	if f.Type != protowire.VarintType {
		return fmt.Errorf("%w: field %d: expected varint", ErrMalformed, f.Num)
	}
	return nil
}

func (f field) u32() uint32 { return uint32(f.Varint) }
