package protocol

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/osse101/invengine/internal/domain"
)

func encodeRef(e *encoder, r domain.InventoryRef) {
	e.int(1, int64(r.Kind))
	e.uint(2, r.OwnerEntityID)
	e.uint(3, uint64(r.InventoryKey))
}

func decodeRef(b []byte) (domain.InventoryRef, error) {
	var r domain.InventoryRef
	err := walk(b, func(f field) error {
		switch f.Num {
		case 1:
			r.Kind = domain.InventoryKind(int32(f.Varint))
		case 2:
			r.OwnerEntityID = f.Varint
		case 3:
			r.InventoryKey = f.u32()
		default:
			return nil
		}
		return f.wantVarint()
	})
	return r, err
}

func encodeItem(e *encoder, it domain.ItemInstance) {
	e.uint(1, it.ItemID)
	e.uint(2, uint64(it.TypeID))
	e.string(3, it.Resource)
	e.uint(4, uint64(it.Quality))
	e.uint(5, uint64(it.Quantity))
	e.uint(6, uint64(it.W))
	e.uint(7, uint64(it.H))
}

func decodeItem(b []byte) (domain.ItemInstance, error) {
	var it domain.ItemInstance
	err := walk(b, func(f field) error {
		if f.Num == 3 {
			if err := f.wantBytes(); err != nil {
				return err
			}
			it.Resource = string(f.Bytes)
			return nil
		}
		switch f.Num {
		case 1:
			it.ItemID = f.Varint
		case 2:
			it.TypeID = f.u32()
		case 4:
			it.Quality = f.u32()
		case 5:
			it.Quantity = f.u32()
		case 6:
			it.W = f.u32()
		case 7:
			it.H = f.u32()
		default:
			return nil
		}
		return f.wantVarint()
	})
	return it, err
}

func encodeGrid(e *encoder, g *domain.GridState) {
	e.uint(1, uint64(g.Width))
	e.uint(2, uint64(g.Height))
	for _, gi := range g.Items {
		e.message(3, func(e *encoder) {
			e.uint(1, uint64(gi.X))
			e.uint(2, uint64(gi.Y))
			e.message(3, func(e *encoder) { encodeItem(e, gi.Item) })
		})
	}
}

func decodeGrid(b []byte) (*domain.GridState, error) {
	g := &domain.GridState{}
	err := walk(b, func(f field) error {
		switch f.Num {
		case 1, 2:
			if err := f.wantVarint(); err != nil {
				return err
			}
			if f.Num == 1 {
				g.Width = f.u32()
			} else {
				g.Height = f.u32()
			}
		case 3:
			if err := f.wantBytes(); err != nil {
				return err
			}
			gi, err := decodeGridItem(f.Bytes)
			if err != nil {
				return err
			}
			g.Items = append(g.Items, gi)
		}
		return nil
	})
	return g, err
}

func decodeGridItem(b []byte) (domain.GridItem, error) {
	var gi domain.GridItem
	err := walk(b, func(f field) error {
		switch f.Num {
		case 1:
			gi.X = f.u32()
		case 2:
			gi.Y = f.u32()
		case 3:
			if err := f.wantBytes(); err != nil {
				return err
			}
			it, err := decodeItem(f.Bytes)
			gi.Item = it
			return err
		default:
			return nil
		}
		return f.wantVarint()
	})
	return gi, err
}

func encodeEquipment(e *encoder, s *domain.EquipmentState) {
	for _, ei := range s.Items {
		e.message(1, func(e *encoder) {
			e.int(1, int64(ei.Slot))
			e.message(2, func(e *encoder) { encodeItem(e, ei.Item) })
		})
	}
}

func decodeEquipment(b []byte) (*domain.EquipmentState, error) {
	s := &domain.EquipmentState{}
	err := walk(b, func(f field) error {
		if f.Num != 1 {
			return nil
		}
		if err := f.wantBytes(); err != nil {
			return err
		}
		var ei domain.EquipItem
		err := walk(f.Bytes, func(f field) error {
			switch f.Num {
			case 1:
				if err := f.wantVarint(); err != nil {
					return err
				}
				ei.Slot = domain.EquipSlot(int32(f.Varint))
			case 2:
				if err := f.wantBytes(); err != nil {
					return err
				}
				it, err := decodeItem(f.Bytes)
				ei.Item = it
				return err
			}
			return nil
		})
		if err != nil {
			return err
		}
		s.Items = append(s.Items, ei)
		return nil
	})
	return s, err
}

func encodeHand(e *encoder, h *domain.HandState) {
	if h.Item != nil {
		e.message(1, func(e *encoder) { encodeItem(e, *h.Item) })
	}
}

func decodeHand(b []byte) (*domain.HandState, error) {
	h := &domain.HandState{}
	err := walk(b, func(f field) error {
		if f.Num != 1 {
			return nil
		}
		if err := f.wantBytes(); err != nil {
			return err
		}
		it, err := decodeItem(f.Bytes)
		if err != nil {
			return err
		}
		h.Item = &it
		return nil
	})
	return h, err
}

func encodeState(e *encoder, s domain.InventoryState) {
	e.message(1, func(e *encoder) { encodeRef(e, s.Ref) })
	e.uint(2, s.Revision)
	switch c := s.Container.(type) {
	case *domain.GridState:
		e.message(3, func(e *encoder) { encodeGrid(e, c) })
	case *domain.EquipmentState:
		e.message(4, func(e *encoder) { encodeEquipment(e, c) })
	case *domain.HandState:
		e.message(5, func(e *encoder) { encodeHand(e, c) })
	}
}

func decodeState(b []byte) (domain.InventoryState, error) {
	var s domain.InventoryState
	err := walk(b, func(f field) error {
		if f.Num == 2 {
			if err := f.wantVarint(); err != nil {
				return err
			}
			s.Revision = f.Varint
			return nil
		}
		if f.Num < 1 || f.Num > 5 {
			return nil
		}
		if err := f.wantBytes(); err != nil {
			return err
		}
		var err error
		switch f.Num {
		case 1:
			s.Ref, err = decodeRef(f.Bytes)
		case 3:
			s.Container, err = decodeGrid(f.Bytes)
		case 4:
			s.Container, err = decodeEquipment(f.Bytes)
		case 5:
			s.Container, err = decodeHand(f.Bytes)
		}
		return err
	})
	return s, err
}

func encodeMoveSpec(e *encoder, m domain.MoveSpec) {
	e.message(1, func(e *encoder) { encodeRef(e, m.Src) })
	e.message(2, func(e *encoder) { encodeRef(e, m.Dst) })
	e.uint(3, m.ItemID)
	if m.DstPos != nil {
		e.message(4, func(e *encoder) {
			e.uint(1, uint64(m.DstPos.X))
			e.uint(2, uint64(m.DstPos.Y))
		})
	}
	if m.DstEquipSlot != nil {
		v := uint64(int64(*m.DstEquipSlot))
		e.optUint(5, &v)
	}
	if m.Quantity != nil {
		v := uint64(*m.Quantity)
		e.optUint(6, &v)
	}
	e.bool(7, m.AllowSwapOrMerge)
}

func decodeMoveSpec(b []byte) (domain.MoveSpec, error) {
	var m domain.MoveSpec
	err := walk(b, func(f field) error {
		switch f.Num {
		case 1, 2, 4:
			if err := f.wantBytes(); err != nil {
				return err
			}
		case 3, 5, 6, 7:
			if err := f.wantVarint(); err != nil {
				return err
			}
		}
		var err error
		switch f.Num {
		case 1:
			m.Src, err = decodeRef(f.Bytes)
		case 2:
			m.Dst, err = decodeRef(f.Bytes)
		case 3:
			m.ItemID = f.Varint
		case 4:
			m.DstPos, err = decodeGridPos(f.Bytes)
		case 5:
			slot := domain.EquipSlot(int32(f.Varint))
			m.DstEquipSlot = &slot
		case 6:
			q := f.u32()
			m.Quantity = &q
		case 7:
			m.AllowSwapOrMerge = protowire.DecodeBool(f.Varint)
		}
		return err
	})
	return m, err
}

func decodeGridPos(b []byte) (*domain.GridPos, error) {
	p := &domain.GridPos{}
	err := walk(b, func(f field) error {
		switch f.Num {
		case 1:
			p.X = f.u32()
		case 2:
			p.Y = f.u32()
		default:
			return nil
		}
		return f.wantVarint()
	})
	return p, err
}

// InventoryOp action fields
const (
	fieldOpMove     protowire.Number = 3
	fieldOpDrop     protowire.Number = 4
	fieldOpPickup   protowire.Number = 5
	fieldOpExpected protowire.Number = 2
)

func encodeOp(e *encoder, op domain.InventoryOp) {
	e.uint(1, op.OpID)
	for _, x := range op.Expected {
		e.message(fieldOpExpected, func(e *encoder) {
			e.message(1, func(e *encoder) { encodeRef(e, x.Ref) })
			e.uint(2, x.ExpectedRevision)
		})
	}
	var num protowire.Number
	switch op.Action.(type) {
	case domain.Move:
		num = fieldOpMove
	case domain.DropToWorld:
		num = fieldOpDrop
	case domain.PickupFromWorld:
		num = fieldOpPickup
	default:
		return
	}
	e.message(num, func(e *encoder) { encodeMoveSpec(e, op.Action.MoveSpec()) })
}

func decodeOp(b []byte) (domain.InventoryOp, error) {
	var op domain.InventoryOp
	err := walk(b, func(f field) error {
		if f.Num == 1 {
			if err := f.wantVarint(); err != nil {
				return err
			}
			op.OpID = f.Varint
			return nil
		}
		if f.Num < fieldOpExpected || f.Num > fieldOpPickup {
			return nil
		}
		if err := f.wantBytes(); err != nil {
			return err
		}
		if f.Num == fieldOpExpected {
			x, err := decodeExpected(f.Bytes)
			if err != nil {
				return err
			}
			op.Expected = append(op.Expected, x)
			return nil
		}
		spec, err := decodeMoveSpec(f.Bytes)
		if err != nil {
			return err
		}
		switch f.Num {
		case fieldOpMove:
			op.Action = domain.Move{Spec: spec}
		case fieldOpDrop:
			op.Action = domain.DropToWorld{Spec: spec}
		case fieldOpPickup:
			op.Action = domain.PickupFromWorld{Spec: spec}
		}
		return nil
	})
	return op, err
}

func decodeExpected(b []byte) (domain.Expected, error) {
	var x domain.Expected
	err := walk(b, func(f field) error {
		switch f.Num {
		case 1:
			if err := f.wantBytes(); err != nil {
				return err
			}
			ref, err := decodeRef(f.Bytes)
			x.Ref = ref
			return err
		case 2:
			if err := f.wantVarint(); err != nil {
				return err
			}
			x.ExpectedRevision = f.Varint
		}
		return nil
	})
	return x, err
}

func encodeResult(e *encoder, r *domain.OpResult) {
	e.uint(1, r.OpID)
	e.bool(2, r.Success)
	e.int(3, int64(r.Error))
	e.string(4, r.Message)
	for _, st := range r.Updated {
		e.message(5, func(e *encoder) { encodeState(e, st) })
	}
	e.optUint(6, r.SpawnedDroppedEntityID)
	e.optUint(7, r.DespawnedDroppedEntityID)
}

func decodeResult(b []byte) (*domain.OpResult, error) {
	r := &domain.OpResult{}
	err := walk(b, func(f field) error {
		switch f.Num {
		case 4, 5:
			if err := f.wantBytes(); err != nil {
				return err
			}
		case 1, 2, 3, 6, 7:
			if err := f.wantVarint(); err != nil {
				return err
			}
		default:
			return nil
		}
		switch f.Num {
		case 1:
			r.OpID = f.Varint
		case 2:
			r.Success = protowire.DecodeBool(f.Varint)
		case 3:
			r.Error = domain.ErrorCode(int32(f.Varint))
		case 4:
			r.Message = string(f.Bytes)
		case 5:
			st, err := decodeState(f.Bytes)
			if err != nil {
				return fmt.Errorf("updated[%d]: %w", len(r.Updated), err)
			}
			r.Updated = append(r.Updated, st)
		case 6:
			v := f.Varint
			r.SpawnedDroppedEntityID = &v
		case 7:
			v := f.Varint
			r.DespawnedDroppedEntityID = &v
		}
		return nil
	})
	return r, err
}
