package domain

import (
	"encoding/json"
	"fmt"
)

// InventoryRef addresses a single container.
type InventoryRef struct {
	Kind          InventoryKind `json:"kind"`
	OwnerEntityID uint64        `json:"owner_entity_id"`
	InventoryKey  uint32        `json:"inventory_key"`
}

// Less orders refs by (kind, owner, key). Locks are always taken in this order.
func (r InventoryRef) Less(o InventoryRef) bool {
	if r.Kind != o.Kind {
		return r.Kind < o.Kind
	}
	if r.OwnerEntityID != o.OwnerEntityID {
		return r.OwnerEntityID < o.OwnerEntityID
	}
	return r.InventoryKey < o.InventoryKey
}

func (r InventoryRef) String() string {
	return fmt.Sprintf("%s:%d:%d", r.Kind, r.OwnerEntityID, r.InventoryKey)
}

// DroppedItemRef is the container backing a dropped item entity.
func DroppedItemRef(entityID uint64) InventoryRef {
	return InventoryRef{Kind: KindDroppedItem, OwnerEntityID: entityID}
}

// ItemInstance is a concrete stack of items. Quantity is always positive.
type ItemInstance struct {
	ItemID   uint64 `json:"item_id"`
	TypeID   uint32 `json:"type_id"`
	Resource string `json:"resource"`
	Quality  uint32 `json:"quality"`
	Quantity uint32 `json:"quantity"`
	W        uint32 `json:"w"`
	H        uint32 `json:"h"`
}

// Stackable reports whether two instances may be merged into one stack.
func (i ItemInstance) Stackable(o ItemInstance) bool {
	return i.TypeID == o.TypeID && i.Quality == o.Quality
}

// Footprint returns the grid size, treating a zero dimension as one cell.
func (i ItemInstance) Footprint() (uint32, uint32) {
	w, h := i.W, i.H
	if w == 0 {
		w = 1
	}
	if h == 0 {
		h = 1
	}
	return w, h
}

// GridPos is a cell coordinate inside a grid container.
type GridPos struct {
	X uint32 `json:"x"`
	Y uint32 `json:"y"`
}

// GridItem is an item anchored at its top-left cell.
type GridItem struct {
	X    uint32       `json:"x"`
	Y    uint32       `json:"y"`
	Item ItemInstance `json:"item"`
}

// EquipItem is an item occupying an equipment slot.
type EquipItem struct {
	Slot EquipSlot    `json:"slot"`
	Item ItemInstance `json:"item"`
}

// Container is the variant payload of an InventoryState.
// Exactly one of GridState, EquipmentState or HandState.
type Container interface {
	// Clone returns a deep copy that can be mutated freely.
	Clone() Container
	// Contents lists the contained instances in storage order.
	Contents() []ItemInstance
	// Find looks up an item by id.
	Find(itemID uint64) (ItemInstance, bool)
	container()
}

// GridState is a W×H grid of non-overlapping item footprints.
type GridState struct {
	Width  uint32     `json:"width"`
	Height uint32     `json:"height"`
	Items  []GridItem `json:"items"`
}

func (g *GridState) container() {}

func (g *GridState) Clone() Container {
	c := &GridState{Width: g.Width, Height: g.Height}
	if g.Items != nil {
		c.Items = append([]GridItem(nil), g.Items...)
	}
	return c
}

func (g *GridState) Contents() []ItemInstance {
	out := make([]ItemInstance, 0, len(g.Items))
	for _, gi := range g.Items {
		out = append(out, gi.Item)
	}
	return out
}

func (g *GridState) Find(itemID uint64) (ItemInstance, bool) {
	if i := g.Index(itemID); i >= 0 {
		return g.Items[i].Item, true
	}
	return ItemInstance{}, false
}

// Index returns the position of itemID in Items, or -1.
func (g *GridState) Index(itemID uint64) int {
	for i, gi := range g.Items {
		if gi.Item.ItemID == itemID {
			return i
		}
	}
	return -1
}

// EquipmentState holds at most one item per slot.
type EquipmentState struct {
	Items []EquipItem `json:"items"`
}

func (e *EquipmentState) container() {}

func (e *EquipmentState) Clone() Container {
	c := &EquipmentState{}
	if e.Items != nil {
		c.Items = append([]EquipItem(nil), e.Items...)
	}
	return c
}

func (e *EquipmentState) Contents() []ItemInstance {
	out := make([]ItemInstance, 0, len(e.Items))
	for _, ei := range e.Items {
		out = append(out, ei.Item)
	}
	return out
}

func (e *EquipmentState) Find(itemID uint64) (ItemInstance, bool) {
	for _, ei := range e.Items {
		if ei.Item.ItemID == itemID {
			return ei.Item, true
		}
	}
	return ItemInstance{}, false
}

// InSlot returns the item equipped in slot, if any.
func (e *EquipmentState) InSlot(slot EquipSlot) (ItemInstance, bool) {
	for _, ei := range e.Items {
		if ei.Slot == slot {
			return ei.Item, true
		}
	}
	return ItemInstance{}, false
}

// HandState holds at most one item. Dropped-item containers use it too.
type HandState struct {
	Item *ItemInstance `json:"item,omitempty"`
}

func (h *HandState) container() {}

func (h *HandState) Clone() Container {
	if h.Item == nil {
		return &HandState{}
	}
	item := *h.Item
	return &HandState{Item: &item}
}

func (h *HandState) Contents() []ItemInstance {
	if h.Item == nil {
		return nil
	}
	return []ItemInstance{*h.Item}
}

func (h *HandState) Find(itemID uint64) (ItemInstance, bool) {
	if h.Item != nil && h.Item.ItemID == itemID {
		return *h.Item, true
	}
	return ItemInstance{}, false
}

// NewContainer returns the empty variant matching kind.
func NewContainer(kind InventoryKind, width, height uint32) Container {
	switch kind {
	case KindGrid:
		return &GridState{Width: width, Height: height}
	case KindEquipment:
		return &EquipmentState{}
	default:
		return &HandState{}
	}
}

// InventoryState is a container together with its revision.
type InventoryState struct {
	Ref       InventoryRef
	Revision  uint64
	Container Container
}

// Clone deep-copies the state.
func (s *InventoryState) Clone() *InventoryState {
	c := &InventoryState{Ref: s.Ref, Revision: s.Revision}
	if s.Container != nil {
		c.Container = s.Container.Clone()
	}
	return c
}

// TotalQuantity sums the quantity of every item in the container.
func (s *InventoryState) TotalQuantity() uint64 {
	var total uint64
	if s.Container == nil {
		return 0
	}
	for _, it := range s.Container.Contents() {
		total += uint64(it.Quantity)
	}
	return total
}

type inventoryStateJSON struct {
	Ref       InventoryRef    `json:"ref"`
	Revision  uint64          `json:"revision"`
	Grid      *GridState      `json:"grid,omitempty"`
	Equipment *EquipmentState `json:"equipment,omitempty"`
	Hand      *HandState      `json:"hand,omitempty"`
}

// MarshalJSON renders the container variant under its own key.
func (s InventoryState) MarshalJSON() ([]byte, error) {
	out := inventoryStateJSON{Ref: s.Ref, Revision: s.Revision}
	switch c := s.Container.(type) {
	case *GridState:
		out.Grid = c
	case *EquipmentState:
		out.Equipment = c
	case *HandState:
		out.Hand = c
	}
	return json.Marshal(out)
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (s *InventoryState) UnmarshalJSON(data []byte) error {
	var in inventoryStateJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	s.Ref = in.Ref
	s.Revision = in.Revision
	switch {
	case in.Grid != nil:
		s.Container = in.Grid
	case in.Equipment != nil:
		s.Container = in.Equipment
	case in.Hand != nil:
		s.Container = in.Hand
	default:
		s.Container = nil
	}
	return nil
}
