package itemdefs

import (
	"fmt"

	"github.com/osse101/invengine/internal/domain"
)

// Stack modes
const (
	StackModeNone  = "none"
	StackModeStack = "stack"
)

// File is the on-disk catalog document.
type File struct {
	Version int       `json:"v"`
	Source  string    `json:"source,omitempty"`
	Items   []ItemDef `json:"items"`
}

// ItemDef describes one item type.
type ItemDef struct {
	TypeID   uint32  `json:"defId"`
	Key      string  `json:"key"`
	Name     string  `json:"name,omitempty"`
	Resource string  `json:"resource,omitempty"`
	Size     Size    `json:"size"`
	Stack    *Stack  `json:"stack,omitempty"`
	Allowed  Allowed `json:"allowed"`

	slots []domain.EquipSlot
}

// Size is the grid footprint.
type Size struct {
	W uint32 `json:"w"`
	H uint32 `json:"h"`
}

// Stack is the stacking rule. A nil Stack means the item does not stack.
type Stack struct {
	Mode string `json:"mode"`
	Max  uint32 `json:"max"`
}

// Allowed lists where the item may be placed. Hand and Grid default to true.
type Allowed struct {
	Hand           *bool    `json:"hand,omitempty"`
	Grid           *bool    `json:"grid,omitempty"`
	EquipmentSlots []string `json:"equipmentSlots,omitempty"`
}

// Slots returns the parsed equipment slots.
func (d *ItemDef) Slots() []domain.EquipSlot {
	return d.slots
}

func (d *ItemDef) parseSlots() error {
	d.slots = make([]domain.EquipSlot, 0, len(d.Allowed.EquipmentSlots))
	for _, name := range d.Allowed.EquipmentSlots {
		slot, err := domain.ParseEquipSlot(name)
		if err != nil || slot == domain.EquipSlotNone {
			return fmt.Errorf("bad equipment slot %q", name)
		}
		d.slots = append(d.slots, slot)
	}
	return nil
}
