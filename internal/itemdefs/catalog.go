package itemdefs

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/osse101/invengine/internal/domain"
)

// Catalog is a read-only index of item definitions.
// A nil *Catalog is valid and treats every type as unknown.
type Catalog struct {
	byID            map[uint32]*ItemDef
	byKey           map[string]*ItemDef
	defaultStackMax uint32
}

// NewCatalog indexes defs. defaultStackMax applies to types missing from the catalog.
func NewCatalog(defs []ItemDef, defaultStackMax uint32) *Catalog {
	c := &Catalog{
		byID:            make(map[uint32]*ItemDef, len(defs)),
		byKey:           make(map[string]*ItemDef, len(defs)),
		defaultStackMax: defaultStackMax,
	}
	for i := range defs {
		def := &defs[i]
		if def.slots == nil {
			_ = def.parseSlots()
		}
		c.byID[def.TypeID] = def
		c.byKey[def.Key] = def
	}
	return c
}

// Lookup returns the definition for typeID.
func (c *Catalog) Lookup(typeID uint32) (*ItemDef, bool) {
	if c == nil {
		return nil, false
	}
	def, ok := c.byID[typeID]
	return def, ok
}

// ByKey returns the definition with the given key.
func (c *Catalog) ByKey(key string) (*ItemDef, bool) {
	if c == nil {
		return nil, false
	}
	def, ok := c.byKey[key]
	return def, ok
}

// Len returns the number of definitions.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.byID)
}

// StackMax is the largest quantity a single stack of typeID may hold.
func (c *Catalog) StackMax(typeID uint32) uint32 {
	def, ok := c.Lookup(typeID)
	if !ok {
		if c == nil || c.defaultStackMax == 0 {
			return DefaultStackMax
		}
		return c.defaultStackMax
	}
	if def.Stack == nil || def.Stack.Mode != StackModeStack {
		return 1
	}
	return def.Stack.Max
}

// AllowsHand reports whether typeID may be held in a hand container.
func (c *Catalog) AllowsHand(typeID uint32) bool {
	def, ok := c.Lookup(typeID)
	if !ok || def.Allowed.Hand == nil {
		return true
	}
	return *def.Allowed.Hand
}

// AllowsGrid reports whether typeID may be stored in a grid container.
func (c *Catalog) AllowsGrid(typeID uint32) bool {
	def, ok := c.Lookup(typeID)
	if !ok || def.Allowed.Grid == nil {
		return true
	}
	return *def.Allowed.Grid
}

// AllowsSlot reports whether typeID may be equipped in slot.
// Unknown types may go in any slot except NONE.
func (c *Catalog) AllowsSlot(typeID uint32, slot domain.EquipSlot) bool {
	if slot == domain.EquipSlotNone || !slot.Valid() {
		return false
	}
	def, ok := c.Lookup(typeID)
	if !ok {
		return true
	}
	for _, s := range def.slots {
		if s == slot {
			return true
		}
	}
	return false
}

// DisplayName returns the configured name, or a title-cased key.
func (c *Catalog) DisplayName(typeID uint32) string {
	def, ok := c.Lookup(typeID)
	if !ok {
		return fmt.Sprintf("item #%d", typeID)
	}
	if def.Name != "" {
		return def.Name
	}
	return cases.Title(language.English).String(strings.ReplaceAll(def.Key, "_", " "))
}

// Instantiate builds an item instance of typeID with the catalog footprint.
func (c *Catalog) Instantiate(typeID uint32, itemID uint64, quality, quantity uint32) (domain.ItemInstance, error) {
	def, ok := c.Lookup(typeID)
	if !ok {
		return domain.ItemInstance{}, fmt.Errorf("%w: unknown item type %d", domain.ErrInvalidRequest, typeID)
	}
	if quantity == 0 {
		return domain.ItemInstance{}, domain.ErrInvalidQuantity
	}
	if limit := c.StackMax(typeID); quantity > limit {
		return domain.ItemInstance{}, fmt.Errorf("%w: quantity %d exceeds stack max %d", domain.ErrStackOverflow, quantity, limit)
	}
	return domain.ItemInstance{
		ItemID:   itemID,
		TypeID:   typeID,
		Resource: def.Resource,
		Quality:  quality,
		Quantity: quantity,
		W:        def.Size.W,
		H:        def.Size.H,
	}, nil
}
