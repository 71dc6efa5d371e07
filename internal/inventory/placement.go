package inventory

import (
	"fmt"

	"github.com/osse101/invengine/internal/domain"
	"github.com/osse101/invengine/internal/itemdefs"
)

type placementMode int

const (
	placeNew placementMode = iota
	placeMerge
	placeSwap
)

// location is where an item sits inside its container.
type location struct {
	x, y uint32
	slot domain.EquipSlot
}

// placement is the outcome of planning a destination.
type placement struct {
	mode     placementMode
	at       location
	occupant domain.ItemInstance
}

// placementRequest describes an item about to enter a container.
type placementRequest struct {
	moving     domain.ItemInstance // quantity already set to the amount being moved
	sourceID   uint64              // id of the stack it comes from
	partial    bool
	sameOrigin bool // source and destination are the same container
	pos        *domain.GridPos
	slot       *domain.EquipSlot
	allowMerge bool
	allowSwap  bool
}

// locate finds an item and its position.
func locate(c domain.Container, itemID uint64) (domain.ItemInstance, location, bool) {
	switch c := c.(type) {
	case *domain.GridState:
		if i := c.Index(itemID); i >= 0 {
			gi := c.Items[i]
			return gi.Item, location{x: gi.X, y: gi.Y}, true
		}
	case *domain.EquipmentState:
		for _, ei := range c.Items {
			if ei.Item.ItemID == itemID {
				return ei.Item, location{slot: ei.Slot}, true
			}
		}
	case *domain.HandState:
		if c.Item != nil && c.Item.ItemID == itemID {
			return *c.Item, location{}, true
		}
	}
	return domain.ItemInstance{}, location{}, false
}

func rectsOverlap(x1, y1, w1, h1, x2, y2, w2, h2 uint32) bool {
	return uint64(x1) < uint64(x2)+uint64(w2) && uint64(x1)+uint64(w1) > uint64(x2) &&
		uint64(y1) < uint64(y2)+uint64(h2) && uint64(y1)+uint64(h1) > uint64(y2)
}

func inBounds(g *domain.GridState, x, y, w, h uint32) bool {
	return uint64(x)+uint64(w) <= uint64(g.Width) && uint64(y)+uint64(h) <= uint64(g.Height)
}

// overlapping returns the indexes of items whose footprint intersects the rectangle.
func overlapping(g *domain.GridState, x, y, w, h uint32, exclude ...uint64) []int {
	var hits []int
next:
	for i, gi := range g.Items {
		for _, id := range exclude {
			if gi.Item.ItemID == id {
				continue next
			}
		}
		iw, ih := gi.Item.Footprint()
		if rectsOverlap(x, y, w, h, gi.X, gi.Y, iw, ih) {
			hits = append(hits, i)
		}
	}
	return hits
}

// canPlaceAt reports whether a w×h footprint fits at (x, y) ignoring the excluded items.
func canPlaceAt(g *domain.GridState, x, y, w, h uint32, exclude ...uint64) bool {
	return inBounds(g, x, y, w, h) && len(overlapping(g, x, y, w, h, exclude...)) == 0
}

// firstFit scans row-major for the first free w×h area.
func firstFit(g *domain.GridState, w, h uint32, exclude ...uint64) (uint32, uint32, bool) {
	if w > g.Width || h > g.Height {
		return 0, 0, false
	}
	for y := uint32(0); y+h <= g.Height; y++ {
		for x := uint32(0); x+w <= g.Width; x++ {
			if canPlaceAt(g, x, y, w, h, exclude...) {
				return x, y, true
			}
		}
	}
	return 0, 0, false
}

// Planner decides where items may go. It never mutates containers.
type Planner struct {
	catalog *itemdefs.Catalog
}

// NewPlanner creates a planner using catalog for stack caps and admission rules.
func NewPlanner(catalog *itemdefs.Catalog) *Planner {
	return &Planner{catalog: catalog}
}

func (p *Planner) mergeable(occupant, moving domain.ItemInstance, sourceID uint64) bool {
	return occupant.ItemID != sourceID &&
		occupant.Stackable(moving) &&
		p.catalog.StackMax(occupant.TypeID) > 1
}

// Plan picks the placement of req.moving in dst.
func (p *Planner) Plan(dst domain.Container, req placementRequest) (placement, error) {
	switch c := dst.(type) {
	case *domain.GridState:
		return p.planGrid(c, req)
	case *domain.HandState:
		return p.planHand(c, req)
	case *domain.EquipmentState:
		return p.planEquipment(c, req)
	}
	return placement{}, fmt.Errorf("%w: unknown container variant", domain.ErrInternal)
}

func (p *Planner) planGrid(g *domain.GridState, req placementRequest) (placement, error) {
	if !p.catalog.AllowsGrid(req.moving.TypeID) {
		return placement{}, domain.ErrPlacementNotAllowed
	}
	w, h := req.moving.Footprint()

	var exclude []uint64
	if req.sameOrigin && !req.partial {
		exclude = append(exclude, req.sourceID)
	}

	if req.pos == nil {
		x, y, ok := firstFit(g, w, h, exclude...)
		if !ok {
			return placement{}, fmt.Errorf("%w: no free %dx%d area", domain.ErrInventoryFull, w, h)
		}
		return placement{mode: placeNew, at: location{x: x, y: y}}, nil
	}

	x, y := req.pos.X, req.pos.Y
	if !inBounds(g, x, y, w, h) {
		return placement{}, fmt.Errorf("%w: %dx%d at (%d,%d) is out of bounds", domain.ErrInventoryFull, w, h, x, y)
	}

	hits := overlapping(g, x, y, w, h, exclude...)
	switch len(hits) {
	case 0:
		return placement{mode: placeNew, at: location{x: x, y: y}}, nil
	case 1:
	default:
		return placement{}, fmt.Errorf("%w: (%d,%d) overlaps %d items", domain.ErrInventoryFull, x, y, len(hits))
	}

	occ := g.Items[hits[0]]
	if occ.Item.ItemID == req.sourceID {
		return placement{}, fmt.Errorf("%w: overlaps the source stack", domain.ErrInventoryFull)
	}
	return p.resolveOccupant(occ.Item, location{x: occ.X, y: occ.Y}, req, func() bool {
		ow, oh := occ.Item.Footprint()
		return occ.X == x && occ.Y == y && ow == w && oh == h
	})
}

func (p *Planner) planHand(hand *domain.HandState, req placementRequest) (placement, error) {
	if !p.catalog.AllowsHand(req.moving.TypeID) {
		return placement{}, domain.ErrPlacementNotAllowed
	}
	if hand.Item == nil || (req.sameOrigin && !req.partial && hand.Item.ItemID == req.sourceID) {
		return placement{mode: placeNew}, nil
	}
	if hand.Item.ItemID == req.sourceID {
		return placement{}, fmt.Errorf("%w: hand is occupied", domain.ErrInventoryFull)
	}
	return p.resolveOccupant(*hand.Item, location{}, req, func() bool { return true })
}

func (p *Planner) planEquipment(eq *domain.EquipmentState, req placementRequest) (placement, error) {
	if req.slot == nil || *req.slot == domain.EquipSlotNone {
		return placement{}, domain.ErrEquipSlotRequired
	}
	slot := *req.slot
	if !slot.Valid() {
		return placement{}, fmt.Errorf("%w: slot %d", domain.ErrInvalidRequest, slot)
	}
	if !p.catalog.AllowsSlot(req.moving.TypeID, slot) {
		return placement{}, fmt.Errorf("%w: %s", domain.ErrSlotNotAllowed, slot)
	}

	occ, taken := eq.InSlot(slot)
	if !taken || (req.sameOrigin && !req.partial && occ.ItemID == req.sourceID) {
		return placement{mode: placeNew, at: location{slot: slot}}, nil
	}
	if occ.ItemID == req.sourceID {
		return placement{}, fmt.Errorf("%w: slot %s is occupied", domain.ErrInventoryFull, slot)
	}
	return p.resolveOccupant(occ, location{slot: slot}, req, func() bool { return true })
}

// resolveOccupant turns a single collision into a merge or swap, or rejects it.
func (p *Planner) resolveOccupant(occ domain.ItemInstance, at location, req placementRequest, exactFit func() bool) (placement, error) {
	if !req.allowMerge && !req.allowSwap {
		return placement{}, fmt.Errorf("%w: destination is occupied", domain.ErrInventoryFull)
	}

	if req.allowMerge && p.mergeable(occ, req.moving, req.sourceID) {
		limit := uint64(p.catalog.StackMax(occ.TypeID))
		if uint64(occ.Quantity)+uint64(req.moving.Quantity) > limit {
			return placement{}, fmt.Errorf("%w: %d + %d > %d", domain.ErrStackOverflow, occ.Quantity, req.moving.Quantity, limit)
		}
		return placement{mode: placeMerge, at: at, occupant: occ}, nil
	}

	if !req.allowSwap {
		return placement{}, fmt.Errorf("%w: destination is occupied", domain.ErrInventoryFull)
	}
	if req.partial {
		return placement{}, domain.ErrPartialSwap
	}
	if !exactFit() {
		return placement{}, fmt.Errorf("%w: swap requires an exact footprint match", domain.ErrInventoryFull)
	}
	return placement{mode: placeSwap, at: at, occupant: occ}, nil
}

// CheckSwapBack verifies that occupant can take the moving item's old spot in src.
// movingID and occupantID are ignored as obstacles.
func (p *Planner) CheckSwapBack(src domain.Container, from location, occupant domain.ItemInstance, movingID uint64) error {
	switch c := src.(type) {
	case *domain.GridState:
		if !p.catalog.AllowsGrid(occupant.TypeID) {
			return domain.ErrPlacementNotAllowed
		}
		w, h := occupant.Footprint()
		if !canPlaceAt(c, from.x, from.y, w, h, movingID, occupant.ItemID) {
			return fmt.Errorf("%w: swapped item does not fit at source", domain.ErrInventoryFull)
		}
	case *domain.HandState:
		if !p.catalog.AllowsHand(occupant.TypeID) {
			return domain.ErrPlacementNotAllowed
		}
	case *domain.EquipmentState:
		if !p.catalog.AllowsSlot(occupant.TypeID, from.slot) {
			return fmt.Errorf("%w: %s", domain.ErrSlotNotAllowed, from.slot)
		}
	default:
		return domain.ErrTargetInvalid
	}
	return nil
}

// FirstFree returns a placement for item anywhere in c, without merging.
func (p *Planner) FirstFree(c domain.Container, item domain.ItemInstance) (location, error) {
	switch c := c.(type) {
	case *domain.GridState:
		if !p.catalog.AllowsGrid(item.TypeID) {
			return location{}, domain.ErrPlacementNotAllowed
		}
		w, h := item.Footprint()
		x, y, ok := firstFit(c, w, h)
		if !ok {
			return location{}, fmt.Errorf("%w: no free %dx%d area", domain.ErrInventoryFull, w, h)
		}
		return location{x: x, y: y}, nil
	case *domain.HandState:
		if !p.catalog.AllowsHand(item.TypeID) {
			return location{}, domain.ErrPlacementNotAllowed
		}
		if c.Item != nil {
			return location{}, fmt.Errorf("%w: hand is occupied", domain.ErrInventoryFull)
		}
		return location{}, nil
	}
	return location{}, domain.ErrTargetInvalid
}

// --- mutation helpers; only ever applied to working copies ---

// takeQuantity removes qty of itemID, deleting the entry when it empties.
func takeQuantity(c domain.Container, itemID uint64, qty uint32) {
	switch c := c.(type) {
	case *domain.GridState:
		if i := c.Index(itemID); i >= 0 {
			if c.Items[i].Item.Quantity <= qty {
				c.Items = append(c.Items[:i], c.Items[i+1:]...)
			} else {
				c.Items[i].Item.Quantity -= qty
			}
		}
	case *domain.EquipmentState:
		for i := range c.Items {
			if c.Items[i].Item.ItemID == itemID {
				if c.Items[i].Item.Quantity <= qty {
					c.Items = append(c.Items[:i], c.Items[i+1:]...)
				} else {
					c.Items[i].Item.Quantity -= qty
				}
				return
			}
		}
	case *domain.HandState:
		if c.Item != nil && c.Item.ItemID == itemID {
			if c.Item.Quantity <= qty {
				c.Item = nil
			} else {
				c.Item.Quantity -= qty
			}
		}
	}
}

// addQuantity grows an existing stack.
func addQuantity(c domain.Container, itemID uint64, qty uint32) {
	switch c := c.(type) {
	case *domain.GridState:
		if i := c.Index(itemID); i >= 0 {
			c.Items[i].Item.Quantity += qty
		}
	case *domain.EquipmentState:
		for i := range c.Items {
			if c.Items[i].Item.ItemID == itemID {
				c.Items[i].Item.Quantity += qty
				return
			}
		}
	case *domain.HandState:
		if c.Item != nil && c.Item.ItemID == itemID {
			c.Item.Quantity += qty
		}
	}
}

// putItem inserts item at loc. The spot must be free.
func putItem(c domain.Container, at location, item domain.ItemInstance) {
	switch c := c.(type) {
	case *domain.GridState:
		c.Items = append(c.Items, domain.GridItem{X: at.x, Y: at.y, Item: item})
	case *domain.EquipmentState:
		c.Items = append(c.Items, domain.EquipItem{Slot: at.slot, Item: item})
	case *domain.HandState:
		it := item
		c.Item = &it
	}
}
