package domain

// Action names used in logs, metrics and the HTTP API.
const (
	ActionMove            = "move"
	ActionDropToWorld     = "drop_to_world"
	ActionPickupFromWorld = "pickup_from_world"
)

// MoveSpec describes which item goes where. Pointer fields are optional on the wire.
type MoveSpec struct {
	Src              InventoryRef `json:"src"`
	Dst              InventoryRef `json:"dst"`
	ItemID           uint64       `json:"item_id"`
	DstPos           *GridPos     `json:"dst_pos,omitempty"`
	DstEquipSlot     *EquipSlot   `json:"dst_equip_slot,omitempty"`
	Quantity         *uint32      `json:"quantity,omitempty"`
	AllowSwapOrMerge bool         `json:"allow_swap_or_merge"`
}

// Action is the variant payload of an InventoryOp.
type Action interface {
	Name() string
	MoveSpec() MoveSpec
	action()
}

// Move transfers an item between (or within) containers.
type Move struct{ Spec MoveSpec }

// DropToWorld removes an item and spawns it as a world entity.
type DropToWorld struct{ Spec MoveSpec }

// PickupFromWorld takes an item out of a dropped-item container.
type PickupFromWorld struct{ Spec MoveSpec }

func (Move) action()            {}
func (DropToWorld) action()     {}
func (PickupFromWorld) action() {}

func (Move) Name() string            { return ActionMove }
func (DropToWorld) Name() string     { return ActionDropToWorld }
func (PickupFromWorld) Name() string { return ActionPickupFromWorld }

func (a Move) MoveSpec() MoveSpec            { return a.Spec }
func (a DropToWorld) MoveSpec() MoveSpec     { return a.Spec }
func (a PickupFromWorld) MoveSpec() MoveSpec { return a.Spec }

// NewAction builds the variant named by name.
func NewAction(name string, spec MoveSpec) (Action, bool) {
	switch name {
	case ActionMove:
		return Move{Spec: spec}, true
	case ActionDropToWorld:
		return DropToWorld{Spec: spec}, true
	case ActionPickupFromWorld:
		return PickupFromWorld{Spec: spec}, true
	}
	return nil, false
}

// Expected is an optimistic-concurrency precondition.
type Expected struct {
	Ref              InventoryRef `json:"ref"`
	ExpectedRevision uint64       `json:"expected_revision"`
}

// InventoryOp is a client-submitted mutation. OpID is unique per actor.
type InventoryOp struct {
	OpID     uint64
	Expected []Expected
	Action   Action
}

// Actor is the submitter of an op: the connection-scoped actor id and the entity it controls.
type Actor struct {
	ID       uint64
	EntityID uint64
	// ConnID is the connection that submitted the op. It is left out of the
	// fan-out because it receives the result itself. Empty for HTTP callers.
	ConnID string
}
