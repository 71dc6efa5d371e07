package domain

import (
	"fmt"
	"strings"
)

// InventoryKind identifies the shape of a container.
type InventoryKind int32

const (
	KindGrid InventoryKind = iota
	KindHand
	KindEquipment
	KindDroppedItem
)

var inventoryKindNames = map[InventoryKind]string{
	KindGrid:        "GRID",
	KindHand:        "HAND",
	KindEquipment:   "EQUIPMENT",
	KindDroppedItem: "DROPPED_ITEM",
}

func (k InventoryKind) String() string {
	if name, ok := inventoryKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("InventoryKind(%d)", int32(k))
}

// Valid reports whether k is one of the known kinds.
func (k InventoryKind) Valid() bool {
	_, ok := inventoryKindNames[k]
	return ok
}

// ParseInventoryKind accepts the upper- or lower-case kind name.
func ParseInventoryKind(s string) (InventoryKind, error) {
	for k, name := range inventoryKindNames {
		if strings.EqualFold(name, s) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown inventory kind %q", ErrInvalidRequest, s)
}

// EquipSlot names a slot in an equipment container.
type EquipSlot int32

const (
	EquipSlotNone EquipSlot = iota
	EquipSlotHead
	EquipSlotChest
	EquipSlotLegs
	EquipSlotFeet
	EquipSlotHands
	EquipSlotLeftHand
	EquipSlotRightHand
	EquipSlotBack
	EquipSlotNeck
	EquipSlotRing1
	EquipSlotRing2
)

var equipSlotNames = []string{
	"NONE", "HEAD", "CHEST", "LEGS", "FEET", "HANDS",
	"LEFT_HAND", "RIGHT_HAND", "BACK", "NECK", "RING_1", "RING_2",
}

func (s EquipSlot) String() string {
	if s >= 0 && int(s) < len(equipSlotNames) {
		return equipSlotNames[s]
	}
	return fmt.Sprintf("EquipSlot(%d)", int32(s))
}

// Valid reports whether s is a known slot. NONE is valid as a value but never as a destination.
func (s EquipSlot) Valid() bool {
	return s >= 0 && int(s) < len(equipSlotNames)
}

// ParseEquipSlot accepts names like "head", "LEFT_HAND" or "ring_1".
func ParseEquipSlot(s string) (EquipSlot, error) {
	for i, name := range equipSlotNames {
		if strings.EqualFold(name, s) {
			return EquipSlot(i), nil
		}
	}
	return EquipSlotNone, fmt.Errorf("%w: unknown equip slot %q", ErrInvalidRequest, s)
}

// ErrorCode is the wire-level failure code carried by results and S2C_Error.
type ErrorCode int32

const (
	CodeNone ErrorCode = iota
	CodeInvalidRequest
	CodeNotAuthenticated
	CodeEntityNotFound
	CodeOutOfRange
	CodeInsufficientResources
	CodeInventoryFull
	CodeCannotInteract
	CodeCooldownActive
	CodeInsufficientStamina
	CodeTargetInvalid
	CodePathBlocked
	CodeTimeoutExceeded
	CodeBuildingIncomplete
	CodeRecipeUnknown
	CodePacketPerSecondLimitThresholded
	CodeInternalError
)

var errorCodeNames = []string{
	"ERROR_CODE_NONE",
	"ERROR_CODE_INVALID_REQUEST",
	"ERROR_CODE_NOT_AUTHENTICATED",
	"ERROR_CODE_ENTITY_NOT_FOUND",
	"ERROR_CODE_OUT_OF_RANGE",
	"ERROR_CODE_INSUFFICIENT_RESOURCES",
	"ERROR_CODE_INVENTORY_FULL",
	"ERROR_CODE_CANNOT_INTERACT",
	"ERROR_CODE_COOLDOWN_ACTIVE",
	"ERROR_CODE_INSUFFICIENT_STAMINA",
	"ERROR_CODE_TARGET_INVALID",
	"ERROR_CODE_PATH_BLOCKED",
	"ERROR_CODE_TIMEOUT_EXCEEDED",
	"ERROR_CODE_BUILDING_INCOMPLETE",
	"ERROR_CODE_RECIPE_UNKNOWN",
	"ERROR_CODE_PACKET_PER_SECOND_LIMIT_THRESHOLDED",
	"ERROR_CODE_INTERNAL_ERROR",
}

func (c ErrorCode) String() string {
	if c >= 0 && int(c) < len(errorCodeNames) {
		return errorCodeNames[c]
	}
	return fmt.Sprintf("ErrorCode(%d)", int32(c))
}

// WarningCode is carried by S2C_Warning.
type WarningCode int32

const (
	WarnInputQueueOverflow WarningCode = 0
)

func (w WarningCode) String() string {
	if w == WarnInputQueueOverflow {
		return "WARN_INPUT_QUEUE_OVERFLOW"
	}
	return fmt.Sprintf("WarningCode(%d)", int32(w))
}
