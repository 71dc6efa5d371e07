package handler

import (
	"context"
	"net/http"

	"github.com/osse101/invengine/internal/domain"
	"github.com/osse101/invengine/internal/logger"
)

// InventoryService is the processor surface exposed over HTTP.
type InventoryService interface {
	Submit(ctx context.Context, actor domain.Actor, op domain.InventoryOp) (*domain.OpResult, error)
	Grant(ctx context.Context, ref domain.InventoryRef, typeID, quality, quantity uint32) (*domain.InventoryState, error)
}

// StateReader resolves and reads containers.
type StateReader interface {
	Resolve(entityID uint64, kind domain.InventoryKind, key uint32) (domain.InventoryRef, error)
	Snapshot(ref domain.InventoryRef) (*domain.InventoryState, error)
}

// Subscriptions opens and closes containers for a live connection.
type Subscriptions interface {
	Open(ctx context.Context, connID string, ref domain.InventoryRef) (*domain.InventoryState, error)
	Close(ctx context.Context, connID string, ref domain.InventoryRef) error
}

// RefRequest addresses a container by kind name, owner and key.
type RefRequest struct {
	Kind  string `json:"kind" validate:"required,inventory_kind"`
	Owner uint64 `json:"owner" validate:"required"`
	Key   uint32 `json:"key"`
}

func (r RefRequest) ref() domain.InventoryRef {
	kind, _ := domain.ParseInventoryKind(r.Kind)
	return domain.InventoryRef{Kind: kind, OwnerEntityID: r.Owner, InventoryKey: r.Key}
}

// OpRequest submits one InventoryOp on behalf of an actor.
type OpRequest struct {
	ActorID  uint64            `json:"actor_id" validate:"required"`
	EntityID uint64            `json:"entity_id" validate:"required"`
	OpID     uint64            `json:"op_id"`
	Action   string            `json:"action" validate:"required,oneof=move drop_to_world pickup_from_world"`
	Spec     domain.MoveSpec   `json:"spec"`
	Expected []domain.Expected `json:"expected" validate:"max=16"`
}

// GrantRequest creates new items in a grid or hand.
type GrantRequest struct {
	RefRequest
	TypeID   uint32 `json:"type_id" validate:"required"`
	Quality  uint32 `json:"quality"`
	Quantity uint32 `json:"quantity" validate:"required,min=1,max=10000"`
}

// SubscriptionRequest opens or closes a container for a connection.
type SubscriptionRequest struct {
	RefRequest
	ConnID string `json:"conn_id" validate:"required,max=64"`
}

// InventoryHandler serves the inventory HTTP API.
type InventoryHandler struct {
	svc    InventoryService
	states StateReader
	subs   Subscriptions
}

func NewInventoryHandler(svc InventoryService, states StateReader, subs Subscriptions) *InventoryHandler {
	return &InventoryHandler{svc: svc, states: states, subs: subs}
}

// HandleGetInventory returns one container: GET ?kind=&owner=&key=
func (h *InventoryHandler) HandleGetInventory(w http.ResponseWriter, r *http.Request) {
	kindParam, ok := GetQueryParam(r, w, "kind")
	if !ok {
		return
	}
	kind, err := domain.ParseInventoryKind(kindParam)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	ownerParam, ok := GetQueryParam(r, w, "owner")
	if !ok {
		return
	}
	owner, ok := parseUintParam(w, "owner", ownerParam, 64)
	if !ok {
		return
	}
	key, ok := parseUintParam(w, "key", GetOptionalQueryParam(r, "key", "0"), 32)
	if !ok {
		return
	}

	ref, err := h.states.Resolve(owner, kind, uint32(key))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	st, err := h.states.Snapshot(ref)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, st)
}

// HandleSubmitOp runs an op through the same path as websocket clients.
// Rejected ops still answer 200 with success=false.
func (h *InventoryHandler) HandleSubmitOp(w http.ResponseWriter, r *http.Request) {
	var req OpRequest
	if err := DecodeAndValidateRequest(r, w, &req, "op"); err != nil {
		return
	}
	action, _ := domain.NewAction(req.Action, req.Spec)
	actor := domain.Actor{ID: req.ActorID, EntityID: req.EntityID}
	op := domain.InventoryOp{OpID: req.OpID, Expected: req.Expected, Action: action}

	ctx := logger.WithAttrs(r.Context(), logger.AttrKeyActorID, actor.ID, logger.AttrKeyOpID, op.OpID)
	res, err := h.svc.Submit(ctx, actor, op)
	if err != nil {
		logger.FromContext(ctx).Warn(LogMsgRequestFailed, logger.AttrKeyError, err)
		respondJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: ErrMsgOpCancelled})
		return
	}
	logger.FromContext(ctx).Debug(LogMsgOpSubmitted, logger.AttrKeyAction, req.Action, "success", res.Success)
	respondJSON(w, http.StatusOK, res)
}

// HandleGrant creates items in the first free spot of a container.
func (h *InventoryHandler) HandleGrant(w http.ResponseWriter, r *http.Request) {
	var req GrantRequest
	if err := DecodeAndValidateRequest(r, w, &req, "grant"); err != nil {
		return
	}
	st, err := h.svc.Grant(r.Context(), req.ref(), req.TypeID, req.Quality, req.Quantity)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	logger.FromContext(r.Context()).Info(LogMsgGranted, "ref", st.Ref.String(), "type_id", req.TypeID)
	respondJSON(w, http.StatusCreated, st)
}

// HandleOpen subscribes a connection to a container and returns its state.
func (h *InventoryHandler) HandleOpen(w http.ResponseWriter, r *http.Request) {
	var req SubscriptionRequest
	if err := DecodeAndValidateRequest(r, w, &req, "open"); err != nil {
		return
	}
	st, err := h.subs.Open(r.Context(), req.ConnID, req.ref())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, st)
}

// HandleClose unsubscribes a connection from a container.
func (h *InventoryHandler) HandleClose(w http.ResponseWriter, r *http.Request) {
	var req SubscriptionRequest
	if err := DecodeAndValidateRequest(r, w, &req, "close"); err != nil {
		return
	}
	if err := h.subs.Close(r.Context(), req.ConnID, req.ref()); err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
