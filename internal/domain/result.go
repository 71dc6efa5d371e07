package domain

// OpResult is the final outcome of an op. It is immutable once built:
// the same value is cached and replayed for duplicate submissions.
type OpResult struct {
	OpID                     uint64           `json:"op_id"`
	Success                  bool             `json:"success"`
	Error                    ErrorCode        `json:"error"`
	Message                  string           `json:"message,omitempty"`
	Updated                  []InventoryState `json:"updated"`
	SpawnedDroppedEntityID   *uint64          `json:"spawned_dropped_entity_id,omitempty"`
	DespawnedDroppedEntityID *uint64          `json:"despawned_dropped_entity_id,omitempty"`
}

// FailedResult builds a failure result from err.
func FailedResult(opID uint64, err error) *OpResult {
	return &OpResult{
		OpID:    opID,
		Success: false,
		Error:   CodeOf(err),
		Message: err.Error(),
	}
}
