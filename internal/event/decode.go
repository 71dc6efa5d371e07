package event

import "encoding/json"

// DecodePayload returns the payload as T. Payloads published on the MemoryBus
// are already typed; anything else (a map from a JSON log replay, say) is
// converted through a JSON round-trip.
func DecodePayload[T any](payload any) (T, error) {
	var out T
	if v, ok := payload.(T); ok {
		return v, nil
	}
	if payload == nil {
		return out, ErrNilPayload
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, err
	}
	return out, nil
}
