package cart

import (
	"encoding/json"
	"fmt"

	"github.com/metinatakli/pcbuilder/internal/domain"
)

// SnapshotVersion is written with every persisted snapshot.
const SnapshotVersion = 0

type snapshot struct {
	State   domain.CartState `json:"state"`
	Version int              `json:"version"`
}

// Encode serializes state into the persisted snapshot format.
func Encode(state domain.CartState) ([]byte, error) {
	data, err := json.Marshal(snapshot{State: state.Clone(), Version: SnapshotVersion})
	if err != nil {
		return nil, fmt.Errorf("marshal cart state: %w", err)
	}

	return data, nil
}

// Decode rehydrates a snapshot produced by Encode.
func Decode(data []byte) (*domain.CartState, error) {
	var snap snapshot

	err := json.Unmarshal(data, &snap)
	if err != nil {
		return nil, fmt.Errorf("unmarshal cart state: %w", err)
	}

	if snap.Version != SnapshotVersion {
		return nil, fmt.Errorf("unsupported cart state version %d", snap.Version)
	}

	state := snap.State.Clone()

	return &state, nil
}
