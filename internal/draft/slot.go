package draft

import (
	"context"
	"errors"
	"sync"
)

// SlotKey is the fixed name of the durable slot holding the draft.
// There is one slot per client, not per user.
const SlotKey = "reservation-draft"

// ErrSlotEmpty is returned by Slot.Load when nothing has been saved.
var ErrSlotEmpty = errors.New("draft slot is empty")

// Slot is a durable single-value store for the serialized draft.
type Slot interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
	Clear(ctx context.Context) error
}

// MemorySlot keeps the serialized draft in process memory.
type MemorySlot struct {
	mu   sync.Mutex
	data []byte
}

// NewMemorySlot returns an empty in-memory slot.
func NewMemorySlot() *MemorySlot { return &MemorySlot{} }

func (m *MemorySlot) Load(_ context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.data) == 0 {
		return nil, ErrSlotEmpty
	}
	out := make([]byte, len(m.data))
	copy(out, m.data)
	return out, nil
}

func (m *MemorySlot) Save(_ context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append(m.data[:0:0], data...)
	return nil
}

func (m *MemorySlot) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = nil
	return nil
}
