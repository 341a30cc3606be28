// internal/cache/history.go
package cache

import (
	"context"
	"sync"

	"github.com/minhhoangcong/Nhom6-GameRock-Paper-Scissors/internal/models"
)

// DefaultHistorySize is how many rounds are kept per room.
const DefaultHistorySize = 10

// HistoryStore keeps the most recent rounds of each live room.
type HistoryStore interface {
	Append(ctx context.Context, rec models.RoundRecord) error
	Recent(ctx context.Context, roomID string) ([]models.RoundRecord, error)
	Drop(ctx context.Context, roomID string) error
}

// MemoryHistory is the in-process HistoryStore used when Redis is not configured.
type MemoryHistory struct {
	mu     sync.Mutex
	size   int
	rounds map[string][]models.RoundRecord
}

// NewMemoryHistory keeps the last size rounds per room.
func NewMemoryHistory(size int) *MemoryHistory {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &MemoryHistory{
		size:   size,
		rounds: make(map[string][]models.RoundRecord),
	}
}

func (h *MemoryHistory) Append(_ context.Context, rec models.RoundRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	list := append(h.rounds[rec.RoomID], rec)
	if len(list) > h.size {
		list = append([]models.RoundRecord(nil), list[len(list)-h.size:]...)
	}
	h.rounds[rec.RoomID] = list
	return nil
}

func (h *MemoryHistory) Recent(_ context.Context, roomID string) ([]models.RoundRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]models.RoundRecord{}, h.rounds[roomID]...), nil
}

func (h *MemoryHistory) Drop(_ context.Context, roomID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.rounds, roomID)
	return nil
}
