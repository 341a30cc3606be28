// internal/lobby/lobby_store.go
package lobby

import (
	"sync"

	"github.com/minhhoangcong/Nhom6-GameRock-Paper-Scissors/internal/models"
	"github.com/minhhoangcong/Nhom6-GameRock-Paper-Scissors/internal/room"
	"github.com/sirupsen/logrus"
)

// RoomStore manages live rooms in memory, remembering the order they were created in.
type RoomStore struct {
	mu    sync.Mutex
	rooms map[string]*room.Room
	order []string
}

// NewRoomStore initializes and returns an empty RoomStore.
func NewRoomStore() *RoomStore {
	return &RoomStore{
		rooms: make(map[string]*room.Room),
	}
}

// AddRoom adds a room to the store. The room's OnEmpty callback should already
// remove it again.
func (s *RoomStore) AddRoom(r *room.Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rooms[r.ID]; exists {
		logrus.WithField("room_id", r.ID).Warn("Attempted to add a room which already exists.")
		return
	}
	s.rooms[r.ID] = r
	s.order = append(s.order, r.ID)
}

// DeleteRoom removes a room by id. It reports whether the room was present.
func (s *RoomStore) DeleteRoom(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rooms[id]; !exists {
		return false
	}
	delete(s.rooms, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// GetRoom retrieves a room by id.
func (s *RoomStore) GetRoom(id string) (*room.Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	return r, ok
}

// Len is the number of live rooms, bot rooms included.
func (s *RoomStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rooms)
}

// Summaries lists joinable rooms in creation order. Bot rooms and rooms that
// are being torn down are left out.
func (s *RoomStore) Summaries() []models.RoomSummary {
	s.mu.Lock()
	rooms := make([]*room.Room, 0, len(s.order))
	for _, id := range s.order {
		rooms = append(rooms, s.rooms[id])
	}
	s.mu.Unlock()

	out := make([]models.RoomSummary, 0, len(rooms))
	for _, r := range rooms {
		if r.Mode == room.ModeBot {
			continue
		}
		snap := r.Snapshot()
		if snap.Phase == string(room.PhaseDestroyed) {
			continue
		}
		out = append(out, snap.Summary())
	}
	return out
}
