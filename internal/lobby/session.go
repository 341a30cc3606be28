// internal/lobby/session.go
package lobby

import (
	"sync"

	"github.com/minhhoangcong/Nhom6-GameRock-Paper-Scissors/internal/models"
	"github.com/sirupsen/logrus"
)

// Session is one connected participant: its identity, display name, the room
// it currently sits in and the queue its transport drains. It is the context
// every directory operation is applied to.
type Session struct {
	ID      string
	Token   string
	OutChan chan models.Event
	// Cancel stops the transport goroutines serving this session, if any.
	Cancel func()

	mu     sync.Mutex
	name   string
	roomID string
	closed bool
}

// NewSession creates a session with a buffered outgoing queue.
func NewSession(id, token string, buffer int) *Session {
	return &Session{
		ID:      id,
		Token:   token,
		OutChan: make(chan models.Event, buffer),
		name:    DefaultName(id),
	}
}

// DefaultName is the display name a session starts with.
func DefaultName(id string) string {
	if len(id) > 4 {
		id = id[:4]
	}
	return "Player_" + id
}

// Send pushes an event onto OutChan without blocking. Events for a full or
// closed queue are dropped and logged.
func (s *Session) Send(ev models.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.OutChan <- ev:
	default:
		logrus.WithField("player_id", s.ID).Warnf("OutChan full. Dropped message type '%s'.", ev.Type)
	}
}

// SendError reports err to this session only.
func (s *Session) SendError(err error) {
	s.Send(models.ErrorEvent(err))
}

// Alive reports whether the session can still receive events.
func (s *Session) Alive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed
}

// Close closes OutChan and cancels the transport. Safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.OutChan)
	cancel := s.Cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Name returns the current display name.
func (s *Session) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

func (s *Session) setName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

// RoomID returns the id of the room the session sits in, or "".
func (s *Session) RoomID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roomID
}

func (s *Session) setRoom(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roomID = id
}
