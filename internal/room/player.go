// internal/room/player.go
package room

import "github.com/minhhoangcong/Nhom6-GameRock-Paper-Scissors/internal/models"

// Sink receives the events of the room a player is seated in. Send is called
// with the room lock held and must not block or call back into the room.
type Sink interface {
	Send(ev models.Event)
}

// Liveness is implemented by sinks that can tell whether their connection is
// still up. Sinks without it are always reported as connected.
type Liveness interface {
	Alive() bool
}

// Player is a seat occupant. ID and Sink are fixed; Name may change through
// Room.Rename. Seat state is owned by the room.
type Player struct {
	ID    string
	Name  string
	Sink  Sink
	IsBot bool

	slot    int
	ready   bool
	rematch bool
}

func (p *Player) snapshot() models.PlayerSnapshot {
	connected := true
	if l, ok := p.Sink.(Liveness); ok {
		connected = l.Alive()
	}
	return models.PlayerSnapshot{
		PlayerID:  p.ID,
		Name:      p.Name,
		Ready:     p.ready,
		Slot:      p.slot,
		Connected: connected,
		IsBot:     p.IsBot,
	}
}
