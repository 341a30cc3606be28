// internal/room/room.go
package room

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/minhhoangcong/Nhom6-GameRock-Paper-Scissors/internal/game"
	"github.com/minhhoangcong/Nhom6-GameRock-Paper-Scissors/internal/models"
	"github.com/sirupsen/logrus"
)

// MaxPlayers is fixed: every room seats exactly two players.
const MaxPlayers = 2

// Phase is the fine-grained state of a room.
type Phase string

const (
	PhaseWaiting       Phase = "waiting"
	PhaseAllReady      Phase = "all_ready"
	PhasePlaying       Phase = "playing"
	PhaseRoundResolved Phase = "round_resolved"
	PhaseDestroyed     Phase = "destroyed"
)

// GameState maps the phase onto the coarse tag shown in the room list.
func (p Phase) GameState() models.GameState {
	switch p {
	case PhaseWaiting, PhaseAllReady:
		return models.StateWaiting
	case PhasePlaying:
		return models.StatePlaying
	default:
		return models.StateFinished
	}
}

// Mode selects who provides the second seat.
type Mode int

const (
	// ModeNetwork rooms are listed and joined by remote players.
	ModeNetwork Mode = iota
	// ModeBot rooms seat the in-process bot next to a single human.
	ModeBot
)

// Config holds the match rules shared by every room of a directory.
type Config struct {
	BestOf       int
	RoundTimeout time.Duration
	// SecretMatch compares a presented secret with the one the room was
	// created with. Nil means plain equality.
	SecretMatch func(presented, stored string) bool
}

// DefaultConfig is best of 3 with a 10 second round deadline.
func DefaultConfig() Config {
	return Config{
		BestOf:       game.DefaultBestOf,
		RoundTimeout: game.DefaultRoundTimeout,
	}
}

// Validate rejects configurations no room can run with.
func (c Config) Validate() error {
	if err := game.ValidateBestOf(c.BestOf); err != nil {
		return err
	}
	if c.RoundTimeout <= 0 {
		return fmt.Errorf("round timeout must be positive, got %s", c.RoundTimeout)
	}
	return nil
}

// Room seats two players and runs their readiness, rounds and series.
//
// Every exported method is one transition: it takes the room lock for its
// whole duration, so choices, ready toggles and deadline expiry for the same
// room are applied one at a time in arrival order. Events are handed to the
// seat sinks while the lock is held; sinks must not block. Callbacks run after
// the lock is released.
type Room struct {
	ID      string
	Name    string
	Mode    Mode
	Created time.Time

	secret string
	cfg    Config

	mu       sync.Mutex
	seats    [MaxPlayers]*Player
	phase    Phase
	series   *game.Series
	scores   *game.Scoreboard
	round    *game.Round
	roundSeq int
	timer    *time.Timer
	rng      *rand.Rand
	log      *logrus.Entry

	// OnEmpty is called once the room has been destroyed.
	OnEmpty func(roomID string)
	// OnChange is called whenever the directory view of the room changed.
	OnChange func(roomID string)
	// OnRoundResolved receives every committed round.
	OnRoundResolved func(rec models.RoundRecord)
}

// New creates an empty room in Waiting. An empty secret means the room is open.
func New(id, name, secret string, mode Mode, cfg Config, logger logrus.FieldLogger) *Room {
	return &Room{
		ID:      id,
		Name:    name,
		Mode:    mode,
		Created: time.Now(),
		secret:  secret,
		cfg:     cfg,
		phase:   PhaseWaiting,
		series:  game.NewSeries(cfg.BestOf),
		scores:  game.NewScoreboard(),
		rng:     rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		log:     logger.WithField("room_id", id),
	}
}

// HasSecret reports whether joining needs a password.
func (r *Room) HasSecret() bool {
	return r.secret != ""
}

func (r *Room) secretMatches(presented string) bool {
	if r.cfg.SecretMatch != nil {
		return r.cfg.SecretMatch(presented, r.secret)
	}
	return presented == r.secret
}

// Phase returns the current phase.
func (r *Room) Phase() Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

// effects collects work that must happen after the lock is released.
type effects struct {
	changed bool
	empty   bool
	records []models.RoundRecord
}

// transition runs fn under the room lock, then fires the callbacks fn asked for.
func (r *Room) transition(fn func(fx *effects) error) error {
	fx := &effects{}
	r.mu.Lock()
	err := fn(fx)
	r.mu.Unlock()

	for _, rec := range fx.records {
		if r.OnRoundResolved != nil {
			r.OnRoundResolved(rec)
		}
	}
	if fx.changed && r.OnChange != nil {
		r.OnChange(r.ID)
	}
	if fx.empty && r.OnEmpty != nil {
		r.OnEmpty(r.ID)
	}
	return err
}

// Join seats p in the first free slot. The secret must match when the room
// has one. The first player to sit down receives room_created, later ones
// trigger player_joined for everyone.
func (r *Room) Join(p *Player, secret string) error {
	return r.transition(func(fx *effects) error {
		if r.phase == PhaseDestroyed {
			return game.ErrRoomNotFound
		}
		if r.seatOf(p.ID) >= 0 {
			return game.ErrAlreadyInRoom
		}
		slot := -1
		for i, s := range r.seats {
			if s == nil {
				slot = i
				break
			}
		}
		if slot < 0 {
			return game.ErrRoomFull
		}
		if r.secret != "" && !r.secretMatches(secret) {
			return game.ErrBadSecret
		}

		p.slot = slot
		p.ready = false
		p.rematch = false
		r.seats[slot] = p
		r.scores.Add(p.ID, p.Name)
		fx.changed = true

		snap := r.snapshotUnsafe()
		if r.occupancyUnsafe() == 1 {
			r.log.Infof("Player %s (%s) created the room in slot %d.", p.ID, p.Name, slot)
			p.Sink.Send(models.Event{Type: models.EventRoomCreated, Room: &snap})
			return nil
		}
		r.log.Infof("Player %s (%s) joined in slot %d.", p.ID, p.Name, slot)
		r.broadcastUnsafe(models.Event{
			Type:       models.EventPlayerJoined,
			PlayerID:   p.ID,
			PlayerName: p.Name,
			Room:       &snap,
		})
		return nil
	})
}

// Leave vacates the player's seat. An empty room, or one left with only the
// bot, is destroyed. Otherwise the remaining player goes back to Waiting with
// the ready flag cleared and a fresh series. Leaving mid-round forfeits it.
func (r *Room) Leave(playerID string) error {
	return r.transition(func(fx *effects) error {
		seat := r.seatOf(playerID)
		if seat < 0 {
			return game.ErrNotInRoom
		}
		leaving := r.seats[seat]
		r.seats[seat] = nil
		r.scores.Remove(playerID)
		r.stopTimerUnsafe()
		fx.changed = true

		remaining := r.seats[1-seat]
		if remaining == nil || remaining.IsBot {
			r.phase = PhaseDestroyed
			r.round = nil
			fx.empty = true
			r.log.Infof("Player %s left; room destroyed.", playerID)
			if remaining != nil {
				r.seats[1-seat] = nil
				snap := r.snapshotUnsafe()
				remaining.Sink.Send(models.Event{
					Type:       models.EventPlayerLeft,
					PlayerID:   leaving.ID,
					PlayerName: leaving.Name,
					Room:       &snap,
				})
			}
			return nil
		}

		if r.phase == PhasePlaying {
			r.log.Infof("Player %s left during round %d; %s wins by forfeit.", playerID, r.round.Number, remaining.ID)
			r.scores.Record(remaining.ID, game.Win)
		} else {
			r.log.Infof("Player %s left.", playerID)
		}
		r.round = nil
		r.series.Reset()
		remaining.ready = false
		remaining.rematch = false
		r.phase = PhaseWaiting

		snap := r.snapshotUnsafe()
		r.broadcastUnsafe(models.Event{
			Type:       models.EventPlayerLeft,
			PlayerID:   leaving.ID,
			PlayerName: leaving.Name,
			Room:       &snap,
		})
		return nil
	})
}

// SetReady toggles a player's ready flag. When both seats are ready the first
// round of the series starts.
func (r *Room) SetReady(playerID string, ready bool) error {
	return r.transition(func(fx *effects) error {
		seat := r.seatOf(playerID)
		if seat < 0 {
			return game.ErrNotInRoom
		}
		return r.setReadyUnsafe(fx, seat, ready)
	})
}

func (r *Room) setReadyUnsafe(fx *effects, seat int, ready bool) error {
	if r.phase != PhaseWaiting && r.phase != PhaseAllReady {
		return game.ErrNotYourTurnState
	}
	p := r.seats[seat]
	if p.ready == ready {
		return nil
	}
	p.ready = ready

	if r.allReadyUnsafe() {
		r.phase = PhaseAllReady
	} else {
		r.phase = PhaseWaiting
	}
	snap := r.snapshotUnsafe()
	r.broadcastUnsafe(models.Event{
		Type:       models.EventPlayerReady,
		PlayerID:   p.ID,
		PlayerName: p.Name,
		Room:       &snap,
	})
	if r.phase == PhaseAllReady {
		r.startRoundUnsafe(fx)
	}
	return nil
}

// allReadyUnsafe is true only with both seats filled and both flags set.
func (r *Room) allReadyUnsafe() bool {
	for _, s := range r.seats {
		if s == nil || !s.ready {
			return false
		}
	}
	return true
}

// Choose submits a player's choice for the active round.
func (r *Room) Choose(playerID string, c game.Choice) error {
	return r.transition(func(fx *effects) error {
		seat := r.seatOf(playerID)
		if seat < 0 {
			return game.ErrNotInRoom
		}
		switch r.phase {
		case PhasePlaying:
		case PhaseRoundResolved:
			return game.ErrLateChoice
		default:
			return game.ErrNotYourTurnState
		}

		complete, err := r.round.Submit(seat, c)
		if err != nil {
			return err
		}
		p := r.seats[seat]
		r.log.WithField("round", r.round.Number).Debugf("Player %s chose.", p.ID)
		r.broadcastUnsafe(models.Event{
			Type:       models.EventPlayerChose,
			PlayerID:   p.ID,
			PlayerName: p.Name,
		})
		if complete {
			r.resolveUnsafe(fx)
		}
		return nil
	})
}

// NewGame is a rematch request. Inside a running series both players must ask
// before the next round starts, and it starts straight in Playing. Once the
// series is over the first request resets it and sends the room back to
// Waiting, marking only the requester ready.
func (r *Room) NewGame(playerID string) error {
	return r.transition(func(fx *effects) error {
		seat := r.seatOf(playerID)
		if seat < 0 {
			return game.ErrNotInRoom
		}
		if r.seats[1-seat] == nil {
			return game.ErrPeerDisconnected
		}
		p := r.seats[seat]

		switch r.phase {
		case PhaseWaiting, PhaseAllReady:
			return r.setReadyUnsafe(fx, seat, true)
		case PhaseRoundResolved:
		default:
			return game.ErrNotYourTurnState
		}

		if r.series.Over() {
			r.log.Infof("Player %s started a new series.", p.ID)
			r.series.Reset()
			for _, s := range r.seats {
				s.ready = false
				s.rematch = false
			}
			r.phase = PhaseWaiting
			fx.changed = true
			r.broadcastNewGameUnsafe(p)
			return r.setReadyUnsafe(fx, seat, true)
		}

		if p.rematch {
			return nil
		}
		p.rematch = true
		r.broadcastNewGameUnsafe(p)
		if r.seats[0].rematch && r.seats[1].rematch {
			r.startRoundUnsafe(fx)
		}
		return nil
	})
}

func (r *Room) broadcastNewGameUnsafe(p *Player) {
	snap := r.snapshotUnsafe()
	r.broadcastUnsafe(models.Event{
		Type:       models.EventPlayerReadyNewGame,
		PlayerID:   p.ID,
		PlayerName: p.Name,
		Room:       &snap,
		Series:     &snap.Series,
	})
}

// Rename changes a seated player's display name and carries the scoreboard
// entry along.
func (r *Room) Rename(playerID, name string) error {
	return r.transition(func(fx *effects) error {
		seat := r.seatOf(playerID)
		if seat < 0 {
			return game.ErrNotInRoom
		}
		p := r.seats[seat]
		p.Name = name
		r.scores.Rename(playerID, name)
		fx.changed = true
		snap := r.snapshotUnsafe()
		r.broadcastUnsafe(models.Event{
			Type:       models.EventPlayerRenamed,
			PlayerID:   p.ID,
			PlayerName: name,
			Room:       &snap,
		})
		return nil
	})
}

// Chat relays a message to everyone seated.
func (r *Room) Chat(playerID, message string) error {
	return r.transition(func(fx *effects) error {
		seat := r.seatOf(playerID)
		if seat < 0 {
			return game.ErrNotInRoom
		}
		p := r.seats[seat]
		r.broadcastUnsafe(models.Event{
			Type:       models.EventChat,
			PlayerID:   p.ID,
			PlayerName: p.Name,
			Message:    message,
		})
		return nil
	})
}

// Snapshot returns the full room view.
func (r *Room) Snapshot() models.RoomSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotUnsafe()
}

// Summary returns the directory entry for this room.
func (r *Room) Summary() models.RoomSummary {
	return r.Snapshot().Summary()
}

func (r *Room) seatOf(playerID string) int {
	for i, s := range r.seats {
		if s != nil && s.ID == playerID {
			return i
		}
	}
	return -1
}

func (r *Room) occupancyUnsafe() int {
	n := 0
	for _, s := range r.seats {
		if s != nil {
			n++
		}
	}
	return n
}

func (r *Room) broadcastUnsafe(ev models.Event) {
	for _, s := range r.seats {
		if s != nil {
			s.Sink.Send(ev)
		}
	}
}

func (r *Room) snapshotUnsafe() models.RoomSnapshot {
	snap := models.RoomSnapshot{
		RoomID:      r.ID,
		RoomName:    r.Name,
		MaxPlayers:  MaxPlayers,
		GameState:   r.phase.GameState(),
		Phase:       string(r.phase),
		HasPassword: r.secret != "",
		Players:     make([]models.PlayerSnapshot, 0, MaxPlayers),
		Scores:      r.scores.ByName(),
		Series:      r.seriesSnapshotUnsafe(),
	}
	for _, s := range r.seats {
		if s == nil {
			continue
		}
		snap.Players = append(snap.Players, s.snapshot())
	}
	snap.CurrentPlayers = len(snap.Players)
	snap.IsFull = snap.CurrentPlayers >= MaxPlayers
	if name, ok := r.scores.Leader(); ok && snap.CurrentPlayers == MaxPlayers {
		snap.Leader = name
	}
	return snap
}

func (r *Room) seriesSnapshotUnsafe() models.SeriesSnapshot {
	ss := models.SeriesSnapshot{
		BestOf: r.series.BestOf,
		Target: r.series.Target(),
		Wins:   make(map[string]int, MaxPlayers),
		Over:   r.series.Over(),
		Round:  r.series.Played,
	}
	for i, s := range r.seats {
		if s != nil {
			ss.Wins[s.ID] = r.series.Wins[i]
		}
	}
	if w := r.series.Winner(); w >= 0 && r.seats[w] != nil {
		ss.Winner = r.seats[w].ID
	}
	return ss
}
