// internal/client/autoplay.go
package client

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/minhhoangcong/Nhom6-GameRock-Paper-Scissors/internal/game"
	"github.com/minhhoangcong/Nhom6-GameRock-Paper-Scissors/internal/models"
	"github.com/minhhoangcong/Nhom6-GameRock-Paper-Scissors/internal/room"
	"github.com/sirupsen/logrus"
)

// Sender is the part of a Client the autoplayer talks through.
type Sender interface {
	Send(ctx context.Context, msg models.ClientMessage) error
}

// AutoPlayer plays over the network without a human: it quick joins a room,
// readies once an opponent sits down, throws a random choice after a random
// think of at most Think, and always asks for the next game. If its own copy
// of the round deadline runs out before it chose, it submits a random choice
// anyway; the server drops that submission when the round already resolved.
type AutoPlayer struct {
	Name  string
	Think time.Duration

	out Sender
	rng *rand.Rand
	log logrus.FieldLogger

	mu     sync.Mutex
	id     string
	round  int
	chosen bool
	timers []*time.Timer
}

// NewAutoPlayer builds an autoplayer. rng may be nil.
func NewAutoPlayer(name string, think time.Duration, out Sender, rng *rand.Rand, logger logrus.FieldLogger) *AutoPlayer {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &AutoPlayer{Name: name, Think: think, out: out, rng: rng, log: logger}
}

// Handle reacts to one server event. It is safe to use as a Client Handler.
func (a *AutoPlayer) Handle(ev models.Event) {
	switch ev.Type {
	case models.EventPlayerID:
		a.mu.Lock()
		fresh := a.id != ev.PlayerID
		a.id = ev.PlayerID
		a.mu.Unlock()
		if fresh {
			a.send(models.ClientMessage{Type: models.MsgSetName, Name: a.Name})
			a.send(models.ClientMessage{Type: models.MsgQuickJoin})
		}
	case models.EventGameStart:
		a.startRound(ev)
	case models.EventGameResult:
		a.stopTimers()
		a.send(models.ClientMessage{Type: models.MsgNewGame})
	case models.EventPlayerLeft:
		a.stopTimers()
	case models.EventError:
		a.log.Debugf("Server rejected a move: %s (%s)", ev.Message, ev.Kind)
	}

	if ev.Room != nil && a.shouldReady(ev.Room) {
		a.send(models.ClientMessage{Type: models.MsgReady})
	}
}

// Stop cancels any pending choice.
func (a *AutoPlayer) Stop() {
	a.stopTimers()
}

func (a *AutoPlayer) shouldReady(snap *models.RoomSnapshot) bool {
	if snap.Phase != string(room.PhaseWaiting) || snap.CurrentPlayers < room.MaxPlayers {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, p := range snap.Players {
		if p.PlayerID == a.id {
			return !p.Ready
		}
	}
	return false
}

func (a *AutoPlayer) startRound(ev models.Event) {
	a.mu.Lock()
	a.stopTimersLocked()
	a.round++
	a.chosen = false
	n := a.round
	var think time.Duration
	if a.Think > 0 {
		think = time.Duration(a.rng.Int64N(int64(a.Think) + 1))
	}
	left := time.Until(time.UnixMilli(ev.Deadline))
	if ev.Deadline == 0 {
		left = game.DefaultRoundTimeout
	}
	if think < left {
		a.timers = append(a.timers, time.AfterFunc(think, func() { a.choose(n, false) }))
	}
	a.timers = append(a.timers, time.AfterFunc(max(left, 0), func() { a.choose(n, true) }))
	a.mu.Unlock()
}

// choose throws for round n unless that round is over or already thrown.
func (a *AutoPlayer) choose(n int, deadline bool) {
	a.mu.Lock()
	if a.round != n || a.chosen {
		a.mu.Unlock()
		return
	}
	a.chosen = true
	c := game.RandomChoice(a.rng)
	a.mu.Unlock()

	if deadline {
		a.log.Infof("Local deadline reached; auto-choosing %s.", c)
	}
	a.send(models.ClientMessage{Type: models.MsgChoice, Choice: string(c)})
}

func (a *AutoPlayer) stopTimers() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopTimersLocked()
}

func (a *AutoPlayer) stopTimersLocked() {
	for _, t := range a.timers {
		t.Stop()
	}
	a.timers = nil
}

func (a *AutoPlayer) send(msg models.ClientMessage) {
	if err := a.out.Send(context.Background(), msg); err != nil {
		a.log.Warnf("Sending %s failed: %v", msg.Type, err)
	}
}
