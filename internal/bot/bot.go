// internal/bot/bot.go
package bot

import (
	"math/rand/v2"
	"sync"

	"github.com/minhhoangcong/Nhom6-GameRock-Paper-Scissors/internal/game"
	"github.com/minhhoangcong/Nhom6-GameRock-Paper-Scissors/internal/models"
	"github.com/minhhoangcong/Nhom6-GameRock-Paper-Scissors/internal/room"
	"github.com/sirupsen/logrus"
)

// Name is the display name of every bot.
const Name = "Bot"

// Table is the part of a room the bot drives.
type Table interface {
	SetReady(playerID string, ready bool) error
	Choose(playerID string, c game.Choice) error
	NewGame(playerID string) error
}

// Bot is a local opponent. It reads the room's events from its own inbox and
// answers through the same transitions a remote player would use: it readies
// as soon as it is seated with a peer, throws a random choice the moment the
// peer has chosen, and accepts every rematch.
type Bot struct {
	Player *room.Player

	inbox    chan models.Event
	done     chan struct{}
	stopOnce sync.Once
	rng      *rand.Rand
	log      *logrus.Entry
}

// New returns a bot with the given seat id. rng may be nil.
func New(id string, rng *rand.Rand, logger logrus.FieldLogger) *Bot {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	b := &Bot{
		inbox: make(chan models.Event, 64),
		done:  make(chan struct{}),
		rng:   rng,
		log:   logger.WithField("player_id", id),
	}
	b.Player = &room.Player{ID: id, Name: Name, Sink: b, IsBot: true}
	return b
}

// Send queues an event for the bot. It never blocks.
func (b *Bot) Send(ev models.Event) {
	select {
	case b.inbox <- ev:
	default:
		b.log.Warnf("Bot inbox full. Dropped event type '%s'.", ev.Type)
	}
}

// Start runs the bot against table until Stop is called or the room is destroyed.
func (b *Bot) Start(table Table) {
	go b.loop(table)
}

// Stop ends the bot's loop. Safe to call more than once.
func (b *Bot) Stop() {
	b.stopOnce.Do(func() { close(b.done) })
}

// Done is closed once the bot has stopped.
func (b *Bot) Done() <-chan struct{} {
	return b.done
}

func (b *Bot) loop(table Table) {
	for {
		select {
		case <-b.done:
			return
		case ev := <-b.inbox:
			b.handle(table, ev)
		}
	}
}

func (b *Bot) handle(table Table, ev models.Event) {
	if ev.Room != nil && ev.Room.Phase == string(room.PhaseDestroyed) {
		b.log.Debug("Room destroyed; bot stopping.")
		b.Stop()
		return
	}

	id := b.Player.ID
	switch ev.Type {
	case models.EventPlayerChose:
		if ev.PlayerID != id {
			b.try("choose", table.Choose(id, game.RandomChoice(b.rng)))
		}
	case models.EventPlayerReadyNewGame:
		if ev.PlayerID != id {
			b.try("new_game", table.NewGame(id))
		}
	}

	if ev.Room != nil && b.shouldReady(ev.Room) {
		b.try("ready", table.SetReady(id, true))
	}
}

// shouldReady is true while waiting with a peer seated and the bot not ready.
func (b *Bot) shouldReady(snap *models.RoomSnapshot) bool {
	if snap.Phase != string(room.PhaseWaiting) || snap.CurrentPlayers < room.MaxPlayers {
		return false
	}
	for _, p := range snap.Players {
		if p.PlayerID == b.Player.ID {
			return !p.Ready
		}
	}
	return false
}

// try logs a rejected move. Events can be stale by the time the bot acts on
// them, so rejections are expected and harmless.
func (b *Bot) try(action string, err error) {
	if err != nil {
		b.log.Debugf("Bot %s rejected: %v", action, err)
	}
}
