// internal/lobby/lobby.go
package lobby

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/minhhoangcong/Nhom6-GameRock-Paper-Scissors/internal/auth"
	"github.com/minhhoangcong/Nhom6-GameRock-Paper-Scissors/internal/bot"
	"github.com/minhhoangcong/Nhom6-GameRock-Paper-Scissors/internal/cache"
	"github.com/minhhoangcong/Nhom6-GameRock-Paper-Scissors/internal/game"
	"github.com/minhhoangcong/Nhom6-GameRock-Paper-Scissors/internal/models"
	"github.com/minhhoangcong/Nhom6-GameRock-Paper-Scissors/internal/room"
	"github.com/sirupsen/logrus"
)

const (
	// BotRoomName is the name of every private bot room.
	BotRoomName = "You vs Bot"

	historyQueueSize = 256
	historyTimeout   = 2 * time.Second
)

// Directory owns every connected session and every live room. It assigns
// identities, lists rooms for browsing and matchmaking, and keeps all
// sessions informed whenever the list changes.
type Directory struct {
	cfg     room.Config
	store   *RoomStore
	history cache.HistoryStore
	log     logrus.FieldLogger

	mu       sync.Mutex
	sessions map[string]*Session
	bots     map[string]*bot.Bot
	created  int
	closed   bool

	historyJobs chan historyJob
	historyDone chan struct{}
}

// historyJob is either an append (rec set) or a drop of a destroyed room.
type historyJob struct {
	rec    *models.RoundRecord
	dropID string
}

// NewDirectory creates an empty directory. Rooms it creates use cfg, and every
// resolved round is written to history in the background.
func NewDirectory(cfg room.Config, history cache.HistoryStore, logger logrus.FieldLogger) *Directory {
	if cfg.SecretMatch == nil {
		cfg.SecretMatch = auth.MatchSecret
	}
	if history == nil {
		history = cache.NewMemoryHistory(cache.DefaultHistorySize)
	}
	d := &Directory{
		cfg:         cfg,
		store:       NewRoomStore(),
		history:     history,
		log:         logger,
		sessions:    make(map[string]*Session),
		bots:        make(map[string]*bot.Bot),
		historyJobs: make(chan historyJob, historyQueueSize),
		historyDone: make(chan struct{}),
	}
	go d.historyWorker()
	return d
}

// Connect registers a session and greets it with its identity and the room list.
func (d *Directory) Connect(sess *Session) {
	d.mu.Lock()
	d.sessions[sess.ID] = sess
	d.mu.Unlock()

	d.log.WithField("player_id", sess.ID).Info("Session connected.")
	sess.Send(models.Event{
		Type:       models.EventPlayerID,
		PlayerID:   sess.ID,
		PlayerName: sess.Name(),
		Token:      sess.Token,
	})
	d.SendRooms(sess)
}

// Disconnect takes the session out of its room, forgets it and closes it.
func (d *Directory) Disconnect(sess *Session) {
	if sess.RoomID() != "" {
		if err := d.LeaveRoom(sess); err != nil {
			d.log.WithField("player_id", sess.ID).Debugf("Leave on disconnect: %v", err)
		}
	}
	d.mu.Lock()
	delete(d.sessions, sess.ID)
	d.mu.Unlock()
	sess.Close()
	d.log.WithField("player_id", sess.ID).Info("Session disconnected.")
}

// Sessions is the number of connected sessions.
func (d *Directory) Sessions() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sessions)
}

// ListRooms is the ordered snapshot of open rooms.
func (d *Directory) ListRooms() []models.RoomSummary {
	return d.store.Summaries()
}

// Room looks up a live room by id, bot rooms included.
func (d *Directory) Room(id string) (*room.Room, bool) {
	return d.store.GetRoom(id)
}

// History returns the recent rounds of a live room, oldest first.
func (d *Directory) History(ctx context.Context, roomID string) ([]models.RoundRecord, error) {
	if _, ok := d.store.GetRoom(roomID); !ok {
		return nil, game.ErrRoomNotFound
	}
	return d.history.Recent(ctx, roomID)
}

// SendRooms pushes the current room list to one session.
func (d *Directory) SendRooms(sess *Session) {
	sess.Send(models.Event{Type: models.EventRoomsList, Rooms: d.ListRooms()})
}

// BroadcastRooms pushes the current room list to every connected session.
func (d *Directory) BroadcastRooms() {
	ev := models.Event{Type: models.EventRoomsList, Rooms: d.ListRooms()}
	d.mu.Lock()
	targets := make([]*Session, 0, len(d.sessions))
	for _, s := range d.sessions {
		targets = append(targets, s)
	}
	d.mu.Unlock()
	for _, s := range targets {
		s.Send(ev)
	}
}

// newRoom builds a room wired into this directory. It is not stored yet.
func (d *Directory) newRoom(name, secret string, mode room.Mode) *room.Room {
	r := room.New(uuid.NewString()[:8], name, secret, mode, d.cfg, d.log)
	r.OnChange = d.roomChanged
	r.OnEmpty = d.removeRoom
	r.OnRoundResolved = d.recordRound
	return r
}

// roomChanged republishes the list when a listed room changed.
func (d *Directory) roomChanged(roomID string) {
	r, ok := d.store.GetRoom(roomID)
	if !ok || r.Mode == room.ModeBot || r.Phase() == room.PhaseDestroyed {
		return
	}
	d.BroadcastRooms()
}

// removeRoom is the OnEmpty hook: the room is gone for good.
func (d *Directory) removeRoom(roomID string) {
	r, ok := d.store.GetRoom(roomID)
	if !ok {
		return
	}
	d.store.DeleteRoom(roomID)

	d.mu.Lock()
	b := d.bots[roomID]
	delete(d.bots, roomID)
	d.mu.Unlock()
	if b != nil {
		b.Stop()
	}

	d.enqueueHistory(historyJob{dropID: roomID})
	d.log.WithField("room_id", roomID).Info("Room removed from directory.")
	if r.Mode == room.ModeNetwork {
		d.BroadcastRooms()
	}
}

func (d *Directory) recordRound(rec models.RoundRecord) {
	d.enqueueHistory(historyJob{rec: &rec})
}

func (d *Directory) enqueueHistory(job historyJob) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	select {
	case d.historyJobs <- job:
	default:
		d.log.Warn("History queue full. Dropping job.")
	}
}

// historyWorker applies history writes one at a time so a slow store never
// holds up a room.
func (d *Directory) historyWorker() {
	defer close(d.historyDone)
	for job := range d.historyJobs {
		ctx, cancel := context.WithTimeout(context.Background(), historyTimeout)
		var err error
		roomID := job.dropID
		if job.rec != nil {
			roomID = job.rec.RoomID
			err = d.history.Append(ctx, *job.rec)
		} else {
			err = d.history.Drop(ctx, job.dropID)
		}
		cancel()
		if err != nil {
			d.log.WithField("room_id", roomID).WithError(err).Error("History write failed.")
		}
	}
}

// Close disconnects every session, stops every bot and drains pending
// history writes.
func (d *Directory) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	sessions := make([]*Session, 0, len(d.sessions))
	for _, s := range d.sessions {
		sessions = append(sessions, s)
	}
	d.mu.Unlock()

	for _, s := range sessions {
		d.Disconnect(s)
	}

	d.mu.Lock()
	d.closed = true
	bots := d.bots
	d.bots = make(map[string]*bot.Bot)
	close(d.historyJobs)
	d.mu.Unlock()

	for _, b := range bots {
		b.Stop()
	}
	<-d.historyDone
}

// Connected reports whether a session with this id is already registered.
func (d *Directory) Connected(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.sessions[id]
	return ok
}
