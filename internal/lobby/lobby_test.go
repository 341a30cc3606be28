// internal/lobby/lobby_test.go
package lobby

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/minhhoangcong/Nhom6-GameRock-Paper-Scissors/internal/cache"
	"github.com/minhhoangcong/Nhom6-GameRock-Paper-Scissors/internal/game"
	"github.com/minhhoangcong/Nhom6-GameRock-Paper-Scissors/internal/models"
	"github.com/minhhoangcong/Nhom6-GameRock-Paper-Scissors/internal/room"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

// inbox accumulates everything a session was sent.
type inbox struct {
	sess   *Session
	events []models.Event
}

func (in *inbox) pull() []models.Event {
	for {
		select {
		case ev, ok := <-in.sess.OutChan:
			if !ok {
				return in.events
			}
			in.events = append(in.events, ev)
		default:
			return in.events
		}
	}
}

func (in *inbox) count(t models.EventType) int {
	n := 0
	for _, ev := range in.pull() {
		if ev.Type == t {
			n++
		}
	}
	return n
}

func (in *inbox) last(t models.EventType) *models.Event {
	evs := in.pull()
	for i := len(evs) - 1; i >= 0; i-- {
		if evs[i].Type == t {
			return &evs[i]
		}
	}
	return nil
}

func (in *inbox) types() []models.EventType {
	evs := in.pull()
	out := make([]models.EventType, 0, len(evs))
	for _, ev := range evs {
		out = append(out, ev.Type)
	}
	return out
}

func (in *inbox) clear() {
	in.pull()
	in.events = nil
}

func newTestDirectory(t *testing.T) (*Directory, *cache.MemoryHistory) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	history := cache.NewMemoryHistory(cache.DefaultHistorySize)
	d := NewDirectory(room.DefaultConfig(), history, logger)
	t.Cleanup(d.Close)
	return d, history
}

func connect(d *Directory, id string) (*Session, *inbox) {
	sess := NewSession(id, "token-"+id, 128)
	d.Connect(sess)
	return sess, &inbox{sess: sess}
}

func TestConnectGreets(t *testing.T) {
	d, _ := newTestDirectory(t)
	_, in := connect(d, "abcdef")

	evs := in.pull()
	require.Len(t, evs, 2)
	assert.Equal(t, models.EventPlayerID, evs[0].Type)
	assert.Equal(t, "abcdef", evs[0].PlayerID)
	assert.Equal(t, "Player_abcd", evs[0].PlayerName)
	assert.Equal(t, "token-abcdef", evs[0].Token)
	assert.Equal(t, models.EventRoomsList, evs[1].Type)
	assert.NotNil(t, evs[1].Rooms)
	assert.Empty(t, evs[1].Rooms)
	assert.Equal(t, 1, d.Sessions())
}

func TestCreateAndJoinRoom(t *testing.T) {
	d, _ := newTestDirectory(t)
	a, ina := connect(d, "alice")
	b, inb := connect(d, "bob")
	ina.clear()
	inb.clear()

	require.NoError(t, d.CreateRoom(a, "  Lounge  ", 4, ""))
	assert.Equal(t, []models.EventType{models.EventRoomCreated, models.EventRoomsList}, ina.types())
	list := inb.last(models.EventRoomsList)
	require.NotNil(t, list, "every session hears about the new room")
	require.Len(t, list.Rooms, 1)
	assert.Equal(t, "Lounge", list.Rooms[0].RoomName)
	assert.Equal(t, 2, list.Rooms[0].MaxPlayers)
	assert.Equal(t, 1, list.Rooms[0].CurrentPlayers)
	roomID := a.RoomID()
	assert.Len(t, roomID, 8)

	require.NoError(t, d.JoinRoom(b, roomID, ""))
	assert.Equal(t, roomID, b.RoomID())
	assert.Equal(t, 1, ina.count(models.EventPlayerJoined))
	joined := inb.last(models.EventPlayerJoined)
	require.NotNil(t, joined)
	assert.Equal(t, "bob", joined.PlayerID)
	assert.Equal(t, 2, joined.Room.CurrentPlayers)

	rooms := d.ListRooms()
	require.Len(t, rooms, 1)
	assert.True(t, rooms[0].IsFull)

	c, inc := connect(d, "carol")
	inc.clear()
	err := d.JoinRoom(c, roomID, "")
	assert.ErrorIs(t, err, game.ErrRoomFull)
	d.ReportError(c, err)
	assert.Equal(t, []models.EventType{models.EventError, models.EventRoomsList}, inc.types())
	assert.Equal(t, game.KindRoomFull, inc.last(models.EventError).Kind)
}

func TestJoinErrors(t *testing.T) {
	d, _ := newTestDirectory(t)
	a, _ := connect(d, "alice")
	b, inb := connect(d, "bob")
	inb.clear()

	err := d.JoinRoom(b, "missing", "")
	assert.ErrorIs(t, err, game.ErrRoomNotFound)
	d.ReportError(b, err)
	assert.Equal(t, []models.EventType{models.EventError, models.EventRoomsList}, inb.types())

	require.NoError(t, d.CreateRoom(a, "Locked", 2, "hunter2"))
	assert.True(t, d.ListRooms()[0].HasPassword)
	inb.clear()
	err = d.JoinRoom(b, a.RoomID(), "nope")
	assert.ErrorIs(t, err, game.ErrBadSecret)
	d.ReportError(b, err)
	assert.Equal(t, []models.EventType{models.EventError}, inb.types(), "a bad secret does not refresh the list")

	assert.ErrorIs(t, d.CreateRoom(a, "Again", 2, ""), game.ErrAlreadyInRoom)
	assert.ErrorIs(t, d.QuickJoin(a), game.ErrAlreadyInRoom)
	assert.ErrorIs(t, d.PlayBot(a), game.ErrAlreadyInRoom)
	assert.ErrorIs(t, d.JoinRoom(a, a.RoomID(), "hunter2"), game.ErrAlreadyInRoom)
	require.NoError(t, d.JoinRoom(b, a.RoomID(), "hunter2"))
}

func TestQuickJoin(t *testing.T) {
	d, _ := newTestDirectory(t)
	a, _ := connect(d, "alice")
	b, _ := connect(d, "bob")
	c, _ := connect(d, "carol")
	e, _ := connect(d, "erin")

	require.NoError(t, d.CreateRoom(e, "Private", 2, "pw"))
	require.NoError(t, d.QuickJoin(a))
	assert.NotEqual(t, e.RoomID(), a.RoomID(), "protected rooms are never quick joined")
	r, ok := d.Room(a.RoomID())
	require.True(t, ok)
	assert.Equal(t, "Room 2", r.Name)

	require.NoError(t, d.QuickJoin(b))
	assert.Equal(t, a.RoomID(), b.RoomID())

	require.NoError(t, d.QuickJoin(c))
	assert.NotEqual(t, a.RoomID(), c.RoomID(), "a full room forces a new one")
	assert.Len(t, d.ListRooms(), 3)
}

func TestNetworkedRoundAndHistory(t *testing.T) {
	d, history := newTestDirectory(t)
	a, ina := connect(d, "alice")
	b, inb := connect(d, "bob")
	require.NoError(t, d.CreateRoom(a, "", 2, ""))
	roomID := a.RoomID()
	require.NoError(t, d.JoinRoom(b, roomID, ""))

	assert.ErrorIs(t, d.Choose(a, "rock"), game.ErrNotYourTurnState)
	require.NoError(t, d.Ready(a, true))
	require.NoError(t, d.Ready(b, true))
	start := ina.last(models.EventGameStart)
	require.NotNil(t, start)
	assert.True(t, start.IsFirstGame)
	assert.Equal(t, models.StatePlaying, d.ListRooms()[0].GameState)

	assert.ErrorIs(t, d.Choose(a, "lizard"), game.ErrInvalidChoice)
	require.NoError(t, d.Choose(a, "rock"))
	require.NoError(t, d.Choose(b, "scissors"))
	result := inb.last(models.EventGameResult)
	require.NotNil(t, result)
	assert.Equal(t, game.Win, result.Results["alice"])
	assert.Equal(t, game.Lose, result.Results["bob"])

	assert.Eventually(t, func() bool {
		recs, err := d.History(context.Background(), roomID)
		return err == nil && len(recs) == 1
	}, waitFor, tick)
	recs, err := d.History(context.Background(), roomID)
	require.NoError(t, err)
	assert.Equal(t, game.Rock, recs[0].Choices["alice"])

	require.NoError(t, d.LeaveRoom(a))
	updated := ina.last(models.EventRoomUpdated)
	require.NotNil(t, updated)
	assert.Equal(t, 1, updated.Room.CurrentPlayers)
	assert.Equal(t, "", a.RoomID())
	assert.ErrorIs(t, d.LeaveRoom(a), game.ErrNotInRoom)

	require.NoError(t, d.LeaveRoom(b))
	assert.Empty(t, d.ListRooms())
	_, err = d.History(context.Background(), roomID)
	assert.ErrorIs(t, err, game.ErrRoomNotFound)
	assert.Eventually(t, func() bool {
		recs, _ := history.Recent(context.Background(), roomID)
		return len(recs) == 0
	}, waitFor, tick, "history is dropped with the room")
	list := ina.last(models.EventRoomsList)
	require.NotNil(t, list)
	assert.Empty(t, list.Rooms)
}

func TestSetName(t *testing.T) {
	d, _ := newTestDirectory(t)
	a, ina := connect(d, "alice")
	b, inb := connect(d, "bob")

	assert.ErrorIs(t, d.SetName(a, "  x "), game.ErrInvalidName)
	require.NoError(t, d.SetName(a, " Alice "))
	assert.Equal(t, "Alice", a.Name())
	id := ina.last(models.EventPlayerID)
	require.NotNil(t, id)
	assert.Equal(t, "Alice", id.PlayerName)

	require.NoError(t, d.SetName(b, strings.Repeat("b", 40)))
	assert.Len(t, b.Name(), maxNameLen)

	require.NoError(t, d.CreateRoom(a, "", 2, ""))
	require.NoError(t, d.JoinRoom(b, a.RoomID(), ""))
	require.NoError(t, d.SetName(a, "Ally"))
	renamed := inb.last(models.EventPlayerRenamed)
	require.NotNil(t, renamed)
	assert.Equal(t, "Ally", renamed.PlayerName)
	_, ok := renamed.Room.Scores["Ally"]
	assert.True(t, ok)
	assert.Equal(t, "Ally", d.ListRooms()[0].Players[0].Name)
}

func TestChat(t *testing.T) {
	d, _ := newTestDirectory(t)
	a, inA := connect(d, "alice")
	b, inB := connect(d, "bob")
	_, inO := connect(d, "outsider")

	assert.ErrorIs(t, d.Chat(a, "hi"), game.ErrNotInRoom)
	require.NoError(t, d.CreateRoom(a, "", 2, ""))
	require.NoError(t, d.JoinRoom(b, a.RoomID(), ""))
	inA.clear()
	inB.clear()
	inO.clear()

	require.NoError(t, d.Chat(a, "   "))
	assert.Zero(t, inB.count(models.EventChat))

	require.NoError(t, d.Chat(a, "  good luck  "))
	msg := inB.last(models.EventChat)
	require.NotNil(t, msg)
	assert.Equal(t, "good luck", msg.Message)
	assert.Equal(t, "alice", msg.PlayerID)
	assert.Equal(t, 1, inA.count(models.EventChat))
	assert.Zero(t, inO.count(models.EventChat), "chat stays inside the room")

	require.NoError(t, d.Chat(b, strings.Repeat("é", 600)))
	assert.Equal(t, maxChatLen, len([]rune(inA.last(models.EventChat).Message)))
}

func TestPlayBot(t *testing.T) {
	d, history := newTestDirectory(t)
	h, in := connect(d, "human")
	other, _ := connect(d, "other")

	require.NoError(t, d.PlayBot(h))
	roomID := h.RoomID()
	assert.Empty(t, d.ListRooms(), "bot rooms are never listed")
	assert.ErrorIs(t, d.JoinRoom(other, roomID, ""), game.ErrRoomNotFound)

	r, ok := d.Room(roomID)
	require.True(t, ok)
	assert.Equal(t, BotRoomName, r.Name)
	snap := r.Snapshot()
	require.Len(t, snap.Players, 2)
	assert.True(t, snap.Players[1].IsBot)
	assert.Equal(t, 1, snap.Players[1].Slot)

	d.mu.Lock()
	b := d.bots[roomID]
	d.mu.Unlock()
	require.NotNil(t, b)

	require.NoError(t, d.Ready(h, true))
	assert.Eventually(t, func() bool { return in.count(models.EventGameStart) == 1 }, waitFor, tick)
	require.NoError(t, d.Choose(h, "paper"))
	assert.Eventually(t, func() bool { return in.count(models.EventGameResult) == 1 }, waitFor, tick)
	assert.Eventually(t, func() bool {
		recs, _ := history.Recent(context.Background(), roomID)
		return len(recs) == 1
	}, waitFor, tick)

	require.NoError(t, d.LeaveRoom(h))
	_, ok = d.Room(roomID)
	assert.False(t, ok)
	select {
	case <-b.Done():
	case <-time.After(waitFor):
		t.Fatal("bot did not stop with its room")
	}
	assert.NotNil(t, in.last(models.EventRoomsList))
}

func TestDisconnectLeavesRoom(t *testing.T) {
	d, _ := newTestDirectory(t)
	a, _ := connect(d, "alice")
	b, inb := connect(d, "bob")
	require.NoError(t, d.CreateRoom(a, "", 2, ""))
	require.NoError(t, d.JoinRoom(b, a.RoomID(), ""))

	d.Disconnect(a)
	assert.False(t, a.Alive())
	assert.Equal(t, 1, d.Sessions())
	left := inb.last(models.EventPlayerLeft)
	require.NotNil(t, left)
	assert.Equal(t, "alice", left.PlayerID)

	a.Send(models.Event{Type: models.EventPong})
	d.Disconnect(a)
}

func TestCloseDisconnectsEveryone(t *testing.T) {
	d, _ := newTestDirectory(t)
	a, _ := connect(d, "alice")
	h, _ := connect(d, "human")
	require.NoError(t, d.CreateRoom(a, "", 2, ""))
	require.NoError(t, d.PlayBot(h))

	d.Close()
	assert.False(t, a.Alive())
	assert.False(t, h.Alive())
	assert.Zero(t, d.Sessions())
	assert.Zero(t, d.store.Len())
	d.Close()
}
