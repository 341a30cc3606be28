// internal/lobby/lobby_manager.go
package lobby

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/minhhoangcong/Nhom6-GameRock-Paper-Scissors/internal/auth"
	"github.com/minhhoangcong/Nhom6-GameRock-Paper-Scissors/internal/bot"
	"github.com/minhhoangcong/Nhom6-GameRock-Paper-Scissors/internal/game"
	"github.com/minhhoangcong/Nhom6-GameRock-Paper-Scissors/internal/models"
	"github.com/minhhoangcong/Nhom6-GameRock-Paper-Scissors/internal/room"
	"github.com/sirupsen/logrus"
)

const (
	minNameLen     = 2
	maxNameLen     = 24
	maxRoomNameLen = 40
	maxChatLen     = 500

	// quickJoinAttempts bounds retries when the chosen room fills up in between.
	quickJoinAttempts = 3
)

// ReportError delivers err to the session that caused it. Silent errors are
// only logged; directory errors are followed by a fresh room list.
func (d *Directory) ReportError(sess *Session, err error) {
	if err == nil {
		return
	}
	entry := d.log.WithFields(logrus.Fields{"player_id": sess.ID, "room_id": sess.RoomID()})
	if game.Silent(err) {
		entry.Debugf("Ignoring: %v", err)
		return
	}
	entry.Debugf("Rejected: %v", err)
	sess.SendError(err)
	if game.RefreshesDirectory(err) {
		d.SendRooms(sess)
	}
}

// SetName renames the session, and its seat when it sits in a room.
func (d *Directory) SetName(sess *Session, name string) error {
	name = truncate(strings.TrimSpace(name), maxNameLen)
	if utf8.RuneCountInString(name) < minNameLen {
		return game.ErrInvalidName
	}
	sess.setName(name)
	sess.Send(models.Event{
		Type:       models.EventPlayerID,
		PlayerID:   sess.ID,
		PlayerName: name,
		Token:      sess.Token,
	})
	if r, ok := d.store.GetRoom(sess.RoomID()); ok {
		return r.Rename(sess.ID, name)
	}
	return nil
}

// CreateRoom opens a new listed room and seats the session in it. Rooms
// always hold two players whatever maxPlayers asks for.
func (d *Directory) CreateRoom(sess *Session, name string, maxPlayers int, secret string) error {
	if sess.RoomID() != "" {
		return game.ErrAlreadyInRoom
	}
	d.mu.Lock()
	d.created++
	n := d.created
	d.mu.Unlock()

	name = truncate(strings.TrimSpace(name), maxRoomNameLen)
	if name == "" {
		name = fmt.Sprintf("Room %d", n)
	}
	if maxPlayers != 0 && maxPlayers != room.MaxPlayers {
		d.log.WithField("player_id", sess.ID).Debugf("max_players %d clamped to %d.", maxPlayers, room.MaxPlayers)
	}

	stored, err := auth.HashSecret(secret)
	if err != nil {
		return fmt.Errorf("hash room secret: %w", err)
	}
	r := d.newRoom(name, stored, room.ModeNetwork)
	if err := r.Join(d.playerFor(sess), secret); err != nil {
		return err
	}
	sess.setRoom(r.ID)
	d.store.AddRoom(r)
	d.log.WithFields(logrus.Fields{"player_id": sess.ID, "room_id": r.ID}).Infof("Room '%s' created.", name)
	d.BroadcastRooms()
	return nil
}

// JoinRoom seats the session in an existing listed room.
func (d *Directory) JoinRoom(sess *Session, roomID, secret string) error {
	if sess.RoomID() != "" {
		return game.ErrAlreadyInRoom
	}
	r, ok := d.store.GetRoom(roomID)
	if !ok || r.Mode == room.ModeBot {
		return game.ErrRoomNotFound
	}
	if err := r.Join(d.playerFor(sess), secret); err != nil {
		return err
	}
	sess.setRoom(r.ID)
	return nil
}

// QuickJoin enters the room SelectQuickJoin picks, or creates a fresh open
// room when nothing qualifies.
func (d *Directory) QuickJoin(sess *Session) error {
	if sess.RoomID() != "" {
		return game.ErrAlreadyInRoom
	}
	for range quickJoinAttempts {
		id, ok := SelectQuickJoin(d.ListRooms())
		if !ok {
			break
		}
		err := d.JoinRoom(sess, id, "")
		if err == nil {
			return nil
		}
		if !game.RefreshesDirectory(err) {
			return err
		}
	}
	return d.CreateRoom(sess, "", room.MaxPlayers, "")
}

// PlayBot opens a private room with the bot in the second seat.
func (d *Directory) PlayBot(sess *Session) error {
	if sess.RoomID() != "" {
		return game.ErrAlreadyInRoom
	}
	r := d.newRoom(BotRoomName, "", room.ModeBot)
	if err := r.Join(d.playerFor(sess), ""); err != nil {
		return err
	}
	sess.setRoom(r.ID)
	d.store.AddRoom(r)

	b := bot.New("bot-"+r.ID, nil, d.log)
	d.mu.Lock()
	d.bots[r.ID] = b
	d.mu.Unlock()
	b.Start(r)
	if err := r.Join(b.Player, ""); err != nil {
		b.Stop()
		return err
	}
	d.log.WithFields(logrus.Fields{"player_id": sess.ID, "room_id": r.ID}).Info("Bot room opened.")
	return nil
}

// LeaveRoom vacates the session's seat. The leaver gets the room as it is
// after the departure.
func (d *Directory) LeaveRoom(sess *Session) error {
	roomID := sess.RoomID()
	if roomID == "" {
		return game.ErrNotInRoom
	}
	sess.setRoom("")
	r, ok := d.store.GetRoom(roomID)
	if !ok {
		return game.ErrNotInRoom
	}
	if err := r.Leave(sess.ID); err != nil && !errors.Is(err, game.ErrNotInRoom) {
		return err
	}
	snap := r.Snapshot()
	sess.Send(models.Event{
		Type:       models.EventRoomUpdated,
		PlayerID:   sess.ID,
		PlayerName: sess.Name(),
		Room:       &snap,
	})
	if r.Mode == room.ModeBot {
		// bot rooms never show up in broadcasts
		d.SendRooms(sess)
	}
	return nil
}

// Ready toggles the session's ready flag.
func (d *Directory) Ready(sess *Session, ready bool) error {
	r, err := d.seated(sess)
	if err != nil {
		return err
	}
	return r.SetReady(sess.ID, ready)
}

// Choose submits a choice given by its wire name.
func (d *Directory) Choose(sess *Session, choice string) error {
	r, err := d.seated(sess)
	if err != nil {
		return err
	}
	c, err := game.ParseChoice(choice)
	if err != nil {
		return err
	}
	return r.Choose(sess.ID, c)
}

// NewGame asks for a rematch or a new series.
func (d *Directory) NewGame(sess *Session) error {
	r, err := d.seated(sess)
	if err != nil {
		return err
	}
	return r.NewGame(sess.ID)
}

// Chat relays a message to the session's room. Blank messages are dropped.
func (d *Directory) Chat(sess *Session, message string) error {
	r, err := d.seated(sess)
	if err != nil {
		return err
	}
	message = truncate(strings.TrimSpace(message), maxChatLen)
	if message == "" {
		return nil
	}
	return r.Chat(sess.ID, message)
}

func (d *Directory) seated(sess *Session) (*room.Room, error) {
	r, ok := d.store.GetRoom(sess.RoomID())
	if !ok {
		return nil, game.ErrNotInRoom
	}
	return r, nil
}

func (d *Directory) playerFor(sess *Session) *room.Player {
	return &room.Player{ID: sess.ID, Name: sess.Name(), Sink: sess}
}

// truncate caps s at n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
