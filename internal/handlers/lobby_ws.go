// internal/handlers/lobby_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/minhhoangcong/Nhom6-GameRock-Paper-Scissors/internal/lobby"
	"github.com/minhhoangcong/Nhom6-GameRock-Paper-Scissors/internal/middleware"
	"github.com/minhhoangcong/Nhom6-GameRock-Paper-Scissors/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultPingInterval is how often the server pings an idle client.
	DefaultPingInterval = 30 * time.Second

	outChanSize  = 64
	writeTimeout = 5 * time.Second
	pingTimeout  = 15 * time.Second
)

// LobbyWSHandler upgrades a request to a websocket session, registers it with
// the directory and serves it until either side hangs up.
func LobbyWSHandler(logger *logrus.Logger, dir *lobby.Directory, originPatterns []string, pingInterval time.Duration) http.HandlerFunc {
	if pingInterval <= 0 {
		pingInterval = DefaultPingInterval
	}
	return func(w http.ResponseWriter, r *http.Request) {
		remoteAddr := r.RemoteAddr

		// identity first: the cookie must be set before the upgrade response
		id, token, err := EnsureSessionIdentity(w, r, dir)
		if err != nil {
			logger.Warnf("Identity assignment failed for %s: %v", remoteAddr, err)
			http.Error(w, "could not assign identity", http.StatusInternalServerError)
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: originPatterns,
		})
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")
		middleware.LogWebSocketConnect(logger, remoteAddr, r.URL.Path)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		sess := lobby.NewSession(id, token, outChanSize)
		sess.Cancel = cancel

		go writePump(ctx, c, sess, logger, pingInterval)
		dir.Connect(sess)

		err = readPump(ctx, c, dir, sess, logger)

		logger.WithField("player_id", sess.ID).Debug("readPump exited. Initiating cleanup.")
		dir.Disconnect(sess)
		middleware.LogWebSocketDisconnect(logger, remoteAddr, r.URL.Path, err)
	}
}

// readPump decodes client messages and applies them to the directory one at
// a time. It returns when the connection or ctx ends.
func readPump(ctx context.Context, c *websocket.Conn, dir *lobby.Directory, sess *lobby.Session, logger *logrus.Logger) error {
	for {
		typ, data, err := c.Read(ctx)
		if err != nil {
			closeStatus := websocket.CloseStatus(err)
			if closeStatus == websocket.StatusNormalClosure || closeStatus == websocket.StatusGoingAway || ctx.Err() != nil {
				return nil
			}
			return err
		}

		if typ != websocket.MessageText {
			logger.WithField("player_id", sess.ID).Warnf("Received non-text message type %d. Ignoring.", typ)
			continue
		}

		var msg models.ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			sess.SendError(fmt.Errorf("invalid JSON format: %w", err))
			continue
		}
		handleMessage(dir, sess, msg)
	}
}

// handleMessage dispatches one client message. Errors go back to the sender only.
func handleMessage(dir *lobby.Directory, sess *lobby.Session, msg models.ClientMessage) {
	var err error
	switch msg.Type {
	case models.MsgSetName:
		err = dir.SetName(sess, msg.Name)
	case models.MsgCreateRoom:
		err = dir.CreateRoom(sess, msg.RoomName, msg.MaxPlayers, msg.RoomSecret())
	case models.MsgJoinRoom:
		err = dir.JoinRoom(sess, strings.TrimSpace(msg.RoomID), msg.RoomSecret())
	case models.MsgQuickJoin:
		err = dir.QuickJoin(sess)
	case models.MsgPlayBot:
		err = dir.PlayBot(sess)
	case models.MsgLeaveRoom:
		err = dir.LeaveRoom(sess)
	case models.MsgReady:
		err = dir.Ready(sess, msg.WantsReady())
	case models.MsgChoice:
		err = dir.Choose(sess, msg.Choice)
	case models.MsgNewGame:
		err = dir.NewGame(sess)
	case models.MsgGetRooms:
		dir.SendRooms(sess)
	case models.MsgChat:
		err = dir.Chat(sess, msg.Message)
	case models.MsgPing:
		sess.Send(models.Event{Type: models.EventPong, T: msg.T})
	default:
		err = fmt.Errorf("unknown message type: %q", msg.Type)
	}
	dir.ReportError(sess, err)
}

// writePump drains the session's OutChan onto the socket and keeps the
// connection alive with periodic pings.
func writePump(ctx context.Context, c *websocket.Conn, sess *lobby.Session, logger *logrus.Logger, pingInterval time.Duration) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sess.OutChan:
			if !ok {
				_ = c.Close(SessionClosedError, "session closed")
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				logger.WithField("player_id", sess.ID).Warnf("Failed to marshal outgoing event: %v", err)
				continue
			}

			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err = c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.WithField("player_id", sess.ID).Warnf("Failed to write to websocket: %v", err)
				sess.Cancel()
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				logger.WithField("player_id", sess.ID).Warnf("Failed to send ping: %v. Assuming disconnect.", err)
				sess.Cancel()
				return
			}
		}
	}
}
