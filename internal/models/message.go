// internal/models/message.go
package models

import "github.com/minhhoangcong/Nhom6-GameRock-Paper-Scissors/internal/game"

// Client to server message types.
const (
	MsgSetName    = "set_name"
	MsgCreateRoom = "create_room"
	MsgJoinRoom   = "join_room"
	MsgQuickJoin  = "quick_join"
	MsgPlayBot    = "play_bot"
	MsgLeaveRoom  = "leave_room"
	MsgReady      = "ready"
	MsgChoice     = "choice"
	MsgNewGame    = "new_game"
	MsgGetRooms   = "get_rooms"
	MsgChat       = "chat"
	MsgPing       = "ping"
)

// ClientMessage is any request a client sends. Fields unused by a type are empty.
type ClientMessage struct {
	Type       string `json:"type"`
	Name       string `json:"name,omitempty"`
	RoomName   string `json:"room_name,omitempty"`
	MaxPlayers int    `json:"max_players,omitempty"`
	RoomID     string `json:"room_id,omitempty"`
	// Secret and Password are aliases; browsers send "password".
	Secret   string `json:"secret,omitempty"`
	Password string `json:"password,omitempty"`
	Ready    *bool  `json:"ready,omitempty"`
	Choice   string `json:"choice,omitempty"`
	Message  string `json:"message,omitempty"`
	T        int64  `json:"t,omitempty"`
}

// RoomSecret returns whichever of secret/password was supplied.
func (m ClientMessage) RoomSecret() string {
	if m.Secret != "" {
		return m.Secret
	}
	return m.Password
}

// WantsReady returns the requested ready flag, defaulting to true.
func (m ClientMessage) WantsReady() bool {
	return m.Ready == nil || *m.Ready
}

// EventType names a server to client message.
type EventType string

const (
	EventPlayerID           EventType = "player_id"
	EventRoomsList          EventType = "rooms_list"
	EventRoomCreated        EventType = "room_created"
	EventPlayerJoined       EventType = "player_joined"
	EventPlayerLeft         EventType = "player_left"
	EventRoomUpdated        EventType = "room_updated"
	EventPlayerRenamed      EventType = "player_renamed"
	EventPlayerReady        EventType = "player_ready"
	EventGameStart          EventType = "game_start"
	EventPlayerChose        EventType = "player_chose"
	EventGameResult         EventType = "game_result"
	EventPlayerReadyNewGame EventType = "player_ready_for_new_game"
	EventChat               EventType = "chat"
	EventPong               EventType = "pong"
	EventError              EventType = "error"
)

// Event is a server to client message. Only the fields relevant to Type are set.
type Event struct {
	Type EventType `json:"type"`

	PlayerID   string `json:"player_id,omitempty"`
	PlayerName string `json:"player_name,omitempty"`
	Token      string `json:"token,omitempty"`

	Rooms  []RoomSummary   `json:"rooms,omitzero"`
	Room   *RoomSnapshot   `json:"room,omitempty"`
	Series *SeriesSnapshot `json:"series,omitempty"`

	IsFirstGame bool  `json:"is_first_game,omitempty"`
	Round       int   `json:"round,omitempty"`
	Deadline    int64 `json:"deadline,omitempty"`

	Choices    map[string]game.Choice `json:"choices,omitempty"`
	Results    map[string]game.Result `json:"results,omitempty"`
	AutoChosen []string               `json:"auto_chosen,omitempty"`
	Scores     map[string]game.Score  `json:"scores,omitempty"`

	Message string         `json:"message,omitempty"`
	Kind    game.ErrorKind `json:"kind,omitempty"`
	T       int64          `json:"t,omitempty"`
}

// ErrorEvent builds the wire error for err.
func ErrorEvent(err error) Event {
	return Event{
		Type:    EventError,
		Message: err.Error(),
		Kind:    game.KindOf(err),
	}
}
