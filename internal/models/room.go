// internal/models/room.go
package models

import "github.com/minhhoangcong/Nhom6-GameRock-Paper-Scissors/internal/game"

// GameState is the coarse room tag shown in the room list.
type GameState string

const (
	StateWaiting  GameState = "waiting"
	StatePlaying  GameState = "playing"
	StateFinished GameState = "finished"
)

// Rank orders states for quick join: waiting rooms first, finished last.
func (s GameState) Rank() int {
	switch s {
	case StateWaiting:
		return 0
	case StatePlaying:
		return 1
	default:
		return 2
	}
}

// PlayerSnapshot describes one seated player.
type PlayerSnapshot struct {
	PlayerID  string `json:"player_id"`
	Name      string `json:"name"`
	Ready     bool   `json:"ready"`
	Slot      int    `json:"slot"`
	Connected bool   `json:"connected"`
	IsBot     bool   `json:"is_bot,omitempty"`
}

// SeriesSnapshot is the best-of-N progress keyed by player id.
type SeriesSnapshot struct {
	BestOf int            `json:"best_of"`
	Target int            `json:"target"`
	Wins   map[string]int `json:"wins"`
	Over   bool           `json:"over"`
	Winner string         `json:"winner,omitempty"`
	Round  int            `json:"round"`
}

// RoomSnapshot is the full view of a room sent to its players.
type RoomSnapshot struct {
	RoomID         string                `json:"room_id"`
	RoomName       string                `json:"room_name"`
	MaxPlayers     int                   `json:"max_players"`
	CurrentPlayers int                   `json:"current_players"`
	GameState      GameState             `json:"game_state"`
	Phase          string                `json:"phase"`
	HasPassword    bool                  `json:"has_password"`
	IsFull         bool                  `json:"is_full"`
	Players        []PlayerSnapshot      `json:"players"`
	Scores         map[string]game.Score `json:"scores"`
	Leader         string                `json:"leader,omitempty"`
	Series         SeriesSnapshot        `json:"series"`
}

// RoomSummary is the directory entry used for browsing and quick join.
type RoomSummary struct {
	RoomID         string           `json:"room_id"`
	RoomName       string           `json:"room_name"`
	MaxPlayers     int              `json:"max_players"`
	CurrentPlayers int              `json:"current_players"`
	GameState      GameState        `json:"game_state"`
	HasPassword    bool             `json:"has_password"`
	IsFull         bool             `json:"is_full"`
	Players        []PlayerSnapshot `json:"players"`
}

// HasFreeSlot reports whether another player can sit down.
func (s RoomSummary) HasFreeSlot() bool {
	return s.CurrentPlayers < s.MaxPlayers
}

// Summary trims a snapshot down to its directory entry.
func (r RoomSnapshot) Summary() RoomSummary {
	return RoomSummary{
		RoomID:         r.RoomID,
		RoomName:       r.RoomName,
		MaxPlayers:     r.MaxPlayers,
		CurrentPlayers: r.CurrentPlayers,
		GameState:      r.GameState,
		HasPassword:    r.HasPassword,
		IsFull:         r.IsFull,
		Players:        r.Players,
	}
}
