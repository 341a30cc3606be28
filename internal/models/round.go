// internal/models/round.go
package models

import "github.com/minhhoangcong/Nhom6-GameRock-Paper-Scissors/internal/game"

// RoundRecord is one resolved round as kept in a room's history.
type RoundRecord struct {
	RoomID     string                 `json:"room_id"`
	Round      int                    `json:"round"`
	Players    map[string]string      `json:"players"` // id -> display name
	Choices    map[string]game.Choice `json:"choices"`
	Results    map[string]game.Result `json:"results"`
	AutoChosen []string               `json:"auto_chosen,omitempty"`
	SeriesOver bool                   `json:"series_over"`
	Timestamp  int64                  `json:"timestamp"`
}
