// internal/game/scoreboard.go
package game

import "sort"

// Score is a player's cumulative record inside one room.
type Score struct {
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
	Draws  int `json:"draws"`
}

type scoreEntry struct {
	name  string
	score Score
}

// Scoreboard keeps per-player totals for the lifetime of a room. It is
// display data only and has no say in when a series ends.
type Scoreboard struct {
	entries map[string]*scoreEntry // keyed by player id
	order   []string
}

// NewScoreboard returns an empty scoreboard.
func NewScoreboard() *Scoreboard {
	return &Scoreboard{entries: make(map[string]*scoreEntry)}
}

// Add registers a player with a zero record. Adding a known id only renames it.
func (sb *Scoreboard) Add(id, name string) {
	if e, ok := sb.entries[id]; ok {
		e.name = name
		return
	}
	sb.entries[id] = &scoreEntry{name: name}
	sb.order = append(sb.order, id)
}

// Remove drops a player's record.
func (sb *Scoreboard) Remove(id string) {
	if _, ok := sb.entries[id]; !ok {
		return
	}
	delete(sb.entries, id)
	for i, v := range sb.order {
		if v == id {
			sb.order = append(sb.order[:i], sb.order[i+1:]...)
			break
		}
	}
}

// Rename moves the record to a new display name.
func (sb *Scoreboard) Rename(id, name string) {
	if e, ok := sb.entries[id]; ok {
		e.name = name
	}
}

// Record adds one result to the player's totals.
func (sb *Scoreboard) Record(id string, r Result) {
	e, ok := sb.entries[id]
	if !ok {
		return
	}
	switch r {
	case Win:
		e.score.Wins++
	case Lose:
		e.score.Losses++
	case Draw:
		e.score.Draws++
	}
}

// Get returns the record for a player id.
func (sb *Scoreboard) Get(id string) Score {
	if e, ok := sb.entries[id]; ok {
		return e.score
	}
	return Score{}
}

// ByName renders the board keyed by display name.
func (sb *Scoreboard) ByName() map[string]Score {
	out := make(map[string]Score, len(sb.entries))
	for _, id := range sb.order {
		e := sb.entries[id]
		out[e.name] = e.score
	}
	return out
}

// Leader ranks players by wins, then by fewer losses, and returns the name on
// top. ok is false when the board is empty or the top two are tied.
func (sb *Scoreboard) Leader() (name string, ok bool) {
	ranked := make([]*scoreEntry, 0, len(sb.order))
	for _, id := range sb.order {
		ranked = append(ranked, sb.entries[id])
	}
	if len(ranked) == 0 {
		return "", false
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ahead(ranked[i].score, ranked[j].score)
	})
	if len(ranked) > 1 && !ahead(ranked[0].score, ranked[1].score) {
		return "", false
	}
	return ranked[0].name, true
}

func ahead(a, b Score) bool {
	if a.Wins != b.Wins {
		return a.Wins > b.Wins
	}
	return a.Losses < b.Losses
}
