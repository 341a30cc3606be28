// internal/lobby/matchmaking.go
package lobby

import (
	"sort"

	"github.com/minhhoangcong/Nhom6-GameRock-Paper-Scissors/internal/models"
)

// SelectQuickJoin picks the room quick join should enter from a directory
// snapshot. Open rooms with a free seat qualify; waiting rooms are preferred
// over playing ones, playing over finished, and ties keep list order. ok is
// false when nothing qualifies and a fresh room should be created instead.
func SelectQuickJoin(rooms []models.RoomSummary) (roomID string, ok bool) {
	candidates := make([]models.RoomSummary, 0, len(rooms))
	for _, r := range rooms {
		if r.HasPassword || !r.HasFreeSlot() {
			continue
		}
		candidates = append(candidates, r)
	}
	if len(candidates) == 0 {
		return "", false
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].GameState.Rank() < candidates[j].GameState.Rank()
	})
	return candidates[0].RoomID, true
}
