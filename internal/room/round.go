// internal/room/round.go
package room

import (
	"time"

	"github.com/minhhoangcong/Nhom6-GameRock-Paper-Scissors/internal/game"
	"github.com/minhhoangcong/Nhom6-GameRock-Paper-Scissors/internal/models"
)

// startRoundUnsafe opens a new round and arms its deadline.
// Assumes lock is held.
func (r *Room) startRoundUnsafe(fx *effects) {
	r.stopTimerUnsafe()
	r.roundSeq++
	now := time.Now()
	r.round = game.NewRound(r.roundSeq, now, r.cfg.RoundTimeout)
	r.phase = PhasePlaying
	for _, s := range r.seats {
		s.rematch = false
	}
	fx.changed = true

	n := r.roundSeq
	r.timer = time.AfterFunc(r.cfg.RoundTimeout, func() {
		r.expire(n)
	})

	snap := r.snapshotUnsafe()
	r.log.WithField("round", n).Infof("Round started (series round %d, deadline %s).", r.series.Played+1, r.cfg.RoundTimeout)
	r.broadcastUnsafe(models.Event{
		Type:        models.EventGameStart,
		Room:        &snap,
		Series:      &snap.Series,
		IsFirstGame: r.series.Played == 0,
		Round:       r.series.Played + 1,
		Deadline:    r.round.Deadline.UnixMilli(),
	})
}

// expire is the deadline callback for round n. A fire for a round that
// already resolved, or was cancelled by a leave, is ignored.
func (r *Room) expire(n int) {
	_ = r.transition(func(fx *effects) error {
		if r.phase != PhasePlaying || r.round == nil || r.round.Number != n {
			r.log.WithField("round", n).Debug("Stale round timer fired. Ignoring.")
			return nil
		}
		r.log.WithField("round", n).Info("Round deadline passed; filling missing choices.")
		r.resolveUnsafe(fx)
		return nil
	})
}

// resolveUnsafe commits the active round into the series and scoreboard and
// announces the result. It is the only place a round gets resolved.
// Assumes lock is held.
func (r *Room) resolveUnsafe(fx *effects) {
	res, ok := r.round.Resolve(r.rng)
	if !ok {
		return
	}
	r.stopTimerUnsafe()
	n := r.round.Number
	r.round = nil

	r.series.Record(res.Results)
	for seat, s := range r.seats {
		r.scores.Record(s.ID, res.Results[seat])
		s.ready = false
		s.rematch = false
	}
	r.phase = PhaseRoundResolved
	fx.changed = true

	choices := make(map[string]game.Choice, MaxPlayers)
	results := make(map[string]game.Result, MaxPlayers)
	names := make(map[string]string, MaxPlayers)
	var auto []string
	for seat, s := range r.seats {
		choices[s.ID] = res.Choices[seat]
		results[s.ID] = res.Results[seat]
		names[s.ID] = s.Name
		if res.Auto[seat] {
			auto = append(auto, s.ID)
		}
	}

	snap := r.snapshotUnsafe()
	log := r.log.WithField("round", n)
	log.Infof("Round resolved: %s=%s (%s), %s=%s (%s).",
		r.seats[0].Name, res.Choices[0], res.Results[0], r.seats[1].Name, res.Choices[1], res.Results[1])
	if r.series.Over() {
		log.Infof("Series over; winner %s.", snap.Series.Winner)
	}
	r.broadcastUnsafe(models.Event{
		Type:       models.EventGameResult,
		Room:       &snap,
		Series:     &snap.Series,
		Choices:    choices,
		Results:    results,
		AutoChosen: auto,
		Scores:     snap.Scores,
	})

	fx.records = append(fx.records, models.RoundRecord{
		RoomID:     r.ID,
		Round:      n,
		Players:    names,
		Choices:    choices,
		Results:    results,
		AutoChosen: auto,
		SeriesOver: r.series.Over(),
		Timestamp:  time.Now().UnixMilli(),
	})
}

// stopTimerUnsafe disarms the round deadline if one is pending.
// Assumes lock is held.
func (r *Room) stopTimerUnsafe() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}
