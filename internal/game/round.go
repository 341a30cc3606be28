// internal/game/round.go
package game

import (
	"math/rand/v2"
	"time"
)

// DefaultRoundTimeout is how long players get to choose before missing
// choices are filled in.
const DefaultRoundTimeout = 10 * time.Second

// Round collects one choice per seat until both are in or the deadline passes.
// A Round is not safe for concurrent use; the owning room serializes access.
type Round struct {
	// Number increases by one for every round a room starts. Timer callbacks
	// carry it so a stale deadline can be recognized.
	Number   int
	Deadline time.Time

	choices     [2]Choice
	dupReported [2]bool
	resolved    bool
	resolution  Resolution
}

// Resolution is the committed outcome of a Round, indexed by seat.
type Resolution struct {
	Choices [2]Choice
	Results [2]Result
	// Auto marks seats whose choice was drawn at random on timeout.
	Auto [2]bool
}

// NewRound starts round number n with a deadline timeout after start.
func NewRound(n int, start time.Time, timeout time.Duration) *Round {
	return &Round{
		Number:   n,
		Deadline: start.Add(timeout),
	}
}

// Submit records the choice of the player in seat. It returns complete=true
// once both seats have chosen; the caller then resolves the round.
func (r *Round) Submit(seat int, c Choice) (complete bool, err error) {
	if r.resolved {
		return false, ErrLateChoice
	}
	if !c.Valid() {
		return false, ErrInvalidChoice
	}
	if r.choices[seat] != "" {
		if r.dupReported[seat] {
			return false, ErrRepeatedChoice
		}
		r.dupReported[seat] = true
		return false, ErrAlreadyChosen
	}
	r.choices[seat] = c
	return r.choices[0] != "" && r.choices[1] != "", nil
}

// HasChosen reports whether seat already submitted a choice.
func (r *Round) HasChosen(seat int) bool {
	return r.choices[seat] != ""
}

// Resolve commits the round. Missing choices are drawn from rng, one draw per
// missing seat. Only the first call resolves; later calls return ok=false and
// leave the committed outcome untouched.
func (r *Round) Resolve(rng *rand.Rand) (res Resolution, ok bool) {
	if r.resolved {
		return r.resolution, false
	}
	for seat := range r.choices {
		if r.choices[seat] == "" {
			r.choices[seat] = RandomChoice(rng)
			r.resolution.Auto[seat] = true
		}
	}
	r.resolution.Choices = r.choices
	r.resolution.Results[0], r.resolution.Results[1] = Outcome(r.choices[0], r.choices[1])
	r.resolved = true
	return r.resolution, true
}

// Resolved reports whether the outcome has been committed.
func (r *Round) Resolved() bool {
	return r.resolved
}

// Resolution returns the committed outcome, or false if not yet resolved.
func (r *Round) Resolution() (Resolution, bool) {
	return r.resolution, r.resolved
}
