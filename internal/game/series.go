// internal/game/series.go
package game

import "fmt"

// DefaultBestOf is the series length used when none is configured.
const DefaultBestOf = 3

// Series tracks round wins per seat in a best-of-N match.
type Series struct {
	BestOf int
	Wins   [2]int
	// Played counts rounds recorded in this series, draws included.
	Played int
	over   bool
}

// NewSeries returns an empty best-of-n series.
func NewSeries(n int) *Series {
	return &Series{BestOf: n}
}

// ValidateBestOf rejects even or non-positive series lengths.
func ValidateBestOf(n int) error {
	if n <= 0 || n%2 == 0 {
		return fmt.Errorf("best-of must be a positive odd number, got %d", n)
	}
	return nil
}

// Target is the number of round wins that ends the series: ceil(BestOf/2).
func (s *Series) Target() int {
	return (s.BestOf + 1) / 2
}

// Record applies a resolved round. Only the winner's counter moves; draws
// leave both unchanged. Rounds recorded after the series is over are ignored.
func (s *Series) Record(results [2]Result) {
	if s.over {
		return
	}
	s.Played++
	for seat, r := range results {
		if r == Win {
			s.Wins[seat]++
			if s.Wins[seat] >= s.Target() {
				s.over = true
			}
		}
	}
}

// Over reports whether a seat has reached the target.
func (s *Series) Over() bool {
	return s.over
}

// Winner returns the winning seat, or -1 while the series is still running.
func (s *Series) Winner() int {
	if !s.over {
		return -1
	}
	if s.Wins[0] > s.Wins[1] {
		return 0
	}
	return 1
}

// Reset clears both counters and the over flag for a new series.
func (s *Series) Reset() {
	s.Wins = [2]int{}
	s.Played = 0
	s.over = false
}
