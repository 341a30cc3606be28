// internal/game/choice.go
package game

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

// Choice is one of the three hand shapes a player can throw.
type Choice string

const (
	Rock     Choice = "rock"
	Paper    Choice = "paper"
	Scissors Choice = "scissors"
)

// Choices lists every valid Choice in a fixed order. Random picks index into it.
var Choices = [3]Choice{Rock, Paper, Scissors}

// beats maps each choice to the one it defeats.
var beats = map[Choice]Choice{
	Rock:     Scissors,
	Scissors: Paper,
	Paper:    Rock,
}

// Valid reports whether c is rock, paper or scissors.
func (c Choice) Valid() bool {
	_, ok := beats[c]
	return ok
}

// ParseChoice normalizes client input ("Rock", " paper ") into a Choice.
func ParseChoice(s string) (Choice, error) {
	c := Choice(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidChoice, s)
	}
	return c, nil
}

// RandomChoice draws a choice uniformly at random from rng.
func RandomChoice(rng *rand.Rand) Choice {
	return Choices[rng.IntN(len(Choices))]
}

// Result is the outcome of a round from one player's point of view.
type Result string

const (
	Win  Result = "win"
	Lose Result = "lose"
	Draw Result = "draw"
)

// Outcome applies the classic rule to a pair of choices and returns the
// result for a and for b, in that order.
func Outcome(a, b Choice) (Result, Result) {
	switch {
	case a == b:
		return Draw, Draw
	case beats[a] == b:
		return Win, Lose
	default:
		return Lose, Win
	}
}
