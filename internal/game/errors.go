// internal/game/errors.go
package game

import (
	"errors"
	"fmt"
)

// Session-level errors. None of them is fatal to a room or a connection; they
// are reported to the participant that caused them.
var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrRoomFull         = errors.New("room is full")
	ErrBadSecret        = errors.New("wrong room password")
	ErrInvalidName      = errors.New("name must be at least 2 characters")
	ErrAlreadyChosen    = errors.New("choice already submitted for this round")
	ErrNotYourTurnState = errors.New("action not allowed in the current room state")
	ErrPeerDisconnected = errors.New("opponent is not in the room")
	ErrAlreadyInRoom    = errors.New("already in another room")
	ErrNotInRoom        = errors.New("not in a room")
	ErrInvalidChoice    = errors.New("invalid choice")

	// ErrLateChoice marks a choice that arrived after its round resolved.
	// It is never sent to the client.
	ErrLateChoice = errors.New("round already resolved")

	// ErrRepeatedChoice is returned for the third and later submissions of
	// the same player in one round. Only the first duplicate is reported.
	ErrRepeatedChoice = fmt.Errorf("%w again", ErrAlreadyChosen)
)

// ErrorKind is the machine readable classification sent with wire errors.
type ErrorKind string

const (
	KindRoomNotFound     ErrorKind = "room_not_found"
	KindRoomFull         ErrorKind = "room_full"
	KindBadSecret        ErrorKind = "bad_secret"
	KindInvalidName      ErrorKind = "invalid_name"
	KindAlreadyChosen    ErrorKind = "already_chosen"
	KindNotYourTurnState ErrorKind = "not_your_turn_state"
	KindPeerDisconnected ErrorKind = "peer_disconnected"
	KindAlreadyInRoom    ErrorKind = "already_in_room"
	KindNotInRoom        ErrorKind = "not_in_room"
	KindInvalidChoice    ErrorKind = "invalid_choice"
	KindLateChoice       ErrorKind = "late_choice"
	KindBadRequest       ErrorKind = "bad_request"
)

var kinds = []struct {
	err  error
	kind ErrorKind
}{
	{ErrRoomNotFound, KindRoomNotFound},
	{ErrRoomFull, KindRoomFull},
	{ErrBadSecret, KindBadSecret},
	{ErrInvalidName, KindInvalidName},
	{ErrAlreadyChosen, KindAlreadyChosen},
	{ErrNotYourTurnState, KindNotYourTurnState},
	{ErrPeerDisconnected, KindPeerDisconnected},
	{ErrAlreadyInRoom, KindAlreadyInRoom},
	{ErrNotInRoom, KindNotInRoom},
	{ErrInvalidChoice, KindInvalidChoice},
	{ErrLateChoice, KindLateChoice},
}

// KindOf classifies err. Anything outside the taxonomy is a bad request.
func KindOf(err error) ErrorKind {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindBadRequest
}

// RefreshesDirectory reports whether the requester's room list is stale
// after err and should be pushed again.
func RefreshesDirectory(err error) bool {
	return errors.Is(err, ErrRoomNotFound) || errors.Is(err, ErrRoomFull)
}

// Silent reports whether err should be dropped instead of sent to the client.
func Silent(err error) bool {
	return errors.Is(err, ErrLateChoice) || errors.Is(err, ErrRepeatedChoice)
}
