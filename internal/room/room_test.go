// internal/room/room_test.go
package room

import (
	"io"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/minhhoangcong/Nhom6-GameRock-Paper-Scissors/internal/game"
	"github.com/minhhoangcong/Nhom6-GameRock-Paper-Scissors/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder collects events instead of sending them over WS.
type recorder struct {
	mu     sync.Mutex
	events []models.Event
}

func (rec *recorder) Send(ev models.Event) {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.events = append(rec.events, ev)
}

func (rec *recorder) all() []models.Event {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return append([]models.Event(nil), rec.events...)
}

func (rec *recorder) count(t models.EventType) int {
	n := 0
	for _, ev := range rec.all() {
		if ev.Type == t {
			n++
		}
	}
	return n
}

func (rec *recorder) last(t models.EventType) *models.Event {
	evs := rec.all()
	for i := len(evs) - 1; i >= 0; i-- {
		if evs[i].Type == t {
			return &evs[i]
		}
	}
	return nil
}

func (rec *recorder) clear() {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.events = nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// setupTestRoom seats alice and bob in a fresh room.
func setupTestRoom(t *testing.T, cfg Config) (*Room, *Player, *Player, *recorder, *recorder) {
	t.Helper()
	r := New("room1", "Test Room", "", ModeNetwork, cfg, quietLogger())
	r.rng = rand.New(rand.NewPCG(1, 2))

	ra, rb := &recorder{}, &recorder{}
	alice := &Player{ID: "a", Name: "Alice", Sink: ra}
	bob := &Player{ID: "b", Name: "Bob", Sink: rb}
	require.NoError(t, r.Join(alice, ""))
	require.NoError(t, r.Join(bob, ""))
	return r, alice, bob, ra, rb
}

// startPlaying readies both players and clears recorded events.
func startPlaying(t *testing.T, r *Room, ra, rb *recorder) {
	t.Helper()
	require.NoError(t, r.SetReady("a", true))
	require.NoError(t, r.SetReady("b", true))
	require.Equal(t, PhasePlaying, r.Phase())
	ra.clear()
	rb.clear()
}

func playRound(t *testing.T, r *Room, a, b game.Choice) {
	t.Helper()
	require.NoError(t, r.Choose("a", a))
	require.NoError(t, r.Choose("b", b))
	require.Equal(t, PhaseRoundResolved, r.Phase())
}

func TestJoinAnnouncements(t *testing.T) {
	_, _, _, ra, rb := setupTestRoom(t, DefaultConfig())

	evs := ra.all()
	require.Len(t, evs, 2)
	assert.Equal(t, models.EventRoomCreated, evs[0].Type)
	assert.Equal(t, 1, evs[0].Room.CurrentPlayers)
	assert.Equal(t, models.EventPlayerJoined, evs[1].Type)
	assert.Equal(t, "b", evs[1].PlayerID)
	assert.Equal(t, 2, evs[1].Room.CurrentPlayers)
	assert.True(t, evs[1].Room.IsFull)
	assert.Equal(t, models.StateWaiting, evs[1].Room.GameState)

	require.Equal(t, 1, rb.count(models.EventPlayerJoined))
	assert.Zero(t, rb.count(models.EventRoomCreated))
}

func TestJoinErrors(t *testing.T) {
	r, _, _, _, _ := setupTestRoom(t, DefaultConfig())
	err := r.Join(&Player{ID: "c", Name: "Carol", Sink: &recorder{}}, "")
	assert.ErrorIs(t, err, game.ErrRoomFull)

	err = r.Join(&Player{ID: "a", Name: "Alice", Sink: &recorder{}}, "")
	assert.ErrorIs(t, err, game.ErrAlreadyInRoom)

	locked := New("room2", "Locked", "hunter2", ModeNetwork, DefaultConfig(), quietLogger())
	require.NoError(t, locked.Join(&Player{ID: "a", Name: "Alice", Sink: &recorder{}}, "hunter2"))
	err = locked.Join(&Player{ID: "b", Name: "Bob", Sink: &recorder{}}, "wrong")
	assert.ErrorIs(t, err, game.ErrBadSecret)
	assert.True(t, locked.Summary().HasPassword)
	require.NoError(t, locked.Join(&Player{ID: "b", Name: "Bob", Sink: &recorder{}}, "hunter2"))
}

// TestReadyNegotiation ensures one ready player never starts a round.
func TestReadyNegotiation(t *testing.T) {
	r, _, _, ra, _ := setupTestRoom(t, DefaultConfig())

	require.NoError(t, r.SetReady("a", true))
	assert.Equal(t, PhaseWaiting, r.Phase())
	assert.Zero(t, ra.count(models.EventGameStart))
	assert.ErrorIs(t, r.Choose("a", game.Rock), game.ErrNotYourTurnState)

	// Toggle back and forth.
	require.NoError(t, r.SetReady("a", false))
	assert.False(t, r.Snapshot().Players[0].Ready)
	require.NoError(t, r.SetReady("a", true))

	require.NoError(t, r.SetReady("b", true))
	assert.Equal(t, PhasePlaying, r.Phase())

	start := ra.last(models.EventGameStart)
	require.NotNil(t, start)
	assert.True(t, start.IsFirstGame)
	assert.Equal(t, 1, start.Round)
	assert.NotZero(t, start.Deadline)
	require.NotNil(t, start.Series)
	assert.Equal(t, 3, start.Series.BestOf)
	assert.Equal(t, 2, start.Series.Target)
	assert.Equal(t, models.StatePlaying, start.Room.GameState)

	// Readiness is frozen while playing.
	assert.ErrorIs(t, r.SetReady("a", false), game.ErrNotYourTurnState)
}

func TestReadyAloneNeverStarts(t *testing.T) {
	r := New("solo", "Solo", "", ModeNetwork, DefaultConfig(), quietLogger())
	rec := &recorder{}
	require.NoError(t, r.Join(&Player{ID: "a", Name: "Alice", Sink: rec}, ""))
	require.NoError(t, r.SetReady("a", true))
	assert.Equal(t, PhaseWaiting, r.Phase())
	assert.Zero(t, rec.count(models.EventGameStart))
}

func TestRoundResolution(t *testing.T) {
	r, _, _, ra, rb := setupTestRoom(t, DefaultConfig())
	var records []models.RoundRecord
	r.OnRoundResolved = func(rec models.RoundRecord) { records = append(records, rec) }
	startPlaying(t, r, ra, rb)

	require.NoError(t, r.Choose("a", game.Rock))
	chose := rb.last(models.EventPlayerChose)
	require.NotNil(t, chose)
	assert.Equal(t, "a", chose.PlayerID)
	assert.Empty(t, chose.Choices, "player_chose must not leak the choice")
	assert.Equal(t, PhasePlaying, r.Phase())

	require.NoError(t, r.Choose("b", game.Scissors))
	assert.Equal(t, PhaseRoundResolved, r.Phase())

	res := ra.last(models.EventGameResult)
	require.NotNil(t, res)
	assert.Equal(t, map[string]game.Choice{"a": game.Rock, "b": game.Scissors}, res.Choices)
	assert.Equal(t, map[string]game.Result{"a": game.Win, "b": game.Lose}, res.Results)
	assert.Empty(t, res.AutoChosen)
	assert.Equal(t, game.Score{Wins: 1}, res.Scores["Alice"])
	assert.Equal(t, game.Score{Losses: 1}, res.Scores["Bob"])
	assert.Equal(t, map[string]int{"a": 1, "b": 0}, res.Series.Wins)
	assert.False(t, res.Series.Over)
	assert.Equal(t, models.StateFinished, res.Room.GameState)

	require.Len(t, records, 1)
	assert.Equal(t, 1, records[0].Round)
	assert.Equal(t, "Alice", records[0].Players["a"])
	assert.False(t, records[0].SeriesOver)
}

// TestLateChoiceIgnored checks a round never resolves twice.
func TestLateChoiceIgnored(t *testing.T) {
	r, _, _, ra, rb := setupTestRoom(t, DefaultConfig())
	startPlaying(t, r, ra, rb)
	playRound(t, r, game.Paper, game.Paper)
	before := r.Snapshot()

	err := r.Choose("b", game.Scissors)
	require.ErrorIs(t, err, game.ErrLateChoice)
	assert.True(t, game.Silent(err))
	assert.Equal(t, before, r.Snapshot())
	assert.Equal(t, 1, ra.count(models.EventGameResult))
	assert.Equal(t, game.Score{Draws: 1}, before.Scores["Alice"])
}

func TestAlreadyChosen(t *testing.T) {
	r, _, _, ra, rb := setupTestRoom(t, DefaultConfig())
	startPlaying(t, r, ra, rb)

	require.NoError(t, r.Choose("a", game.Rock))
	assert.ErrorIs(t, r.Choose("a", game.Paper), game.ErrAlreadyChosen)
	assert.Equal(t, 1, rb.count(models.EventPlayerChose))

	require.NoError(t, r.Choose("b", game.Paper))
	res := ra.last(models.EventGameResult)
	require.NotNil(t, res)
	assert.Equal(t, game.Rock, res.Choices["a"], "first submission stands")
}

func TestChooseNotSeated(t *testing.T) {
	r, _, _, ra, rb := setupTestRoom(t, DefaultConfig())
	startPlaying(t, r, ra, rb)
	assert.ErrorIs(t, r.Choose("zed", game.Rock), game.ErrNotInRoom)
	assert.ErrorIs(t, r.Choose("a", game.Choice("lizard")), game.ErrInvalidChoice)
}

// TestTimeoutFillsMissingChoice lets the deadline resolve a half-finished round.
func TestTimeoutFillsMissingChoice(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RoundTimeout = 50 * time.Millisecond
	r, _, _, ra, rb := setupTestRoom(t, cfg)
	startPlaying(t, r, ra, rb)

	require.NoError(t, r.Choose("a", game.Rock))
	require.Eventually(t, func() bool {
		return r.Phase() == PhaseRoundResolved
	}, time.Second, 5*time.Millisecond)

	res := ra.last(models.EventGameResult)
	require.NotNil(t, res)
	assert.Equal(t, []string{"b"}, res.AutoChosen)
	assert.Equal(t, game.Rock, res.Choices["a"])
	assert.True(t, res.Choices["b"].Valid())

	time.Sleep(3 * cfg.RoundTimeout)
	assert.Equal(t, 1, ra.count(models.EventGameResult), "round resolved exactly once")
	assert.ErrorIs(t, r.Choose("b", game.Paper), game.ErrLateChoice)
}

func TestTimeoutFillsBothChoices(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RoundTimeout = 30 * time.Millisecond
	r, _, _, ra, rb := setupTestRoom(t, cfg)
	startPlaying(t, r, ra, rb)

	require.Eventually(t, func() bool {
		return ra.count(models.EventGameResult) == 1
	}, time.Second, 5*time.Millisecond)
	res := ra.last(models.EventGameResult)
	assert.ElementsMatch(t, []string{"a", "b"}, res.AutoChosen)
	assert.Equal(t, 1, res.Series.Round)
}

func TestStaleTimerIgnored(t *testing.T) {
	r, _, _, ra, rb := setupTestRoom(t, DefaultConfig())
	startPlaying(t, r, ra, rb)
	playRound(t, r, game.Rock, game.Paper)
	require.NoError(t, r.NewGame("a"))
	require.NoError(t, r.NewGame("b"))
	require.Equal(t, PhasePlaying, r.Phase())

	// Fire the deadline of round 1 while round 2 is running.
	r.expire(1)
	assert.Equal(t, PhasePlaying, r.Phase())
	assert.Equal(t, 1, ra.count(models.EventGameResult))
}

// TestRematchNeedsBothPlayers: a single request never unlocks the next round.
func TestRematchNeedsBothPlayers(t *testing.T) {
	r, _, _, ra, rb := setupTestRoom(t, DefaultConfig())
	startPlaying(t, r, ra, rb)
	playRound(t, r, game.Rock, game.Scissors)

	require.NoError(t, r.NewGame("a"))
	assert.Equal(t, PhaseRoundResolved, r.Phase())
	assert.Equal(t, 1, rb.count(models.EventPlayerReadyNewGame))
	assert.ErrorIs(t, r.Choose("a", game.Rock), game.ErrLateChoice)
	assert.ErrorIs(t, r.Choose("b", game.Rock), game.ErrLateChoice)

	// Repeating the request changes nothing.
	require.NoError(t, r.NewGame("a"))
	assert.Equal(t, PhaseRoundResolved, r.Phase())
	assert.Equal(t, 1, rb.count(models.EventPlayerReadyNewGame))

	require.NoError(t, r.NewGame("b"))
	assert.Equal(t, PhasePlaying, r.Phase())
	start := ra.last(models.EventGameStart)
	require.NotNil(t, start)
	assert.False(t, start.IsFirstGame)
	assert.Equal(t, 2, start.Round)
	assert.Equal(t, 1, start.Series.Wins["a"], "series carries over inside a running series")

	assert.ErrorIs(t, r.NewGame("a"), game.ErrNotYourTurnState)
}

// TestSeriesOverNeedsReadyRenegotiation covers the post-series rematch.
func TestSeriesOverNeedsReadyRenegotiation(t *testing.T) {
	r, _, _, ra, rb := setupTestRoom(t, DefaultConfig())
	startPlaying(t, r, ra, rb)
	playRound(t, r, game.Rock, game.Scissors)
	require.NoError(t, r.NewGame("a"))
	require.NoError(t, r.NewGame("b"))
	playRound(t, r, game.Paper, game.Rock)

	res := ra.last(models.EventGameResult)
	require.NotNil(t, res)
	assert.True(t, res.Series.Over)
	assert.Equal(t, "a", res.Series.Winner)
	assert.Equal(t, 2, res.Series.Wins["a"])

	ra.clear()
	require.NoError(t, r.NewGame("b"))
	assert.Equal(t, PhaseWaiting, r.Phase())
	snap := r.Snapshot()
	assert.False(t, snap.Series.Over)
	assert.Equal(t, map[string]int{"a": 0, "b": 0}, snap.Series.Wins)
	assert.False(t, snap.Players[0].Ready)
	assert.True(t, snap.Players[1].Ready)
	assert.Zero(t, ra.count(models.EventGameStart))
	assert.Equal(t, game.Score{Wins: 2}, snap.Scores["Alice"], "scoreboard survives a new series")

	// The peer's new_game in Waiting counts as ready.
	require.NoError(t, r.NewGame("a"))
	assert.Equal(t, PhasePlaying, r.Phase())
	start := ra.last(models.EventGameStart)
	require.NotNil(t, start)
	assert.True(t, start.IsFirstGame)
	assert.Equal(t, 1, start.Round)
}

func TestNewGameWithoutPeer(t *testing.T) {
	r, _, _, ra, rb := setupTestRoom(t, DefaultConfig())
	startPlaying(t, r, ra, rb)
	playRound(t, r, game.Rock, game.Scissors)
	require.NoError(t, r.Leave("b"))
	assert.ErrorIs(t, r.NewGame("a"), game.ErrPeerDisconnected)
}

// TestLeaveWithTwoSeated reduces the room to one waiting player.
func TestLeaveWithTwoSeated(t *testing.T) {
	r, _, _, ra, rb := setupTestRoom(t, DefaultConfig())
	emptied := false
	r.OnEmpty = func(string) { emptied = true }
	require.NoError(t, r.SetReady("a", true))
	require.NoError(t, r.SetReady("b", false))

	require.NoError(t, r.Leave("b"))
	assert.False(t, emptied)
	assert.Equal(t, PhaseWaiting, r.Phase())
	snap := r.Snapshot()
	require.Len(t, snap.Players, 1)
	assert.Equal(t, "a", snap.Players[0].PlayerID)
	assert.False(t, snap.Players[0].Ready)

	left := ra.last(models.EventPlayerLeft)
	require.NotNil(t, left)
	assert.Equal(t, "b", left.PlayerID)
	assert.Equal(t, 1, left.Room.CurrentPlayers)
	assert.Zero(t, rb.count(models.EventPlayerLeft), "the leaver is not notified by the room")

	assert.ErrorIs(t, r.Leave("b"), game.ErrNotInRoom)
}

func TestLeaveMidRoundForfeits(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RoundTimeout = 40 * time.Millisecond
	r, _, _, ra, rb := setupTestRoom(t, cfg)
	startPlaying(t, r, ra, rb)
	playRound(t, r, game.Scissors, game.Rock)
	require.NoError(t, r.NewGame("a"))
	require.NoError(t, r.NewGame("b"))
	require.NoError(t, r.Choose("a", game.Rock))

	require.NoError(t, r.Leave("b"))
	assert.Equal(t, PhaseWaiting, r.Phase())
	snap := r.Snapshot()
	assert.Equal(t, game.Score{Wins: 1, Losses: 1}, snap.Scores["Alice"])
	_, bobKept := snap.Scores["Bob"]
	assert.False(t, bobKept)
	assert.Equal(t, 0, snap.Series.Round, "series restarts for the next opponent")

	// The cancelled round's deadline must not produce a result.
	time.Sleep(3 * cfg.RoundTimeout)
	assert.Equal(t, 1, ra.count(models.EventGameResult))
	assert.Equal(t, PhaseWaiting, r.Phase())

	// A new opponent can sit down and play.
	rc := &recorder{}
	require.NoError(t, r.Join(&Player{ID: "c", Name: "Carol", Sink: rc}, ""))
	require.NoError(t, r.SetReady("a", true))
	require.NoError(t, r.SetReady("c", true))
	assert.Equal(t, PhasePlaying, r.Phase())
	assert.Equal(t, 1, rc.count(models.EventGameStart))
}

func TestLastLeaveDestroys(t *testing.T) {
	r, _, _, _, _ := setupTestRoom(t, DefaultConfig())
	var emptied []string
	changes := 0
	r.OnEmpty = func(id string) { emptied = append(emptied, id) }
	r.OnChange = func(string) { changes++ }

	require.NoError(t, r.Leave("a"))
	require.NoError(t, r.Leave("b"))
	assert.Equal(t, []string{"room1"}, emptied)
	assert.Equal(t, PhaseDestroyed, r.Phase())
	assert.Equal(t, 2, changes)

	err := r.Join(&Player{ID: "c", Name: "Carol", Sink: &recorder{}}, "")
	assert.ErrorIs(t, err, game.ErrRoomNotFound)
}

func TestRenameAndChat(t *testing.T) {
	r, _, _, ra, rb := setupTestRoom(t, DefaultConfig())
	startPlaying(t, r, ra, rb)
	playRound(t, r, game.Rock, game.Scissors)

	require.NoError(t, r.Rename("a", "Alicia"))
	renamed := rb.last(models.EventPlayerRenamed)
	require.NotNil(t, renamed)
	assert.Equal(t, "Alicia", renamed.PlayerName)
	assert.Equal(t, game.Score{Wins: 1}, renamed.Room.Scores["Alicia"])
	assert.Equal(t, "Alicia", renamed.Room.Leader)

	require.NoError(t, r.Chat("b", "gg"))
	chat := ra.last(models.EventChat)
	require.NotNil(t, chat)
	assert.Equal(t, "b", chat.PlayerID)
	assert.Equal(t, "Bob", chat.PlayerName)
	assert.Equal(t, "gg", chat.Message)

	assert.ErrorIs(t, r.Chat("zed", "hi"), game.ErrNotInRoom)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.Error(t, Config{BestOf: 2, RoundTimeout: time.Second}.Validate())
	assert.Error(t, Config{BestOf: 3}.Validate())
}

func TestSecretMatchHook(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SecretMatch = func(presented, stored string) bool {
		return "hashed:"+presented == stored
	}
	r := New("room2", "Locked", "hashed:open sesame", ModeNetwork, cfg, quietLogger())
	require.NoError(t, r.Join(&Player{ID: "a", Name: "Alice", Sink: &recorder{}}, "open sesame"))
	err := r.Join(&Player{ID: "b", Name: "Bob", Sink: &recorder{}}, "hashed:open sesame")
	assert.ErrorIs(t, err, game.ErrBadSecret, "the stored form is not a valid secret")
	require.NoError(t, r.Join(&Player{ID: "b", Name: "Bob", Sink: &recorder{}}, "open sesame"))
}
