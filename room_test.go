package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPuzzle = PuzzleSet{
	Phrase:    "TUDO",
	WireNodes: []string{"node1", "node2", "node3", "node4", "node5"},
	RealPairs: []WirePair{
		{From: "node1", To: "node4"},
		{From: "node2", To: "node5"},
	},
	Words: []string{"HOLD", "THE", "LINE"},
}

func testConfig() *Config {
	return &Config{
		roundSeconds:   300,
		penaltySeconds: 10,
		gracePeriod:    30 * time.Second,
	}
}

// testRoom builds a room with both roles connected, without running
// the room's event loop; tests drive the handlers directly so the
// countdown ticker cannot interfere.
func testRoom(t *testing.T) (*Room, *Client, *Client) {
	t.Helper()

	cfg := testConfig()
	store := &RoomStore{rooms: make(map[string]*Room), cfg: cfg}
	room := newRoom("XJ7K2Q", cfg, store)
	store.rooms[room.code] = room

	a := newClient(nil)
	b := newClient(nil)

	room.handleCreate(a, ClientMessage{Type: eventCreateLobby, RoomID: room.code, PlayerName: "An"})
	room.handleJoin(b, ClientMessage{Type: eventJoinLobby, RoomID: room.code, PlayerName: "Binh"})

	drain(a)
	drain(b)

	return room, a, b
}

// startedRoom advances a testRoom into stage 1 with a fixed puzzle
// set so assertions are deterministic.
func startedRoom(t *testing.T) (*Room, *Client, *Client) {
	t.Helper()

	room, a, b := testRoom(t)
	room.handleStart(a)

	room.mu.Lock()
	room.puzzle = testPuzzle
	room.cipher = newCipherState(testPuzzle)
	room.mu.Unlock()

	drain(a)
	drain(b)

	return room, a, b
}

// wireRoom places a startedRoom directly into stage 2.
func wireRoom(t *testing.T) (*Room, *Client, *Client) {
	t.Helper()

	room, a, b := startedRoom(t)

	room.mu.Lock()
	room.cipher = nil
	room.wires = newWireState(testPuzzle)
	room.stage = Stage2
	room.mu.Unlock()

	return room, a, b
}

func drain(c *Client) []any {
	var out []any
	for {
		select {
		case msg := <-c.send:
			out = append(out, msg)
		default:
			return out
		}
	}
}

func countType(msgs []any, match func(any) bool) int {
	n := 0
	for _, msg := range msgs {
		if match(msg) {
			n++
		}
	}
	return n
}

func isGameOver(msg any) bool {
	s, ok := msg.(SimpleMessage)
	return ok && s.Type == "game-over"
}

func lastLobbyError(msgs []any) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if e, ok := msgs[i].(LobbyErrorMessage); ok {
			return e.Reason
		}
	}
	return ""
}

func TestTickIdleInLobby(t *testing.T) {
	room, _, _ := testRoom(t)

	room.tick()

	room.mu.RLock()
	defer room.mu.RUnlock()
	assert.Equal(t, 0, room.timeRemaining)
	assert.Equal(t, StageLobby, room.stage)
}

func TestTickCountsDown(t *testing.T) {
	room, _, _ := startedRoom(t)

	room.tick()
	room.tick()

	room.mu.RLock()
	defer room.mu.RUnlock()
	assert.Equal(t, 298, room.timeRemaining)
	assert.Equal(t, 2, room.stageTicks)
}

func TestTickGameOverEmittedOnce(t *testing.T) {
	room, a, b := startedRoom(t)

	room.mu.Lock()
	room.timeRemaining = 1
	room.mu.Unlock()

	room.tick()
	room.tick()
	room.tick()

	room.mu.RLock()
	assert.Equal(t, 0, room.timeRemaining)
	assert.True(t, room.frozen)
	room.mu.RUnlock()

	assert.Equal(t, 1, countType(drain(a), isGameOver))
	assert.Equal(t, 1, countType(drain(b), isGameOver))
}

func TestPenaltyClampedAtZero(t *testing.T) {
	room, a, b := wireRoom(t)

	room.mu.Lock()
	room.timeRemaining = 15
	room.mu.Unlock()

	bogus := []WirePair{{From: "node1", To: "node2"}}

	room.handleSubmitConnections(b, ClientMessage{Connections: bogus})
	room.mu.RLock()
	assert.Equal(t, 5, room.timeRemaining)
	assert.False(t, room.frozen)
	room.mu.RUnlock()

	room.handleSubmitConnections(b, ClientMessage{Connections: bogus})
	room.mu.RLock()
	assert.Equal(t, 0, room.timeRemaining)
	assert.True(t, room.frozen)
	room.mu.RUnlock()

	// Frozen room rejects further submissions instead of stacking
	// penalties or game-over events.
	room.handleSubmitConnections(b, ClientMessage{Connections: bogus})
	room.mu.RLock()
	assert.Equal(t, 0, room.timeRemaining)
	room.mu.RUnlock()

	assert.Equal(t, 1, countType(drain(a), isGameOver))
	assert.Equal(t, 1, countType(drain(b), isGameOver))
}

func TestSyncTimerNeverRewindsServerClock(t *testing.T) {
	room, _, b := startedRoom(t)

	room.mu.Lock()
	room.timeRemaining = 100
	room.mu.Unlock()

	room.handleSyncTimer(b, ClientMessage{TimeRemaining: 250})

	room.mu.RLock()
	assert.Equal(t, 100, room.timeRemaining)
	room.mu.RUnlock()

	msgs := drain(b)
	require.NotEmpty(t, msgs)
	update, ok := msgs[len(msgs)-1].(TimeUpdateMessage)
	require.True(t, ok)
	assert.Equal(t, 100, update.TimeRemaining)
}

func TestSyncTimerRequiresBinding(t *testing.T) {
	room, _, _ := startedRoom(t)

	stranger := newClient(nil)
	room.handleSyncTimer(stranger, ClientMessage{TimeRemaining: 50})

	assert.Equal(t, ErrNotAuthorized.Error(), lastLobbyError(drain(stranger)))
}

func TestStageMonotonicity(t *testing.T) {
	room, a, b := startedRoom(t)

	// Stage 2 and 3 actions are rejected while in stage 1.
	room.handleSelectWire(b, ClientMessage{From: "node1", To: "node2"})
	assert.Equal(t, ErrWrongStage.Error(), lastLobbyError(drain(b)))

	room.handleMorseSubmit(b, ClientMessage{OrderedWords: []string{"HOLD", "THE", "LINE"}})
	assert.Equal(t, ErrWrongStage.Error(), lastLobbyError(drain(b)))

	room.handleCipherGuess(b, ClientMessage{Guess: "tu do"})
	room.mu.RLock()
	assert.Equal(t, Stage2, room.stage)
	room.mu.RUnlock()

	// Stage 1 cannot be replayed once passed.
	room.handleCipherGuess(b, ClientMessage{Guess: "tu do"})
	assert.Equal(t, ErrWrongStage.Error(), lastLobbyError(drain(b)))

	drain(a)
}

func TestResetReturnsToLobby(t *testing.T) {
	room, a, b := wireRoom(t)

	room.handleReset(b)

	room.mu.RLock()
	assert.Equal(t, StageLobby, room.stage)
	assert.Nil(t, room.cipher)
	assert.Nil(t, room.wires)
	assert.Nil(t, room.morse)
	assert.False(t, room.frozen)
	room.mu.RUnlock()

	for _, msgs := range [][]any{drain(a), drain(b)} {
		found := countType(msgs, func(m any) bool {
			s, ok := m.(SimpleMessage)
			return ok && s.Type == "game-reset"
		})
		assert.Equal(t, 1, found)
	}
}

func TestResetAfterGameOverAllowsRestart(t *testing.T) {
	room, a, b := startedRoom(t)

	room.mu.Lock()
	room.timeRemaining = 1
	room.mu.Unlock()
	room.tick()

	room.handleReset(a)
	room.handleStart(a)

	room.mu.RLock()
	defer room.mu.RUnlock()
	assert.Equal(t, Stage1, room.stage)
	assert.False(t, room.frozen)
	assert.Equal(t, room.cfg.roundSeconds, room.timeRemaining)

	drain(a)
	drain(b)
}
