package main

import (
	"sync"
	"time"
)

type Role string

const (
	RoleA Role = "A"
	RoleB Role = "B"
)

func otherRole(r Role) Role {
	if r == RoleA {
		return RoleB
	}
	return RoleA
}

// Stage is the room's position in the fixed puzzle sequence. Values
// are part of the wire protocol.
type Stage int

const (
	StageLobby Stage = iota
	Stage1
	Stage2
	Stage3
	StageFinished
)

// playerSlot binds one role to a display name and, while connected, a
// live client. A nil client means the player dropped and may still
// rejoin within the grace period.
type playerSlot struct {
	name   string
	client *Client
}

type command struct {
	client *Client
	msg    ClientMessage
}

// Room is the authoritative state for one two-player session. All
// mutation happens under mu; the run loop serializes inbound commands
// with the countdown ticker so handlers never interleave mid-action.
type Room struct {
	code  string
	cfg   *Config
	store *RoomStore

	commands chan command
	unreg    chan *Client
	done     chan struct{}
	stopOnce sync.Once

	mu        sync.RWMutex
	players   map[Role]*playerSlot
	ownerRole Role
	stage     Stage
	frozen    bool

	// Tagged stage state: only the variant matching stage is non-nil.
	puzzle PuzzleSet
	cipher *cipherState
	wires  *wireState
	morse  *morseState

	timeRemaining int
	stageTicks    int
	stageSeconds  map[Stage]int

	createdAt  time.Time
	lastActive time.Time
}

func newRoom(code string, cfg *Config, store *RoomStore) *Room {
	now := time.Now()
	return &Room{
		code:         code,
		cfg:          cfg,
		store:        store,
		commands:     make(chan command, 16),
		unreg:        make(chan *Client, 4),
		done:         make(chan struct{}),
		players:      make(map[Role]*playerSlot),
		ownerRole:    RoleA,
		stage:        StageLobby,
		stageSeconds: make(map[Stage]int),
		createdAt:    now,
		lastActive:   now,
	}
}

func (r *Room) run() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.done:
			return
		case c := <-r.unreg:
			r.handleDisconnect(c)
		case cmd := <-r.commands:
			r.dispatch(cmd.client, cmd.msg)
		case <-ticker.C:
			r.tick()
		}
	}
}

// enqueue hands a command to the run loop, refusing if the room has
// already shut down.
func (r *Room) enqueue(c *Client, msg ClientMessage) bool {
	select {
	case <-r.done:
		return false
	case r.commands <- command{client: c, msg: msg}:
		return true
	}
}

func (r *Room) notifyDisconnect(c *Client) {
	select {
	case <-r.done:
	case r.unreg <- c:
	}
}

// shutdown disconnects all clients and stops the run loop. Idempotent.
func (r *Room) shutdown() {
	r.mu.Lock()
	for _, slot := range r.players {
		if slot.client != nil {
			slot.client.close()
			slot.client = nil
		}
	}
	r.mu.Unlock()

	r.stopOnce.Do(func() { close(r.done) })
}

// retireLocked shuts the room down from inside a handler that already
// holds r.mu.
func (r *Room) retireLocked() {
	for _, slot := range r.players {
		if slot.client != nil {
			slot.client.close()
			slot.client = nil
		}
	}
	r.stopOnce.Do(func() { close(r.done) })
	go r.store.forget(r.code)
}

func (r *Room) dispatch(c *Client, msg ClientMessage) {
	switch msg.Type {
	case eventCreateLobby:
		r.handleCreate(c, msg)
	case eventJoinLobby:
		r.handleJoin(c, msg)
	case eventSwapRoles:
		r.handleSwap(c)
	case eventStartGame:
		r.handleStart(c)
	case eventLeaveLobby:
		r.handleLeave(c)
	case eventResetGame:
		r.handleReset(c)
	case eventSubmitAnswer, eventSubmitGame1Answer:
		r.handleCipherGuess(c, msg)
	case eventSelectWire:
		r.handleSelectWire(c, msg)
	case eventAnswerQuestion:
		r.handleAnswerQuestion(c, msg)
	case eventSubmitConnections:
		r.handleSubmitConnections(c, msg)
	case eventSubmitGame3Answer:
		r.handleMorseSubmit(c, msg)
	case eventSyncTimer:
		r.handleSyncTimer(c, msg)
	default:
		// ignore unknown types
	}
}

// roleOfLocked resolves which role, if any, this connection is bound
// to. Binding is by pointer identity, so a stale connection that was
// replaced on rejoin no longer counts.
func (r *Room) roleOfLocked(c *Client) (Role, bool) {
	for role, slot := range r.players {
		if slot.client == c {
			return role, true
		}
	}
	return "", false
}

func (r *Room) sendLocked(role Role, msg any) {
	slot := r.players[role]
	if slot == nil || slot.client == nil {
		return
	}
	select {
	case slot.client.send <- msg:
	default:
		// Slow consumer; drop rather than stall the room.
		logf(r.cfg, "GAME: Dropped message to role %s in %s", role, r.code)
	}
}

func (r *Room) broadcastLocked(msg any) {
	r.sendLocked(RoleA, msg)
	r.sendLocked(RoleB, msg)
}

func (r *Room) rejectLocked(c *Client, err error) {
	select {
	case c.send <- LobbyErrorMessage{Type: "lobby-error", Reason: err.Error()}:
	default:
	}
}

// requireRoleLocked validates that the caller is bound to the room as want,
// the room is in stage, and the room is not frozen. Returns false and
// rejects the action otherwise. No state is mutated on failure.
func (r *Room) requireRoleLocked(c *Client, want Role, stage Stage) bool {
	role, ok := r.roleOfLocked(c)
	if !ok || role != want {
		r.rejectLocked(c, ErrNotAuthorized)
		return false
	}
	if r.frozen {
		r.rejectLocked(c, ErrRoomFrozen)
		return false
	}
	if r.stage != stage {
		r.rejectLocked(c, ErrWrongStage)
		return false
	}
	return true
}

// tick runs once per second while the run loop is alive. The server's
// own decrement is the only time authority; client sync messages never
// feed back into it.
func (r *Room) tick() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stage == StageLobby || r.stage == StageFinished || r.frozen {
		return
	}

	r.timeRemaining--
	r.stageTicks++

	if r.timeRemaining <= 0 {
		r.timeRemaining = 0
		r.freezeLocked()
		return
	}

	// Periodic realignment keeps both displayed clocks honest without
	// flooding the channel every second.
	if r.timeRemaining%5 == 0 {
		r.broadcastLocked(TimeUpdateMessage{Type: "time-update", TimeRemaining: r.timeRemaining})
	}
}

// freezeLocked ends the run: exactly one game-over goes out, and all
// further game actions are rejected until a reset.
func (r *Room) freezeLocked() {
	if r.frozen {
		return
	}
	r.frozen = true
	r.broadcastLocked(SimpleMessage{Type: "game-over", Message: "Time has run out."})
	logf(r.cfg, "GAME: Room %s ran out of time in stage %d", r.code, r.stage)
}

// applyPenaltyLocked deducts the configured penalty, clamped at zero.
// Hitting zero ends the run the same way the ticker does.
func (r *Room) applyPenaltyLocked() {
	r.timeRemaining -= r.cfg.penaltySeconds
	if r.timeRemaining <= 0 {
		r.timeRemaining = 0
		r.freezeLocked()
	}
}

// advanceLocked records the elapsed time for the completed stage and
// initializes the next one, emitting per-role payloads.
func (r *Room) advanceLocked() {
	completed := r.stage
	r.stageSeconds[completed] = r.stageTicks
	r.stageTicks = 0

	base := StageCompleteMessage{
		Type:           "stage-complete",
		CompletedStage: int(completed),
		StageSeconds:   r.stageSeconds[completed],
		TimeRemaining:  r.timeRemaining,
	}

	switch completed {
	case Stage1:
		r.stage = Stage2
		r.cipher = nil
		r.wires = newWireState(r.puzzle)
		base.NextStage = int(Stage2)
		base.WireNodes = r.wires.nodes
		r.broadcastLocked(base)
	case Stage2:
		r.stage = Stage3
		r.wires = nil
		r.morse = newMorseState(r.puzzle)
		base.NextStage = int(Stage3)
		r.sendLocked(RoleA, base)
		withCards := base
		withCards.WordCards = r.morse.cards
		r.sendLocked(RoleB, withCards)
	case Stage3:
		r.stage = StageFinished
		r.morse = nil
		base.NextStage = int(StageFinished)
		r.broadcastLocked(base)
		r.finishLocked()
	}

	logf(r.cfg, "GAME: Room %s completed stage %d in %ds", r.code, completed, r.stageSeconds[completed])
}

// finishLocked builds the immutable score record and hands it to the
// leaderboard sink. The sink is best-effort: players are acknowledged
// regardless of its outcome.
func (r *Room) finishLocked() {
	record := ScoreRecord{
		Stage1Seconds: r.stageSeconds[Stage1],
		Stage2Seconds: r.stageSeconds[Stage2],
		Stage3Seconds: r.stageSeconds[Stage3],
		Timestamp:     time.Now(),
	}
	record.TotalSeconds = record.Stage1Seconds + record.Stage2Seconds + record.Stage3Seconds

	if slot := r.players[RoleA]; slot != nil {
		record.PlayerAName = slot.name
	}
	if slot := r.players[RoleB]; slot != nil {
		record.PlayerBName = slot.name
	}

	r.broadcastLocked(GameFinishedMessage{Type: "game-finished", Record: record})

	go postScore(r.cfg, record)
}

// handleSyncTimer accepts client clock reports as advisory input only:
// the response is always the server's own countdown, and a stale or
// inflated client value can never rewind it.
func (r *Room) handleSyncTimer(c *Client, msg ClientMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastActive = time.Now()

	if _, ok := r.roleOfLocked(c); !ok {
		r.rejectLocked(c, ErrNotAuthorized)
		return
	}

	if msg.TimeRemaining > r.timeRemaining+2 {
		logf(r.cfg, "GAME: Ignored inflated clock report in %s (%d > %d)", r.code, msg.TimeRemaining, r.timeRemaining)
	}

	r.broadcastLocked(TimeUpdateMessage{Type: "time-update", TimeRemaining: r.timeRemaining})
}

// gameInitLocked builds the full per-role resync snapshot used when a
// player reconnects mid-game.
func (r *Room) gameInitLocked(role Role) GameInitMessage {
	msg := GameInitMessage{
		Type:          "game-init",
		RoomID:        r.code,
		Role:          string(role),
		Stage:         int(r.stage),
		TimeRemaining: r.timeRemaining,
	}

	if slot := r.players[RoleA]; slot != nil {
		msg.PlayerA = slot.name
	}
	if slot := r.players[RoleB]; slot != nil {
		msg.PlayerB = slot.name
	}

	switch r.stage {
	case Stage1:
		if role == RoleA {
			msg.PhraseLetters = r.cipher.letters()
		} else {
			msg.PhraseLength = len(r.cipher.targetPhrase)
		}
	case Stage2:
		msg.WireNodes = r.wires.nodes
		msg.WireResults = r.wires.results
		if r.wires.pending != nil {
			pair := r.wires.pending.pair
			msg.PendingPair = &pair
			if role == RoleA {
				msg.Question = r.wires.pending.question
			}
		}
	case Stage3:
		if role == RoleB {
			msg.WordCards = r.morse.cards
		}
	}

	return msg
}

// handleDisconnect clears the connection binding but keeps the slot
// reserved, then starts the rejoin grace window.
func (r *Room) handleDisconnect(c *Client) {
	r.mu.Lock()

	role, ok := r.roleOfLocked(c)
	if !ok {
		r.mu.Unlock()
		return
	}

	r.players[role].client = nil
	r.lastActive = time.Now()
	name := r.players[role].name
	r.mu.Unlock()

	logf(r.cfg, "GAME: Player %q (role %s) disconnected from %s", name, role, r.code)

	go r.scheduleAbandon(role, r.cfg.gracePeriod)
}

// scheduleAbandon waits out the grace period, and if the role is still
// vacant, gives up on the player: lobby slots are freed for someone
// else, while a mid-game room is closed since the cooperative puzzle
// cannot continue solo.
func (r *Room) scheduleAbandon(role Role, d time.Duration) {
	time.Sleep(d)

	r.mu.Lock()
	defer r.mu.Unlock()

	slot := r.players[role]
	if slot == nil || slot.client != nil {
		return
	}

	r.lastActive = time.Now()

	if r.stage == StageLobby {
		delete(r.players, role)
		if role == r.ownerRole {
			r.sendLocked(otherRole(role), SimpleMessage{Type: "lobby-closed", Message: "The room owner has left."})
			r.retireLocked()
			return
		}
		r.broadcastLocked(r.lobbyUpdateLocked())
		if len(r.players) == 0 {
			r.retireLocked()
		}
		return
	}

	r.sendLocked(otherRole(role), SimpleMessage{Type: "lobby-closed", Message: "Your partner has left the game."})
	r.retireLocked()
}
