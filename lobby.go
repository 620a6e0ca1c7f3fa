package main

import "time"

func (r *Room) lobbyUpdateLocked() LobbyUpdateMessage {
	msg := LobbyUpdateMessage{
		Type:   "lobby-update",
		RoomID: r.code,
		Owner:  string(r.ownerRole),
	}
	if slot := r.players[RoleA]; slot != nil {
		msg.PlayerA = slot.name
	}
	if slot := r.players[RoleB]; slot != nil {
		msg.PlayerB = slot.name
	}
	return msg
}

// handleCreate binds the creating connection as role A and owner. The
// store has already registered the room under its code.
func (r *Room) handleCreate(c *Client, msg ClientMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastActive = time.Now()

	if msg.PlayerName == "" {
		// The room was created for this command; don't leave an empty
		// shell behind for the reaper.
		r.rejectLocked(c, ErrMalformedPayload)
		r.retireLocked()
		return
	}

	if r.players[RoleA] != nil {
		r.rejectLocked(c, ErrRoomAlreadyExists)
		return
	}

	r.players[RoleA] = &playerSlot{name: msg.PlayerName, client: c}
	r.ownerRole = RoleA
	c.bind(r)

	r.broadcastLocked(r.lobbyUpdateLocked())

	logf(r.cfg, "GAME: Player %q created room %s", msg.PlayerName, r.code)
}

// handleJoin covers both a fresh join into role B and a reconnecting
// player reclaiming a vacant slot by name.
func (r *Room) handleJoin(c *Client, msg ClientMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastActive = time.Now()

	if msg.PlayerName == "" {
		r.rejectLocked(c, ErrMalformedPayload)
		return
	}

	// Reconnection: a slot with this name whose connection dropped.
	for role, slot := range r.players {
		if slot.name == msg.PlayerName && slot.client == nil {
			slot.client = c
			c.bind(r)

			r.sendLocked(role, r.gameInitLocked(role))
			r.sendLocked(otherRole(role), r.lobbyUpdateLocked())

			logf(r.cfg, "GAME: Player %q rejoined %s as role %s", msg.PlayerName, r.code, role)
			return
		}
	}

	if r.players[RoleB] != nil {
		r.rejectLocked(c, ErrRoomFull)
		return
	}

	if r.stage != StageLobby {
		// Fresh players cannot enter a game already in progress.
		r.rejectLocked(c, ErrRoomFull)
		return
	}

	r.players[RoleB] = &playerSlot{name: msg.PlayerName, client: c}
	c.bind(r)

	r.broadcastLocked(r.lobbyUpdateLocked())

	logf(r.cfg, "GAME: Player %q joined %s", msg.PlayerName, r.code)
}

// handleSwap exchanges the role A/B bindings. Only the owner may swap,
// and only while still in the lobby; the owner keeps their privileges
// under the new role.
func (r *Room) handleSwap(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastActive = time.Now()

	role, ok := r.roleOfLocked(c)
	if !ok {
		r.rejectLocked(c, ErrNotAuthorized)
		return
	}
	if role != r.ownerRole {
		r.rejectLocked(c, ErrNotOwner)
		return
	}
	if r.stage != StageLobby {
		r.rejectLocked(c, ErrWrongStage)
		return
	}

	r.players[RoleA], r.players[RoleB] = r.players[RoleB], r.players[RoleA]
	if r.players[RoleA] == nil {
		delete(r.players, RoleA)
	}
	if r.players[RoleB] == nil {
		delete(r.players, RoleB)
	}
	r.ownerRole = otherRole(r.ownerRole)

	r.broadcastLocked(SimpleMessage{Type: "lobby-roles-swapped"})
	r.broadcastLocked(r.lobbyUpdateLocked())

	logf(r.cfg, "GAME: Roles swapped in %s", r.code)
}

// handleStart transitions the lobby into stage 1: picks a puzzle set,
// starts the countdown, and sends each role only what it may see.
func (r *Room) handleStart(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastActive = time.Now()

	role, ok := r.roleOfLocked(c)
	if !ok {
		r.rejectLocked(c, ErrNotAuthorized)
		return
	}
	if role != r.ownerRole {
		r.rejectLocked(c, ErrNotOwner)
		return
	}
	if r.stage != StageLobby {
		r.rejectLocked(c, ErrWrongStage)
		return
	}
	if r.players[RoleA] == nil || r.players[RoleB] == nil {
		r.rejectLocked(c, ErrLobbyNotFull)
		return
	}

	r.puzzle = pickPuzzle()
	r.cipher = newCipherState(r.puzzle)
	r.stage = Stage1
	r.frozen = false
	r.timeRemaining = r.cfg.roundSeconds
	r.stageTicks = 0
	r.stageSeconds = make(map[Stage]int)

	r.sendLocked(RoleA, GameStartedMessage{
		Type:          "game-started",
		Role:          string(RoleA),
		TimeRemaining: r.timeRemaining,
		PhraseLetters: r.cipher.letters(),
	})
	r.sendLocked(RoleB, GameStartedMessage{
		Type:          "game-started",
		Role:          string(RoleB),
		TimeRemaining: r.timeRemaining,
		PhraseLength:  len(r.cipher.targetPhrase),
	})

	logf(r.cfg, "GAME: Room %s started", r.code)
}

// handleLeave is an explicit departure: no grace period applies. A
// mid-game room closes immediately since the puzzle needs both roles.
func (r *Room) handleLeave(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastActive = time.Now()

	role, ok := r.roleOfLocked(c)
	if !ok {
		r.rejectLocked(c, ErrNotAuthorized)
		return
	}

	name := r.players[role].name
	delete(r.players, role)
	c.unbind()

	logf(r.cfg, "GAME: Player %q left %s", name, r.code)

	if len(r.players) == 0 {
		r.retireLocked()
		return
	}

	if r.stage != StageLobby || role == r.ownerRole {
		r.sendLocked(otherRole(role), SimpleMessage{Type: "lobby-closed", Message: "Your partner has left the game."})
		r.retireLocked()
		return
	}

	r.broadcastLocked(r.lobbyUpdateLocked())
}

// handleReset returns the room to the lobby. The next start picks
// fresh puzzle data, so a replayed room never reuses ground truth the
// players have already seen resolved.
func (r *Room) handleReset(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastActive = time.Now()

	if _, ok := r.roleOfLocked(c); !ok {
		r.rejectLocked(c, ErrNotAuthorized)
		return
	}

	r.stage = StageLobby
	r.frozen = false
	r.cipher = nil
	r.wires = nil
	r.morse = nil
	r.timeRemaining = 0
	r.stageTicks = 0
	r.stageSeconds = make(map[Stage]int)

	r.broadcastLocked(SimpleMessage{Type: "game-reset"})
	r.broadcastLocked(r.lobbyUpdateLocked())

	logf(r.cfg, "GAME: Room %s reset to lobby", r.code)
}
