package main

import "time"

// cipherState is stage 1: a secret phrase only player A can see
// (rendered client-side as cipher glyphs), guessed blind by player B
// from A's description.
type cipherState struct {
	targetPhrase string
	attempts     []string
}

func newCipherState(p PuzzleSet) *cipherState {
	return &cipherState{targetPhrase: p.Phrase}
}

func (cs *cipherState) letters() []string {
	out := make([]string, 0, len(cs.targetPhrase))
	for _, r := range cs.targetPhrase {
		out = append(out, string(r))
	}
	return out
}

// handleCipherGuess processes player B's stage 1 submission. A miss
// costs no deducted time; the running clock is the only pressure here.
func (r *Room) handleCipherGuess(c *Client, msg ClientMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastActive = time.Now()

	if !r.requireRoleLocked(c, RoleB, Stage1) {
		return
	}

	guess := normalizeGuess(msg.Guess)
	if guess == "" {
		// Client-side validation already blocks these, but the server
		// never trusts it.
		r.rejectLocked(c, ErrMalformedPayload)
		return
	}

	r.cipher.attempts = append(r.cipher.attempts, guess)

	if guess != r.cipher.targetPhrase {
		r.sendLocked(RoleB, WrongAnswerMessage{
			Type:          "wrong-answer",
			Stage:         int(Stage1),
			TimeRemaining: r.timeRemaining,
		})
		return
	}

	r.advanceLocked()
}
