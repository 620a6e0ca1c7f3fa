package main

import (
	"crypto/rand"
	"fmt"
	"time"
)

// morseState is stage 3: player B holds opaque word cards carrying
// Morse encodings, player A holds a static decoding table client-side,
// and the phrase only falls out when the cards are ordered correctly.
type morseState struct {
	targetWords []string
	cards       []WordCard
}

func newMorseState(p PuzzleSet) *morseState {
	ms := &morseState{targetWords: p.Words}

	ms.cards = make([]WordCard, len(p.Words))
	for i, word := range p.Words {
		ms.cards[i] = WordCard{
			Label: fmt.Sprintf("card%d", i+1),
			Morse: morseEncode(word),
		}
	}

	// Fisher-Yates shuffle using crypto/rand, so B's card order leaks
	// nothing about the target order.
	for i := len(ms.cards) - 1; i > 0; i-- {
		var b [1]byte
		if _, err := rand.Read(b[:]); err != nil {
			continue
		}
		j := int(b[0]) % (i + 1)
		ms.cards[i], ms.cards[j] = ms.cards[j], ms.cards[i]
	}

	return ms
}

// matches compares an ordered submission against the target words:
// order matters, case and surrounding whitespace do not.
func (ms *morseState) matches(orderedWords []string) bool {
	if len(orderedWords) != len(ms.targetWords) {
		return false
	}
	for i, word := range orderedWords {
		if normalizeGuess(word) != ms.targetWords[i] {
			return false
		}
	}
	return true
}

// handleMorseSubmit processes player B's stage 3 submission. A miss
// costs the same clamped penalty as stage 2.
func (r *Room) handleMorseSubmit(c *Client, msg ClientMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastActive = time.Now()

	if !r.requireRoleLocked(c, RoleB, Stage3) {
		return
	}

	if len(msg.OrderedWords) == 0 {
		r.rejectLocked(c, ErrMalformedPayload)
		return
	}

	if r.morse.matches(msg.OrderedWords) {
		r.advanceLocked()
		return
	}

	r.applyPenaltyLocked()
	if r.frozen {
		return
	}

	r.sendLocked(RoleB, WrongAnswerMessage{
		Type:          "wrong-answer",
		Stage:         int(Stage3),
		Penalty:       r.cfg.penaltySeconds,
		TimeRemaining: r.timeRemaining,
	})
}
