package main

import (
	"strings"
	"time"

	"github.com/samber/lo"
)

// wireState is stage 2: player B proposes wire pairs one at a time,
// the resulting question goes to player A alone, and A's YES/NO
// determines the outcome B acts on. The real-pair truth is fixed at
// stage start and never changes, so a re-asked pair replays its
// recorded result instead of raising a new question.
type wireState struct {
	nodes    []string
	realKeys map[string]bool
	asked    map[string]WireResult
	results  []WireResult
	pending  *pendingQuestion
}

type pendingQuestion struct {
	pair     WirePair
	question string
}

func newWireState(p PuzzleSet) *wireState {
	ws := &wireState{
		nodes:    p.WireNodes,
		realKeys: make(map[string]bool, len(p.RealPairs)),
		asked:    make(map[string]WireResult),
	}
	for _, pair := range p.RealPairs {
		ws.realKeys[pairKey(pair.From, pair.To)] = true
	}
	return ws
}

// pairKey canonicalizes an undirected pair so (a,b) and (b,a) map to
// the same entry.
func pairKey(from, to string) string {
	if strings.Compare(from, to) > 0 {
		from, to = to, from
	}
	return from + "|" + to
}

func (ws *wireState) validNode(label string) bool {
	return lo.Contains(ws.nodes, label)
}

// handleSelectWire processes player B picking a pair to ask about.
// Only one question may be pending at a time; that rejection is what
// enforces turn-taking without any locking visible to the players.
func (r *Room) handleSelectWire(c *Client, msg ClientMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastActive = time.Now()

	if !r.requireRoleLocked(c, RoleB, Stage2) {
		return
	}

	ws := r.wires

	if msg.From == "" || msg.To == "" || msg.From == msg.To ||
		!ws.validNode(msg.From) || !ws.validNode(msg.To) {
		r.rejectLocked(c, ErrMalformedPayload)
		return
	}

	key := pairKey(msg.From, msg.To)

	if result, ok := ws.asked[key]; ok {
		r.sendLocked(RoleB, WireResultMessage{Type: "wire-already-asked", Result: result})
		return
	}

	if ws.pending != nil {
		r.rejectLocked(c, ErrWrongStage)
		return
	}

	ws.pending = &pendingQuestion{
		pair:     WirePair{From: msg.From, To: msg.To},
		question: wireQuestion(msg.From, msg.To),
	}

	r.sendLocked(RoleA, WireQuestionMessage{
		Type:     "wire-question",
		From:     msg.From,
		To:       msg.To,
		Question: ws.pending.question,
	})
	r.sendLocked(RoleB, WirePendingMessage{Type: "wire-pending", From: msg.From, To: msg.To})
}

// handleAnswerQuestion resolves the pending pair with player A's
// YES/NO. A's answer decides what B is shown; whether the pair is part
// of the solution stays fixed server-side regardless.
func (r *Room) handleAnswerQuestion(c *Client, msg ClientMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastActive = time.Now()

	if !r.requireRoleLocked(c, RoleA, Stage2) {
		return
	}

	ws := r.wires

	if ws.pending == nil {
		r.rejectLocked(c, ErrWrongStage)
		return
	}

	answer := strings.ToUpper(strings.TrimSpace(msg.Answer))
	if answer != "YES" && answer != "NO" {
		r.rejectLocked(c, ErrMalformedPayload)
		return
	}

	pair := ws.pending.pair
	key := pairKey(pair.From, pair.To)

	result := WireResult{
		From:          pair.From,
		To:            pair.To,
		IsReal:        ws.realKeys[key],
		ShouldConnect: answer == "YES",
	}

	ws.asked[key] = result
	ws.results = append(ws.results, result)
	ws.pending = nil

	r.broadcastLocked(WireResultMessage{Type: "wire-result", Result: result})
}

// handleSubmitConnections checks player B's full connection set for
// exact equality with the real-pair set. No credit for subsets or for
// an otherwise-correct set carrying one fake edge.
func (r *Room) handleSubmitConnections(c *Client, msg ClientMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastActive = time.Now()

	if !r.requireRoleLocked(c, RoleB, Stage2) {
		return
	}

	ws := r.wires

	submitted := lo.Uniq(lo.Map(msg.Connections, func(p WirePair, _ int) string {
		return pairKey(p.From, p.To)
	}))
	truth := lo.Keys(ws.realKeys)

	missing, extra := lo.Difference(truth, submitted)

	if len(missing) == 0 && len(extra) == 0 {
		r.advanceLocked()
		return
	}

	r.applyPenaltyLocked()
	if r.frozen {
		return
	}

	r.sendLocked(RoleB, CheckFailedMessage{
		Type:          "check-failed",
		Penalty:       r.cfg.penaltySeconds,
		TimeRemaining: r.timeRemaining,
	})
}
