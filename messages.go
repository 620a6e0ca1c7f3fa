package main

import "time"

// Messages coming from clients
type ClientMessage struct {
	Type          string     `json:"type"`                    // event name, see the constants below
	RoomID        string     `json:"roomId,omitempty"`        // all events
	PlayerName    string     `json:"playerName,omitempty"`    // create-lobby / join-lobby
	Guess         string     `json:"guess,omitempty"`         // submit-answer
	From          string     `json:"from,omitempty"`          // select-wire
	To            string     `json:"to,omitempty"`            // select-wire
	Answer        string     `json:"answer,omitempty"`        // answer-question, "YES" or "NO"
	Connections   []WirePair `json:"connections,omitempty"`   // submit-connections
	OrderedWords  []string   `json:"orderedWords,omitempty"`  // submit-game3-answer
	TimeRemaining int        `json:"timeRemaining,omitempty"` // sync-timer, advisory only
}

const (
	eventCreateLobby       = "create-lobby"
	eventJoinLobby         = "join-lobby"
	eventSwapRoles         = "swap-roles"
	eventStartGame         = "start-game"
	eventLeaveLobby        = "leave-lobby"
	eventSubmitAnswer      = "submit-answer"
	eventSubmitGame1Answer = "submit-game1-answer"
	eventSelectWire        = "select-wire"
	eventAnswerQuestion    = "answer-question"
	eventSubmitConnections = "submit-connections"
	eventSubmitGame3Answer = "submit-game3-answer"
	eventSyncTimer         = "sync-timer"
	eventResetGame         = "reset-game"
)

// WirePair is one undirected edge between two light nodes.
type WirePair struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// WireResult records the resolved outcome of one asked pair. IsReal is
// the server's ground truth; ShouldConnect is the outcome player A's
// answer produced, which is what player B acts on.
type WireResult struct {
	From          string `json:"from"`
	To            string `json:"to"`
	IsReal        bool   `json:"isReal"`
	ShouldConnect bool   `json:"shouldConnect"`
}

// WordCard is one stage 3 token as player B sees it: an opaque index
// label plus the Morse encoding of a word B cannot read directly.
type WordCard struct {
	Label string `json:"label"`
	Morse string `json:"morse"`
}

// LobbyUpdateMessage is broadcast whenever lobby membership changes.
type LobbyUpdateMessage struct {
	Type    string `json:"type"` // "lobby-update"
	RoomID  string `json:"roomId"`
	PlayerA string `json:"playerA,omitempty"`
	PlayerB string `json:"playerB,omitempty"`
	Owner   string `json:"owner"` // "A" or "B"
}

// LobbyErrorMessage carries a rejected action back to its sender.
type LobbyErrorMessage struct {
	Type   string `json:"type"` // "lobby-error"
	Reason string `json:"reason"`
}

// SimpleMessage is for generic notifications ("lobby-closed",
// "lobby-roles-swapped", "game-reset", "game-over", etc.)
type SimpleMessage struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
}

// GameStartedMessage is sent per role on start-game; each role only
// receives the stage 1 fields it is allowed to see.
type GameStartedMessage struct {
	Type          string   `json:"type"` // "game-started"
	Role          string   `json:"role"`
	TimeRemaining int      `json:"timeRemaining"`
	PhraseLetters []string `json:"phraseLetters,omitempty"` // A only
	PhraseLength  int      `json:"phraseLength,omitempty"`  // B only
}

// GameInitMessage resynchronizes a reconnecting client with the full
// current state its role is allowed to see.
type GameInitMessage struct {
	Type          string       `json:"type"` // "game-init"
	RoomID        string       `json:"roomId"`
	Role          string       `json:"role"`
	Stage         int          `json:"stage"` // 0=lobby .. 4=finished
	TimeRemaining int          `json:"timeRemaining"`
	PlayerA       string       `json:"playerA,omitempty"`
	PlayerB       string       `json:"playerB,omitempty"`
	PhraseLetters []string     `json:"phraseLetters,omitempty"` // stage 1, A only
	PhraseLength  int          `json:"phraseLength,omitempty"`  // stage 1, B only
	WireNodes     []string     `json:"wireNodes,omitempty"`     // stage 2
	WireResults   []WireResult `json:"wireResults,omitempty"`   // stage 2
	PendingPair   *WirePair    `json:"pendingPair,omitempty"`   // stage 2, while a question is unresolved
	Question      string       `json:"question,omitempty"`      // stage 2, pending, A only
	WordCards     []WordCard   `json:"wordCards,omitempty"`     // stage 3, B only
}

// WrongAnswerMessage is sent to player B only on a failed stage 1 or
// stage 3 submission.
type WrongAnswerMessage struct {
	Type          string `json:"type"` // "wrong-answer"
	Stage         int    `json:"stage"`
	Penalty       int    `json:"penalty,omitempty"`
	TimeRemaining int    `json:"timeRemaining"`
}

// StageCompleteMessage is broadcast when a stage is solved. For stage
// transitions it carries the next stage's per-role payload.
type StageCompleteMessage struct {
	Type           string     `json:"type"` // "stage-complete"
	CompletedStage int        `json:"completedStage"`
	NextStage      int        `json:"nextStage"`
	StageSeconds   int        `json:"stageSeconds"`
	TimeRemaining  int        `json:"timeRemaining"`
	WireNodes      []string   `json:"wireNodes,omitempty"` // entering stage 2
	WordCards      []WordCard `json:"wordCards,omitempty"` // entering stage 3, B only
}

// WireQuestionMessage delivers a pending question to player A only.
type WireQuestionMessage struct {
	Type     string `json:"type"` // "wire-question"
	From     string `json:"from"`
	To       string `json:"to"`
	Question string `json:"question"`
}

// WirePendingMessage acknowledges a selection to player B only.
type WirePendingMessage struct {
	Type string `json:"type"` // "wire-pending"
	From string `json:"from"`
	To   string `json:"to"`
}

// WireResultMessage is broadcast once player A has answered.
type WireResultMessage struct {
	Type   string     `json:"type"` // "wire-result" or "wire-already-asked"
	Result WireResult `json:"result"`
}

// CheckFailedMessage is sent to player B only on a failed stage 2
// submission.
type CheckFailedMessage struct {
	Type          string `json:"type"` // "check-failed"
	Penalty       int    `json:"penalty"`
	TimeRemaining int    `json:"timeRemaining"`
}

// TimeUpdateMessage realigns both clients' displayed clocks with the
// server's authoritative countdown.
type TimeUpdateMessage struct {
	Type          string `json:"type"` // "time-update"
	TimeRemaining int    `json:"timeRemaining"`
}

// GameFinishedMessage is broadcast after a successful stage 3
// submission, regardless of leaderboard sink outcome.
type GameFinishedMessage struct {
	Type   string      `json:"type"` // "game-finished"
	Record ScoreRecord `json:"record"`
}

// ScoreRecord is the immutable summary of a completed run, forwarded
// to the external leaderboard sink.
type ScoreRecord struct {
	PlayerAName   string    `json:"playerAName"`
	PlayerBName   string    `json:"playerBName"`
	Stage1Seconds int       `json:"stage1Seconds"`
	Stage2Seconds int       `json:"stage2Seconds"`
	Stage3Seconds int       `json:"stage3Seconds"`
	TotalSeconds  int       `json:"totalSeconds"`
	Timestamp     time.Time `json:"timestamp"`
}
