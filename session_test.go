package main

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wsTimeout = 2 * time.Second

// startTestServer runs the websocket endpoint over a real transport.
func startTestServer(t *testing.T) (*httptest.Server, *RoomStore) {
	t.Helper()

	cfg := testConfig()
	store := &RoomStore{rooms: make(map[string]*Room), cfg: cfg}

	mux := httprouter.New()
	mux.GET("/play/:code/ws", serveWS(cfg, store))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv, store
}

func wsDial(t *testing.T, srv *httptest.Server, code string) *websocket.Conn {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/play/" + code + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "test done"),
		)
		conn.Close()
	})

	return conn
}

// readEvent reads messages until one of the wanted type arrives,
// skipping unrelated broadcasts like time updates.
func readEvent(t *testing.T, conn *websocket.Conn, wanted string) map[string]any {
	t.Helper()

	deadline := time.Now().Add(wsTimeout)
	require.NoError(t, conn.SetReadDeadline(deadline))

	for {
		var msg map[string]any
		require.NoError(t, conn.ReadJSON(&msg), "waiting for %q", wanted)

		if msg["type"] == wanted {
			return msg
		}
	}
}

func TestWebsocketLobbyRoundTrip(t *testing.T) {
	srv, store := startTestServer(t)

	connA := wsDial(t, srv, "XJ7K2Q")
	require.NoError(t, connA.WriteJSON(ClientMessage{
		Type: eventCreateLobby, RoomID: "XJ7K2Q", PlayerName: "An",
	}))

	update := readEvent(t, connA, "lobby-update")
	assert.Equal(t, "An", update["playerA"])

	connB := wsDial(t, srv, "XJ7K2Q")
	require.NoError(t, connB.WriteJSON(ClientMessage{
		Type: eventJoinLobby, RoomID: "XJ7K2Q", PlayerName: "Binh",
	}))

	update = readEvent(t, connA, "lobby-update")
	assert.Equal(t, "Binh", update["playerB"])
	readEvent(t, connB, "lobby-update")

	require.NoError(t, connA.WriteJSON(ClientMessage{
		Type: eventStartGame, RoomID: "XJ7K2Q",
	}))

	started := readEvent(t, connA, "game-started")
	assert.Equal(t, "A", started["role"])
	assert.NotEmpty(t, started["phraseLetters"])

	started = readEvent(t, connB, "game-started")
	assert.Equal(t, "B", started["role"])
	assert.Nil(t, started["phraseLetters"])
	assert.NotZero(t, started["phraseLength"])

	room, err := store.GetRoom("XJ7K2Q")
	require.NoError(t, err)
	room.mu.RLock()
	assert.Equal(t, Stage1, room.stage)
	room.mu.RUnlock()
}

func TestWebsocketRejectsUnknownRoom(t *testing.T) {
	srv, _ := startTestServer(t)

	conn := wsDial(t, srv, "XJ7K2Q")
	require.NoError(t, conn.WriteJSON(ClientMessage{
		Type: eventJoinLobby, RoomID: "XJ7K2Q", PlayerName: "An",
	}))

	errMsg := readEvent(t, conn, "lobby-error")
	assert.Equal(t, ErrRoomNotFound.Error(), errMsg["reason"])
}

func TestWebsocketRejectsMalformedRoomCode(t *testing.T) {
	srv, _ := startTestServer(t)

	conn := wsDial(t, srv, "XJ7K2Q")
	require.NoError(t, conn.WriteJSON(ClientMessage{
		Type: eventCreateLobby, RoomID: "not a code!", PlayerName: "An",
	}))

	errMsg := readEvent(t, conn, "lobby-error")
	assert.Equal(t, ErrRoomNotFound.Error(), errMsg["reason"])
}

func TestWebsocketSecondRoomWhileBoundRejected(t *testing.T) {
	srv, store := startTestServer(t)

	conn := wsDial(t, srv, "XJ7K2Q")
	require.NoError(t, conn.WriteJSON(ClientMessage{
		Type: eventCreateLobby, RoomID: "XJ7K2Q", PlayerName: "An",
	}))
	readEvent(t, conn, "lobby-update")

	// Creating a second room over the same connection is refused, and
	// the room is never registered.
	require.NoError(t, conn.WriteJSON(ClientMessage{
		Type: eventCreateLobby, RoomID: "M3NPQR", PlayerName: "An",
	}))
	errMsg := readEvent(t, conn, "lobby-error")
	assert.Equal(t, ErrAlreadyInRoom.Error(), errMsg["reason"])

	_, err := store.GetRoom("M3NPQR")
	assert.ErrorIs(t, err, ErrRoomNotFound)

	// Joining a different room is refused the same way.
	other, err := store.CreateRoom("M3NPQR")
	require.NoError(t, err)
	t.Cleanup(func() { store.Remove("M3NPQR") })

	require.NoError(t, conn.WriteJSON(ClientMessage{
		Type: eventJoinLobby, RoomID: "M3NPQR", PlayerName: "An",
	}))
	errMsg = readEvent(t, conn, "lobby-error")
	assert.Equal(t, ErrAlreadyInRoom.Error(), errMsg["reason"])

	other.mu.RLock()
	assert.Empty(t, other.players)
	other.mu.RUnlock()

	// So is grabbing the second seat of the room already held.
	require.NoError(t, conn.WriteJSON(ClientMessage{
		Type: eventJoinLobby, RoomID: "XJ7K2Q", PlayerName: "Binh",
	}))
	errMsg = readEvent(t, conn, "lobby-error")
	assert.Equal(t, ErrAlreadyInRoom.Error(), errMsg["reason"])

	// The original binding is intact.
	room, err := store.GetRoom("XJ7K2Q")
	require.NoError(t, err)
	room.mu.RLock()
	defer room.mu.RUnlock()
	require.NotNil(t, room.players[RoleA])
	assert.Equal(t, "An", room.players[RoleA].name)
	assert.NotNil(t, room.players[RoleA].client)
}

func TestWebsocketLeaveThenCreateNewRoom(t *testing.T) {
	srv, store := startTestServer(t)

	conn := wsDial(t, srv, "XJ7K2Q")
	require.NoError(t, conn.WriteJSON(ClientMessage{
		Type: eventCreateLobby, RoomID: "XJ7K2Q", PlayerName: "An",
	}))
	readEvent(t, conn, "lobby-update")

	require.NoError(t, conn.WriteJSON(ClientMessage{
		Type: eventLeaveLobby, RoomID: "XJ7K2Q",
	}))

	// An explicit leave releases the binding; once the emptied room is
	// gone from the registry, the same connection can open a new one.
	require.Eventually(t, func() bool {
		_, err := store.GetRoom("XJ7K2Q")
		return err != nil
	}, wsTimeout, 10*time.Millisecond)

	require.NoError(t, conn.WriteJSON(ClientMessage{
		Type: eventCreateLobby, RoomID: "M3NPQR", PlayerName: "An",
	}))
	update := readEvent(t, conn, "lobby-update")
	assert.Equal(t, "M3NPQR", update["roomId"])
}

func TestWebsocketRoomCodeCaseInsensitive(t *testing.T) {
	srv, _ := startTestServer(t)

	conn := wsDial(t, srv, "XJ7K2Q")
	require.NoError(t, conn.WriteJSON(ClientMessage{
		Type: eventCreateLobby, RoomID: "xj7k2q", PlayerName: "An",
	}))

	update := readEvent(t, conn, "lobby-update")
	assert.Equal(t, "XJ7K2Q", update["roomId"])
}
