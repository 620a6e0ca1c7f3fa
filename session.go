package main

import (
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"golang.org/x/time/rate"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is one live websocket connection. A connection binds to at
// most one room; the authoritative binding lives in the room's player
// slots, while the pointer here only exists so the read pump can
// report disconnects.
//
// The send channel is never closed: writers use non-blocking sends,
// and the write pump exits via done instead, so a room broadcast can
// never race a teardown.
type Client struct {
	connID  string
	conn    *websocket.Conn
	send    chan any
	done    chan struct{}
	limiter *rate.Limiter

	mu        sync.Mutex
	room      *Room
	closeOnce sync.Once
}

func newClient(conn *websocket.Conn) *Client {
	return &Client{
		connID: uuid.NewString(),
		conn:   conn,
		send:   make(chan any, 16),
		done:   make(chan struct{}),
		// Generous ceiling; a legitimate client sends a handful of
		// events per second at most.
		limiter: rate.NewLimiter(rate.Limit(20), 40),
	}
}

func (c *Client) bind(r *Room) {
	c.mu.Lock()
	c.room = r
	c.mu.Unlock()
}

func (c *Client) unbind() {
	c.mu.Lock()
	c.room = nil
	c.mu.Unlock()
}

func (c *Client) boundRoom() *Room {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.room
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

func (c *Client) reject(reason error) {
	select {
	case c.send <- LobbyErrorMessage{Type: "lobby-error", Reason: reason.Error()}:
	default:
	}
}

// serveWS upgrades the connection and runs the pumps. All game routing
// happens per-message via the room code each event carries.
func serveWS(cfg *Config, store *RoomStore) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logf(cfg, "SERVE: Upgrade error from %s: %v", realIP(r), err)
			return
		}

		client := newClient(conn)

		logf(cfg, "SERVE: Connection %s opened from %s", client.connID, realIP(r))

		go client.writePump()
		client.readPump(store)
	}
}

func (c *Client) readPump(store *RoomStore) {
	defer func() {
		if room := c.boundRoom(); room != nil {
			room.notifyDisconnect(c)
		}
		c.close()
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		if !c.limiter.Allow() {
			continue
		}

		msg.RoomID = strings.ToUpper(strings.TrimSpace(msg.RoomID))

		switch msg.Type {
		case eventCreateLobby:
			// A connection holds at most one room binding; leaving
			// first is the only way into another room.
			if c.boundRoom() != nil {
				c.reject(ErrAlreadyInRoom)
				continue
			}
			if !validRoomCode(msg.RoomID) {
				c.reject(ErrRoomNotFound)
				continue
			}
			room, err := store.CreateRoom(msg.RoomID)
			if err != nil {
				c.reject(err)
				continue
			}
			room.enqueue(c, msg)

		case eventJoinLobby:
			// Rejoins arrive on fresh connections, so a live binding
			// here always means a second room (or a second seat).
			if c.boundRoom() != nil {
				c.reject(ErrAlreadyInRoom)
				continue
			}
			room, err := store.GetRoom(msg.RoomID)
			if err != nil {
				c.reject(err)
				continue
			}
			if !room.enqueue(c, msg) {
				c.reject(ErrRoomNotFound)
			}

		default:
			room, err := store.GetRoom(msg.RoomID)
			if err != nil {
				c.reject(err)
				continue
			}
			if !room.enqueue(c, msg) {
				c.reject(ErrRoomNotFound)
			}
		}
	}
}

func (c *Client) writePump() {
	defer func() {
		if c.conn != nil {
			_ = c.conn.Close()
		}
	}()

	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		}
	}
}
