package main

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"
)

// roomCodeLength and roomCodeAlphabet define the shape of a room code:
// short enough to dictate over voice chat, with visually confusable
// characters (0/O, 1/I/L) excluded.
const (
	roomCodeLength   = 6
	roomCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
)

// RoomStore owns the mapping from room code to live room. It is
// injected into the connection handlers rather than living as package
// state, so the game core can be driven without a live transport.
type RoomStore struct {
	mu          sync.Mutex
	rooms       map[string]*Room
	cfg         *Config
	idleTimeout time.Duration
}

func newRoomStore(cfg *Config) *RoomStore {
	rs := &RoomStore{
		rooms:       make(map[string]*Room),
		cfg:         cfg,
		idleTimeout: cfg.roomTimeout,
	}
	if rs.idleTimeout > 0 {
		go rs.reaperLoop()
	}
	return rs
}

// CreateRoom registers a new room under code and starts its run loop.
func (rs *RoomStore) CreateRoom(code string) (*Room, error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if _, exists := rs.rooms[code]; exists {
		return nil, ErrRoomAlreadyExists
	}

	room := newRoom(code, rs.cfg, rs)
	rs.rooms[code] = room
	go room.run()

	logf(rs.cfg, "ROOMS: Created room %s", code)

	return room, nil
}

func (rs *RoomStore) GetRoom(code string) (*Room, error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	room, ok := rs.rooms[code]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// Remove drops a room from the store and shuts it down. Safe to call
// for a code that has already been removed.
func (rs *RoomStore) Remove(code string) {
	rs.mu.Lock()
	room, ok := rs.rooms[code]
	delete(rs.rooms, code)
	rs.mu.Unlock()

	if ok {
		room.shutdown()
		logf(rs.cfg, "ROOMS: Removed room %s", code)
	}
}

// forget drops the map entry only, for rooms that shut themselves
// down from inside their own run loop.
func (rs *RoomStore) forget(code string) {
	rs.mu.Lock()
	delete(rs.rooms, code)
	rs.mu.Unlock()

	logf(rs.cfg, "ROOMS: Removed room %s", code)
}

// validRoomCode reports whether code is exactly roomCodeLength
// characters from the room code alphabet.
func validRoomCode(code string) bool {
	if len(code) != roomCodeLength {
		return false
	}
	for _, r := range code {
		if !strings.ContainsRune(roomCodeAlphabet, r) {
			return false
		}
	}
	return true
}

// NewRoomCode generates a crypto-random room code and ensures it
// doesn't collide with existing rooms.
func (rs *RoomStore) NewRoomCode() string {
	for {
		buf := make([]byte, roomCodeLength)
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		out := make([]byte, roomCodeLength)
		for i := range out {
			out[i] = roomCodeAlphabet[int(buf[i])%len(roomCodeAlphabet)]
		}
		code := string(out)

		rs.mu.Lock()
		_, exists := rs.rooms[code]
		rs.mu.Unlock()

		if !exists {
			return code
		}
	}
}

// reaperLoop periodically removes rooms that have been idle longer
// than the configured timeout, to bound memory growth in a
// long-running process.
func (rs *RoomStore) reaperLoop() {
	ticker := time.NewTicker(rs.idleTimeout / 2)
	for range ticker.C {
		cutoff := time.Now().Add(-rs.idleTimeout)

		rs.mu.Lock()
		stale := make([]*Room, 0)
		for code, room := range rs.rooms {
			room.mu.RLock()
			last := room.lastActive
			room.mu.RUnlock()

			if last.Before(cutoff) {
				delete(rs.rooms, code)
				stale = append(stale, room)
			}
		}
		rs.mu.Unlock()

		for _, room := range stale {
			logf(rs.cfg, "ROOMS: Reaped idle room %s", room.code)
			go room.shutdown()
		}
	}
}
