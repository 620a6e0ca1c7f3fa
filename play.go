package main

import (
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

// redirectNewRoom handles GET /play by generating a fresh room code
// (with server-side collision detection) and redirecting to
// /play/:code. The room itself is only created once the first client
// sends create-lobby over the websocket.
func redirectNewRoom(cfg *Config, path string, store *RoomStore) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		code := store.NewRoomCode()
		logf(cfg, "SERVE: Issued room code %s", code)
		http.Redirect(w, r, path+"/"+code, http.StatusTemporaryRedirect)
	}
}

// serveRoomPage answers /play/:code with a minimal landing page; the
// actual client is the SPA, which connects to the ws endpoint below.
func serveRoomPage(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		code := strings.ToUpper(ps.ByName("code"))
		if !validRoomCode(code) {
			http.Error(w, "invalid room code", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		securityHeaders(cfg, w)

		_, _ = w.Write([]byte(newPage("pairlock", "Room "+code)))
	}
}

// qrHandler generates a PNG QR code for the current room URL, so a
// code can be shared by scanning instead of dictation.
func qrHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if !validRoomCode(strings.ToUpper(ps.ByName("code"))) {
		http.Error(w, "invalid room code", http.StatusNotFound)
		return
	}

	// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	// We are at /play/:code/qr; strip trailing "/qr" to get the room URL.
	path := strings.TrimSuffix(r.URL.Path, "/qr")

	url := scheme + "://" + r.Host + path

	const qrSize = 320 // mobile-friendly size
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

// registerPuzzleGame sets up routes so that:
//   - $path           → redirects to a fresh unused room code
//   - $path/:code     → minimal landing page
//   - $path/:code/ws  → websocket carrying all game events
//   - $path/:code/qr  → PNG QR code for that room URL
func registerPuzzleGame(cfg *Config, path string, store *RoomStore, mux *httprouter.Router) {
	mux.GET(cfg.prefix+path, redirectNewRoom(cfg, cfg.prefix+path, store))

	mux.GET(cfg.prefix+path+"/:code", serveRoomPage(cfg))

	mux.GET(cfg.prefix+path+"/:code/ws", serveWS(cfg, store))

	mux.GET(cfg.prefix+path+"/:code/qr", qrHandler)
}
