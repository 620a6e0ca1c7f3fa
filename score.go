package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
)

var sinkClient = &http.Client{Timeout: 10 * time.Second}

// postScore forwards a completed run to the external leaderboard sink.
// Fire-and-forget: a sink failure is logged and never surfaced to the
// players, and no retry state is kept.
func postScore(cfg *Config, record ScoreRecord) {
	if cfg.leaderboardURL == "" {
		return
	}

	body, err := json.Marshal(record)
	if err != nil {
		log.Printf("SCORE: Marshal failure: %v", err)
		return
	}

	resp, err := sinkClient.Post(cfg.leaderboardURL, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Printf("SCORE: Sink unreachable: %v", err)
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	logf(cfg, "SCORE: Posted %s + %s (%ds) to sink (%s)",
		record.PlayerAName, record.PlayerBName, record.TotalSeconds, resp.Status)
}

// serveLeaderboard proxies the sink's read endpoint so clients can
// fetch the current standings without knowing where they live.
func serveLeaderboard(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		if cfg.leaderboardURL == "" {
			http.Error(w, "no leaderboard configured", http.StatusNotFound)
			return
		}

		resp, err := sinkClient.Get(cfg.leaderboardURL)
		if err != nil {
			http.Error(w, "leaderboard unavailable", http.StatusBadGateway)
			return
		}
		defer resp.Body.Close()

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		securityHeaders(cfg, w)
		w.WriteHeader(resp.StatusCode)

		if _, err := io.Copy(w, resp.Body); err != nil {
			errs <- err

			return
		}
	}
}
