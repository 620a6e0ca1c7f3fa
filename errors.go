/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
)

// Registry and lobby failures, surfaced to clients verbatim as the
// reason field of a lobby-error event.
var (
	ErrRoomAlreadyExists = errors.New("a room with this code already exists")
	ErrRoomNotFound      = errors.New("no room with this code exists")
	ErrRoomFull          = errors.New("this room already has two players")
	ErrNotAuthorized     = errors.New("this connection is not bound to the room")
	ErrAlreadyInRoom     = errors.New("this connection is already in a room")
	ErrNotOwner          = errors.New("only the room owner may do this")
	ErrLobbyNotFull      = errors.New("both roles must be filled to start")
	ErrWrongStage        = errors.New("this action is not valid in the current stage")
	ErrRoomFrozen        = errors.New("this room has ended")
	ErrMalformedPayload  = errors.New("malformed payload")
)

func logf(cfg *Config, format string, args ...any) {
	if !cfg.verbose {
		return
	}

	log.Printf("%s | "+format, append([]any{time.Now().Format(logDate)}, args...)...)
}

func newPage(title, body string) string {
	var htmlBody strings.Builder

	htmlBody.WriteString(`<!DOCTYPE html><html lang="en"><head>`)
	htmlBody.WriteString(`<style>`)
	htmlBody.WriteString(`html,body,a{display:block;height:100%;width:100%;text-decoration:none;color:inherit;cursor:auto;}</style>`)
	htmlBody.WriteString(fmt.Sprintf("<title>%s</title></head>", title))
	htmlBody.WriteString(fmt.Sprintf("<body><a href=\"/\">%s</a></body></html>", body))

	return htmlBody.String()
}
