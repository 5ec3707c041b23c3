// Roomcast - Real-time room-scoped pub/sub transport
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roomcast

package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/tomtom215/roomcast/internal/client"
	"github.com/tomtom215/roomcast/internal/config"
	"github.com/tomtom215/roomcast/internal/logging"
	"github.com/tomtom215/roomcast/internal/protocol"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: "console", Output: os.Stderr})

	serverURL := flag.String("url", cfg.Client.URL, "websocket endpoint")
	room := flag.String("room", "lobby", "room to join on start")
	username := flag.String("username", "", "display name, generated by the server when empty")
	flag.Parse()

	target, err := withUsername(*serverURL, *username)
	if err != nil {
		logging.Fatal().Err(err).Str("url", *serverURL).Msg("Invalid server URL")
	}

	c := client.New(client.Config{
		URL:                  target,
		MaxReconnectAttempts: cfg.Client.MaxReconnectAttempts,
		BaseDelay:            cfg.Client.BaseDelay,
		DialTimeout:          cfg.Client.DialTimeout,
	})
	c.OnStateChange(func(s client.State) {
		logging.Info().Str("state", s.String()).Int("attempts", c.Attempts()).Msg("connection state")
	})
	for _, t := range protocol.ServerTypes() {
		c.On(t, func(f protocol.Frame) { printFrame(os.Stdout, f) })
	}

	sess := &session{conn: c, room: *room}
	if err := sess.join(*room); err != nil {
		logging.Fatal().Err(err).Msg("Failed to queue room join")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})
	go func() {
		sess.run(os.Stdin)
		close(done)
	}()

	select {
	case sig := <-sigCh:
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case <-done:
	}
	_ = c.Close()
}

// withUsername adds the username query parameter to raw.
func withUsername(raw, username string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if username != "" {
		q := u.Query()
		q.Set("username", username)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func printFrame(w io.Writer, f protocol.Frame) {
	payload := string(f.Payload)
	if payload == "" {
		payload = "{}"
	}
	_, _ = fmt.Fprintf(w, "[%s] %s\n", f.Type, payload)
}

// sender is the part of *client.Conn the input loop drives.
type sender interface {
	Send(env protocol.Envelope) error
}

// session turns input lines into client messages for the current room.
type session struct {
	conn sender
	room string
}

func (s *session) join(room string) error {
	s.room = room
	return s.conn.Send(protocol.New(protocol.TypeRoomJoin, protocol.RoomPayload{RoomID: room}))
}

// run reads lines until r is exhausted or /quit.
func (s *session) run(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		quit, err := s.handleLine(scanner.Text())
		if err != nil {
			logging.Warn().Err(err).Msg("send failed")
		}
		if quit {
			return
		}
	}
}

// handleLine sends the message line stands for. quit reports /quit.
func (s *session) handleLine(line string) (quit bool, err error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false, nil
	}

	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch cmd {
	case "/quit":
		return true, nil
	case "/join":
		if arg == "" {
			return false, errors.New("usage: /join <room>")
		}
		return false, s.join(arg)
	case "/leave":
		return false, s.conn.Send(protocol.New(protocol.TypeRoomLeave, protocol.RoomPayload{RoomID: s.room}))
	case "/ping":
		return false, s.conn.Send(protocol.New(protocol.TypePing, protocol.PingPayload{}))
	case "/play":
		return false, s.conn.Send(protocol.New(protocol.TypeGameJoin, protocol.GameJoinPayload{}))
	case "/stop":
		return false, s.conn.Send(protocol.New(protocol.TypeGameLeave, protocol.GameLeavePayload{}))
	case "/move":
		x, y, err := parseCell(arg)
		if err != nil {
			return false, err
		}
		return false, s.conn.Send(protocol.New(protocol.TypeGameMove, protocol.GameMovePayload{X: x, Y: y}))
	case "/typing":
		return false, s.conn.Send(protocol.New(protocol.TypeChatTyping, protocol.ChatTypingPayload{RoomID: s.room, IsTyping: true}))
	}
	return false, s.conn.Send(protocol.New(protocol.TypeChatSend, protocol.ChatSendPayload{RoomID: s.room, Text: line}))
}

// parseCell reads "x y".
func parseCell(arg string) (x, y int, err error) {
	fields := strings.Fields(arg)
	if len(fields) != 2 {
		return 0, 0, errors.New("usage: /move <x> <y>")
	}
	if x, err = strconv.Atoi(fields[0]); err != nil {
		return 0, 0, fmt.Errorf("bad x: %w", err)
	}
	if y, err = strconv.Atoi(fields[1]); err != nil {
		return 0, 0, fmt.Errorf("bad y: %w", err)
	}
	return x, y, nil
}
