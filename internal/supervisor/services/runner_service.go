// Roomcast - Real-time room-scoped pub/sub transport
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roomcast

package services

import (
	"context"
)

// ContextRunner is satisfied by *websocket.Hub, *ingress.Bridge and
// *timer.Service.
type ContextRunner interface {
	RunWithContext(ctx context.Context) error
}

// RunnerService delegates Serve to RunWithContext.
type RunnerService struct {
	runner ContextRunner
	name   string
}

// NewRunnerService wraps runner under name.
func NewRunnerService(name string, runner ContextRunner) *RunnerService {
	return &RunnerService{runner: runner, name: name}
}

// NewWebSocketHubService supervises the hub. On shutdown the hub closes every
// connection.
func NewWebSocketHubService(hub ContextRunner) *RunnerService {
	return NewRunnerService("websocket-hub", hub)
}

// NewIngressBridgeService supervises the ingress bridge. A closed
// subscription returns an error so suture resubscribes with backoff.
func NewIngressBridgeService(bridge ContextRunner) *RunnerService {
	return NewRunnerService("ingress-bridge", bridge)
}

// NewTimerService supervises the timer ticker.
func NewTimerService(timers ContextRunner) *RunnerService {
	return NewRunnerService("timer-ticker", timers)
}

// NewGameService supervises the game state broadcaster.
func NewGameService(game ContextRunner) *RunnerService {
	return NewRunnerService("game-ticker", game)
}

// Serve implements suture.Service.
func (s *RunnerService) Serve(ctx context.Context) error {
	return s.runner.RunWithContext(ctx)
}

// String implements fmt.Stringer for logging.
// Suture uses this to identify the service in log messages.
func (s *RunnerService) String() string {
	return s.name
}
