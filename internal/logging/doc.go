// Roomcast - Real-time room-scoped pub/sub transport
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roomcast

/*
Package logging is the zerolog setup shared by every Roomcast component.

The package owns one global logger, configured once from main:

	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

and used through level helpers:

	logging.Info().Str("room_id", room).Msg("Room created")
	logging.Err(err).Msg("Broadcast failed")

Request-scoped code logs through Ctx, which attaches the request and
correlation ids placed in the context by the HTTP middleware:

	logging.Ctx(r.Context()).Warn().Msg("Publish rejected")

Each WebSocket connection gets a child logger from ForConnection so that
every line about a connection carries conn_id and username.

Libraries that want a *slog.Logger (sutureslog, for example) get one from
NewSlogLogger; records are forwarded to the same zerolog backend.

Always terminate an event with Msg or Send, otherwise nothing is written.
*/
package logging
