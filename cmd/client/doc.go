// Roomcast - Real-time room-scoped pub/sub transport
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roomcast

/*
Command client is a terminal client for a Roomcast server.

It connects with the resilient client, joins one room and prints every
server message. Each line read from stdin is sent to the room as a chat
message. A few lines are commands instead:

	/join <room>   join another room and make it current
	/leave         leave the current room
	/ping          measure a round trip
	/typing        announce typing in the current room
	/play          join the grid game
	/move <x> <y>  move on the grid
	/stop          leave the grid game
	/quit          close the connection and exit

Connection settings come from the same configuration as the server
(CLIENT_URL, CLIENT_MAX_RECONNECT_ATTEMPTS, CLIENT_BASE_DELAY,
CLIENT_DIAL_TIMEOUT). Flags override the URL and pick the room and username:

	client -room lobby -username alice
*/
package main
