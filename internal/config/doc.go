// Roomcast - Real-time room-scoped pub/sub transport
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roomcast

/*
Package config loads Roomcast configuration with Koanf v2.

Sources are layered, later layers overriding earlier ones:

 1. Struct defaults (defaultConfig)
 2. Optional YAML file: $CONFIG_PATH, then config.yaml, config.yml,
    /etc/roomcast/config.yaml, /etc/roomcast/config.yml
 3. Environment variables, through an explicit name table; variables
    that are not in the table are ignored

Comma-separated environment values are split for slice fields such as
CORS_ORIGINS. The result is checked by Validate, whose errors name the
environment variable to change:

	HTTP_PORT must be between 1 and 65535

Example config.yaml:

	server:
	  port: 8080
	websocket:
	  send_buffer_size: 256
	  message_rate: 20
	ingress:
	  enabled: true
	  backend: nats
	nats:
	  embedded_server: true

Config is read-only after Load and safe to share between goroutines.
*/
package config
