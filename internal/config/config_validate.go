// Roomcast - Real-time room-scoped pub/sub transport
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roomcast

package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Validate checks ranges and cross-field rules. Messages name the
// environment variable that controls the offending value.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateWebSocket,
		c.validateDomains,
		c.validateIngress,
		c.validateNATS,
		c.validateClient,
		c.validateSecurity,
		c.validateLogging,
		c.validateSupervisor,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

var validEnvironments = map[string]bool{
	"development": true,
	"staging":     true,
	"production":  true,
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive")
	}
	if !validEnvironments[c.Server.Environment] {
		return fmt.Errorf("ENVIRONMENT must be one of: development, staging, production")
	}
	return nil
}

// WebSocket limits
const (
	minSendBuffer     = 1
	maxSendBuffer     = 65536
	minMaxMessageSize = 1024
	maxMaxMessageSize = 16 << 20
	minPongWait       = time.Second
)

func (c *Config) validateWebSocket() error {
	ws := c.WebSocket
	switch {
	case !strings.HasPrefix(ws.Path, "/"):
		return fmt.Errorf("WS_PATH must start with /")
	case ws.SendBufferSize < minSendBuffer || ws.SendBufferSize > maxSendBuffer:
		return fmt.Errorf("WS_SEND_BUFFER_SIZE must be between %d and %d", minSendBuffer, maxSendBuffer)
	case ws.MaxMessageSize < minMaxMessageSize || ws.MaxMessageSize > maxMaxMessageSize:
		return fmt.Errorf("WS_MAX_MESSAGE_SIZE must be between %d and %d bytes", minMaxMessageSize, maxMaxMessageSize)
	case ws.WriteWait <= 0:
		return fmt.Errorf("WS_WRITE_WAIT must be positive")
	case ws.PongWait < minPongWait:
		return fmt.Errorf("WS_PONG_WAIT must be at least %v", minPongWait)
	case ws.HandshakeTimeout <= 0:
		return fmt.Errorf("WS_HANDSHAKE_TIMEOUT must be positive")
	case ws.ReadBufferSize <= 0 || ws.WriteBufferSize <= 0:
		return fmt.Errorf("WS_READ_BUFFER_SIZE and WS_WRITE_BUFFER_SIZE must be positive")
	case ws.MessageRate < 0:
		return fmt.Errorf("WS_MESSAGE_RATE must not be negative")
	case ws.MessageRate > 0 && ws.MessageBurst < 1:
		return fmt.Errorf("WS_MESSAGE_BURST must be at least 1 when WS_MESSAGE_RATE is set")
	}
	return nil
}

func (c *Config) validateDomains() error {
	if c.Rooms.MaxRoomIDLength < 1 || c.Rooms.MaxRoomIDLength > 1024 {
		return fmt.Errorf("ROOM_ID_MAX_LENGTH must be between 1 and 1024")
	}
	if c.Chat.HistorySize < 1 || c.Chat.HistorySize > 100000 {
		return fmt.Errorf("CHAT_HISTORY_SIZE must be between 1 and 100000")
	}
	if c.Timer.TickInterval < 10*time.Millisecond || c.Timer.TickInterval > time.Minute {
		return fmt.Errorf("TIMER_TICK_INTERVAL must be between 10ms and 1m")
	}
	if c.Game.GridSize < 1 || c.Game.GridSize > 1000 {
		return fmt.Errorf("GAME_GRID_SIZE must be between 1 and 1000")
	}
	if c.Game.TickInterval < 10*time.Millisecond || c.Game.TickInterval > time.Minute {
		return fmt.Errorf("GAME_TICK_INTERVAL must be between 10ms and 1m")
	}
	if c.Game.MaxSpawnAttempts < 1 {
		return fmt.Errorf("GAME_MAX_SPAWN_ATTEMPTS must be at least 1")
	}
	return nil
}

func (c *Config) validateIngress() error {
	if !c.Ingress.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Ingress.Topic) == "" {
		return fmt.Errorf("INGRESS_TOPIC is required when INGRESS_ENABLED=true")
	}
	switch c.Ingress.Backend {
	case BackendGoChannel, BackendNATS:
		return nil
	default:
		return fmt.Errorf("INGRESS_BACKEND must be one of: gochannel, nats")
	}
}

// UsesNATS reports whether the ingress bridge runs on NATS.
func (c *Config) UsesNATS() bool {
	return c.Ingress.Enabled && c.Ingress.Backend == BackendNATS
}

const natsMaxSubscribers = 32

func (c *Config) validateNATS() error {
	if !c.UsesNATS() {
		return nil
	}
	if err := validateURL(c.NATS.URL, "nats", "tls"); err != nil {
		return fmt.Errorf("NATS_URL is invalid: %w", err)
	}
	if c.NATS.EmbeddedServer && (c.NATS.Port < 1 || c.NATS.Port > 65535) {
		return fmt.Errorf("NATS_PORT must be between 1 and 65535")
	}
	if c.NATS.SubscribersCount < 1 || c.NATS.SubscribersCount > natsMaxSubscribers {
		return fmt.Errorf("NATS_SUBSCRIBERS must be between 1 and %d", natsMaxSubscribers)
	}
	if c.NATS.AckWaitTimeout <= 0 || c.NATS.CloseTimeout <= 0 {
		return fmt.Errorf("NATS_ACK_WAIT_TIMEOUT and NATS_CLOSE_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateClient() error {
	if err := validateURL(c.Client.URL, "ws", "wss"); err != nil {
		return fmt.Errorf("CLIENT_URL is invalid: %w", err)
	}
	if c.Client.BaseDelay <= 0 {
		return fmt.Errorf("CLIENT_BASE_DELAY must be positive")
	}
	if c.Client.DialTimeout <= 0 {
		return fmt.Errorf("CLIENT_DIAL_TIMEOUT must be positive")
	}
	return nil
}

// Rate limit bounds
const (
	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = time.Hour
)

func (c *Config) validateSecurity() error {
	for _, origin := range c.Security.CORSOrigins {
		if strings.TrimSpace(origin) == "" {
			return fmt.Errorf("CORS_ORIGINS must not contain empty entries")
		}
	}
	if c.IsProduction() && c.HasWildcardCORS() {
		return fmt.Errorf("CORS_ORIGINS=* is not allowed in production; " +
			"list the origins allowed to open WebSocket connections, e.g. CORS_ORIGINS=https://app.example.com")
	}
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < minRateLimitRequests || c.Security.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

// HasWildcardCORS reports whether any origin is allowed.
func (c *Config) HasWildcardCORS() bool {
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

func (c *Config) validateSupervisor() error {
	s := c.Supervisor
	if s.FailureThreshold <= 0 || s.FailureDecay <= 0 {
		return fmt.Errorf("SUPERVISOR_FAILURE_THRESHOLD and SUPERVISOR_FAILURE_DECAY must be positive")
	}
	if s.FailureBackoff <= 0 || s.ShutdownTimeout <= 0 {
		return fmt.Errorf("SUPERVISOR_FAILURE_BACKOFF and SUPERVISOR_SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}

func validateURL(raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in %q", raw)
	}
	for _, s := range schemes {
		if u.Scheme == s {
			return nil
		}
	}
	return fmt.Errorf("scheme must be one of %s, got %q", strings.Join(schemes, ", "), u.Scheme)
}
