// Roomcast - Real-time room-scoped pub/sub transport
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roomcast

package config

import (
	"fmt"
	"time"
)

// Config is the full application configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	WebSocket  WebSocketConfig  `koanf:"websocket"`
	Rooms      RoomsConfig      `koanf:"rooms"`
	Chat       ChatConfig       `koanf:"chat"`
	Timer      TimerConfig      `koanf:"timer"`
	Game       GameConfig       `koanf:"game"`
	Ingress    IngressConfig    `koanf:"ingress"`
	NATS       NATSConfig       `koanf:"nats"`
	Client     ClientConfig     `koanf:"client"`
	Security   SecurityConfig   `koanf:"security"`
	Logging    LoggingConfig    `koanf:"logging"`
	Supervisor SupervisorConfig `koanf:"supervisor"`
}

// ServerConfig holds the HTTP listener settings.
//
// Environment Variables:
//   - HTTP_HOST (default: 0.0.0.0)
//   - HTTP_PORT (default: 8080)
//   - HTTP_TIMEOUT: read/write timeout for REST requests (default: 30s)
//   - SHUTDOWN_TIMEOUT: graceful shutdown budget (default: 10s)
//   - ENVIRONMENT: development or production (default: development)
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"`
}

// Addr returns host:port for http.Server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// WebSocketConfig tunes the per-connection pumps.
//
// Environment Variables:
//   - WS_PATH (default: /ws)
//   - WS_SEND_BUFFER_SIZE: outbound frames buffered per connection (default: 256)
//   - WS_MAX_MESSAGE_SIZE: largest inbound frame in bytes (default: 524288)
//   - WS_WRITE_WAIT, WS_PONG_WAIT, WS_HANDSHAKE_TIMEOUT
//   - WS_READ_BUFFER_SIZE, WS_WRITE_BUFFER_SIZE: upgrader I/O buffers
//   - WS_MESSAGE_RATE, WS_MESSAGE_BURST: inbound frames per second per connection; 0 disables
type WebSocketConfig struct {
	Path             string        `koanf:"path"`
	SendBufferSize   int           `koanf:"send_buffer_size"`
	MaxMessageSize   int64         `koanf:"max_message_size"`
	WriteWait        time.Duration `koanf:"write_wait"`
	PongWait         time.Duration `koanf:"pong_wait"`
	HandshakeTimeout time.Duration `koanf:"handshake_timeout"`
	ReadBufferSize   int           `koanf:"read_buffer_size"`
	WriteBufferSize  int           `koanf:"write_buffer_size"`
	MessageRate      float64       `koanf:"message_rate"`
	MessageBurst     int           `koanf:"message_burst"`
}

// PingPeriod is 90% of PongWait, so a ping always lands before the read deadline.
func (w WebSocketConfig) PingPeriod() time.Duration {
	return w.PongWait * 9 / 10
}

// RoomsConfig holds room id rules.
type RoomsConfig struct {
	MaxRoomIDLength int `koanf:"max_room_id_length"` // ROOM_ID_MAX_LENGTH
}

// ChatConfig holds chat domain settings.
type ChatConfig struct {
	HistorySize int `koanf:"history_size"` // CHAT_HISTORY_SIZE, messages kept per room for edits
}

// TimerConfig holds timer domain settings.
type TimerConfig struct {
	TickInterval time.Duration `koanf:"tick_interval"` // TIMER_TICK_INTERVAL
}

// GameConfig holds grid game settings.
type GameConfig struct {
	GridSize         int           `koanf:"grid_size"`          // GAME_GRID_SIZE, cells per side
	TickInterval     time.Duration `koanf:"tick_interval"`      // GAME_TICK_INTERVAL, state broadcast period
	MaxSpawnAttempts int           `koanf:"max_spawn_attempts"` // GAME_MAX_SPAWN_ATTEMPTS
}

// IngressConfig controls the bus bridge that fans external messages out to connections.
//
// Environment Variables:
//   - INGRESS_ENABLED (default: true)
//   - INGRESS_TOPIC (default: roomcast.events)
//   - INGRESS_BACKEND: gochannel or nats (default: gochannel)
type IngressConfig struct {
	Enabled bool   `koanf:"enabled"`
	Topic   string `koanf:"topic"`
	Backend string `koanf:"backend"`
}

// Ingress backends.
const (
	BackendGoChannel = "gochannel"
	BackendNATS      = "nats"
)

// NATSConfig configures the NATS ingress backend. Only used when the binary
// is built with -tags nats and ingress.backend is nats.
type NATSConfig struct {
	URL              string        `koanf:"url"`
	EmbeddedServer   bool          `koanf:"embedded_server"`
	Host             string        `koanf:"host"`
	Port             int           `koanf:"port"`
	StoreDir         string        `koanf:"store_dir"`
	JetStream        bool          `koanf:"jetstream"`
	QueueGroup       string        `koanf:"queue_group"`
	SubscribersCount int           `koanf:"subscribers_count"`
	AckWaitTimeout   time.Duration `koanf:"ack_wait_timeout"`
	CloseTimeout     time.Duration `koanf:"close_timeout"`
	MaxReconnects    int           `koanf:"max_reconnects"`
	ReconnectWait    time.Duration `koanf:"reconnect_wait"`
}

// ClientConfig configures the resilient client used by cmd/client.
//
// Environment Variables:
//   - CLIENT_URL (default: ws://localhost:8080/ws)
//   - CLIENT_MAX_RECONNECT_ATTEMPTS: negative retries forever (default: 5)
//   - CLIENT_BASE_DELAY: delay unit for linear backoff (default: 1s)
//   - CLIENT_DIAL_TIMEOUT (default: 10s)
type ClientConfig struct {
	URL                  string        `koanf:"url"`
	MaxReconnectAttempts int           `koanf:"max_reconnect_attempts"`
	BaseDelay            time.Duration `koanf:"base_delay"`
	DialTimeout          time.Duration `koanf:"dial_timeout"`
}

// SecurityConfig holds origin and rate limit settings.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// SupervisorConfig tunes suture restart behaviour.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold"`
	FailureDecay     float64       `koanf:"failure_decay"`
	FailureBackoff   time.Duration `koanf:"failure_backoff"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout"`
}

// IsProduction reports whether ENVIRONMENT=production.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// Load reads configuration from defaults, file and environment.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
