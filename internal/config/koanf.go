// Roomcast - Real-time room-scoped pub/sub transport
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roomcast

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order; the first existing file wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/roomcast/config.yaml",
	"/etc/roomcast/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

// Default returns the built-in configuration without reading files or the
// environment.
func Default() *Config {
	return defaultConfig()
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Environment:     "development",
		},
		WebSocket: WebSocketConfig{
			Path:             "/ws",
			SendBufferSize:   256,
			MaxMessageSize:   512 * 1024,
			WriteWait:        10 * time.Second,
			PongWait:         60 * time.Second,
			HandshakeTimeout: 10 * time.Second,
			ReadBufferSize:   1024,
			WriteBufferSize:  1024,
			MessageRate:      20,
			MessageBurst:     40,
		},
		Rooms: RoomsConfig{
			MaxRoomIDLength: 128,
		},
		Chat: ChatConfig{
			HistorySize: 200,
		},
		Timer: TimerConfig{
			TickInterval: time.Second,
		},
		Game: GameConfig{
			GridSize:         20,
			TickInterval:     50 * time.Millisecond,
			MaxSpawnAttempts: 100,
		},
		Ingress: IngressConfig{
			Enabled: true,
			Topic:   "roomcast.events",
			Backend: BackendGoChannel,
		},
		NATS: NATSConfig{
			URL:              "nats://127.0.0.1:4222",
			EmbeddedServer:   false,
			Host:             "127.0.0.1",
			Port:             4222,
			StoreDir:         "/data/nats/jetstream",
			JetStream:        false,
			QueueGroup:       "roomcast",
			SubscribersCount: 1,
			AckWaitTimeout:   30 * time.Second,
			CloseTimeout:     30 * time.Second,
			MaxReconnects:    -1,
			ReconnectWait:    2 * time.Second,
		},
		Client: ClientConfig{
			URL:                  "ws://localhost:8080/ws",
			MaxReconnectAttempts: 5,
			BaseDelay:            time.Second,
			DialTimeout:          10 * time.Second,
		},
		Security: SecurityConfig{
			CORSOrigins:       []string{"*"},
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Supervisor: SupervisorConfig{
			FailureThreshold: 5,
			FailureDecay:     30,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  10 * time.Second,
		},
	}
}

// LoadWithKoanf layers defaults, the optional YAML file and the environment,
// then validates the result.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// sliceConfigPaths are split on commas when they arrive as strings.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok || s == "" {
			continue
		}
		var parts []string
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if len(parts) == 0 {
			continue
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps lowercased environment variable names to koanf paths.
var envMappings = map[string]string{
	// Server
	"http_host":        "server.host",
	"http_port":        "server.port",
	"http_timeout":     "server.timeout",
	"shutdown_timeout": "server.shutdown_timeout",
	"environment":      "server.environment",

	// WebSocket
	"ws_path":              "websocket.path",
	"ws_send_buffer_size":  "websocket.send_buffer_size",
	"ws_max_message_size":  "websocket.max_message_size",
	"ws_write_wait":        "websocket.write_wait",
	"ws_pong_wait":         "websocket.pong_wait",
	"ws_handshake_timeout": "websocket.handshake_timeout",
	"ws_read_buffer_size":  "websocket.read_buffer_size",
	"ws_write_buffer_size": "websocket.write_buffer_size",
	"ws_message_rate":      "websocket.message_rate",
	"ws_message_burst":     "websocket.message_burst",

	// Domains
	"room_id_max_length":  "rooms.max_room_id_length",
	"chat_history_size":   "chat.history_size",
	"timer_tick_interval": "timer.tick_interval",

	"game_grid_size":          "game.grid_size",
	"game_tick_interval":      "game.tick_interval",
	"game_max_spawn_attempts": "game.max_spawn_attempts",

	// Ingress
	"ingress_enabled": "ingress.enabled",
	"ingress_topic":   "ingress.topic",
	"ingress_backend": "ingress.backend",

	// NATS
	"nats_url":              "nats.url",
	"nats_embedded":         "nats.embedded_server",
	"nats_host":             "nats.host",
	"nats_port":             "nats.port",
	"nats_store_dir":        "nats.store_dir",
	"nats_jetstream":        "nats.jetstream",
	"nats_queue_group":      "nats.queue_group",
	"nats_subscribers":      "nats.subscribers_count",
	"nats_ack_wait_timeout": "nats.ack_wait_timeout",
	"nats_close_timeout":    "nats.close_timeout",
	"nats_max_reconnects":   "nats.max_reconnects",
	"nats_reconnect_wait":   "nats.reconnect_wait",

	// Client
	"client_url":                    "client.url",
	"client_max_reconnect_attempts": "client.max_reconnect_attempts",
	"client_base_delay":             "client.base_delay",
	"client_dial_timeout":           "client.dial_timeout",

	// Security
	"cors_origins":       "security.cors_origins",
	"rate_limit_reqs":    "security.rate_limit_reqs",
	"rate_limit_window":  "security.rate_limit_window",
	"disable_rate_limit": "security.rate_limit_disabled",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Supervisor
	"supervisor_failure_threshold": "supervisor.failure_threshold",
	"supervisor_failure_decay":     "supervisor.failure_decay",
	"supervisor_failure_backoff":   "supervisor.failure_backoff",
	"supervisor_shutdown_timeout":  "supervisor.shutdown_timeout",
}

// envTransformFunc returns "" for unmapped names so koanf skips them.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
