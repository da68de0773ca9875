// Package config loads runtime settings for the chat relay from an optional
// YAML file and the environment, then sanitizes them back to safe defaults.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Tyrowin/livechat/internal/logging"
)

// RateLimitConfig defines the parameters for per-connection message rate limiting.
type RateLimitConfig struct {
	Burst          int
	RefillInterval time.Duration
}

// WebSocketConfig holds the keep-alive and queueing parameters of one connection.
type WebSocketConfig struct {
	PingInterval time.Duration
	PongWait     time.Duration
	WriteWait    time.Duration
	SendBuffer   int
}

// RoomConfig sizes the in-memory room.
type RoomConfig struct {
	Name         string
	HistoryLimit int
	JoinHistory  int
	QueryHistory int
}

// Config holds the server configuration settings including security controls.
type Config struct {
	Port            string
	AllowedOrigins  []string
	MaxMessageSize  int64
	RateLimit       RateLimitConfig
	WebSocket       WebSocketConfig
	Room            RoomConfig
	StaticDir       string
	ShutdownTimeout time.Duration
	Log             logging.Config
}

// Default returns a Config populated with default values for all settings.
func Default() Config {
	return Config{
		Port:           ":8080",
		AllowedOrigins: []string{"http://localhost:8080"},
		MaxMessageSize: 4096,
		RateLimit: RateLimitConfig{
			Burst:          5,
			RefillInterval: time.Second,
		},
		WebSocket: WebSocketConfig{
			PingInterval: 54 * time.Second,
			PongWait:     60 * time.Second,
			WriteWait:    10 * time.Second,
			SendBuffer:   256,
		},
		Room: RoomConfig{
			Name:         "LiveChat",
			HistoryLimit: 1000,
			JoinHistory:  50,
			QueryHistory: 20,
		},
		StaticDir:       "public",
		ShutdownTimeout: 30 * time.Second,
		Log: logging.Config{
			Level:       "info",
			ServiceName: "livechat",
		},
	}
}

// Load reads config.yaml from configPath (or the working directory) when present
// and applies environment overrides on top of the defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	setDefaults(v, Default())
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := fromViper(v)
	return &cfg, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("server.port", d.Port)
	v.SetDefault("server.allowed_origins", d.AllowedOrigins)
	v.SetDefault("server.static_dir", d.StaticDir)
	v.SetDefault("server.shutdown_timeout", d.ShutdownTimeout.String())
	v.SetDefault("websocket.max_message_size", d.MaxMessageSize)
	v.SetDefault("websocket.ping_interval", d.WebSocket.PingInterval.String())
	v.SetDefault("websocket.pong_wait", d.WebSocket.PongWait.String())
	v.SetDefault("websocket.write_wait", d.WebSocket.WriteWait.String())
	v.SetDefault("websocket.send_buffer", d.WebSocket.SendBuffer)
	v.SetDefault("rate_limit.burst", d.RateLimit.Burst)
	v.SetDefault("rate_limit.refill_interval", "1")
	v.SetDefault("room.name", d.Room.Name)
	v.SetDefault("room.history_limit", d.Room.HistoryLimit)
	v.SetDefault("room.join_history", d.Room.JoinHistory)
	v.SetDefault("room.query_history", d.Room.QueryHistory)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.pretty", d.Log.Pretty)
	v.SetDefault("log.service_name", d.Log.ServiceName)
}

func bindEnv(v *viper.Viper) {
	_ = v.BindEnv("server.port", "SERVER_PORT", "PORT")
	_ = v.BindEnv("server.allowed_origins", "ALLOWED_ORIGINS")
	_ = v.BindEnv("server.static_dir", "STATIC_DIR")
	_ = v.BindEnv("server.shutdown_timeout", "SHUTDOWN_TIMEOUT")
	_ = v.BindEnv("websocket.max_message_size", "MAX_MESSAGE_SIZE")
	_ = v.BindEnv("rate_limit.burst", "RATE_LIMIT_BURST")
	_ = v.BindEnv("rate_limit.refill_interval", "RATE_LIMIT_REFILL_INTERVAL")
	_ = v.BindEnv("room.name", "ROOM_NAME")
	_ = v.BindEnv("log.level", "LOG_LEVEL")
	_ = v.BindEnv("log.pretty", "LOG_PRETTY")
}

func fromViper(v *viper.Viper) Config {
	d := Default()
	cfg := Config{
		Port:           v.GetString("server.port"),
		AllowedOrigins: parseOrigins(v.GetStringSlice("server.allowed_origins")),
		MaxMessageSize: v.GetInt64("websocket.max_message_size"),
		RateLimit: RateLimitConfig{
			Burst:          v.GetInt("rate_limit.burst"),
			RefillInterval: parseRefillInterval(v.GetString("rate_limit.refill_interval"), d.RateLimit.RefillInterval),
		},
		WebSocket: WebSocketConfig{
			PingInterval: parseDuration(v.GetString("websocket.ping_interval"), d.WebSocket.PingInterval),
			PongWait:     parseDuration(v.GetString("websocket.pong_wait"), d.WebSocket.PongWait),
			WriteWait:    parseDuration(v.GetString("websocket.write_wait"), d.WebSocket.WriteWait),
			SendBuffer:   v.GetInt("websocket.send_buffer"),
		},
		Room: RoomConfig{
			Name:         v.GetString("room.name"),
			HistoryLimit: v.GetInt("room.history_limit"),
			JoinHistory:  v.GetInt("room.join_history"),
			QueryHistory: v.GetInt("room.query_history"),
		},
		StaticDir:       v.GetString("server.static_dir"),
		ShutdownTimeout: parseDuration(v.GetString("server.shutdown_timeout"), d.ShutdownTimeout),
		Log: logging.Config{
			Level:       v.GetString("log.level"),
			Pretty:      v.GetBool("log.pretty"),
			ServiceName: v.GetString("log.service_name"),
		},
	}
	return Sanitize(cfg)
}

// Sanitize replaces missing or invalid values with defaults and normalizes the port.
func Sanitize(cfg Config) Config {
	d := Default()

	cfg.Port = normalizePort(cfg.Port)
	if cfg.Port == "" {
		cfg.Port = d.Port
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = d.MaxMessageSize
	}
	if cfg.RateLimit.Burst <= 0 {
		cfg.RateLimit.Burst = d.RateLimit.Burst
	}
	if cfg.RateLimit.RefillInterval <= 0 {
		cfg.RateLimit.RefillInterval = d.RateLimit.RefillInterval
	}
	if cfg.WebSocket.PongWait <= 0 {
		cfg.WebSocket.PongWait = d.WebSocket.PongWait
	}
	if cfg.WebSocket.PingInterval <= 0 || cfg.WebSocket.PingInterval >= cfg.WebSocket.PongWait {
		cfg.WebSocket.PingInterval = cfg.WebSocket.PongWait * 9 / 10
	}
	if cfg.WebSocket.WriteWait <= 0 {
		cfg.WebSocket.WriteWait = d.WebSocket.WriteWait
	}
	if cfg.WebSocket.SendBuffer <= 0 {
		cfg.WebSocket.SendBuffer = d.WebSocket.SendBuffer
	}
	if strings.TrimSpace(cfg.Room.Name) == "" {
		cfg.Room.Name = d.Room.Name
	}
	if cfg.Room.HistoryLimit <= 0 {
		cfg.Room.HistoryLimit = d.Room.HistoryLimit
	}
	if cfg.Room.JoinHistory <= 0 {
		cfg.Room.JoinHistory = d.Room.JoinHistory
	}
	if cfg.Room.QueryHistory <= 0 {
		cfg.Room.QueryHistory = d.Room.QueryHistory
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = d.ShutdownTimeout
	}
	cfg.AllowedOrigins = append([]string(nil), cfg.AllowedOrigins...)
	return cfg
}

// normalizePort accepts "8080", ":8080" and "host:8080".
func normalizePort(port string) string {
	port = strings.TrimSpace(port)
	if port == "" {
		return ""
	}
	if strings.Contains(port, ":") {
		return port
	}
	if _, err := strconv.Atoi(port); err != nil {
		return ""
	}
	return ":" + port
}

// parseOrigins flattens list entries and comma-separated strings.
func parseOrigins(values []string) []string {
	var origins []string
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				origins = append(origins, part)
			}
		}
	}
	return origins
}

// parseRefillInterval treats a bare integer as seconds and otherwise expects a
// Go duration string.
func parseRefillInterval(value string, defaultValue time.Duration) time.Duration {
	value = strings.TrimSpace(value)
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
		return defaultValue
	}
	return parseDuration(value, defaultValue)
}

func parseDuration(value string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}
