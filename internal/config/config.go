// Package config provides the configuration schema and loader for the
// LiveBridge control surface.
//
// Configuration is optional: the bridge runs entirely on defaults, with the
// bind address overridable through the ABLETON_MCP_HOST and ABLETON_MCP_PORT
// environment variables. A YAML file can tune the remaining knobs when the
// surface is deployed with one.
package config

import "time"

// LogLevel controls log verbosity for the bridge.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure for the bridge.
// It is typically built with [Default] and refined by [FromEnv] or [Load].
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Bridge   BridgeConfig   `yaml:"bridge"`
	Protocol ProtocolConfig `yaml:"protocol"`
	Cache    CacheConfig    `yaml:"cache"`
}

// ServerConfig holds network and logging settings for the TCP server.
type ServerConfig struct {
	// Host is the bind host. Loopback only; the wire protocol carries no
	// authentication.
	Host string `yaml:"host"`

	// Port is the bind port.
	Port int `yaml:"port"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`
}

// BridgeConfig holds thread-bridge settings.
type BridgeConfig struct {
	// MainThreadTimeout bounds how long an I/O worker waits for a
	// main-thread result. Capped at 30s: the wire protocol has no
	// streaming, so longer waits only stall the client.
	MainThreadTimeout time.Duration `yaml:"main_thread_timeout"`
}

// ProtocolConfig holds framing settings.
type ProtocolConfig struct {
	// ReadChunkBytes is the per-read buffer size.
	ReadChunkBytes int `yaml:"read_chunk_bytes"`

	// MaxFrameBytes caps the accumulating frame buffer. A connection whose
	// buffer exceeds the cap is hard-closed.
	MaxFrameBytes int64 `yaml:"max_frame_bytes"`
}

// CacheConfig points at the pre-indexed browser cache files written by the
// client-side regeneration tool. Empty paths disable the reader.
type CacheConfig struct {
	DeviceCachePath string `yaml:"device_cache_path"`
	SampleCachePath string `yaml:"sample_cache_path"`

	// Watch enables reloading a cache file when the regeneration tool
	// rewrites it while the DAW session is running.
	Watch bool `yaml:"watch"`
}

// Defaults for the wire protocol and thread bridge. DefaultPort matches the
// port the upstream automation clients expect.
const (
	DefaultHost              = "localhost"
	DefaultPort              = 9877
	DefaultMainThreadTimeout = 10 * time.Second
	MaxMainThreadTimeout     = 30 * time.Second
	DefaultReadChunkBytes    = 8 * 1024
	DefaultMaxFrameBytes     = 16 * 1024 * 1024
)

// Default returns a Config with every field at its documented default.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:     DefaultHost,
			Port:     DefaultPort,
			LogLevel: LogInfo,
		},
		Bridge: BridgeConfig{
			MainThreadTimeout: DefaultMainThreadTimeout,
		},
		Protocol: ProtocolConfig{
			ReadChunkBytes: DefaultReadChunkBytes,
			MaxFrameBytes:  DefaultMaxFrameBytes,
		},
	}
}
