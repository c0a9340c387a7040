package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Environment variables recognised by [FromEnv].
const (
	EnvHost = "ABLETON_MCP_HOST"
	EnvPort = "ABLETON_MCP_PORT"
)

// Load reads the YAML configuration file at path and returns a validated
// [Config] with unset fields filled from [Default].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, fills defaults, and validates
// the result. Useful in tests where configs are constructed from string
// literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv returns cfg with the bind address overridden by the
// ABLETON_MCP_HOST / ABLETON_MCP_PORT environment variables. A non-integer
// port value is logged and ignored, keeping the default.
func FromEnv(cfg *Config) *Config {
	if cfg == nil {
		cfg = Default()
	}
	if host := os.Getenv(EnvHost); host != "" {
		cfg.Server.Host = host
	}
	if port := os.Getenv(EnvPort); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil || p < 1 || p > 65535 {
			slog.Warn("ignoring invalid port override", "env", EnvPort, "value", port)
		} else {
			cfg.Server.Port = p
		}
	}
	return cfg
}

func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.Server.Host == "" {
		cfg.Server.Host = def.Server.Host
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = def.Server.Port
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = def.Server.LogLevel
	}
	if cfg.Bridge.MainThreadTimeout == 0 {
		cfg.Bridge.MainThreadTimeout = def.Bridge.MainThreadTimeout
	}
	if cfg.Protocol.ReadChunkBytes == 0 {
		cfg.Protocol.ReadChunkBytes = def.Protocol.ReadChunkBytes
	}
	if cfg.Protocol.MaxFrameBytes == 0 {
		cfg.Protocol.MaxFrameBytes = def.Protocol.MaxFrameBytes
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", cfg.Server.Port))
	}
	if !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is not one of debug|info|warn|error", cfg.Server.LogLevel))
	}
	if cfg.Bridge.MainThreadTimeout <= 0 {
		errs = append(errs, fmt.Errorf("bridge.main_thread_timeout must be positive"))
	}
	if cfg.Bridge.MainThreadTimeout > MaxMainThreadTimeout {
		errs = append(errs, fmt.Errorf("bridge.main_thread_timeout %v exceeds the %v cap", cfg.Bridge.MainThreadTimeout, MaxMainThreadTimeout))
	}
	if cfg.Protocol.ReadChunkBytes < 1 {
		errs = append(errs, fmt.Errorf("protocol.read_chunk_bytes must be positive"))
	}
	if cfg.Protocol.MaxFrameBytes < int64(cfg.Protocol.ReadChunkBytes) {
		errs = append(errs, fmt.Errorf("protocol.max_frame_bytes %d is smaller than read_chunk_bytes %d", cfg.Protocol.MaxFrameBytes, cfg.Protocol.ReadChunkBytes))
	}

	return errors.Join(errs...)
}
