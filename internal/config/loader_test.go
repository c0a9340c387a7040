package config

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	t.Parallel()
	cfg := Default()
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate(Default()) = %v", err)
	}
	if cfg.Server.Host != "localhost" || cfg.Server.Port != 9877 {
		t.Fatalf("default bind = %s:%d, want localhost:9877", cfg.Server.Host, cfg.Server.Port)
	}
	if cfg.Bridge.MainThreadTimeout != 10*time.Second {
		t.Fatalf("default timeout = %v, want 10s", cfg.Bridge.MainThreadTimeout)
	}
}

func TestLoadFromReaderFillsDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := LoadFromReader(strings.NewReader("server:\n  port: 9000\n"))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Fatalf("port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Server.Host != DefaultHost {
		t.Fatalf("host = %q, want default %q", cfg.Server.Host, DefaultHost)
	}
	if cfg.Protocol.ReadChunkBytes != DefaultReadChunkBytes {
		t.Fatalf("read chunk = %d, want default", cfg.Protocol.ReadChunkBytes)
	}
}

func TestLoadFromReaderRejectsUnknownFields(t *testing.T) {
	t.Parallel()
	if _, err := LoadFromReader(strings.NewReader("serverr:\n  port: 9000\n")); err == nil {
		t.Fatal("unknown top-level key accepted")
	}
}

func TestLoadFromReaderEmptyIsDefault(t *testing.T) {
	t.Parallel()
	cfg, err := LoadFromReader(strings.NewReader(""))
	if err != nil {
		t.Fatalf("LoadFromReader(empty): %v", err)
	}
	if cfg.Server.Port != DefaultPort {
		t.Fatalf("port = %d, want default", cfg.Server.Port)
	}
}

func TestValidateCollectsAllFailures(t *testing.T) {
	t.Parallel()
	cfg := Default()
	cfg.Server.Port = 0
	cfg.Server.LogLevel = "verbose"
	cfg.Bridge.MainThreadTimeout = time.Minute

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Validate accepted a broken config")
	}
	for _, want := range []string{"server.port", "server.log_level", "main_thread_timeout"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestFromEnvOverridesBindAddress(t *testing.T) {
	t.Setenv(EnvHost, "0.0.0.0")
	t.Setenv(EnvPort, "9910")
	cfg := FromEnv(Default())
	if cfg.Server.Host != "0.0.0.0" {
		t.Fatalf("host = %q, want 0.0.0.0", cfg.Server.Host)
	}
	if cfg.Server.Port != 9910 {
		t.Fatalf("port = %d, want 9910", cfg.Server.Port)
	}
}

func TestFromEnvIgnoresBadPort(t *testing.T) {
	t.Setenv(EnvPort, "nine-thousand")
	cfg := FromEnv(Default())
	if cfg.Server.Port != DefaultPort {
		t.Fatalf("port = %d, want default after bad override", cfg.Server.Port)
	}
}

func TestFromEnvNilStartsFromDefault(t *testing.T) {
	t.Setenv(EnvHost, "")
	t.Setenv(EnvPort, "")
	cfg := FromEnv(nil)
	if cfg.Server.Port != DefaultPort {
		t.Fatalf("port = %d, want default", cfg.Server.Port)
	}
}
