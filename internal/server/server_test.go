package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/soundctl/livebridge/internal/protocol"
)

func startServer(t *testing.T) *Server {
	t.Helper()
	dispatch := func(ctx context.Context, req protocol.Request) protocol.Response {
		return protocol.Response{Status: protocol.StatusSuccess, Result: map[string]any{"echo": req.Type}}
	}
	s := New(Config{Host: "127.0.0.1", Port: 0, Log: slog.Default()}, dispatch)
	if _, err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// dialAndGreet connects a client and consumes the greeting, so the worker is
// registered by the time it returns.
func dialAndGreet(t *testing.T, s *Server) net.Conn {
	t.Helper()
	conn, err := net.Dial("tcp", s.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var greeting protocol.Response
	if err := json.NewDecoder(conn).Decode(&greeting); err != nil {
		t.Fatalf("greeting: %v", err)
	}
	if greeting.Status != protocol.StatusConnected {
		t.Fatalf("greeting status = %q", greeting.Status)
	}
	return conn
}

func TestCloseDisconnectsAllClients(t *testing.T) {
	t.Parallel()
	s := startServer(t)
	c1 := dialAndGreet(t, s)
	c2 := dialAndGreet(t, s)
	if got := s.ConnCount(); got != 2 {
		t.Fatalf("conn count = %d, want 2", got)
	}

	started := time.Now()
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	// Idle workers exit as soon as their socket closes; the bounded join
	// must not eat the whole budget.
	if elapsed := time.Since(started); elapsed > 3*time.Second {
		t.Fatalf("close took %v", elapsed)
	}
	if got := s.ConnCount(); got != 0 {
		t.Fatalf("conn count after close = %d", got)
	}

	// Both client sockets see the shutdown.
	buf := make([]byte, 1)
	for i, conn := range []net.Conn{c1, c2} {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		if _, err := conn.Read(buf); err == nil {
			t.Fatalf("client %d still readable after close", i)
		}
	}

	// Close is idempotent.
	if err := s.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestCloseStopsAccepting(t *testing.T) {
	t.Parallel()
	s := startServer(t)
	addr := s.Addr().String()
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if conn, err := net.DialTimeout("tcp", addr, time.Second); err == nil {
		conn.Close()
		t.Fatal("server still accepting after Close")
	}
}
