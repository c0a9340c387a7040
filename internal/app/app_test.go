package app

import (
	"encoding/json"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/soundctl/livebridge/internal/bridge"
	"github.com/soundctl/livebridge/internal/config"
	"github.com/soundctl/livebridge/internal/protocol"
	"github.com/soundctl/livebridge/internal/sched"
	"github.com/soundctl/livebridge/pkg/live/sim"
)

// startApp brings a full bridge up over a simulated host on an ephemeral
// port, with the host's tick pump running.
func startApp(t *testing.T, opts ...Option) (*App, *sim.Host) {
	t.Helper()
	h := sim.New()
	pumpDone := make(chan struct{})
	go h.Run(pumpDone)

	cfg := config.Default()
	cfg.Server.Port = 0
	a := New(*cfg, h, slog.Default(), append([]Option{WithoutProvider()}, opts...)...)
	a.Init()
	if a.Server() == nil || a.Server().Addr() == nil {
		t.Fatal("server did not start")
	}

	t.Cleanup(func() {
		a.Disconnect()
		close(pumpDone)
		h.Close()
	})
	return a, h
}

// dial connects to the app's server and consumes the greeting.
func dial(t *testing.T, a *App) (net.Conn, *json.Decoder) {
	t.Helper()
	conn, err := net.Dial("tcp", a.Server().Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	conn.SetDeadline(time.Now().Add(5 * time.Second))

	dec := json.NewDecoder(conn)
	var greeting protocol.Response
	if err := dec.Decode(&greeting); err != nil {
		t.Fatalf("read greeting: %v", err)
	}
	if greeting.Status != protocol.StatusConnected || greeting.Message != protocol.GreetingMessage {
		t.Fatalf("greeting = %+v", greeting)
	}
	return conn, dec
}

func roundTrip(t *testing.T, conn net.Conn, dec *json.Decoder, req protocol.Request) protocol.Response {
	t.Helper()
	b, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	if _, err := conn.Write(b); err != nil {
		t.Fatalf("write request: %v", err)
	}
	var resp protocol.Response
	if err := dec.Decode(&resp); err != nil {
		t.Fatalf("read response: %v", err)
	}
	return resp
}

func TestEndToEndSessionInfo(t *testing.T) {
	t.Parallel()
	a, _ := startApp(t)
	conn, dec := dial(t, a)

	resp := roundTrip(t, conn, dec, protocol.Request{Type: "get_session_info"})
	if resp.Status != protocol.StatusSuccess {
		t.Fatalf("status = %q, message = %q", resp.Status, resp.Message)
	}
	result, ok := resp.Result.(map[string]any)
	if !ok || result["tempo"] != 120.0 {
		t.Fatalf("result = %v", resp.Result)
	}
}

func TestEndToEndMutationReachesHost(t *testing.T) {
	t.Parallel()
	a, h := startApp(t)
	conn, dec := dial(t, a)

	resp := roundTrip(t, conn, dec, protocol.Request{
		Type:   "set_tempo",
		Params: map[string]any{"tempo": 133.0},
	})
	if resp.Status != protocol.StatusSuccess {
		t.Fatalf("status = %q, message = %q", resp.Status, resp.Message)
	}
	if h.Song().Tempo() != 133.0 {
		t.Fatalf("host tempo = %v", h.Song().Tempo())
	}
}

func TestEndToEndConcurrentConnections(t *testing.T) {
	t.Parallel()
	a, _ := startApp(t)

	done := make(chan error, 4)
	for i := 0; i < 4; i++ {
		go func() {
			conn, err := net.Dial("tcp", a.Server().Addr().String())
			if err != nil {
				done <- err
				return
			}
			defer conn.Close()
			conn.SetDeadline(time.Now().Add(5 * time.Second))

			dec := json.NewDecoder(conn)
			var greeting protocol.Response
			if err := dec.Decode(&greeting); err != nil {
				done <- err
				return
			}
			b, _ := json.Marshal(protocol.Request{Type: "create_midi_track"})
			if _, err := conn.Write(b); err != nil {
				done <- err
				return
			}
			var resp protocol.Response
			done <- dec.Decode(&resp)
		}()
	}
	for i := 0; i < 4; i++ {
		if err := <-done; err != nil {
			t.Fatalf("client %d: %v", i, err)
		}
	}
}

func TestEndToEndTimeoutWhenMainThreadStalls(t *testing.T) {
	t.Parallel()
	// A scheduler that accepts callbacks nobody ever runs models a stalled
	// DAW main thread.
	stalled := sched.NewManual()
	h := sim.New()

	cfg := config.Default()
	cfg.Server.Port = 0
	cfg.Bridge.MainThreadTimeout = 50 * time.Millisecond
	a := New(*cfg, h, slog.Default(), WithoutProvider(), WithScheduler(stalled))
	a.Init()
	t.Cleanup(func() {
		a.Disconnect()
		h.Close()
	})

	conn, dec := dial(t, a)
	resp := roundTrip(t, conn, dec, protocol.Request{Type: "get_session_info"})
	if resp.Status != protocol.StatusError {
		t.Fatalf("status = %q", resp.Status)
	}
	if resp.Message != bridge.ErrTimeout.Error() {
		t.Fatalf("message = %q", resp.Message)
	}
}

func TestDisconnectIsIdempotent(t *testing.T) {
	t.Parallel()
	a, _ := startApp(t)
	conn, dec := dial(t, a)
	addr := a.Server().Addr().String()

	resp := roundTrip(t, conn, dec, protocol.Request{Type: "get_session_info"})
	if resp.Status != protocol.StatusSuccess {
		t.Fatalf("warmup failed: %+v", resp)
	}

	a.Disconnect()
	a.Disconnect()

	if _, err := net.DialTimeout("tcp", addr, 200*time.Millisecond); err == nil {
		t.Fatal("server still accepting after Disconnect")
	}
}
