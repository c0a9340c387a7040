// Package server owns the TCP listener and per-connection workers.
//
// One goroutine accepts; each accepted socket gets its own worker running
// the protocol loop. Connections are independent: a slow or misbehaving
// client never affects another. Shutdown closes the listener and every live
// socket, then waits a bounded time for workers to drain.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/soundctl/livebridge/internal/observe"
	"github.com/soundctl/livebridge/internal/protocol"
)

// acceptPollInterval bounds how long Close waits for the accept loop to
// notice shutdown.
const acceptPollInterval = time.Second

// Config tunes the server.
type Config struct {
	// Host and Port form the listen address.
	Host string
	Port int

	// ReadChunk is the per-read buffer size handed to the protocol loop.
	ReadChunk int

	// MaxFrameBytes caps the per-connection frame buffer.
	MaxFrameBytes int64

	// Log receives server events. Required.
	Log *slog.Logger

	// Metrics records connection and frame telemetry. Optional.
	Metrics *observe.Metrics
}

// Server accepts client connections and runs one protocol loop per client.
type Server struct {
	cfg      Config
	dispatch protocol.DispatchFunc
	log      *slog.Logger

	mu       sync.Mutex
	listener net.Listener
	running  bool
	conns    map[string]net.Conn
	cancels  map[string]context.CancelFunc
	workers  sync.WaitGroup
}

// New creates a Server. Call [Server.Start] to begin accepting.
func New(cfg Config, dispatch protocol.DispatchFunc) *Server {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		cfg:      cfg,
		dispatch: dispatch,
		log:      log,
		conns:    make(map[string]net.Conn),
		cancels:  make(map[string]context.CancelFunc),
	}
}

// Start binds the listen address and launches the accept loop. Returns the
// bound address (useful when Port is 0) or an error when the bind fails.
func (s *Server) Start() (net.Addr, error) {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("server: listen on %s: %w", addr, err)
	}

	s.mu.Lock()
	s.listener = ln
	s.running = true
	s.mu.Unlock()

	s.workers.Add(1)
	go s.acceptLoop(ln)

	s.log.Info("listening", "addr", ln.Addr().String())
	return ln.Addr(), nil
}

func (s *Server) isRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Server) acceptLoop(ln net.Listener) {
	defer s.workers.Done()
	for s.isRunning() {
		if d, ok := ln.(*net.TCPListener); ok {
			_ = d.SetDeadline(time.Now().Add(acceptPollInterval))
		}
		conn, err := ln.Accept()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			if !s.isRunning() {
				return
			}
			s.log.Warn("accept failed", "err", err)
			time.Sleep(500 * time.Millisecond)
			continue
		}
		s.startWorker(conn)
	}
}

func (s *Server) startWorker(conn net.Conn) {
	id := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())

	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		cancel()
		conn.Close()
		return
	}
	s.conns[id] = conn
	s.cancels[id] = cancel
	s.mu.Unlock()

	log := s.log.With("conn", id, "remote", conn.RemoteAddr().String())
	log.Info("client connected")
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.ActiveConnections.Add(ctx, 1)
	}

	s.workers.Add(1)
	go func() {
		defer s.workers.Done()
		defer func() {
			cancel()
			s.mu.Lock()
			delete(s.conns, id)
			delete(s.cancels, id)
			s.mu.Unlock()
			if s.cfg.Metrics != nil {
				s.cfg.Metrics.ActiveConnections.Add(context.Background(), -1)
			}
			log.Info("client disconnected")
		}()

		ccfg := protocol.ConnConfig{
			ReadChunk: s.cfg.ReadChunk,
			MaxBuffer: s.cfg.MaxFrameBytes,
			Log:       log,
		}
		if s.cfg.Metrics != nil {
			ccfg.OnFrame = func(n int) {
				s.cfg.Metrics.FrameBytes.Record(ctx, int64(n))
			}
		}
		protocol.Serve(ctx, conn, s.dispatch, ccfg)
	}()
}

// Addr returns the bound listen address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// ConnCount returns the number of live connections.
func (s *Server) ConnCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Close stops accepting, closes every live connection, and waits a bounded
// time for workers to exit. Idempotent.
func (s *Server) Close() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	ln := s.listener
	s.listener = nil
	conns := make([]net.Conn, 0, len(s.conns))
	for _, c := range s.conns {
		conns = append(conns, c)
	}
	cancels := make([]context.CancelFunc, 0, len(s.cancels))
	for _, c := range s.cancels {
		cancels = append(cancels, c)
	}
	s.mu.Unlock()

	if ln != nil {
		_ = ln.Close()
	}
	for _, cancel := range cancels {
		cancel()
	}

	// Sockets close concurrently; the first close error is worth logging
	// but never blocks shutdown.
	var g errgroup.Group
	for _, c := range conns {
		c := c
		g.Go(c.Close)
	}
	if err := g.Wait(); err != nil {
		s.log.Warn("closing connections", "err", err)
	}

	// Bounded join: workers blocked on a stuck main-thread hop must not
	// wedge the DAW's disconnect path.
	done := make(chan struct{})
	go func() {
		s.workers.Wait()
		close(done)
	}()

	budget := time.Duration(len(conns)+1) * time.Second
	select {
	case <-done:
		s.log.Info("server stopped")
	case <-time.After(budget):
		s.log.Warn("server stopped with straggling workers", "conns", len(conns))
	}
	return nil
}
