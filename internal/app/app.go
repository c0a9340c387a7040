// Package app assembles and owns the bridge's lifetime inside the DAW
// process.
//
// The DAW's control surface glue calls exactly three things: [New] when the
// surface is instantiated, [App.Init] to bring the bridge up, and
// [App.Disconnect] when the surface unloads. Init failures are reported to
// the DAW log and status line, never panicked: a broken bridge must not
// take the host down with it.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/soundctl/livebridge/internal/bridge"
	"github.com/soundctl/livebridge/internal/cache"
	"github.com/soundctl/livebridge/internal/config"
	"github.com/soundctl/livebridge/internal/dispatch"
	"github.com/soundctl/livebridge/internal/facade"
	"github.com/soundctl/livebridge/internal/handlers"
	"github.com/soundctl/livebridge/internal/observe"
	"github.com/soundctl/livebridge/internal/sched"
	"github.com/soundctl/livebridge/internal/server"
	"github.com/soundctl/livebridge/pkg/live"
)

// Option is a functional option for [New].
type Option func(*App)

// WithScheduler overrides the main-thread scheduler. Tests inject
// [sched.Manual] here.
func WithScheduler(s sched.Scheduler) Option {
	return func(a *App) { a.scheduler = s }
}

// WithMetrics overrides the metrics instance.
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithCache overrides the browser cache reader.
func WithCache(r *cache.Reader) Option {
	return func(a *App) { a.cacheReader = r }
}

// WithoutProvider skips OTel SDK provider setup. Tests use this to avoid
// mutating the global providers.
func WithoutProvider() Option {
	return func(a *App) { a.skipProvider = true }
}

// App wires the host, scheduler, bridge, dispatcher and server together.
type App struct {
	cfg  config.Config
	host live.Host
	log  *slog.Logger

	scheduler    sched.Scheduler
	metrics      *observe.Metrics
	cacheReader  *cache.Reader
	skipProvider bool

	bridge   *bridge.Bridge
	server   *server.Server
	shutdown func(context.Context) error

	initOnce       sync.Once
	disconnectOnce sync.Once
}

// New creates an App over the given config and host. Nothing starts until
// [App.Init].
func New(cfg config.Config, host live.Host, log *slog.Logger, opts ...Option) *App {
	if log == nil {
		log = slog.Default()
	}
	a := &App{cfg: cfg, host: host, log: log}
	for _, o := range opts {
		o(a)
	}
	if a.scheduler == nil {
		a.scheduler = sched.NewTick(host)
	}
	return a
}

// Init brings the bridge up: telemetry, browser cache, thread bridge,
// dispatcher and TCP server. Failures are logged and shown in the DAW
// status line; Init never panics. Idempotent.
func (a *App) Init() {
	a.initOnce.Do(a.init)
}

func (a *App) init() {
	if !a.skipProvider {
		shutdown, err := observe.InitProvider(context.Background(), observe.ProviderConfig{})
		if err != nil {
			a.log.Warn("telemetry init failed, continuing without exporters", "err", err)
		} else {
			a.shutdown = shutdown
		}
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}

	if a.cacheReader == nil {
		paths := map[string]string{
			"devices": a.cfg.Cache.DeviceCachePath,
			"samples": a.cfg.Cache.SampleCachePath,
		}
		a.cacheReader = cache.New(paths, a.log)
	}
	if a.cfg.Cache.Watch {
		if err := a.cacheReader.Watch(); err != nil {
			a.log.Warn("cache watch unavailable", "err", err)
		}
	}

	a.bridge = bridge.New(a.scheduler,
		bridge.WithTimeout(a.cfg.Bridge.MainThreadTimeout))

	hctx := &handlers.Context{
		Host:  a.host,
		F:     facade.New(a.host),
		Cache: a.cacheReader,
		Log:   a.log,
	}
	d := dispatch.New(hctx, a.bridge, a.metrics, a.log)

	a.server = server.New(server.Config{
		Host:          a.cfg.Server.Host,
		Port:          a.cfg.Server.Port,
		ReadChunk:     a.cfg.Protocol.ReadChunkBytes,
		MaxFrameBytes: a.cfg.Protocol.MaxFrameBytes,
		Log:           a.log,
		Metrics:       a.metrics,
	}, d.Dispatch)

	addr, err := a.server.Start()
	if err != nil {
		a.log.Error("bridge failed to start", "err", err)
		a.Log(fmt.Sprintf("bridge failed to start: %v", err))
		a.Show("Bridge failed to start, see log")
		return
	}
	a.Log(fmt.Sprintf("bridge listening on %s", addr))
	a.Show("Bridge ready")
}

// Server returns the TCP server, for tests that bind port 0.
func (a *App) Server() *server.Server { return a.server }

// Bridge returns the thread bridge, for tests.
func (a *App) Bridge() *bridge.Bridge { return a.bridge }

// Disconnect tears the bridge down: pending main-thread waiters wake with
// an error, the listener and all sockets close, telemetry flushes.
// Idempotent; safe to call even when Init failed partway.
func (a *App) Disconnect() {
	a.disconnectOnce.Do(func() {
		if a.bridge != nil {
			a.bridge.Close()
		}
		if a.server != nil {
			_ = a.server.Close()
		}
		if a.cacheReader != nil {
			_ = a.cacheReader.Close()
		}
		if a.shutdown != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := a.shutdown(ctx); err != nil {
				a.log.Warn("telemetry shutdown failed", "err", err)
			}
		}
		a.Log("bridge disconnected")
	})
}

// Log writes msg to the DAW log. Safe from any thread.
func (a *App) Log(msg string) {
	a.host.LogMessage(msg)
}

// Show displays msg in the DAW status line. Off the main thread the display
// is scheduled best-effort; a refused tick only drops the status text.
func (a *App) Show(msg string) {
	if a.scheduler.IsMainThread() {
		a.host.ShowMessage(msg)
		return
	}
	if err := a.scheduler.Schedule(func() { a.host.ShowMessage(msg) }); err != nil {
		a.log.Debug("status message dropped", "msg", msg, "err", err)
	}
}
