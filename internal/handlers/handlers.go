// Package handlers implements every command the bridge exposes on the wire.
//
// Each command is one [Entry] in the registry: a name, the handler func,
// and whether it must run on the DAW main thread. All mutations and nearly
// all reads carry the main-thread flag; only lookups that never touch the
// live object graph (browser cache searches) run directly on the I/O
// worker.
//
// Handlers validate params, perform the operation through the façade, and
// return a JSON-serializable result. They are plain synchronous code; the
// dispatcher and thread bridge own all concurrency.
package handlers

import (
	"log/slog"
	"sort"

	"github.com/soundctl/livebridge/internal/cache"
	"github.com/soundctl/livebridge/internal/facade"
	"github.com/soundctl/livebridge/pkg/live"
)

// Context carries the collaborators handlers operate on. One instance is
// shared by every handler invocation; all fields are read-only after
// construction.
type Context struct {
	Host  live.Host
	F     *facade.Facade
	Cache *cache.Reader
	Log   *slog.Logger
}

// Func is one command implementation.
type Func func(c *Context, p Params) (any, error)

// Entry is one registry row.
type Entry struct {
	// Name is the wire `type` string.
	Name string

	// MainThread marks handlers that must run on the DAW main thread.
	MainThread bool

	// Fn is the implementation.
	Fn Func
}

// Registry builds the full command table. The table is immutable; the
// dispatcher looks entries up by name.
func Registry() map[string]Entry {
	reg := make(map[string]Entry)
	add := func(entries []Entry) {
		for _, e := range entries {
			reg[e.Name] = e
		}
	}
	add(sessionEntries())
	add(trackEntries())
	add(routingEntries())
	add(returnEntries())
	add(sceneEntries())
	add(clipEntries())
	add(playbackEntries())
	add(deviceEntries())
	add(browserEntries())
	add(patternEntries())
	return reg
}

// Names returns the registered command names sorted, for introspection and
// tests.
func Names() []string {
	reg := Registry()
	out := make([]string, 0, len(reg))
	for name := range reg {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// onMain marks a mutating or live-reading entry.
func onMain(name string, fn Func) Entry {
	return Entry{Name: name, MainThread: true, Fn: fn}
}

// offMain marks an entry that never touches the live object graph.
func offMain(name string, fn Func) Entry {
	return Entry{Name: name, MainThread: false, Fn: fn}
}
