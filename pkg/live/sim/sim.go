// Package sim provides an in-memory implementation of the [live] host model.
//
// It stands in for the DAW in tests and in the cmd/livebridge-sim harness.
// The simulated song starts empty: no audio/MIDI tracks, two return tracks,
// a master track, eight scenes, tempo 120 at 4/4, the state a fresh host
// session presents.
//
// Main-thread semantics: the host executes scheduled callbacks either from
// [Host.Run] (a background pump, used by the harness and end-to-end tests)
// or from explicit [Host.Pump] calls (used by deterministic unit tests).
package sim

import (
	"bytes"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/soundctl/livebridge/pkg/live"
)

// Host is the simulated DAW root. Create instances with [New].
type Host struct {
	song    *Song
	browser *Browser

	mu     sync.Mutex
	queue  []func()
	refuse bool
	closed bool
	wake   chan struct{}

	// mainGID identifies the goroutine currently acting as the DAW main
	// thread (the Run pump, or a Pump call in progress). 0 means none.
	mainGID atomic.Int64

	logs  []string
	shown []string
	midi  [][]byte

	selTrack live.Track
	selSlot  live.ClipSlot

	extendedNotes bool
}

var _ live.Host = (*Host)(nil)

// Option configures a [Host].
type Option func(*Host)

// WithScenes sets the initial scene count. The default is 8.
func WithScenes(n int) Option {
	return func(h *Host) {
		h.song.scenes = h.song.scenes[:0]
		for i := 0; i < n; i++ {
			h.song.scenes = append(h.song.scenes, &Scene{song: h.song})
		}
	}
}

// WithoutExtendedNotes disables the extended-note capability, simulating an
// older host whose clips only support plain notes.
func WithoutExtendedNotes() Option {
	return func(h *Host) { h.extendedNotes = false }
}

// New creates a simulated host with a default empty song and browser tree.
func New(opts ...Option) *Host {
	h := &Host{
		wake:          make(chan struct{}, 1),
		extendedNotes: true,
	}
	h.song = newSong(h)
	h.browser = newBrowser(h)
	for _, o := range opts {
		o(h)
	}
	return h
}

// ─── live.Host ───────────────────────────────────────────────────────────────

func (h *Host) Song() live.Song       { return h.song }
func (h *Host) Browser() live.Browser { return h.browser }

// ScheduleTick queues fn for the next pump iteration. Fails when the host
// was put in refuse mode (teardown simulation) or closed.
func (h *Host) ScheduleTick(fn func()) error {
	h.mu.Lock()
	if h.refuse || h.closed {
		h.mu.Unlock()
		return errors.New("sim: host is not accepting callbacks")
	}
	h.queue = append(h.queue, fn)
	h.mu.Unlock()
	select {
	case h.wake <- struct{}{}:
	default:
	}
	return nil
}

// IsMainThread reports whether the calling goroutine is the pump.
func (h *Host) IsMainThread() bool {
	return h.mainGID.Load() != 0 && h.mainGID.Load() == curGID()
}

func (h *Host) LogMessage(msg string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.logs = append(h.logs, msg)
}

func (h *Host) ShowMessage(msg string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.shown = append(h.shown, msg)
}

func (h *Host) SendMIDI(msg []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return errors.New("sim: host closed")
	}
	cp := make([]byte, len(msg))
	copy(cp, msg)
	h.midi = append(h.midi, cp)
	return nil
}

func (h *Host) SelectTrack(t live.Track) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.selTrack = t
	h.selSlot = nil
}

func (h *Host) SelectClipSlot(s live.ClipSlot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.selSlot = s
}

// ─── Pumping ─────────────────────────────────────────────────────────────────

// Run pumps scheduled callbacks on the calling goroutine until the channel
// returned by Close is signalled or done is closed. Callbacks run in
// submission order. The calling goroutine becomes the main thread.
func (h *Host) Run(done <-chan struct{}) {
	h.mainGID.Store(curGID())
	defer h.mainGID.Store(0)
	for {
		h.Pump()
		select {
		case <-done:
			h.Pump() // drain what arrived before the stop signal
			return
		case <-h.wake:
		}
	}
}

// Pump runs every currently queued callback on the calling goroutine and
// returns the number executed. The goroutine counts as the main thread for
// the duration of the callbacks.
func (h *Host) Pump() int {
	prev := h.mainGID.Swap(curGID())
	defer h.mainGID.Store(prev)
	n := 0
	for {
		h.mu.Lock()
		if len(h.queue) == 0 {
			h.mu.Unlock()
			return n
		}
		fn := h.queue[0]
		h.queue = h.queue[1:]
		h.mu.Unlock()
		fn()
		n++
	}
}

// Refuse toggles refuse mode: while set, ScheduleTick fails synchronously,
// simulating a host that is tearing down.
func (h *Host) Refuse(on bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.refuse = on
}

// Close marks the host closed. Queued callbacks are dropped.
func (h *Host) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	h.queue = nil
}

// ─── Test inspection ─────────────────────────────────────────────────────────

// Logs returns a copy of everything passed to LogMessage.
func (h *Host) Logs() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.logs...)
}

// Shown returns a copy of everything passed to ShowMessage.
func (h *Host) Shown() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.shown...)
}

// SentMIDI returns a copy of every raw MIDI message sent.
func (h *Host) SentMIDI() [][]byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([][]byte, len(h.midi))
	copy(out, h.midi)
	return out
}

// SelectedTrack returns the current view track selection, or nil.
func (h *Host) SelectedTrack() live.Track {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.selTrack
}

// QueueLen returns the number of callbacks waiting for a pump.
func (h *Host) QueueLen() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.queue)
}

// curGID extracts the current goroutine id from the runtime stack header.
// Goroutine identity is only used to answer IsMainThread in the simulator;
// the real host answers from its own thread registry.
func curGID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	// header: "goroutine 123 [running]:"
	fields := bytes.Fields(buf[:n])
	if len(fields) < 2 {
		return 0
	}
	id, err := strconv.ParseInt(string(fields[1]), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// trackName builds the default name for the n-th created track of a kind.
func trackName(n int, kind string) string {
	return fmt.Sprintf("%d %s", n, kind)
}
