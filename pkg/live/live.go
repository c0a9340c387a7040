// Package live defines the narrow object-model vocabulary the bridge uses to
// talk to the hosting DAW.
//
// The DAW hands the bridge a single [Host] when the control surface is
// instantiated. Everything else (song, tracks, clips, devices, browser) is
// reached through that root. All interfaces here are deliberately small: the
// façade layer is the only consumer, and the simulated host in
// [github.com/soundctl/livebridge/pkg/live/sim] is the only non-DAW
// implementation.
//
// Thread affinity: unless stated otherwise, every method that reads or
// mutates song state may only be called on the DAW main thread. The bridge
// enforces this via the thread bridge; implementations do not need to.
package live

// Host is the root handle the DAW provides to the control surface.
type Host interface {
	// Song returns the live song document. Never nil while the surface is
	// loaded.
	Song() Song

	// Browser returns the device/sample browser root.
	Browser() Browser

	// ScheduleTick enqueues fn for execution on the DAW main thread at the
	// next available tick. Callbacks from the same caller run in submission
	// order. Returns an error if the host refuses (e.g. during teardown).
	// Safe to call from any thread.
	ScheduleTick(fn func()) error

	// IsMainThread reports whether the calling goroutine is currently
	// executing on the DAW main thread. Safe to call from any thread.
	IsMainThread() bool

	// LogMessage writes msg to the DAW log. Cheap and safe from any thread.
	LogMessage(msg string)

	// ShowMessage displays msg in the DAW status line. Main-thread only.
	ShowMessage(msg string)

	// SendMIDI emits a raw MIDI message through the control surface output.
	SendMIDI(msg []byte) error

	// SelectTrack moves the session view focus to t.
	SelectTrack(t Track)

	// SelectClipSlot moves the session view focus to s.
	SelectClipSlot(s ClipSlot)
}

// Song is the live song document. Counts and collections are re-read on
// every call; the DAW owns all state.
type Song interface {
	Tempo() float64
	SetTempo(bpm float64)

	SignatureNumerator() int
	SetSignatureNumerator(n int)
	SignatureDenominator() int
	SetSignatureDenominator(d int)

	IsPlaying() bool
	StartPlaying()
	StopPlaying()

	// StopAllClips issues the global session stop.
	StopAllClips()

	Tracks() []Track
	ReturnTracks() []Track
	MasterTrack() Track
	Scenes() []Scene

	// SelectedSceneIndex returns the index of the currently selected scene,
	// or -1 if none.
	SelectedSceneIndex() int

	// CreateMIDITrack inserts a MIDI track at index; -1 appends.
	CreateMIDITrack(index int) (Track, error)
	// CreateAudioTrack inserts an audio track at index; -1 appends.
	CreateAudioTrack(index int) (Track, error)
	DeleteTrack(index int) error
	// DuplicateTrack copies the track at index into the position next to it.
	DuplicateTrack(index int) error

	CreateReturnTrack() (Track, error)
	DeleteReturnTrack(index int) error

	// CreateScene inserts a scene at index; -1 appends.
	CreateScene(index int) (Scene, error)
	DeleteScene(index int) error
	DuplicateScene(index int) error
}

// Scene is one row of the session grid.
type Scene interface {
	Name() string
	SetName(name string)

	// Fire launches every clip in the scene's row.
	Fire()
}
