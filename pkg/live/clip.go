package live

// Note is one MIDI note within a clip. Times are in beats.
type Note struct {
	Pitch    int     // 0-127
	Start    float64 // ≥ 0
	Duration float64 // > 0
	Velocity int     // 0-127
	Mute     bool
}

// NoteEx is a note carrying the extended per-note attributes newer hosts
// expose. Hosts without extended-note support ignore the extra fields.
type NoteEx struct {
	Note
	Probability       float64 // 0.0-1.0, chance the note plays
	VelocityDeviation float64 // 0-127, random velocity range
	ReleaseVelocity   float64 // 0-127
	ID                int     // opaque host note id, 0 when unknown
}

// Clip is one session clip, MIDI or audio.
type Clip interface {
	Name() string
	SetName(name string)

	// Length returns the clip length in beats.
	Length() float64

	IsMIDI() bool
	IsPlaying() bool
	IsRecording() bool

	Looping() bool
	SetLooping(on bool)
	LoopStart() float64
	SetLoopStart(beats float64) error
	LoopEnd() float64
	SetLoopEnd(beats float64) error

	// Notes returns the notes intersecting the given time/pitch window.
	// Audio clips return an error.
	Notes(fromTime, timeSpan float64, fromPitch, pitchSpan int) ([]Note, error)

	// AddNotes appends notes without clearing existing content.
	AddNotes(notes []Note) error

	// RemoveNotes deletes all notes in the given time/pitch window.
	RemoveNotes(fromTime, timeSpan float64, fromPitch, pitchSpan int) error
}

// ExtendedNoteClip is the capability probe for hosts whose clips support the
// extended note attributes. Narrow a [Clip] with a type assertion before use.
type ExtendedNoteClip interface {
	NotesExtended(fromTime, timeSpan float64, fromPitch, pitchSpan int) ([]NoteEx, error)
	AddNotesExtended(notes []NoteEx) error
}

// EndMarkerClip is the capability probe for clips whose end marker can be
// moved independently of the loop.
type EndMarkerClip interface {
	SetEndMarker(beats float64) error
}
