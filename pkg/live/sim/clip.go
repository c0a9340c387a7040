package sim

import (
	"fmt"

	"github.com/soundctl/livebridge/pkg/live"
)

// Clip is the simulated session clip. Notes are stored with extended
// attributes regardless of the host capability flag; the flag only controls
// whether the extended interfaces are reachable through the probe.
type Clip struct {
	slot *Slot

	name      string
	length    float64
	isMIDI    bool
	playing   bool
	recording bool

	looping   bool
	loopStart float64
	loopEnd   float64
	endMarker float64

	notes  []live.NoteEx
	nextID int
}

var (
	_ live.Clip         = (*Clip)(nil)
	_ live.EndMarkerClip = (*Clip)(nil)
)

func newClip(s *Slot, length float64, isMIDI bool) *Clip {
	return &Clip{
		slot:      s,
		length:    length,
		isMIDI:    isMIDI,
		looping:   true,
		loopStart: 0,
		loopEnd:   length,
		endMarker: length,
		nextID:    1,
	}
}

func (c *Clip) clone(into *Slot) *Clip {
	cp := *c
	cp.slot = into
	cp.playing = false
	cp.notes = append([]live.NoteEx(nil), c.notes...)
	return &cp
}

func (c *Clip) Name() string        { return c.name }
func (c *Clip) SetName(name string) { c.name = name }

// Length reports the playable length: the loop span while looping, else the
// end marker.
func (c *Clip) Length() float64 {
	if c.looping {
		return c.loopEnd - c.loopStart
	}
	return c.endMarker
}

func (c *Clip) IsMIDI() bool      { return c.isMIDI }
func (c *Clip) IsPlaying() bool   { return c.playing }
func (c *Clip) IsRecording() bool { return c.recording }

func (c *Clip) Looping() bool      { return c.looping }
func (c *Clip) SetLooping(on bool) { c.looping = on }
func (c *Clip) LoopStart() float64 { return c.loopStart }
func (c *Clip) LoopEnd() float64   { return c.loopEnd }

func (c *Clip) SetLoopStart(beats float64) error {
	if beats < 0 {
		return fmt.Errorf("sim: loop start must be >= 0, got %v", beats)
	}
	c.loopStart = beats
	return nil
}

func (c *Clip) SetLoopEnd(beats float64) error {
	if beats <= c.loopStart {
		return fmt.Errorf("sim: loop end %v must be after loop start %v", beats, c.loopStart)
	}
	c.loopEnd = beats
	return nil
}

func (c *Clip) SetEndMarker(beats float64) error {
	if beats <= 0 {
		return fmt.Errorf("sim: end marker must be positive, got %v", beats)
	}
	c.endMarker = beats
	return nil
}

// ─── Notes ───────────────────────────────────────────────────────────────────

func (c *Clip) Notes(fromTime, timeSpan float64, fromPitch, pitchSpan int) ([]live.Note, error) {
	ext, err := c.notesExtended(fromTime, timeSpan, fromPitch, pitchSpan)
	if err != nil {
		return nil, err
	}
	out := make([]live.Note, len(ext))
	for i, n := range ext {
		out[i] = n.Note
	}
	return out, nil
}

func (c *Clip) AddNotes(notes []live.Note) error {
	ext := make([]live.NoteEx, len(notes))
	for i, n := range notes {
		ext[i] = live.NoteEx{Note: n, Probability: 1}
	}
	return c.AddNotesExtended(ext)
}

func (c *Clip) RemoveNotes(fromTime, timeSpan float64, fromPitch, pitchSpan int) error {
	if !c.isMIDI {
		return fmt.Errorf("sim: audio clips have no notes")
	}
	kept := c.notes[:0]
	for _, n := range c.notes {
		if noteInWindow(n, fromTime, timeSpan, fromPitch, pitchSpan) {
			continue
		}
		kept = append(kept, n)
	}
	c.notes = kept
	return nil
}

func (c *Clip) notesExtended(fromTime, timeSpan float64, fromPitch, pitchSpan int) ([]live.NoteEx, error) {
	if !c.isMIDI {
		return nil, fmt.Errorf("sim: audio clips have no notes")
	}
	var out []live.NoteEx
	for _, n := range c.notes {
		if noteInWindow(n, fromTime, timeSpan, fromPitch, pitchSpan) {
			out = append(out, n)
		}
	}
	return out, nil
}

// NotesExtended implements [live.ExtendedNoteClip] when the host supports it.
func (c *Clip) NotesExtended(fromTime, timeSpan float64, fromPitch, pitchSpan int) ([]live.NoteEx, error) {
	if !c.slot.track.song.host.extendedNotes {
		return nil, fmt.Errorf("sim: extended notes not supported")
	}
	return c.notesExtended(fromTime, timeSpan, fromPitch, pitchSpan)
}

// AddNotesExtended implements [live.ExtendedNoteClip].
func (c *Clip) AddNotesExtended(notes []live.NoteEx) error {
	if !c.isMIDI {
		return fmt.Errorf("sim: audio clips have no notes")
	}
	for _, n := range notes {
		n.ID = c.nextID
		c.nextID++
		if n.Probability == 0 {
			n.Probability = 1
		}
		c.notes = append(c.notes, n)
	}
	return nil
}

func noteInWindow(n live.NoteEx, fromTime, timeSpan float64, fromPitch, pitchSpan int) bool {
	if n.Pitch < fromPitch || n.Pitch >= fromPitch+pitchSpan {
		return false
	}
	return n.Start >= fromTime && n.Start < fromTime+timeSpan
}
