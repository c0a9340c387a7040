package sim

import (
	"fmt"

	"github.com/soundctl/livebridge/pkg/live"
)

// Song is the simulated song document.
type Song struct {
	host *Host

	tempo    float64
	sigNum   int
	sigDen   int
	playing  bool
	tracks   []*Track
	returns  []*Track
	master   *Track
	scenes   []*Scene
	selScene int

	created int // lifetime counter used for default track names
}

var _ live.Song = (*Song)(nil)

func newSong(h *Host) *Song {
	s := &Song{
		host:   h,
		tempo:  120.0,
		sigNum: 4,
		sigDen: 4,
	}
	s.returns = []*Track{
		newReturnTrack(s, "A-Reverb"),
		newReturnTrack(s, "B-Delay"),
	}
	s.master = newMasterTrack(s)
	for i := 0; i < 8; i++ {
		s.scenes = append(s.scenes, &Scene{song: s})
	}
	return s
}

func (s *Song) Tempo() float64            { return s.tempo }
func (s *Song) SetTempo(bpm float64)      { s.tempo = bpm }
func (s *Song) SignatureNumerator() int   { return s.sigNum }
func (s *Song) SetSignatureNumerator(n int) {
	if n >= 1 {
		s.sigNum = n
	}
}
func (s *Song) SignatureDenominator() int { return s.sigDen }
func (s *Song) SetSignatureDenominator(d int) {
	if d >= 1 {
		s.sigDen = d
	}
}

func (s *Song) IsPlaying() bool { return s.playing }
func (s *Song) StartPlaying()   { s.playing = true }
func (s *Song) StopPlaying() {
	s.playing = false
	for _, t := range s.tracks {
		t.stopPlayingClips()
	}
}

func (s *Song) StopAllClips() {
	for _, t := range s.tracks {
		t.stopPlayingClips()
	}
}

func (s *Song) Tracks() []live.Track {
	out := make([]live.Track, len(s.tracks))
	for i, t := range s.tracks {
		out[i] = t
	}
	return out
}

func (s *Song) ReturnTracks() []live.Track {
	out := make([]live.Track, len(s.returns))
	for i, t := range s.returns {
		out[i] = t
	}
	return out
}

func (s *Song) MasterTrack() live.Track { return s.master }

func (s *Song) Scenes() []live.Scene {
	out := make([]live.Scene, len(s.scenes))
	for i, sc := range s.scenes {
		out[i] = sc
	}
	return out
}

func (s *Song) SelectedSceneIndex() int {
	if len(s.scenes) == 0 {
		return -1
	}
	if s.selScene >= len(s.scenes) {
		return len(s.scenes) - 1
	}
	return s.selScene
}

// ─── Structural mutations ────────────────────────────────────────────────────

func (s *Song) CreateMIDITrack(index int) (live.Track, error) {
	s.created++
	t := newTrack(s, trackName(s.created, "MIDI"), live.TrackMIDI)
	return t, s.insertTrack(t, index)
}

func (s *Song) CreateAudioTrack(index int) (live.Track, error) {
	s.created++
	t := newTrack(s, trackName(s.created, "Audio"), live.TrackAudio)
	return t, s.insertTrack(t, index)
}

func (s *Song) insertTrack(t *Track, index int) error {
	if index < 0 || index > len(s.tracks) {
		s.tracks = append(s.tracks, t)
		return nil
	}
	s.tracks = append(s.tracks[:index], append([]*Track{t}, s.tracks[index:]...)...)
	return nil
}

func (s *Song) DeleteTrack(index int) error {
	if index < 0 || index >= len(s.tracks) {
		return fmt.Errorf("sim: no track at index %d", index)
	}
	s.tracks = append(s.tracks[:index], s.tracks[index+1:]...)
	return nil
}

func (s *Song) DuplicateTrack(index int) error {
	if index < 0 || index >= len(s.tracks) {
		return fmt.Errorf("sim: no track at index %d", index)
	}
	src := s.tracks[index]
	dup := src.clone()
	dup.name = src.name + " Copy"
	s.tracks = append(s.tracks[:index+1], append([]*Track{dup}, s.tracks[index+1:]...)...)
	return nil
}

func (s *Song) CreateReturnTrack() (live.Track, error) {
	name := fmt.Sprintf("%c-Return", 'A'+len(s.returns))
	t := newReturnTrack(s, name)
	s.returns = append(s.returns, t)
	// Every non-return track grows one send.
	for _, tr := range s.tracks {
		tr.addSend(len(s.returns) - 1)
	}
	return t, nil
}

func (s *Song) DeleteReturnTrack(index int) error {
	if index < 0 || index >= len(s.returns) {
		return fmt.Errorf("sim: no return track at index %d", index)
	}
	s.returns = append(s.returns[:index], s.returns[index+1:]...)
	for _, tr := range s.tracks {
		tr.removeSend(index)
	}
	return nil
}

func (s *Song) CreateScene(index int) (live.Scene, error) {
	sc := &Scene{song: s}
	if index < 0 || index > len(s.scenes) {
		s.scenes = append(s.scenes, sc)
	} else {
		s.scenes = append(s.scenes[:index], append([]*Scene{sc}, s.scenes[index:]...)...)
	}
	for _, tr := range s.tracks {
		tr.syncSlotCount()
	}
	return sc, nil
}

func (s *Song) DeleteScene(index int) error {
	if index < 0 || index >= len(s.scenes) {
		return fmt.Errorf("sim: no scene at index %d", index)
	}
	s.scenes = append(s.scenes[:index], s.scenes[index+1:]...)
	for _, tr := range s.tracks {
		tr.deleteSlot(index)
	}
	return nil
}

func (s *Song) DuplicateScene(index int) error {
	if index < 0 || index >= len(s.scenes) {
		return fmt.Errorf("sim: no scene at index %d", index)
	}
	dup := &Scene{song: s, name: s.scenes[index].name}
	s.scenes = append(s.scenes[:index+1], append([]*Scene{dup}, s.scenes[index+1:]...)...)
	for _, tr := range s.tracks {
		tr.duplicateSlot(index)
	}
	return nil
}

// sceneIndex returns the position of sc within the scene list, or -1.
func (s *Song) sceneIndex(sc *Scene) int {
	for i, x := range s.scenes {
		if x == sc {
			return i
		}
	}
	return -1
}

// Scene is one simulated session row.
type Scene struct {
	song *Song
	name string
}

var _ live.Scene = (*Scene)(nil)

func (sc *Scene) Name() string        { return sc.name }
func (sc *Scene) SetName(name string) { sc.name = name }

// Fire launches every populated slot in the row and moves scene selection.
func (sc *Scene) Fire() {
	i := sc.song.sceneIndex(sc)
	if i < 0 {
		return
	}
	sc.song.selScene = i
	sc.song.playing = true
	for _, tr := range sc.song.tracks {
		if i < len(tr.slots) {
			tr.slots[i].Fire()
		}
	}
}
