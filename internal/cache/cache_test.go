package cache

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const deviceDoc = `{
  "count": 3,
  "items": [
    {"name": "Operator", "category": "instruments", "path": "Instruments/Operator", "uri": "query:Synths#Operator"},
    {"name": "Compressor", "category": "audio_effects", "path": "Audio Effects/Compressor"},
    {"name": "EQ Eight", "category": "audio_effects", "path": "Audio Effects/EQ Eight"}
  ]
}`

const sampleDoc = `{
  "count": 2,
  "items": [
    {"name": "Kick 808.wav", "category": "samples", "path": "Samples/Kicks/Kick 808.wav"},
    {"name": "Snare Tight.wav", "category": "samples", "path": "Samples/Snares/Snare Tight.wav"}
  ]
}`

func writeCaches(t *testing.T) (deviceFile, sampleFile string) {
	t.Helper()
	dir := t.TempDir()
	deviceFile = filepath.Join(dir, "devices.json")
	sampleFile = filepath.Join(dir, "samples.json")
	if err := os.WriteFile(deviceFile, []byte(deviceDoc), 0o644); err != nil {
		t.Fatalf("write device cache: %v", err)
	}
	if err := os.WriteFile(sampleFile, []byte(sampleDoc), 0o644); err != nil {
		t.Fatalf("write sample cache: %v", err)
	}
	return deviceFile, sampleFile
}

func newTestReader(t *testing.T) *Reader {
	t.Helper()
	deviceFile, sampleFile := writeCaches(t)
	return New(map[string]string{
		"devices": deviceFile,
		"samples": sampleFile,
	}, slog.Default())
}

func TestSearchByNameAndPath(t *testing.T) {
	t.Parallel()
	r := newTestReader(t)

	got, err := r.Search("compressor", "devices", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Compressor" {
		t.Fatalf("got %v", got)
	}

	// Path text matches too.
	got, err = r.Search("audio effects", "devices", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("path search found %d, want 2", len(got))
	}
}

func TestSearchAcrossCategories(t *testing.T) {
	t.Parallel()
	r := newTestReader(t)
	got, err := r.Search("808", "", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Kick 808.wav" {
		t.Fatalf("got %v", got)
	}
}

func TestSearchEmptyQueryReturnsFileOrder(t *testing.T) {
	t.Parallel()
	r := newTestReader(t)
	got, err := r.Search("", "devices", 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 2 || got[0].Name != "Operator" {
		t.Fatalf("got %v", got)
	}
}

func TestSearchUnknownCategory(t *testing.T) {
	t.Parallel()
	r := newTestReader(t)
	if _, err := r.Search("x", "presets", 10); err == nil {
		t.Fatal("unknown category accepted")
	}
}

func TestResolveByName(t *testing.T) {
	t.Parallel()
	r := newTestReader(t)

	e, found, err := r.ResolveByName("eq eight", "")
	if err != nil || !found {
		t.Fatalf("ResolveByName: found=%v err=%v", found, err)
	}
	if e.Path != "Audio Effects/EQ Eight" {
		t.Fatalf("entry = %+v", e)
	}

	_, found, err = r.ResolveByName("EQ Nine", "")
	if err != nil || found {
		t.Fatalf("phantom entry: found=%v err=%v", found, err)
	}
}

func TestWatchInvalidatesRewrittenFile(t *testing.T) {
	t.Parallel()
	deviceFile, sampleFile := writeCaches(t)
	r := New(map[string]string{
		"devices": deviceFile,
		"samples": sampleFile,
	}, slog.Default())
	if err := r.Watch(); err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer r.Close()

	if _, err := r.Search("operator", "devices", 10); err != nil {
		t.Fatalf("initial load: %v", err)
	}

	rewritten := `{"count": 1, "items": [{"name": "Wavetable", "category": "instruments", "path": "Instruments/Wavetable"}]}`
	if err := os.WriteFile(deviceFile, []byte(rewritten), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	// The watcher delivers asynchronously; poll until the new content shows.
	deadline := time.Now().Add(2 * time.Second)
	for {
		got, err := r.Search("wavetable", "devices", 10)
		if err != nil {
			t.Fatalf("Search after rewrite: %v", err)
		}
		if len(got) == 1 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("cache never picked up the rewritten file")
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	t.Parallel()
	r := newTestReader(t)
	if err := r.Close(); err != nil {
		t.Fatalf("Close without watch: %v", err)
	}
	if err := r.Watch(); err != nil {
		t.Fatalf("Watch: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
