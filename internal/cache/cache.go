// Package cache reads the pre-indexed browser asset files written by the
// client-side regeneration tool.
//
// Each category (devices, samples) is one JSON document of the form
// {"count": N, "items": [{"name", "category", "path", "uri"?}, …]}. The
// reader loads documents lazily, keeps them in memory and, when watching
// is enabled, invalidates a document when its file is rewritten, so a long
// DAW session picks up regenerated caches without a reload.
//
// The core never writes these files.
package cache

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Entry is one pre-indexed browser asset.
type Entry struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Path     string `json:"path"`
	URI      string `json:"uri,omitempty"`
}

// document is the on-disk shape of one category file.
type document struct {
	Count int     `json:"count"`
	Items []Entry `json:"items"`
}

// Reader serves lookups over the cache files. Safe for concurrent use.
type Reader struct {
	log *slog.Logger

	mu    sync.RWMutex
	paths map[string]string  // category -> file path
	data  map[string][]Entry // category -> loaded items, nil = not loaded

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// New creates a Reader over the given category->path mapping. Categories
// with empty paths are ignored.
func New(paths map[string]string, log *slog.Logger) *Reader {
	if log == nil {
		log = slog.Default()
	}
	clean := make(map[string]string, len(paths))
	for cat, p := range paths {
		if p != "" {
			clean[strings.ToLower(cat)] = p
		}
	}
	return &Reader{
		log:   log,
		paths: clean,
		data:  make(map[string][]Entry),
	}
}

// Categories returns the configured category names.
func (r *Reader) Categories() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.paths))
	for cat := range r.paths {
		out = append(out, cat)
	}
	return out
}

// Search returns up to limit entries whose name or path contains query,
// case-insensitively. An empty query returns up to limit entries in file
// order. An empty category searches every configured category.
func (r *Reader) Search(query, category string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 25
	}
	cats, err := r.categoriesFor(category)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(query)
	var out []Entry
	for _, cat := range cats {
		items, err := r.load(cat)
		if err != nil {
			return nil, err
		}
		for _, e := range items {
			if q == "" ||
				strings.Contains(strings.ToLower(e.Name), q) ||
				strings.Contains(strings.ToLower(e.Path), q) {
				out = append(out, e)
				if len(out) >= limit {
					return out, nil
				}
			}
		}
	}
	return out, nil
}

// ResolveByName returns the first entry whose name matches exactly,
// case-insensitively. category narrows the search when non-empty.
func (r *Reader) ResolveByName(name, category string) (Entry, bool, error) {
	cats, err := r.categoriesFor(category)
	if err != nil {
		return Entry{}, false, err
	}
	for _, cat := range cats {
		items, err := r.load(cat)
		if err != nil {
			return Entry{}, false, err
		}
		for _, e := range items {
			if strings.EqualFold(e.Name, name) {
				return e, true, nil
			}
		}
	}
	return Entry{}, false, nil
}

func (r *Reader) categoriesFor(category string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if category == "" {
		out := make([]string, 0, len(r.paths))
		for cat := range r.paths {
			out = append(out, cat)
		}
		return out, nil
	}
	cat := strings.ToLower(category)
	if _, ok := r.paths[cat]; !ok {
		return nil, fmt.Errorf("cache: no cache configured for category %q", category)
	}
	return []string{cat}, nil
}

// load returns the entries of a category, reading the file on first use.
func (r *Reader) load(category string) ([]Entry, error) {
	r.mu.RLock()
	items, loaded := r.data[category]
	path := r.paths[category]
	r.mu.RUnlock()
	if loaded {
		return items, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cache: read %q: %w", path, err)
	}
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("cache: parse %q: %w", path, err)
	}

	r.mu.Lock()
	r.data[category] = doc.Items
	r.mu.Unlock()
	r.log.Debug("loaded browser cache", "category", category, "items", len(doc.Items))
	return doc.Items, nil
}

// Watch starts an fsnotify watcher over the cache files' directories and
// invalidates a category when its file is written or replaced. Call Close
// to stop.
func (r *Reader) Watch() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.watcher != nil {
		return nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("cache: start watcher: %w", err)
	}
	dirs := map[string]bool{}
	for _, p := range r.paths {
		dirs[filepath.Dir(p)] = true
	}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			w.Close()
			return fmt.Errorf("cache: watch %q: %w", dir, err)
		}
	}

	r.watcher = w
	r.done = make(chan struct{})
	go r.watchLoop(w, r.done)
	return nil
}

func (r *Reader) watchLoop(w *fsnotify.Watcher, done chan struct{}) {
	for {
		select {
		case <-done:
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			r.invalidatePath(ev.Name)
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			r.log.Warn("cache watcher error", "err", err)
		}
	}
}

func (r *Reader) invalidatePath(changed string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for cat, p := range r.paths {
		if filepath.Clean(p) == filepath.Clean(changed) {
			delete(r.data, cat)
			r.log.Info("browser cache invalidated", "category", cat)
		}
	}
}

// Close stops the watcher if one is running.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.watcher == nil {
		return nil
	}
	close(r.done)
	err := r.watcher.Close()
	r.watcher = nil
	return err
}
