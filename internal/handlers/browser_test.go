package handlers

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/soundctl/livebridge/internal/cache"
	"github.com/soundctl/livebridge/internal/facade"
)

func TestGetBrowserItem(t *testing.T) {
	t.Parallel()
	c, _ := newTestContext(t)

	out := call(t, c, "get_browser_item", Params{"uri": "sim:instruments/Operator"})
	if out["name"] != "Operator" || out["is_loadable"] != true {
		t.Fatalf("by uri: %v", out)
	}

	out = call(t, c, "get_browser_item", Params{"path": "samples/kicks"})
	if out["name"] != "Kicks" || out["is_folder"] != true {
		t.Fatalf("by path: %v", out)
	}
	children, ok := out["children"].([]map[string]any)
	if !ok || len(children) != 2 {
		t.Fatalf("children = %v", out["children"])
	}

	wantKind(t, c, "get_browser_item", Params{}, facade.KindBadValue)
	wantKind(t, c, "get_browser_item", Params{"uri": "sim:no/such"}, facade.KindNotFound)
}

func TestGetBrowserTree(t *testing.T) {
	t.Parallel()
	c, _ := newTestContext(t)

	out := call(t, c, "get_browser_tree", nil)
	categories, ok := out["categories"].([]map[string]any)
	if !ok || len(categories) == 0 {
		t.Fatalf("categories = %v", out["categories"])
	}

	out = call(t, c, "get_browser_tree", Params{"category_type": "instruments", "depth": 1.0})
	if out["name"] != "Instruments" {
		t.Fatalf("category tree: %v", out)
	}
	children, ok := out["children"].([]map[string]any)
	if !ok || len(children) != 6 {
		t.Fatalf("instrument children = %v", out["children"])
	}
	// depth 1 stops before grandchildren.
	if _, ok := children[0]["children"]; ok {
		t.Fatal("depth limit not honored")
	}

	wantKind(t, c, "get_browser_tree", Params{"category_type": "vegetables"}, facade.KindNotFound)
}

func TestGetBrowserItemsAtPath(t *testing.T) {
	t.Parallel()
	c, _ := newTestContext(t)

	out := call(t, c, "get_browser_items_at_path", Params{"path": "Samples/Snares"})
	if out["count"] != 2 {
		t.Fatalf("count = %v", out["count"])
	}
	items := out["items"].([]map[string]any)
	if items[0]["name"] != "Snare Tight.wav" {
		t.Fatalf("items = %v", items)
	}

	wantKind(t, c, "get_browser_items_at_path", Params{"path": "Samples/Cowbells"}, facade.KindNotFound)
}

func TestListLoadableDevices(t *testing.T) {
	t.Parallel()
	c, _ := newTestContext(t)

	out := call(t, c, "list_loadable_devices", nil)
	if out["category"] != "instruments" || out["count"] != 6 {
		t.Fatalf("defaults: %v", out)
	}

	out = call(t, c, "list_loadable_devices", Params{"category": "audio_effects", "max_items": 3.0})
	if out["count"] != 3 {
		t.Fatalf("limited count = %v", out["count"])
	}
	// The legacy limit spelling keeps working.
	out = call(t, c, "list_loadable_devices", Params{"category": "audio_effects", "limit": 2.0})
	if out["count"] != 2 {
		t.Fatalf("legacy limit count = %v", out["count"])
	}
}

func TestSearchLoadableDevices(t *testing.T) {
	t.Parallel()
	c, _ := newTestContext(t)

	out := call(t, c, "search_loadable_devices", Params{"query": "sampler"})
	if out["count"] != 1 {
		t.Fatalf("count = %v", out["count"])
	}
	items := out["items"].([]map[string]any)
	if items[0]["name"] != "Sampler" {
		t.Fatalf("items = %v", items)
	}

	wantKind(t, c, "search_loadable_devices", Params{}, facade.KindBadValue)
}

// cacheContext attaches a small pre-indexed asset cache to a test context.
func cacheContext(t *testing.T) *Context {
	t.Helper()
	dir := t.TempDir()
	deviceFile := filepath.Join(dir, "devices.json")
	doc := `{"count": 2, "items": [
		{"name": "Operator", "category": "instruments", "path": "Instruments/Operator", "uri": "query:Synths#Operator"},
		{"name": "Wavetable", "category": "instruments", "path": "Instruments/Wavetable"}
	]}`
	if err := os.WriteFile(deviceFile, []byte(doc), 0o644); err != nil {
		t.Fatalf("write cache: %v", err)
	}
	c, _ := newTestContext(t)
	c.Cache = cache.New(map[string]string{"devices": deviceFile}, slog.Default())
	return c
}

func TestSearchBrowserCache(t *testing.T) {
	t.Parallel()
	c := cacheContext(t)

	out := call(t, c, "search_browser_cache", Params{"query": "wave"})
	if out["count"] != 1 {
		t.Fatalf("count = %v", out["count"])
	}
	items := out["items"].([]map[string]any)
	if items[0]["name"] != "Wavetable" {
		t.Fatalf("items = %v", items)
	}
	// Entries without a stored uri omit the key.
	if _, ok := items[0]["uri"]; ok {
		t.Fatalf("phantom uri: %v", items[0])
	}
}

func TestResolveCachedItem(t *testing.T) {
	t.Parallel()
	c := cacheContext(t)

	out := call(t, c, "resolve_cached_item", Params{"name": "operator"})
	if out["path"] != "Instruments/Operator" || out["uri"] != "query:Synths#Operator" {
		t.Fatalf("entry: %v", out)
	}
	wantKind(t, c, "resolve_cached_item", Params{"name": "Zebra"}, facade.KindNotFound)
}

func TestCacheHandlersWithoutCache(t *testing.T) {
	t.Parallel()
	c, _ := newTestContext(t)
	wantKind(t, c, "search_browser_cache", Params{"query": "x"}, facade.KindUnsupported)
	wantKind(t, c, "resolve_cached_item", Params{"name": "x"}, facade.KindUnsupported)
}
