package facade

import (
	"path"
	"sort"
	"strings"

	"github.com/antzucaro/matchr"

	"github.com/soundctl/livebridge/pkg/live"
)

// Traversal depth caps. Find-by-URI may recurse deep into packs; the BFS
// listings stay shallow because they feed size-bounded responses.
const (
	uriSearchDepth = 10
	listSearchDepth = 4
)

// FindByURI scans the browser tree for the item with the given URI,
// traversing every top-level category the host exposes. URIs are opaque and
// unstable across DAW restarts, so a miss is a NotFound, never a guess.
func (f *Facade) FindByURI(uri string) (live.BrowserItem, error) {
	if uri == "" {
		return nil, BadValuef("item uri must not be empty")
	}
	for _, root := range f.host.Browser().Roots() {
		if item := findByURI(root, uri, uriSearchDepth); item != nil {
			return item, nil
		}
	}
	return nil, NotFoundf("no browser item with uri %q", uri)
}

func findByURI(node live.BrowserItem, uri string, depth int) live.BrowserItem {
	if node.URI() == uri {
		return node
	}
	if depth <= 0 {
		return nil
	}
	for _, child := range node.Children() {
		if found := findByURI(child, uri, depth-1); found != nil {
			return found
		}
	}
	return nil
}

// ItemsAtPath walks a slash-separated path from the category roots,
// matching each segment case-insensitively, and returns the children of the
// final node (or the roots for an empty path).
func (f *Facade) ItemsAtPath(p string) ([]live.BrowserItem, error) {
	segments := splitPath(p)
	if len(segments) == 0 {
		return f.host.Browser().Roots(), nil
	}

	var node live.BrowserItem
	candidates := f.host.Browser().Roots()
	for _, seg := range segments {
		node = nil
		for _, c := range candidates {
			if strings.EqualFold(c.Name(), seg) {
				node = c
				break
			}
		}
		if node == nil {
			return nil, NotFoundf("browser path %q: no item named %q", p, seg)
		}
		candidates = node.Children()
	}
	return node.Children(), nil
}

// NodeAtPath resolves a slash-separated path to a single node.
func (f *Facade) NodeAtPath(p string) (live.BrowserItem, error) {
	segments := splitPath(p)
	if len(segments) == 0 {
		return nil, BadValuef("browser path must not be empty")
	}
	var node live.BrowserItem
	candidates := f.host.Browser().Roots()
	for _, seg := range segments {
		node = nil
		for _, c := range candidates {
			if strings.EqualFold(c.Name(), seg) {
				node = c
				break
			}
		}
		if node == nil {
			return nil, NotFoundf("browser path %q: no item named %q", p, seg)
		}
		candidates = node.Children()
	}
	return node, nil
}

// FindSampleByStem performs a best-effort search under the samples category
// for an item whose filename stem matches the given stem. Exact normalized
// stem matches win; otherwise candidates containing the stem are ranked by
// Jaro-Winkler similarity and the best is returned.
func (f *Facade) FindSampleByStem(stem string) (live.BrowserItem, error) {
	root := f.host.Browser().Root(live.CategorySamples)
	if root == nil {
		return nil, NotFoundf("host exposes no samples category")
	}
	want := NormalizeStem(stem)
	if want == "" {
		return nil, BadValuef("sample stem must not be empty")
	}

	type scored struct {
		item  live.BrowserItem
		score float64
	}
	var candidates []scored

	var walk func(node live.BrowserItem, depth int)
	walk = func(node live.BrowserItem, depth int) {
		if depth > uriSearchDepth {
			return
		}
		for _, child := range node.Children() {
			if child.IsFolder() {
				walk(child, depth+1)
				continue
			}
			got := NormalizeStem(child.Name())
			if got == want {
				candidates = append(candidates, scored{item: child, score: 2})
				continue
			}
			if strings.Contains(got, want) || strings.Contains(want, got) {
				candidates = append(candidates, scored{item: child, score: 1 + matchr.JaroWinkler(got, want, true)})
			}
		}
	}
	walk(root, 0)

	if len(candidates) == 0 {
		return nil, NotFoundf("no sample matching stem %q", stem)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	return candidates[0].item, nil
}

// CollectLoadable gathers loadable items breadth-first under root, stopping
// at max items or the listing depth cap.
func CollectLoadable(root live.BrowserItem, max int) []live.BrowserItem {
	type entry struct {
		node  live.BrowserItem
		depth int
	}
	var out []live.BrowserItem
	queue := []entry{{node: root, depth: 0}}
	for len(queue) > 0 && len(out) < max {
		e := queue[0]
		queue = queue[1:]
		for _, child := range e.node.Children() {
			if child.IsLoadable() && !child.IsFolder() {
				out = append(out, child)
				if len(out) >= max {
					return out
				}
			}
			if e.depth+1 < listSearchDepth {
				queue = append(queue, entry{node: child, depth: e.depth + 1})
			}
		}
	}
	return out
}

// RankLoadable filters loadable items under root by a query substring and
// orders matches by Jaro-Winkler similarity to the query, best first.
func RankLoadable(root live.BrowserItem, query string, max int) []live.BrowserItem {
	all := CollectLoadable(root, max*8)
	q := strings.ToLower(query)
	type scored struct {
		item  live.BrowserItem
		score float64
	}
	var matches []scored
	for _, item := range all {
		name := strings.ToLower(item.Name())
		if q != "" && !strings.Contains(name, q) {
			continue
		}
		matches = append(matches, scored{item: item, score: matchr.JaroWinkler(name, q, true)})
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].score > matches[j].score })
	if len(matches) > max {
		matches = matches[:max]
	}
	out := make([]live.BrowserItem, len(matches))
	for i, m := range matches {
		out[i] = m.item
	}
	return out
}

// ItemInfo shapes a browser node for the wire, without children.
func ItemInfo(item live.BrowserItem) map[string]any {
	return map[string]any{
		"name":        item.Name(),
		"uri":         item.URI(),
		"is_folder":   item.IsFolder(),
		"is_device":   item.IsDevice(),
		"is_loadable": item.IsLoadable(),
	}
}

// ItemTree shapes a browser node recursively down to the given depth.
func ItemTree(item live.BrowserItem, depth int) map[string]any {
	info := ItemInfo(item)
	if depth > 0 {
		children := item.Children()
		shaped := make([]map[string]any, len(children))
		for i, c := range children {
			shaped[i] = ItemTree(c, depth-1)
		}
		info["children"] = shaped
	}
	return info
}

// NormalizeStem lowercases a filename and strips its extension and
// non-alphanumeric separators, so "Kick 808.wav" and "kick_808" compare
// equal.
func NormalizeStem(name string) string {
	stem := strings.TrimSuffix(name, path.Ext(name))
	var b strings.Builder
	for _, r := range strings.ToLower(stem) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func splitPath(p string) []string {
	var out []string
	for _, seg := range strings.Split(p, "/") {
		if s := strings.TrimSpace(seg); s != "" {
			out = append(out, s)
		}
	}
	return out
}
