package handlers

import (
	"github.com/soundctl/livebridge/internal/cache"
	"github.com/soundctl/livebridge/internal/facade"
	"github.com/soundctl/livebridge/pkg/live"
)

func browserEntries() []Entry {
	return []Entry{
		onMain("get_browser_item", getBrowserItem),
		onMain("get_browser_tree", getBrowserTree),
		onMain("get_browser_items_at_path", getBrowserItemsAtPath),
		onMain("list_loadable_devices", listLoadableDevices),
		onMain("search_loadable_devices", searchLoadableDevices),
		// Cache lookups never touch the live object graph, so they run on
		// the connection worker.
		offMain("search_browser_cache", searchBrowserCache),
		offMain("resolve_cached_item", resolveCachedItem),
	}
}

// getBrowserItem resolves a single browser node by uri or path.
func getBrowserItem(c *Context, p Params) (any, error) {
	uri, err := p.String("uri", "")
	if err != nil {
		return nil, err
	}
	path, err := p.String("path", "")
	if err != nil {
		return nil, err
	}

	var item live.BrowserItem
	switch {
	case uri != "":
		item, err = c.F.FindByURI(uri)
	case path != "":
		item, err = c.F.NodeAtPath(path)
	default:
		return nil, facade.BadValuef("either %q or %q is required", "uri", "path")
	}
	if err != nil {
		return nil, err
	}
	return facade.ItemTree(item, 1), nil
}

// getBrowserTree returns the browser hierarchy down to depth, for one
// category or for all of them.
func getBrowserTree(c *Context, p Params) (any, error) {
	category, err := p.StringAlias("all", "category_type", "category")
	if err != nil {
		return nil, err
	}
	depth, err := p.Int("depth", 2)
	if err != nil {
		return nil, err
	}
	if depth < 0 {
		depth = 0
	}

	if category == "all" || category == "" {
		roots := c.Host.Browser().Roots()
		trees := make([]map[string]any, len(roots))
		for i, r := range roots {
			trees[i] = facade.ItemTree(r, depth)
		}
		return map[string]any{"categories": trees}, nil
	}

	root := c.Host.Browser().Root(category)
	if root == nil {
		return nil, facade.NotFoundf("host exposes no browser category %q", category)
	}
	return facade.ItemTree(root, depth), nil
}

func getBrowserItemsAtPath(c *Context, p Params) (any, error) {
	path, err := p.RequireString("path")
	if err != nil {
		return nil, err
	}
	items, err := c.F.ItemsAtPath(path)
	if err != nil {
		return nil, err
	}
	infos := make([]map[string]any, len(items))
	for i, item := range items {
		infos[i] = facade.ItemInfo(item)
	}
	return map[string]any{"path": path, "items": infos, "count": len(infos)}, nil
}

// listLoadableDevices enumerates loadable items under a category,
// breadth-first up to limit.
func listLoadableDevices(c *Context, p Params) (any, error) {
	category, err := p.StringAlias(live.CategoryInstruments, "category_type", "category")
	if err != nil {
		return nil, err
	}
	limit, err := p.IntAlias(50, "max_items", "limit")
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	root := c.Host.Browser().Root(category)
	if root == nil {
		return nil, facade.NotFoundf("host exposes no browser category %q", category)
	}
	items := facade.CollectLoadable(root, limit)
	infos := make([]map[string]any, len(items))
	for i, item := range items {
		infos[i] = facade.ItemInfo(item)
	}
	return map[string]any{"category": category, "items": infos, "count": len(infos)}, nil
}

// searchLoadableDevices filters loadable items under a category by a query
// substring and ranks matches by name similarity.
func searchLoadableDevices(c *Context, p Params) (any, error) {
	query, err := p.RequireString("query")
	if err != nil {
		return nil, err
	}
	category, err := p.StringAlias(live.CategoryInstruments, "category_type", "category")
	if err != nil {
		return nil, err
	}
	limit, err := p.IntAlias(25, "max_items", "limit")
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 25
	}
	root := c.Host.Browser().Root(category)
	if root == nil {
		return nil, facade.NotFoundf("host exposes no browser category %q", category)
	}
	items := facade.RankLoadable(root, query, limit)
	infos := make([]map[string]any, len(items))
	for i, item := range items {
		infos[i] = facade.ItemInfo(item)
	}
	return map[string]any{
		"query":    query,
		"category": category,
		"items":    infos,
		"count":    len(infos),
	}, nil
}

// searchBrowserCache queries the pre-indexed asset caches without touching
// the live browser.
func searchBrowserCache(c *Context, p Params) (any, error) {
	if c.Cache == nil {
		return nil, facade.Unsupportedf("no browser cache configured")
	}
	query, err := p.String("query", "")
	if err != nil {
		return nil, err
	}
	category, err := p.String("category", "")
	if err != nil {
		return nil, err
	}
	limit, err := p.Int("limit", 25)
	if err != nil {
		return nil, err
	}
	entries, err := c.Cache.Search(query, category, limit)
	if err != nil {
		return nil, facade.BadValuef("cache search: %v", err)
	}
	items := make([]map[string]any, len(entries))
	for i, e := range entries {
		items[i] = cacheEntryInfo(e)
	}
	return map[string]any{"items": items, "count": len(items)}, nil
}

// resolveCachedItem looks up one cache entry by exact name.
func resolveCachedItem(c *Context, p Params) (any, error) {
	if c.Cache == nil {
		return nil, facade.Unsupportedf("no browser cache configured")
	}
	name, err := p.RequireString("name")
	if err != nil {
		return nil, err
	}
	category, err := p.String("category", "")
	if err != nil {
		return nil, err
	}
	entry, found, err := c.Cache.ResolveByName(name, category)
	if err != nil {
		return nil, facade.BadValuef("cache lookup: %v", err)
	}
	if !found {
		return nil, facade.NotFoundf("no cached item named %q", name)
	}
	return cacheEntryInfo(entry), nil
}

func cacheEntryInfo(e cache.Entry) map[string]any {
	info := map[string]any{
		"name":     e.Name,
		"category": e.Category,
		"path":     e.Path,
	}
	if e.URI != "" {
		info["uri"] = e.URI
	}
	return info
}
