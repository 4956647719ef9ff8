package server

import "slices"

// paginateAfter returns the items following the one keyed after, at most
// limit of them. The cursor is the key of the page's last item and is only
// set when more remain. An unknown cursor starts from the beginning.
func paginateAfter[T any](items []T, after string, limit int, key func(T) string) ([]T, *string, bool) {
	if after != "" {
		if i := slices.IndexFunc(items, func(item T) bool { return key(item) == after }); i >= 0 {
			items = items[i+1:]
		}
	}
	if len(items) <= limit {
		return items, nil, false
	}
	page := items[:limit]
	if len(page) == 0 {
		return page, nil, true
	}
	next := key(page[len(page)-1])
	return page, &next, true
}
