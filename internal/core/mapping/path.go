package mapping

import (
	"strconv"
	"strings"
)

// wildcardSep separates the array prefix from the per-item suffix.
const wildcardSep = ".*."

// ExtractNestedValue resolves path against obj.
//
// Supported forms:
//
//	"a.b.c"        plain dotted traversal
//	"a.items[2].b" indexed segment
//	"a.items.2.b"  numeric segment on an array
//	"a.b.*.c.d"    one wildcard: resolve "a.b", then "c.d" on every element
//
// Anything that cannot be traversed resolves to NoValue; it never panics.
func ExtractNestedValue(obj any, path string) any {
	if path == "" {
		return NoValue
	}

	if prefix, suffix, ok := strings.Cut(path, wildcardSep); ok {
		items, isArray := resolve(obj, prefix).([]any)
		if !isArray {
			return NoValue
		}
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = resolve(item, suffix)
		}
		return out
	}

	return resolve(obj, path)
}

func resolve(obj any, path string) any {
	current := obj
	for _, segment := range strings.Split(path, ".") {
		if current == nil {
			return NoValue
		}
		current = step(current, segment)
	}
	return current
}

func step(current any, segment string) any {
	name, index, indexed := splitIndex(segment)

	var value any
	switch node := current.(type) {
	case map[string]any:
		if name == "" && indexed {
			return NoValue
		}
		value = node[name]
	case []any:
		// "items.0" addresses an element directly.
		if indexed && name == "" {
			value = node
			break
		}
		i, err := strconv.Atoi(name)
		if err != nil || i < 0 || i >= len(node) {
			return NoValue
		}
		value = node[i]
	default:
		return NoValue
	}

	if !indexed {
		return value
	}
	items, ok := value.([]any)
	if !ok || index < 0 || index >= len(items) {
		return NoValue
	}
	return items[index]
}

// splitIndex splits "name[N]" into ("name", N, true). Segments without a
// well-formed numeric suffix are returned unchanged.
func splitIndex(segment string) (string, int, bool) {
	if !strings.HasSuffix(segment, "]") {
		return segment, 0, false
	}
	open := strings.LastIndexByte(segment, '[')
	if open < 0 {
		return segment, 0, false
	}
	index, err := strconv.Atoi(segment[open+1 : len(segment)-1])
	if err != nil {
		return segment, 0, false
	}
	return segment[:open], index, true
}
