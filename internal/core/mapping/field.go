// Package mapping turns arbitrary JSON-shaped values into a stable shape
// described by a Mapping.
//
// JSON-shaped means the values Decode produces: map[string]any, []any,
// string, json.Number, bool, nil. Plain float64 and int values are accepted
// too and treated as scalars.
package mapping

import (
	"sort"
)

// NoValue marks a field that could not be resolved. It encodes as JSON null
// and the field key is still present in the output.
var NoValue any

// Kind tags which variant a Field holds.
type Kind int

const (
	// KindPath extracts a dotted/indexed/wildcard path from the source.
	KindPath Kind = iota
	// KindFunc derives the value from the whole source object.
	KindFunc
	// KindMapper delegates extraction to a named custom extractor.
	KindMapper
)

func (k Kind) String() string {
	switch k {
	case KindPath:
		return "path"
	case KindFunc:
		return "func"
	case KindMapper:
		return "mapper"
	default:
		return "unknown"
	}
}

// TransformFunc computes a field from the whole source object.
type TransformFunc func(src any) (any, error)

// Field is a single field instruction. Build one with Path, Func or Mapper.
type Field struct {
	kind   Kind
	path   string
	mapper string
	fn     TransformFunc
}

// Path returns an instruction that extracts p from the source.
func Path(p string) Field {
	return Field{kind: KindPath, path: p}
}

// Func returns an instruction that calls fn with the whole source object.
func Func(fn TransformFunc) Field {
	return Field{kind: KindFunc, fn: fn}
}

// Mapper returns an instruction that hands path to the custom extractor
// registered under name.
func Mapper(name, path string) Field {
	return Field{kind: KindMapper, mapper: name, path: path}
}

// String describes the instruction, e.g. "path user.name" or
// "mapper gjson:tags.#.name".
func (f Field) String() string {
	switch f.kind {
	case KindPath:
		return "path " + f.path
	case KindMapper:
		return "mapper " + f.mapper + ":" + f.path
	default:
		return f.kind.String()
	}
}

// Mapping associates each stable output key with its field instruction.
type Mapping map[string]Field

// FromPaths builds a Mapping where every key uses a path instruction.
func FromPaths(paths map[string]string) Mapping {
	m := make(Mapping, len(paths))
	for key, p := range paths {
		m[key] = Path(p)
	}
	return m
}

// Keys returns the stable keys in sorted order.
func (m Mapping) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
