package mapping

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/tidwall/gjson"
)

var (
	ErrUnknownMapper = errors.New("no custom mapper registered under this name")
	ErrInvalidMapper = errors.New("custom mapper needs a name and a function")
)

// GJSONMapperName is the built-in mapper that evaluates full gjson syntax.
const GJSONMapperName = "gjson"

// MapperFunc extracts a value from data using its own interpretation of path.
type MapperFunc func(data any, path string) (any, error)

// Mappers is a name-keyed registry of custom extractors.
type Mappers struct {
	mu sync.RWMutex
	m  map[string]MapperFunc
}

// NewMappers returns an empty registry.
func NewMappers() *Mappers {
	return &Mappers{m: make(map[string]MapperFunc)}
}

// Register stores fn under name, replacing any previous extractor.
func (r *Mappers) Register(name string, fn MapperFunc) error {
	if name == "" || fn == nil {
		return ErrInvalidMapper
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[name] = fn
	return nil
}

// Get looks up the extractor registered under name.
func (r *Mappers) Get(name string) (MapperFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.m[name]
	return fn, ok
}

// Remove deletes the extractor registered under name.
func (r *Mappers) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.m, name)
}

// Clear removes every extractor.
func (r *Mappers) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m = make(map[string]MapperFunc)
}

// Names lists registered extractor names in sorted order.
func (r *Mappers) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.m))
	for name := range r.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GJSONMapper evaluates path with gjson against the JSON encoding of data.
// It understands everything gjson does: "#" counts, "#.field" projections,
// "#(cond)" queries, modifiers and multipaths.
func GJSONMapper(data any, path string) (any, error) {
	raw, err := sonic.Marshal(data)
	if err != nil {
		return NoValue, fmt.Errorf("failed to encode source for gjson: %w", err)
	}
	result := gjson.GetBytes(raw, path)
	if !result.Exists() {
		return NoValue, nil
	}
	return resultValue(result)
}
