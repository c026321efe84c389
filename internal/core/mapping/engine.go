package mapping

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jhlee0409/cushion/internal/pkg/logger"
)

// FieldError reports why a single stable key resolved to NoValue.
type FieldError struct {
	Key string
	Err error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q: %v", e.Key, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// Engine applies mappings to data. It holds no state besides its custom
// mapper registry and is safe for concurrent use.
type Engine struct {
	mappers  *Mappers
	log      *zap.Logger
	builtins bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for field-level warnings.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithMappers shares an existing mapper registry.
func WithMappers(m *Mappers) Option {
	return func(e *Engine) { e.mappers = m }
}

// WithoutBuiltins skips registering the gjson mapper.
func WithoutBuiltins() Option {
	return func(e *Engine) { e.builtins = false }
}

// NewEngine creates an Engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{builtins: true}
	for _, opt := range opts {
		opt(e)
	}
	e.log = logger.Component(e.log, "mapping")
	if e.mappers == nil {
		e.mappers = NewMappers()
	}
	e.registerBuiltins()
	return e
}

func (e *Engine) registerBuiltins() {
	if !e.builtins {
		return
	}
	_ = e.mappers.Register(GJSONMapperName, GJSONMapper)
}

// Mappers returns the engine's custom mapper registry.
func (e *Engine) Mappers() *Mappers {
	return e.mappers
}

// ResetMappers drops every custom mapper and restores the built-ins.
func (e *Engine) ResetMappers() {
	e.mappers.Clear()
	e.registerBuiltins()
}

// Absorb reshapes data according to m. Scalars and nil pass through
// unchanged, arrays are absorbed element by element, and objects become a
// map holding exactly the keys of m. Field failures are logged and yield
// NoValue; Absorb itself never fails.
func (e *Engine) Absorb(data any, m Mapping) any {
	return e.absorb(data, m, func(fe *FieldError) {
		e.log.Warn("field extraction failed", logger.Field(fe.Key), zap.Error(fe.Err))
	})
}

// AbsorbStrict behaves like Absorb but also returns every field failure
// joined into one error.
func (e *Engine) AbsorbStrict(data any, m Mapping) (any, error) {
	var errs []error
	result := e.absorb(data, m, func(fe *FieldError) {
		errs = append(errs, fe)
	})
	return result, errors.Join(errs...)
}

func (e *Engine) absorb(data any, m Mapping, onErr func(*FieldError)) any {
	switch src := data.(type) {
	case []any:
		out := make([]any, len(src))
		for i, item := range src {
			out[i] = e.absorb(item, m, onErr)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(m))
		for key, field := range m {
			value, err := e.resolveField(src, field)
			if err != nil {
				onErr(&FieldError{Key: key, Err: err})
				value = NoValue
			}
			out[key] = value
		}
		return out
	default:
		return data
	}
}

func (e *Engine) resolveField(src map[string]any, field Field) (any, error) {
	switch field.kind {
	case KindPath:
		return ExtractNestedValue(src, field.path), nil
	case KindFunc:
		if field.fn == nil {
			return NoValue, errors.New("nil transform function")
		}
		return safeCall(func() (any, error) { return field.fn(src) })
	case KindMapper:
		return e.customMapper(field.mapper, src, field.path)
	default:
		return NoValue, fmt.Errorf("unsupported field kind %s", field.kind)
	}
}

// ApplyCustomMapper runs the extractor registered under name. Unknown names
// and extractor failures are logged and yield NoValue.
func (e *Engine) ApplyCustomMapper(name string, data any, path string) any {
	value, err := e.customMapper(name, data, path)
	if err != nil {
		e.log.Warn("custom mapper failed", logger.Mapper(name), zap.Error(err))
		return NoValue
	}
	return value
}

func (e *Engine) customMapper(name string, data any, path string) (any, error) {
	fn, ok := e.mappers.Get(name)
	if !ok {
		return NoValue, fmt.Errorf("%w: %s", ErrUnknownMapper, name)
	}
	return safeCall(func() (any, error) { return fn(data, path) })
}

// safeCall turns a panic in user code into an error.
func safeCall(fn func() (any, error)) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			value = NoValue
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	value, err = fn()
	if err != nil {
		return NoValue, err
	}
	return value, nil
}
