package cushion

import (
	"net/http"
	"sync"
)

var (
	defaultOnce    sync.Once
	defaultCushion *Cushion
)

// Default returns the process-wide Cushion bound to http.DefaultClient.
// The package-level functions operate on it.
func Default() *Cushion {
	defaultOnce.Do(func() {
		defaultCushion = New()
	})
	return defaultCushion
}

func SetupCushion(pattern string, v any) error      { return Default().SetupCushion(pattern, v) }
func SetupCushions(rules map[string]any) error      { return Default().SetupCushions(rules) }
func RemoveCushion(pattern string)                  { Default().RemoveCushion(pattern) }
func ClearAll()                                     { Default().ClearAll() }
func LoadRules(rules Rules) error                   { return Default().LoadRules(rules) }
func Absorb(data any, m Mapping) any                { return Default().Absorb(data, m) }
func AbsorbStrict(data any, m Mapping) (any, error) { return Default().AbsorbStrict(data, m) }
func Use(p Plugin) (bool, error)                    { return Default().Use(p) }
func RemovePlugin(name string) bool                 { return Default().RemovePlugin(name) }
func OnRequest(h RequestHook)                       { Default().OnRequest(h) }
func OnResponse(h ResponseHook)                     { Default().OnResponse(h) }
func OnAbsorb(h AbsorbHook)                         { Default().OnAbsorb(h) }
func AddMapper(name string, fn MapperFunc) error    { return Default().AddMapper(name, fn) }
func Activate()                                     { Default().Activate() }
func Deactivate()                                   { Default().Deactivate() }
func IsActive() bool                                { return Default().IsActive() }
func Reset()                                        { Default().Reset() }

func Transport(base http.RoundTripper) http.RoundTripper { return Default().Transport(base) }
