package mapping

import (
	"encoding/json"

	"github.com/bytedance/sonic"
	"github.com/tidwall/gjson"
)

// numberAPI decodes numbers as json.Number so integers wider than 53 bits
// keep every digit through a decode and re-encode.
var numberAPI = sonic.Config{UseNumber: true}.Froze()

// Decode parses body into a JSON-shaped value. Numbers come back as
// json.Number.
func Decode(body []byte) (any, error) {
	var v any
	if err := numberAPI.Unmarshal(body, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// resultValue converts a gjson result into a JSON-shaped value without
// passing numbers through float64.
func resultValue(r gjson.Result) (any, error) {
	switch {
	case r.Type == gjson.Number && r.Raw != "":
		return json.Number(r.Raw), nil
	case r.Type == gjson.JSON:
		return Decode([]byte(r.Raw))
	default:
		return r.Value(), nil
	}
}
