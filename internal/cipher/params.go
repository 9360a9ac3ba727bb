package cipher

import (
	"fmt"
	"math"

	"github.com/tidwall/gjson"

	"github.com/RowanDark/cryptolab/internal/bytecodec"
)

// ParamsFromJSON decodes an operation parameter document such as
// {"key":"secret","encode_spaces":true}. An empty document yields nil.
func ParamsFromJSON(doc string) (map[string]interface{}, error) {
	if doc == "" {
		return nil, nil
	}
	if !gjson.Valid(doc) {
		return nil, fmt.Errorf("invalid parameter document")
	}
	parsed := gjson.Parse(doc)
	if !parsed.IsObject() {
		return nil, fmt.Errorf("parameter document must be a JSON object")
	}
	params, _ := parsed.Value().(map[string]interface{})
	return params, nil
}

// keyParam resolves key material for an operation. The text form (name) is
// Latin-1 encoded; the list form (name+"_bytes") holds signed integers.
func keyParam(params map[string]interface{}, name string) ([]byte, error) {
	if raw, ok := params[name+"_bytes"]; ok {
		return signedList(name+"_bytes", raw)
	}
	raw, ok := params[name]
	if !ok {
		return nil, fmt.Errorf("%w: missing %q parameter", ErrInvalidKeyLength, name)
	}
	text, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("parameter %q must be a string", name)
	}
	return bytecodec.Encode(text)
}

func signedList(name string, raw interface{}) ([]byte, error) {
	var items []interface{}
	switch v := raw.(type) {
	case []interface{}:
		items = v
	case []int:
		for _, n := range v {
			items = append(items, float64(n))
		}
	case []byte:
		return append([]byte(nil), v...), nil
	default:
		return nil, fmt.Errorf("parameter %q must be a list of integers", name)
	}

	out := make([]byte, len(items))
	for i, item := range items {
		n, ok := number(item)
		if !ok || n != math.Trunc(n) || n < -128 || n > 255 {
			return nil, fmt.Errorf("parameter %q: element %d is not a byte value", name, i)
		}
		out[i] = bytecodec.Residue(int(n))
	}
	return out, nil
}

func number(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int8:
		return float64(n), true
	default:
		return 0, false
	}
}

func boolParam(params map[string]interface{}, name string) bool {
	v, _ := params[name].(bool)
	return v
}
