package evaluation

import (
	"bytes"
	"encoding/json"
	"sort"
)

// orderedMap implements json.Marshaler to produce JSON with sorted keys.
// This ensures deterministic output for map[string]interface{} regardless of Go's random map iteration order.
type orderedMap struct {
	pairs [][2]interface{}
}

// MarshalJSON produces a JSON object with keys in the order stored in pairs.
func (o orderedMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, pair := range o.pairs {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(pair[0])
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(pair[1])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// canonicalizeValue recursively transforms a value to use orderedMap for all maps,
// ensuring consistent key ordering during JSON serialization.
func canonicalizeValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		if len(val) == 0 {
			return val
		}
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		pairs := make([][2]interface{}, len(keys))
		for i, k := range keys {
			pairs[i] = [2]interface{}{k, canonicalizeValue(val[k])}
		}
		return orderedMap{pairs: pairs}
	case []interface{}:
		result := make([]interface{}, len(val))
		for i, item := range val {
			result[i] = canonicalizeValue(item)
		}
		return result
	default:
		return v
	}
}

// CanonicalJSONMarshal produces deterministic JSON with sorted map keys at
// all nesting levels, so the uploader's JSON-stringified job output and raw
// score values are identical byte-for-byte whenever the underlying data is.
func CanonicalJSONMarshal(v interface{}) ([]byte, error) {
	return json.Marshal(canonicalizeValue(v))
}
