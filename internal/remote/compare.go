package remote

import (
	"encoding/json"
	"reflect"
)

// canonical round-trips a value through JSON so that both sides of a
// comparison use the same shape: numbers become float64, structs and maps
// become map[string]interface{}, slices become []interface{}. A numeric
// string and a number stay distinct; the remote's schema is authoritative
// about which one a field holds, so coercing would hide real mismatches.
func canonical(v interface{}) interface{} {
	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return v
	}
	return out
}

// valuesEqual compares two values after canonicalization.
func valuesEqual(a, b interface{}) bool {
	return reflect.DeepEqual(canonical(a), canonical(b))
}
