package codec

import (
	"encoding/json"
	"fmt"
)

// CoerceArray decodes a property that is contractually a list. The reqless
// scripts cannot tell an empty list from an empty table, so an empty object
// is read as the empty list; any other object is rejected. Element failures
// are reported as a nested failure into target (for example "string[]").
//
// The result is never nil on success.
func CoerceArray[T any](field, target string, raw json.RawMessage, decodeElem func(json.RawMessage) (T, error)) ([]T, error) {
	switch t := typeOf(raw); t {
	case typeNull:
		return nil, nullField(field)
	case typeObject:
		obj, err := parseObject(raw)
		if err != nil {
			return nil, nestedDecode(field, target, err)
		}
		if n := obj.len(); n > 0 {
			noun := "properties"
			if n == 1 {
				noun = "property"
			}
			return nil, unexpectedShape(field, fmt.Sprintf(
				"Expected '%s' to be an array or an empty object, got an object with %d %s.", field, n, noun))
		}
		return []T{}, nil
	case typeArray:
		var elems []json.RawMessage
		if err := json.Unmarshal(raw, &elems); err != nil {
			return nil, nestedDecode(field, target, err)
		}
		out := make([]T, 0, len(elems))
		for _, elem := range elems {
			v, err := decodeElem(elem)
			if err != nil {
				return nil, nestedDecode(field, target, err)
			}
			out = append(out, v)
		}
		return out, nil
	default:
		return nil, wrongType(field, "an array or an empty object", t)
	}
}
