package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"

	"github.com/tdg5/reqless-go/internal/job"
)

const msgNotObject = "Expected reader to begin with start of object."

// valueType is the JSON type of a raw value, read from its first byte.
type valueType int

const (
	typeInvalid valueType = iota
	typeNull
	typeBool
	typeNumber
	typeString
	typeArray
	typeObject
)

func (t valueType) String() string {
	switch t {
	case typeNull:
		return "null"
	case typeBool:
		return "boolean"
	case typeNumber:
		return "number"
	case typeString:
		return "string"
	case typeArray:
		return "array"
	case typeObject:
		return "object"
	default:
		return "invalid JSON"
	}
}

func typeOf(raw json.RawMessage) valueType {
	raw = bytes.TrimLeft(raw, " \t\r\n")
	if len(raw) == 0 {
		return typeInvalid
	}
	switch c := raw[0]; {
	case c == 'n':
		return typeNull
	case c == 't' || c == 'f':
		return typeBool
	case c == '"':
		return typeString
	case c == '[':
		return typeArray
	case c == '{':
		return typeObject
	case c == '-' || (c >= '0' && c <= '9'):
		return typeNumber
	default:
		return typeInvalid
	}
}

func isFalse(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("false"))
}

// presence is the three-state outcome of looking up a property.
type presence int

const (
	absent presence = iota
	present
	presentNull
)

// object is a JSON object flattened to its root-level properties. Nested
// values stay raw, so keys inside them never shadow root keys.
type object struct {
	fields []job.RawField
	index  map[string]int
}

// parseObject reads the root-level properties of data in source order. A
// repeated key keeps its first position and its last value.
func parseObject(data []byte) (*object, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil || tok != json.Delim('{') {
		return nil, malformedRoot(msgNotObject)
	}

	obj := &object{index: make(map[string]int)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, invalidJSON(err)
		}
		name, ok := tok.(string)
		if !ok {
			return nil, malformedRoot(msgNotObject)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, invalidJSON(err)
		}
		if i, seen := obj.index[name]; seen {
			obj.fields[i].Value = raw
			continue
		}
		obj.index[name] = len(obj.fields)
		obj.fields = append(obj.fields, job.RawField{Name: name, Value: raw})
	}
	if _, err := dec.Token(); err != nil {
		return nil, invalidJSON(err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, malformedRoot("Unexpected data after the end of the JSON object.")
	}
	return obj, nil
}

func invalidJSON(err error) *DecodeError {
	return &DecodeError{Kind: KindMalformedRoot, Message: "Invalid JSON object.", Err: err}
}

func (o *object) len() int { return len(o.fields) }

func (o *object) lookup(name string) (json.RawMessage, presence) {
	i, ok := o.index[name]
	if !ok {
		return nil, absent
	}
	raw := o.fields[i].Value
	if typeOf(raw) == typeNull {
		return raw, presentNull
	}
	return raw, present
}

// require reports the first of names, in the order given, that is absent.
func (o *object) require(names ...string) error {
	for _, name := range names {
		if _, p := o.lookup(name); p == absent {
			return missingField(name)
		}
	}
	return nil
}

// fieldReader extracts typed properties from an object. The first failure
// sticks and turns every later read into a no-op, so a record can be built
// in one composite literal and checked once.
type fieldReader struct {
	obj *object
	err error
}

func newFieldReader(obj *object) *fieldReader {
	return &fieldReader{obj: obj}
}

func (r *fieldReader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

// value returns the raw property, failing on absence and on null unless
// nullable is set.
func (r *fieldReader) value(name string, nullable bool) (json.RawMessage, bool) {
	if r.err != nil {
		return nil, false
	}
	raw, p := r.obj.lookup(name)
	switch {
	case p == absent:
		r.fail(missingField(name))
		return nil, false
	case p == presentNull && !nullable:
		r.fail(nullField(name))
		return nil, false
	}
	return raw, true
}

func (r *fieldReader) string(name string) string {
	raw, ok := r.value(name, false)
	if !ok {
		return ""
	}
	s, err := decodeString(name, raw)
	r.fail(err)
	return s
}

// optionalString reads a string property whose absence the server encodes
// as false or null.
func (r *fieldReader) optionalString(name string) *string {
	raw, ok := r.value(name, true)
	if !ok {
		return nil
	}
	if typeOf(raw) == typeNull || isFalse(raw) {
		return nil
	}
	if t := typeOf(raw); t != typeString {
		r.fail(wrongType(name, "a string, false or null", t))
		return nil
	}
	s, err := decodeString(name, raw)
	if err != nil {
		r.fail(err)
		return nil
	}
	return &s
}

func (r *fieldReader) int64(name string) int64 {
	raw, ok := r.value(name, false)
	if !ok {
		return 0
	}
	n, err := decodeInt64(name, raw)
	r.fail(err)
	return n
}

func (r *fieldReader) int(name string) int {
	raw, ok := r.value(name, false)
	if !ok {
		return 0
	}
	n, err := decodeInt(name, raw)
	r.fail(err)
	return n
}

func (r *fieldReader) bool(name string) bool {
	raw, ok := r.value(name, false)
	if !ok {
		return false
	}
	if t := typeOf(raw); t != typeBool {
		r.fail(wrongType(name, "a boolean", t))
		return false
	}
	return !isFalse(raw)
}

func (r *fieldReader) strings(name string) []string {
	raw, ok := r.value(name, false)
	if !ok {
		return nil
	}
	out, err := CoerceArray(name, "string[]", raw, stringElem(name))
	r.fail(err)
	return out
}

func decodeString(name string, raw json.RawMessage) (string, error) {
	switch t := typeOf(raw); t {
	case typeNull:
		return "", nullField(name)
	case typeString:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", &DecodeError{Kind: KindUnexpectedShape, Field: name, Message: "Invalid string value.", Err: err}
		}
		return s, nil
	default:
		return "", wrongType(name, "a string", t)
	}
}

func decodeInt64(name string, raw json.RawMessage) (int64, error) {
	switch t := typeOf(raw); t {
	case typeNull:
		return 0, nullField(name)
	case typeNumber:
		var n int64
		if err := json.Unmarshal(raw, &n); err != nil {
			return 0, wrongType(name, "an integer", t)
		}
		return n, nil
	default:
		return 0, wrongType(name, "an integer", t)
	}
}

func decodeInt(name string, raw json.RawMessage) (int, error) {
	switch t := typeOf(raw); t {
	case typeNull:
		return 0, nullField(name)
	case typeNumber:
		var n int
		if err := json.Unmarshal(raw, &n); err != nil {
			return 0, wrongType(name, "an integer", t)
		}
		return n, nil
	default:
		return 0, wrongType(name, "an integer", t)
	}
}

// stringElem decodes list elements of the named property.
func stringElem(name string) func(json.RawMessage) (string, error) {
	return func(raw json.RawMessage) (string, error) {
		return decodeString(name+"[]", raw)
	}
}
