package codec

import (
	"errors"
	"fmt"
)

// Kind classifies a decode failure.
type Kind int

const (
	// KindMalformedRoot means the top-level value is not the expected container.
	KindMalformedRoot Kind = iota + 1
	// KindMissingField means a declared property is absent.
	KindMissingField
	// KindNullField means a non-nullable property is present but null.
	KindNullField
	// KindUnexpectedShape means a property holds an incompatible JSON type.
	KindUnexpectedShape
	// KindNestedDecode means an element of a composite property failed to decode.
	KindNestedDecode
)

func (k Kind) String() string {
	switch k {
	case KindMalformedRoot:
		return "malformed_root"
	case KindMissingField:
		return "missing_field"
	case KindNullField:
		return "null_field"
	case KindUnexpectedShape:
		return "unexpected_shape"
	case KindNestedDecode:
		return "nested_decode"
	default:
		return "unknown"
	}
}

// Sentinels matched by errors.Is against any *DecodeError in a chain.
var (
	ErrMalformedRoot   = errors.New("codec: malformed root")
	ErrMissingField    = errors.New("codec: missing required field")
	ErrNullField       = errors.New("codec: null required field")
	ErrUnexpectedShape = errors.New("codec: unexpected shape")
	ErrNestedDecode    = errors.New("codec: nested decode failure")
)

var kindSentinels = map[Kind]error{
	KindMalformedRoot:   ErrMalformedRoot,
	KindMissingField:    ErrMissingField,
	KindNullField:       ErrNullField,
	KindUnexpectedShape: ErrUnexpectedShape,
	KindNestedDecode:    ErrNestedDecode,
}

// DecodeError is the single error type returned by every decoder. Field names
// the offending property; it is empty for root-level failures.
type DecodeError struct {
	Kind    Kind
	Field   string
	Message string
	Err     error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return e.Message + " " + e.Err.Error()
	}
	return e.Message
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Is matches the sentinel for the error's kind.
func (e *DecodeError) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

func malformedRoot(msg string) *DecodeError {
	return &DecodeError{Kind: KindMalformedRoot, Message: msg}
}

func missingField(name string) *DecodeError {
	return &DecodeError{
		Kind:    KindMissingField,
		Field:   name,
		Message: fmt.Sprintf("Required property '%s' not found.", name),
	}
}

func nullField(name string) *DecodeError {
	return &DecodeError{
		Kind:    KindNullField,
		Field:   name,
		Message: fmt.Sprintf("Value cannot be null. (Parameter '%s')", name),
	}
}

func unexpectedShape(name, msg string) *DecodeError {
	return &DecodeError{Kind: KindUnexpectedShape, Field: name, Message: msg}
}

func wrongType(name, want string, got valueType) *DecodeError {
	return unexpectedShape(name, fmt.Sprintf("Expected '%s' to be %s, got %s.", name, want, got))
}

func nestedDecode(name, target string, err error) *DecodeError {
	return &DecodeError{
		Kind:    KindNestedDecode,
		Field:   name,
		Message: fmt.Sprintf("Failed to deserialize '%s' property into a %s.", name, target),
		Err:     err,
	}
}

// KindOf returns the kind of the outermost *DecodeError in err's chain, or 0.
func KindOf(err error) Kind {
	var de *DecodeError
	if errors.As(err, &de) {
		return de.Kind
	}
	return 0
}
