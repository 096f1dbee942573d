package imgcodec

import "fmt"

// ErrorKind classifies why a decode failed.
type ErrorKind int

const (
	// EmptyInput means no text was supplied.
	EmptyInput ErrorKind = iota + 1
	// InvalidEncoding means the text is not well-formed Base64 once the
	// scheme marker is removed.
	InvalidEncoding
	// UnloadableImage means the Base64 is well-formed but the bytes are not
	// an image the loader accepts.
	UnloadableImage
)

func (k ErrorKind) String() string {
	switch k {
	case EmptyInput:
		return "EmptyInput"
	case InvalidEncoding:
		return "InvalidEncoding"
	case UnloadableImage:
		return "UnloadableImage"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Message is the user-facing text for the kind.
func (k ErrorKind) Message() string {
	switch k {
	case EmptyInput:
		return "please enter a Base64 string"
	case InvalidEncoding:
		return "invalid Base64 image encoding"
	case UnloadableImage:
		return "Base64 payload is not a loadable image"
	default:
		return "decode failed"
	}
}

// Sentinels for errors.Is. Any *DecodeError matches the sentinel of its kind.
var (
	ErrEmptyInput      = &DecodeError{Kind: EmptyInput}
	ErrInvalidEncoding = &DecodeError{Kind: InvalidEncoding}
	ErrUnloadableImage = &DecodeError{Kind: UnloadableImage}
)

// DecodeError is returned by Decoder for every classified failure.
type DecodeError struct {
	Kind ErrorKind
	// Err is the underlying cause, if any.
	Err error
}

func (e *DecodeError) Error() string {
	if e.Err == nil {
		return e.Kind.Message()
	}
	return fmt.Sprintf("%s: %v", e.Kind.Message(), e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is matches any *DecodeError with the same Kind.
func (e *DecodeError) Is(target error) bool {
	t, ok := target.(*DecodeError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func newDecodeError(kind ErrorKind, err error) *DecodeError {
	return &DecodeError{Kind: kind, Err: err}
}
