package preview

import "fmt"

type Kind int

const (
	KindOpen Kind = iota + 1
	KindDecode
	KindScale
	KindEncode
)

func (k Kind) String() string {
	switch k {
	case KindOpen:
		return "open"
	case KindDecode:
		return "decode"
	case KindScale:
		return "scale"
	case KindEncode:
		return "encode"
	default:
		return "unknown"
	}
}

// Error is an extraction failure tagged with the pipeline stage that raised it.
// Match stages with errors.Is(err, ErrDecode) etc.
type Error struct {
	Kind Kind
	Err  error
}

var (
	ErrOpen   = &Error{Kind: KindOpen}
	ErrDecode = &Error{Kind: KindDecode}
	ErrScale  = &Error{Kind: KindScale}
	ErrEncode = &Error{Kind: KindEncode}
)

func newError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String() + " error"
	}
	return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Err == nil && t.Kind == e.Kind
}
