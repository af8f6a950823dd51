package risp

import "fmt"

// ErrorKind classifies interpreter failures.
type ErrorKind int

const (
	ErrorEOF ErrorKind = iota
	ErrorUnbalancedList
	ErrorUnknownSymbol
	ErrorInvalidNumber
	ErrorInvalidArgument
	ErrorInvalidApply
	ErrorNotCallable
	ErrorNotIterable
	ErrorUser
	ErrorNumberConversion
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorEOF:
		return "unexpected end of input"
	case ErrorUnbalancedList:
		return "unbalanced list"
	case ErrorUnknownSymbol:
		return "unknown symbol"
	case ErrorInvalidNumber:
		return "invalid number"
	case ErrorInvalidArgument:
		return "invalid argument"
	case ErrorInvalidApply:
		return "invalid apply"
	case ErrorNotCallable:
		return "not callable"
	case ErrorNotIterable:
		return "not iterable"
	case ErrorUser:
		return "uncaught exception"
	case ErrorNumberConversion:
		return "number conversion"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Error is the single error type produced by the reader, the evaluator
// and the primitives. Name holds the offending symbol or token, Value the
// payload of a thrown form, Op the primitive or special form that failed.
type Error struct {
	Kind   ErrorKind
	Op     string
	Name   string
	Detail string
	Value  Form
}

// Sentinels for errors.Is. Matching compares Kind only.
var (
	ErrEOF              = &Error{Kind: ErrorEOF}
	ErrUnbalancedList   = &Error{Kind: ErrorUnbalancedList}
	ErrUnknownSymbol    = &Error{Kind: ErrorUnknownSymbol}
	ErrInvalidNumber    = &Error{Kind: ErrorInvalidNumber}
	ErrInvalidArgument  = &Error{Kind: ErrorInvalidArgument}
	ErrInvalidApply     = &Error{Kind: ErrorInvalidApply}
	ErrNotCallable      = &Error{Kind: ErrorNotCallable}
	ErrNotIterable      = &Error{Kind: ErrorNotIterable}
	ErrUser             = &Error{Kind: ErrorUser}
	ErrNumberConversion = &Error{Kind: ErrorNumberConversion}
)

func (e *Error) Error() string {
	var msg string
	switch e.Kind {
	case ErrorUnknownSymbol:
		msg = fmt.Sprintf("'%s' not found", e.Name)
	case ErrorInvalidNumber:
		msg = fmt.Sprintf("invalid number %q", e.Name)
	case ErrorUser:
		msg = fmt.Sprintf("%s: %s", e.Kind, PrStr(e.Value, true))
	default:
		msg = e.Kind.String()
		if e.Detail != "" {
			msg += ": " + e.Detail
		}
	}
	if e.Op != "" {
		return e.Op + ": " + msg
	}
	return msg
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// UserError wraps a thrown form.
func UserError(payload Form) error {
	return &Error{Kind: ErrorUser, Value: payload}
}

func errEOF(detail string) error {
	return &Error{Kind: ErrorEOF, Detail: detail}
}

func unbalanced(detail string) error {
	return &Error{Kind: ErrorUnbalancedList, Detail: detail}
}

func unknownSymbol(name string) error {
	return &Error{Kind: ErrorUnknownSymbol, Name: name}
}

func invalidNumber(token string) error {
	return &Error{Kind: ErrorInvalidNumber, Name: token}
}

func invalidArgf(format string, args ...any) error {
	return &Error{Kind: ErrorInvalidArgument, Detail: fmt.Sprintf(format, args...)}
}

func invalidApplyf(format string, args ...any) error {
	return &Error{Kind: ErrorInvalidApply, Detail: fmt.Sprintf(format, args...)}
}

func notCallable(f Form) error {
	return &Error{Kind: ErrorNotCallable, Detail: fmt.Sprintf("%s is not a function", PrStr(f, true)), Value: f}
}

func notIterable(f Form) error {
	return &Error{Kind: ErrorNotIterable, Detail: fmt.Sprintf("cannot iterate over %s", f.KindName()), Value: f}
}

func numberConversionf(format string, args ...any) error {
	return &Error{Kind: ErrorNumberConversion, Detail: fmt.Sprintf(format, args...)}
}

// withOp labels err with the name of the operation that produced it,
// unless it already carries one.
func withOp(op string, err error) error {
	e, ok := err.(*Error)
	if !ok || e.Op != "" {
		return err
	}
	switch e.Kind {
	case ErrorInvalidArgument, ErrorNumberConversion, ErrorNotIterable:
	default:
		return err
	}
	labeled := *e
	labeled.Op = op
	return &labeled
}
