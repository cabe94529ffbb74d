package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorNamespace is the namespace URI of the standard XPath/XQuery error codes.
const ErrorNamespace = "http://www.w3.org/2005/xqt-errors"

// ErrorCode represents an XPath error code (the local part of an err:* QName).
type ErrorCode string

// Error codes from the XPath 2.0 and Functions & Operators specifications.
const (
	// XPST: static errors
	ErrSyntax              ErrorCode = "XPST0003"
	ErrUndefinedName       ErrorCode = "XPST0008"
	ErrUnknownFunction     ErrorCode = "XPST0017"
	ErrUnknownAtomicType   ErrorCode = "XPST0051"
	ErrNotationCast        ErrorCode = "XPST0080"
	ErrUnknownPrefix       ErrorCode = "XPST0081"
	ErrStaticContextAbsent ErrorCode = "XPDY0002"

	// XPTY: type errors
	ErrType            ErrorCode = "XPTY0004"
	ErrPathMixed       ErrorCode = "XPTY0018"
	ErrPathStepNotNode ErrorCode = "XPTY0019"
	ErrContextNotNode  ErrorCode = "XPTY0020"
	ErrTreatMismatch   ErrorCode = "XPDY0050"

	// FOAR / FOCA: arithmetic and casting
	ErrDivisionByZero   ErrorCode = "FOAR0001"
	ErrNumericOverflow  ErrorCode = "FOAR0002"
	ErrInvalidDecimal   ErrorCode = "FOCA0001"
	ErrInvalidLexical   ErrorCode = "FOCA0002"
	ErrIntegerTooLarge  ErrorCode = "FOCA0003"
	ErrNaNInDuration    ErrorCode = "FOCA0005"
	ErrDurationOverflow ErrorCode = "FODT0002"
	ErrInvalidTimezone  ErrorCode = "FODT0003"

	// FOCH: strings and collations
	ErrInvalidCodepoint    ErrorCode = "FOCH0001"
	ErrUnknownCollation    ErrorCode = "FOCH0002"
	ErrUnsupportedNormForm ErrorCode = "FOCH0003"

	// FODC: documents
	ErrDocRetrieval     ErrorCode = "FODC0002"
	ErrNoDefaultColl    ErrorCode = "FODC0004"
	ErrInvalidDocURI    ErrorCode = "FODC0005"
	ErrInvalidURI       ErrorCode = "FORG0002"
	ErrNoNamespacePfx   ErrorCode = "FONS0004"
	ErrNoBaseURI        ErrorCode = "FONS0005"
	ErrNoContextForRoot ErrorCode = "FODC0001"

	// FORG: general function errors
	ErrCast              ErrorCode = "FORG0001"
	ErrZeroOrOne         ErrorCode = "FORG0003"
	ErrOneOrMore         ErrorCode = "FORG0004"
	ErrExactlyOne        ErrorCode = "FORG0005"
	ErrInvalidArgument   ErrorCode = "FORG0006"
	ErrDateTimeTimezones ErrorCode = "FORG0008"

	// FORX: regular expressions
	ErrRegexFlags       ErrorCode = "FORX0001"
	ErrRegexPattern     ErrorCode = "FORX0002"
	ErrRegexEmptyMatch  ErrorCode = "FORX0003"
	ErrRegexReplacement ErrorCode = "FORX0004"

	// FOER: fn:error and implementation-defined failures
	ErrUserError ErrorCode = "FOER0000"
)

// Error represents a structured XPath error.
type Error struct {
	Code     ErrorCode
	Message  string
	Position int
	Token    string
	Err      error

	// Namespace overrides ErrorNamespace for codes raised by fn:error with a
	// custom QName.
	Namespace string
	// Value is the optional third argument passed to fn:error, stringified.
	Value string
}

// NewError creates a new XPath error.
func NewError(code ErrorCode, message string, position int) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Position: position,
	}
}

// Errorf creates a dynamic error (no source position) with a formatted message.
func Errorf(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Position: -1,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Position >= 0 {
		return fmt.Sprintf("%s at position %d: %s", e.QName(), e.Position, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.QName(), e.Message)
}

// QName returns the error code as a lexical QName, err:CODE for the
// standard namespace.
func (e *Error) QName() string {
	if e.Namespace != "" && e.Namespace != ErrorNamespace {
		return "{" + e.Namespace + "}" + string(e.Code)
	}
	return "err:" + string(e.Code)
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithToken adds token information to the error.
func (e *Error) WithToken(token string) *Error {
	e.Token = token
	return e
}

// WithCause wraps another error.
func (e *Error) WithCause(err error) *Error {
	e.Err = err
	return e
}

// WithPosition sets the source position of the error.
func (e *Error) WithPosition(pos int) *Error {
	e.Position = pos
	return e
}

// IsStatic reports whether the error was detected at parse or compile time.
func (e *Error) IsStatic() bool {
	return strings.HasPrefix(string(e.Code), "XPST")
}

// Is matches another *Error by code, so errors.Is(err, types.NewError(code, "", -1))
// works regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code && (t.Namespace == "" || t.Namespace == e.Namespace)
}

// CodeOf extracts the XPath error code from err. It returns "" when err
// carries none.
func CodeOf(err error) ErrorCode {
	var xe *Error
	if errors.As(err, &xe) {
		return xe.Code
	}
	return ""
}
