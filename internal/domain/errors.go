package domain

import (
	"errors"
	"fmt"
)

// Store-level sentinels. Repositories wrap driver errors with these.
var (
	ErrNotFound     = errors.New("not found")
	ErrDuplicateKey = errors.New("duplicate key")
)

type Kind int

const (
	KindValidation Kind = iota + 1
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindUpstream
	KindIntegrity
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUpstream:
		return "upstream"
	case KindIntegrity:
		return "integrity"
	default:
		return "unknown"
	}
}

const (
	CodeInvalidInput            = "InvalidInput"
	CodeProductNotFound         = "ProductNotFound"
	CodeInsufficientStock       = "InsufficientStock"
	CodeInvalidQuantity         = "InvalidQuantity"
	CodeInvalidPrice            = "InvalidPrice"
	CodePaymentNotCompleted     = "PaymentNotCompleted"
	CodeMissingSessionMetadata  = "MissingSessionMetadata"
	CodeInvalidSignature        = "InvalidSignature"
	CodeOrderNotFound           = "OrderNotFound"
	CodeUserNotFound            = "UserNotFound"
	CodeEmailTaken              = "EmailTaken"
	CodeInvalidCredentials      = "InvalidCredentials"
	CodeInvalidStatusTransition = "InvalidStatusTransition"
	CodeGatewayFailure          = "GatewayFailure"
	CodeUnauthenticated         = "Unauthenticated"
	CodeForbidden               = "Forbidden"
)

// Error is the application error carried from usecases to the transport.
// Message is safe to show to the caller; Err holds the internal cause.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, code string, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

func Validation(code, format string, args ...any) *Error {
	return newError(KindValidation, code, nil, format, args...)
}

func NotFound(code, format string, args ...any) *Error {
	return newError(KindNotFound, code, nil, format, args...)
}

func Conflict(code, format string, args ...any) *Error {
	return newError(KindConflict, code, nil, format, args...)
}

func Unauthorized(format string, args ...any) *Error {
	return newError(KindUnauthorized, CodeUnauthenticated, nil, format, args...)
}

func Forbidden(format string, args ...any) *Error {
	return newError(KindForbidden, CodeForbidden, nil, format, args...)
}

func Upstream(err error, format string, args ...any) *Error {
	return newError(KindUpstream, CodeGatewayFailure, err, format, args...)
}

func Integrity(code string, err error, format string, args ...any) *Error {
	return newError(KindIntegrity, code, err, format, args...)
}

// KindOf reports the kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return 0
}

// HasCode reports whether err carries the given application error code.
func HasCode(err error, code string) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Code == code
}
