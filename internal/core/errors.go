package core

import "errors"

// Kind classifies an error for the transport layer.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindNotFound
	KindAuth
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation_error"
	case KindConflict:
		return "conflict_error"
	case KindNotFound:
		return "not_found_error"
	case KindAuth:
		return "auth_error"
	default:
		return "internal_error"
	}
}

// Error is a classified error with a message safe to show to clients.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

var (
	ErrMissingFields   = &Error{Kind: KindValidation, Message: "Missing required fields"}
	ErrInvalidAmount   = &Error{Kind: KindValidation, Message: "Invalid amount"}
	ErrInvalidDate     = &Error{Kind: KindValidation, Message: "Invalid date, expected YYYY-MM-DD"}
	ErrCategoryTooLong = &Error{Kind: KindValidation, Message: "Category too long"}
	ErrMalformedBody   = &Error{Kind: KindValidation, Message: "Malformed request body"}

	ErrAccountExists = &Error{Kind: KindConflict, Message: "User already exists"}

	ErrAccountNotFound = &Error{Kind: KindNotFound, Message: "User not found"}
	ErrExpenseNotFound = &Error{Kind: KindNotFound, Message: "Expense not found"}

	// ErrInvalidCredentials is reported as a bad request, not 401, to keep
	// the login contract.
	ErrInvalidCredentials = &Error{Kind: KindAuth, Message: "Invalid Email or Password"}
	ErrUnauthenticated    = &Error{Kind: KindAuth, Message: "Invalid session"}
)

// Internal wraps err as an internal failure.
func Internal(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// KindOf returns the kind of the first classified error in err's chain.
// Unclassified errors are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the client-facing message for err. Internal errors never
// leak their cause.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Message
	}
	return "Internal Server Error"
}
