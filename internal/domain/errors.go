// File: internal/domain/errors.go
package domain

import "fmt"

type ErrorType string

const (
    ErrTypeIngestion            ErrorType = "INGESTION"
    ErrTypeCompletion           ErrorType = "COMPLETION"
    ErrTypeStorage              ErrorType = "STORAGE"
    ErrTypeReferentialIntegrity ErrorType = "REFERENTIAL_INTEGRITY"
    ErrTypeInvalidArgument      ErrorType = "INVALID_ARGUMENT"
    ErrTypePrecondition         ErrorType = "PRECONDITION"
    ErrTypeNotFound             ErrorType = "NOT_FOUND"
)

// Error is the typed error shared by the store, the session and the handlers.
type Error struct {
    Type      ErrorType
    Operation string
    Message   string
    Cause     error
}

func (e *Error) Error() string {
    if e.Cause != nil {
        return fmt.Sprintf("%s error in %s: %s (caused by: %v)", e.Type, e.Operation, e.Message, e.Cause)
    }
    return fmt.Sprintf("%s error in %s: %s", e.Type, e.Operation, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches any *Error of the same type, so errors.Is(err, ErrStorage) works
// regardless of operation or message.
func (e *Error) Is(target error) bool {
    t, ok := target.(*Error)
    if !ok {
        return false
    }
    return t.Type == e.Type
}

// Sentinels for errors.Is checks.
var (
    ErrStorage              = &Error{Type: ErrTypeStorage}
    ErrReferentialIntegrity = &Error{Type: ErrTypeReferentialIntegrity}
    ErrInvalidArgument      = &Error{Type: ErrTypeInvalidArgument}
    ErrPrecondition         = &Error{Type: ErrTypePrecondition}
    ErrNotFound             = &Error{Type: ErrTypeNotFound}
)

func NewStorageError(operation, msg string, cause error) *Error {
    return &Error{Type: ErrTypeStorage, Operation: operation, Message: msg, Cause: cause}
}

func NewReferentialIntegrityError(operation string, conversationID uint) *Error {
    return &Error{
        Type:      ErrTypeReferentialIntegrity,
        Operation: operation,
        Message:   fmt.Sprintf("conversation %d does not exist", conversationID),
    }
}

func NewInvalidArgumentError(operation, msg string) *Error {
    return &Error{Type: ErrTypeInvalidArgument, Operation: operation, Message: msg}
}

func NewPreconditionError(operation, msg string) *Error {
    return &Error{Type: ErrTypePrecondition, Operation: operation, Message: msg}
}

func NewNotFoundError(operation string, conversationID uint) *Error {
    return &Error{
        Type:      ErrTypeNotFound,
        Operation: operation,
        Message:   fmt.Sprintf("conversation %d not found", conversationID),
    }
}
