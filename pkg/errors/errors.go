package errors

import (
	"errors"
	"fmt"

	"stall/internal/constants"
)

var (
	ErrMissingRecipient   = NewError("MISSING_RECIPIENT", "encrypted event carries no recipient tag", constants.FeedbackStatusError)
	ErrNotRecipient       = NewError("NOT_RECIPIENT", "encrypted event is addressed to another key", constants.FeedbackStatusError)
	ErrDecryptFailed      = NewError("DECRYPT_FAILED", "payload decryption failed", constants.FeedbackStatusError)
	ErrMalformedPayload   = NewError("MALFORMED_PAYLOAD", "decrypted payload is not a tag list", constants.FeedbackStatusError)
	ErrInvalidInputType   = NewError("INVALID_INPUT_TYPE", "unrecognized input type", constants.FeedbackStatusError)
	ErrInvalidInputMarker = NewError("INVALID_INPUT_MARKER", "unrecognized input marker", constants.FeedbackStatusError)
	ErrParseFailed        = NewError("PARSE_FAILED", "request payload could not be parsed", constants.FeedbackStatusError)
	ErrFetchFailed        = NewError("FETCH_FAILED", "referenced event could not be fetched", constants.FeedbackStatusError)
	ErrMissingReference   = NewError("MISSING_REFERENCE", "referenced event not found", constants.FeedbackStatusError)
	ErrUnsatisfiable      = NewError("UNSATISFIABLE", "request cannot be satisfied", constants.FeedbackStatusError)
	ErrInternal           = NewError("INTERNAL_ERROR", "internal error", constants.FeedbackStatusError)
)

// Error is the domain error carried from a failed job back to its submitter.
// Status is the NIP-90 feedback status the dispatcher reports under; Message
// is the display text surfaced verbatim as the feedback extra-info.
type Error struct {
	Code    string
	Message string
	Status  string
	Details map[string]interface{}
	Cause   error
}

func NewError(code, message, status string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Status:  status,
	}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is makes two instances of the same code match under errors.Is, so callers
// can compare against the package sentinels after WithMessage/WithCause.
func (e *Error) Is(target error) bool {
	var appErr *Error
	if errors.As(target, &appErr) {
		return e.Code == appErr.Code
	}
	return false
}

func (e *Error) WithCause(cause error) *Error {
	err := *e
	err.Cause = cause
	return &err
}

// WithMessage replaces the display text. Used for user-facing reasons such as
// an unsatisfiable order, which must survive to the feedback event verbatim.
func (e *Error) WithMessage(format string, args ...interface{}) *Error {
	err := *e
	err.Message = fmt.Sprintf(format, args...)
	return &err
}

func (e *Error) WithDetail(key string, value interface{}) *Error {
	err := *e
	if err.Details == nil {
		err.Details = make(map[string]interface{})
	} else {
		details := make(map[string]interface{}, len(e.Details)+1)
		for k, v := range e.Details {
			details[k] = v
		}
		err.Details = details
	}
	err.Details[key] = value
	return &err
}

func Wrap(err error, appErr *Error) *Error {
	if err == nil {
		return nil
	}
	return appErr.WithCause(err)
}

func Unsatisfiable(format string, args ...interface{}) *Error {
	return ErrUnsatisfiable.WithMessage(format, args...)
}

func IsUnsatisfiable(err error) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code == ErrUnsatisfiable.Code
	}
	return false
}

// FeedbackStatus maps any error to the NIP-90 status it is reported under.
func FeedbackStatus(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return constants.FeedbackStatusError
}

// DisplayText is the text placed in the feedback extra-info field. Domain
// errors surface their message; anything else falls back to Error().
func DisplayText(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
