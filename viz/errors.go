package viz

import (
	"fmt"

	"golang.org/x/text/language"
)

// ReasonType is the closed taxonomy of protocol-level failure reasons. Its
// wire form is the lowercase code carried in error and warning envelopes.
type ReasonType byte

const (
	ReasonOther ReasonType = iota
	ReasonAccessDenied
	ReasonUserNotAuthenticated
	ReasonUnsupportedQueryOperation
	ReasonInvalidQuery
	ReasonInvalidRequest
	ReasonInternalError
	ReasonNotSupported
	ReasonDataTruncated
	ReasonNotModified
	ReasonTimeout
	ReasonIllegalFormattingPatterns
)

var reasonCodes = map[ReasonType]string{
	ReasonOther:                     "other",
	ReasonAccessDenied:              "access_denied",
	ReasonUserNotAuthenticated:      "user_not_authenticated",
	ReasonUnsupportedQueryOperation: "unsupported_query_operation",
	ReasonInvalidQuery:              "invalid_query",
	ReasonInvalidRequest:            "invalid_request",
	ReasonInternalError:             "internal_error",
	ReasonNotSupported:              "not_supported",
	ReasonDataTruncated:             "data_truncated",
	ReasonNotModified:               "not_modified",
	ReasonTimeout:                   "timeout",
	ReasonIllegalFormattingPatterns: "illegal_formatting_patterns",
}

// String returns the wire code of the reason.
func (r ReasonType) String() string {
	if s, ok := reasonCodes[r]; ok {
		return s
	}
	return "other"
}

// Message returns the short user message for the reason in the given locale.
func (r ReasonType) Message(loc language.Tag) string {
	return reasonMessage(loc, r)
}

// Error is a protocol failure: a reason from the closed taxonomy plus an
// optional detailed message. The short user message is derived from the
// reason at render time, in the response locale.
type Error struct {
	Reason   ReasonType
	Detailed string
}

// NewError returns an Error with the given reason and detailed message.
func NewError(reason ReasonType, detailed string) *Error {
	return &Error{Reason: reason, Detailed: detailed}
}

// NewErrorf returns an Error with a formatted detailed message.
func NewErrorf(reason ReasonType, format string, args ...interface{}) *Error {
	return &Error{Reason: reason, Detailed: fmt.Sprintf(format, args...)}
}

// InvalidQuery returns an invalid_query Error whose detailed message is the
// localized bundle message for key.
func InvalidQuery(loc language.Tag, key MessageKey, args ...string) *Error {
	return &Error{Reason: ReasonInvalidQuery, Detailed: Message(loc, key, args...)}
}

func (e *Error) Error() string {
	if e.Detailed == "" {
		return e.Reason.String()
	}
	return e.Reason.String() + ": " + e.Detailed
}

// AsError normalizes any error to a protocol Error. Errors that are not
// already protocol errors become internal_error with the error text as the
// detailed message.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		return e
	}
	return &Error{Reason: ReasonInternalError, Detailed: err.Error()}
}

// Warning is attached to a table when a recoverable problem occurred while
// producing it, such as an illegal format pattern or truncated source data.
type Warning struct {
	Reason  ReasonType
	Message string
}
