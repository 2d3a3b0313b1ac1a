package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure so callers can react without matching on messages.
type Kind string

const (
	KindNotEnrolled        Kind = "not_enrolled"
	KindDuplicateReview    Kind = "duplicate_review"
	KindInvalidRating      Kind = "invalid_rating"
	KindTextTooShort       Kind = "text_too_short"
	KindReviewNotFound     Kind = "review_not_found"
	KindIndexOutOfRange    Kind = "index_out_of_range"
	KindUnauthorized       Kind = "unauthorized"
	KindBackendUnavailable Kind = "backend_unavailable"
	KindNotFound           Kind = "not_found"
	KindInvalidInput       Kind = "invalid_input"
)

var (
	ErrNotEnrolled        = &Error{Kind: KindNotEnrolled, Msg: "user is not enrolled in this course"}
	ErrDuplicateReview    = &Error{Kind: KindDuplicateReview, Msg: "user has already reviewed this course"}
	ErrInvalidRating      = &Error{Kind: KindInvalidRating, Msg: "rating must be between 1 and 5"}
	ErrTextTooShort       = &Error{Kind: KindTextTooShort, Msg: "text is too short"}
	ErrReviewNotFound     = &Error{Kind: KindReviewNotFound, Msg: "review not found"}
	ErrIndexOutOfRange    = &Error{Kind: KindIndexOutOfRange, Msg: "index out of range"}
	ErrUnauthorized       = &Error{Kind: KindUnauthorized, Msg: "unauthorized"}
	ErrBackendUnavailable = &Error{Kind: KindBackendUnavailable, Msg: "backend unavailable"}
	ErrNotFound           = &Error{Kind: KindNotFound, Msg: "not found"}
	ErrInvalidInput       = &Error{Kind: KindInvalidInput, Msg: "invalid input"}
)

// Error is a classified failure. Two errors match under errors.Is when their kinds match.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Msg != "" && e.Err != nil:
		return e.Msg + ": " + e.Err.Error()
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New returns an error of the given kind with a formatted message.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap classifies err under kind. A nil err yields nil.
func Wrap(kind Kind, err error, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// Unavailable marks a persistence failure.
func Unavailable(err error, msg string) error {
	return Wrap(KindBackendUnavailable, err, msg)
}

// KindOf reports the kind of the first classified error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Status maps an error to the HTTP status the API answers with.
func Status(err error) int {
	switch KindOf(err) {
	case KindInvalidRating, KindTextTooShort, KindInvalidInput:
		return http.StatusUnprocessableEntity
	case KindIndexOutOfRange:
		return http.StatusBadRequest
	case KindNotEnrolled, KindUnauthorized:
		return http.StatusForbidden
	case KindReviewNotFound, KindNotFound:
		return http.StatusNotFound
	case KindDuplicateReview:
		return http.StatusConflict
	case KindBackendUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
