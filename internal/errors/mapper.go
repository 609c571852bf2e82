package errors

import (
	"context"
	"errors"
	"net/http"

	"gorm.io/gorm"
)

// Map converts repo/infra errors into application error kinds.
// Keeps the service layer clean by centralizing error mapping.
// Store failures surface as KindUnavailable rather than being swallowed;
// retry policy belongs to the caller.
func Map(err error) error {
	if err == nil {
		return nil
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		return err
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &Error{Kind: KindNotFound, Msg: "record not found", Err: err}

	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: KindUnavailable, Msg: "store request timed out", Err: err}

	case errors.Is(err, context.Canceled):
		return &Error{Kind: KindUnavailable, Msg: "store request was canceled", Err: err}

	default:
		return &Error{Kind: KindUnavailable, Msg: "store unavailable", Err: err}
	}
}

// KindOf extracts the Kind from an error, KindInternal if it is not ours.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// HTTPStatus maps an application error to an HTTP status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindAuthorization:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
