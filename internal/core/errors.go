package core

import (
	"errors"
	"net/http"
)

type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindNotFound
	// KindNoConnectivity means the connectivity check failed before any
	// network attempt was made.
	KindNoConnectivity
	// KindTransport means the network call failed or returned non-success.
	KindTransport
	// KindDecode means fetched bytes did not parse as an image.
	KindDecode
	// KindStorage means a blob write or a record upsert failed.
	KindStorage
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindNoConnectivity:
		return "no_connectivity"
	case KindTransport:
		return "transport"
	case KindDecode:
		return "decode"
	case KindStorage:
		return "storage"
	}
	return "internal"
}

type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error

	// SafeToShow indicates the message can be returned to clients verbatim.
	SafeToShow bool
}

func (e *AppError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) Is(target error) bool {
	if t, ok := target.(*AppError); ok {
		return e.Kind == t.Kind
	}
	return false
}

func (e *AppError) HTTPStatus() int {
	if e == nil {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindNoConnectivity:
		return http.StatusServiceUnavailable
	case KindTransport, KindDecode:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (e *AppError) PublicMessage() string {
	if e == nil {
		return "internal error"
	}
	if e.SafeToShow {
		return e.Message
	}
	return "internal error"
}

// AsAppError unwraps err into an *AppError if one is in the chain.
func AsAppError(err error) (*AppError, bool) {
	if err == nil {
		return nil, false
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsKind reports whether err carries an AppError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Kind == kind
}

func NewNoConnectivityError() *AppError {
	return &AppError{
		Kind:       KindNoConnectivity,
		Message:    "no network connectivity",
		SafeToShow: true,
	}
}

func NewTransportError(message string, err error) *AppError {
	return &AppError{
		Kind:       KindTransport,
		Message:    message,
		Err:        err,
		SafeToShow: true,
	}
}

func NewDecodeError(message string, err error) *AppError {
	return &AppError{
		Kind:       KindDecode,
		Message:    message,
		Err:        err,
		SafeToShow: true,
	}
}

func NewStorageError(message string, err error) *AppError {
	return &AppError{
		Kind:    KindStorage,
		Message: message,
		Err:     err,
	}
}

func NewRecordNotFoundError(id string) *AppError {
	return &AppError{
		Kind:       KindNotFound,
		Message:    "image " + id + " not found",
		SafeToShow: true,
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Kind:       KindValidation,
		Message:    message,
		SafeToShow: true,
	}
}

func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Kind:    KindInternal,
		Message: message,
		Err:     err,
	}
}
