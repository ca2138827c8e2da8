package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// AppError provides a structured error that can be rendered to API consumers.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e == nil {
		return "<nil>"
	}

	if e.Internal != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Internal)
	}

	return e.Message
}

// Unwrap exposes the internal error for errors.Is / errors.As compatibility.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Internal
}

// Is matches AppErrors by code so copies made by WithInternal still match their template.
func (e *AppError) Is(target error) bool {
	var other *AppError
	if !errors.As(target, &other) || e == nil || other == nil {
		return false
	}
	return e.Code == other.Code && e.Code != ""
}

// WithInternal returns a copy of the AppError with an attached internal error.
func (e *AppError) WithInternal(err error) *AppError {
	if e == nil {
		return nil
	}

	cpy := *e
	cpy.Internal = err
	return &cpy
}

// WithMessage returns a copy of the AppError carrying a different client-facing message.
func (e *AppError) WithMessage(message string) *AppError {
	if e == nil {
		return nil
	}

	cpy := *e
	cpy.Message = message
	return &cpy
}

// Displayer is implemented by errors whose message is safe to show to an operator verbatim.
type Displayer interface {
	DisplayMessage() string
}

// StatusCoder is implemented by errors that originate from an HTTP response.
type StatusCoder interface {
	HTTPStatus() int
}

// Common errors exposed to the rest of the application.
var (
	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "Resource not found",
		StatusCode: http.StatusNotFound,
	}

	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "Invalid request",
		StatusCode: http.StatusBadRequest,
	}

	ErrValidation = &AppError{
		Code:       "VALIDATION_FAILED",
		Message:    "Please correct the highlighted fields",
		StatusCode: http.StatusUnprocessableEntity,
	}

	ErrNoSponsorSelected = &AppError{
		Code:       "NO_SPONSOR_SELECTED",
		Message:    "Select a sponsor first.",
		StatusCode: http.StatusConflict,
	}

	ErrPageOutOfRange = &AppError{
		Code:       "PAGE_OUT_OF_RANGE",
		Message:    "Requested page is out of range",
		StatusCode: http.StatusBadRequest,
	}

	ErrUpstream = &AppError{
		Code:       "UPSTREAM_ERROR",
		Message:    "Partnerships service request failed",
		StatusCode: http.StatusBadGateway,
	}

	ErrInternalServer = &AppError{
		Code:       "INTERNAL_SERVER_ERROR",
		Message:    "Internal server error",
		StatusCode: http.StatusInternalServerError,
	}
)

// New builds a new application error with the provided metadata.
func New(code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Wrap turns any error into an AppError while keeping the original error for logging.
func Wrap(err error, message string) *AppError {
	return &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Internal:   err,
	}
}

// FromError converts a generic error into an AppError. Errors raised by the partnerships
// service keep their display message; 4xx statuses pass through and anything else becomes 502.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var coder StatusCoder
	if errors.As(err, &coder) {
		upstream := ErrUpstream.WithInternal(err)
		upstream.Message = DisplayMessage(err, ErrUpstream.Message)
		if status := coder.HTTPStatus(); status >= 400 && status < 500 {
			upstream.StatusCode = status
		}
		return upstream
	}

	return ErrInternalServer.WithInternal(err)
}

// NewBadRequest wraps validation errors with a helpful message.
func NewBadRequest(message string) *AppError {
	return &AppError{
		Code:       ErrBadRequest.Code,
		Message:    message,
		StatusCode: ErrBadRequest.StatusCode,
	}
}

// DisplayMessage returns the human readable message carried by err, or fallback when the
// error has none.
func DisplayMessage(err error, fallback string) string {
	if err == nil {
		return fallback
	}

	var displayer Displayer
	if errors.As(err, &displayer) {
		if msg := strings.TrimSpace(displayer.DisplayMessage()); msg != "" {
			return msg
		}
	}

	var appErr *AppError
	if errors.As(err, &appErr) && strings.TrimSpace(appErr.Message) != "" {
		return appErr.Message
	}

	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return fallback
}
