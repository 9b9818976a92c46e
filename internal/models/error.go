package models

import (
	"context"
	"errors"
	"strconv"
)

var (
	ErrBusinessRejected = errors.New("business rejected")
	ErrTransport        = errors.New("transport error")
	ErrValidationGap    = errors.New("malformed envelope")
	ErrInvalidOrderID   = errors.New("invalid order id")
	ErrDataNotFound     = errors.New("data not found")
)

// rejection codes with fixed meaning
const (
	CodeSilentReject = 100
	CodeRejectNotify = -1
	CodeOK           = 200
)

// BusinessRejectedError is returned when backend explicitly signals failure
type BusinessRejectedError struct {
	Code    int
	Message string
}

func (e *BusinessRejectedError) Error() string {
	if e.Message == "" {
		return "business rejected: code " + strconv.Itoa(e.Code)
	}
	return "business rejected: code " + strconv.Itoa(e.Code) + ": " + e.Message
}

func (e *BusinessRejectedError) Is(target error) bool {
	return target == ErrBusinessRejected
}

// Silent reports whether rejection must not be shown to the user
func (e *BusinessRejectedError) Silent() bool {
	return e.Code == CodeSilentReject
}

// NewBusinessRejectedError creates new BusinessRejectedError instance
func NewBusinessRejectedError(code int, msg string) *BusinessRejectedError {
	return &BusinessRejectedError{Code: code, Message: msg}
}

// TransportError is returned when there is no usable response body
type TransportError struct {
	Message string
	Err     error
}

func (e *TransportError) Error() string {
	if e.Message == "" && e.Err != nil {
		return "transport error: " + e.Err.Error()
	}
	return "transport error: " + e.Message
}

func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError creates new TransportError instance
func NewTransportError(err error) *TransportError {
	te := &TransportError{Err: err}
	if err != nil {
		te.Message = err.Error()
	}
	return te
}

// Kind returns short error class
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrBusinessRejected):
		return "business_rejected"
	case errors.Is(err, ErrValidationGap):
		return "validation_gap"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, ErrTransport):
		return "transport"
	case errors.Is(err, ErrInvalidOrderID):
		return "invalid_order_id"
	default:
		return "internal"
	}
}
