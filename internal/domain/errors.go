// Package domain defines the error taxonomy shared by the advisor pipeline and its transports.
package domain

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrorType classifies a failure by where it originated.
type ErrorType string

const (
	ErrorTypeValidation             ErrorType = "validation"
	ErrorTypeUpstreamCatalog        ErrorType = "upstream_catalog"
	ErrorTypeUpstreamRecommendation ErrorType = "upstream_recommendation"
	ErrorTypeUpstreamTimeout        ErrorType = "upstream_timeout"
	ErrorTypeInternal               ErrorType = "internal"
)

// Short codes reported to callers in the "error" field.
const (
	CodeInvalidRequest      = "invalid_request"
	CodeCatalogError        = "catalog_error"
	CodeRecommendationError = "recommendation_error"
	CodeUpstreamTimeout     = "upstream_timeout"
	CodeInternalError       = "internal_error"
)

// DomainError represents a domain-specific error with context
type DomainError struct {
	Type    ErrorType
	Code    string
	Message string
	// Status is the upstream HTTP status when one is known.
	Status int
	// Details is caller-safe diagnostic text.
	Details string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewError creates a new domain error
func NewError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Code:    codeFor(errType),
		Message: message,
		Err:     err,
	}
}

// ValidationError reports bad caller input. No remote calls are made after one.
func ValidationError(message string) *DomainError {
	e := NewError(ErrorTypeValidation, message, nil)
	e.Details = message
	return e
}

// CatalogError reports a failed catalog tier.
func CatalogError(message string, status int, err error) *DomainError {
	e := NewError(ErrorTypeUpstreamCatalog, message, err)
	e.Status = status
	return e
}

// RecommendationError reports a failed or non-success recommendation call.
func RecommendationError(message string, status int, details string, err error) *DomainError {
	e := NewError(ErrorTypeUpstreamRecommendation, message, err)
	e.Status = status
	e.Details = details
	return e
}

// TimeoutError reports that the caller's deadline expired mid-pipeline.
func TimeoutError(stage string, err error) *DomainError {
	e := NewError(ErrorTypeUpstreamTimeout, stage+" timed out", err)
	e.Details = e.Message
	return e
}

// InternalError reports anything unexpected.
func InternalError(message string, err error) *DomainError {
	return NewError(ErrorTypeInternal, message, err)
}

// FromContext converts a finished context into a timeout or internal error.
func FromContext(ctx context.Context, stage string) *DomainError {
	err := ctx.Err()
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return TimeoutError(stage, err)
	}
	return InternalError(stage+" cancelled", err)
}

// IsType reports whether err carries a DomainError of the given type.
func IsType(err error, t ErrorType) bool {
	var de *DomainError
	return errors.As(err, &de) && de.Type == t
}

// HTTPStatus maps an error to the status returned at the HTTP boundary.
func HTTPStatus(err error) int {
	var de *DomainError
	if !errors.As(err, &de) {
		return http.StatusInternalServerError
	}

	switch de.Type {
	case ErrorTypeValidation:
		return http.StatusBadRequest
	case ErrorTypeUpstreamTimeout:
		return http.StatusGatewayTimeout
	case ErrorTypeUpstreamRecommendation, ErrorTypeUpstreamCatalog:
		if de.Status >= 400 && de.Status <= 599 {
			return de.Status
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Code returns the short caller-facing code for err.
func Code(err error) string {
	var de *DomainError
	if !errors.As(err, &de) {
		return CodeInternalError
	}
	if de.Code == "" {
		return codeFor(de.Type)
	}
	return de.Code
}

// Details returns the caller-safe diagnostic for err. Internal errors expose only their message.
func Details(err error) string {
	var de *DomainError
	if !errors.As(err, &de) {
		return ""
	}
	if de.Details != "" {
		return de.Details
	}
	return de.Message
}

func codeFor(t ErrorType) string {
	switch t {
	case ErrorTypeValidation:
		return CodeInvalidRequest
	case ErrorTypeUpstreamCatalog:
		return CodeCatalogError
	case ErrorTypeUpstreamRecommendation:
		return CodeRecommendationError
	case ErrorTypeUpstreamTimeout:
		return CodeUpstreamTimeout
	default:
		return CodeInternalError
	}
}
