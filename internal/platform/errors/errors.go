// Package errors provides structured domain errors shared by roomdesk
// services.
package errors

import (
	stderrors "errors"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/status"

	"github.com/roomdesk/roomdesk/internal/platform/errors/i18n"
)

// Domain is the error domain for roomdesk errors.
const Domain = "github.com/roomdesk/roomdesk"

// Error is the domain error type with structured metadata.
type Error struct {
	Code     Code              // Machine-readable error code
	Message  string            // Internal message (for logs/telemetry)
	Metadata map[string]string // Additional context for localized messages
	Cause    error             // Wrapped underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a simple domain error with a code and message.
func New(code Code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// WithMetadata creates a domain error with metadata for localized messages.
func WithMetadata(code Code, message string, metadata map[string]string) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Metadata: metadata,
	}
}

// Wrap creates a domain error that wraps an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// As returns the first domain error in err's chain.
func As(err error) (*Error, bool) {
	var domainErr *Error
	if stderrors.As(err, &domainErr) && domainErr != nil {
		return domainErr, true
	}
	return nil, false
}

// GetCode returns the domain code for err, or CodeUnknown.
func GetCode(err error) Code {
	if domainErr, ok := As(err); ok {
		return domainErr.Code
	}
	return CodeUnknown
}

// HTTPStatus maps any error to an HTTP status code. Non-domain errors are
// internal failures.
func HTTPStatus(err error) int {
	return GetCode(err).HTTPStatus()
}

// ToGRPCStatus converts err into a gRPC status error. Domain errors carry an
// ErrorInfo with their code and metadata and a LocalizedMessage in the best
// match for locale. Errors that already hold a status pass through.
func ToGRPCStatus(err error, locale string) error {
	if err == nil {
		return nil
	}
	domainErr, ok := As(err)
	if !ok {
		if _, isStatus := status.FromError(err); isStatus {
			return err
		}
		return status.Error(CodeUnknown.GRPCCode(), err.Error())
	}
	tag := i18n.MatchLocale(locale)
	st := status.New(domainErr.Code.GRPCCode(), domainErr.Message)
	detailed, detailErr := st.WithDetails(
		&errdetails.ErrorInfo{
			Reason:   string(domainErr.Code),
			Domain:   Domain,
			Metadata: domainErr.Metadata,
		},
		&errdetails.LocalizedMessage{
			Locale:  tag.String(),
			Message: i18n.Message(tag, string(domainErr.Code)),
		},
	)
	if detailErr != nil {
		return st.Err()
	}
	return detailed.Err()
}
