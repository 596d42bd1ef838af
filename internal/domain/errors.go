// Package domain defines core types, interfaces, and errors for the telemetry API.
package domain

import "fmt"

// ValidationError indicates invalid input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// QueryErrorKind classifies where a query attempt failed. All kinds are
// handled identically at the HTTP layer; the kind exists for logging and tests.
type QueryErrorKind string

// Query failure kinds.
const (
	QueryErrorSubmission QueryErrorKind = "SUBMISSION"
	QueryErrorExecution  QueryErrorKind = "EXECUTION"
	QueryErrorTimeout    QueryErrorKind = "TIMEOUT"
	QueryErrorTransport  QueryErrorKind = "TRANSPORT"
)

// QueryError is the single failure shape produced by the query proxy.
// Every backend submission, execution, timeout, or transport problem is
// normalized into one of these; nothing else escapes the proxy boundary.
type QueryError struct {
	Kind    QueryErrorKind
	Message string
}

func (e *QueryError) Error() string { return e.Message }

// ErrQuerySubmission creates a QueryError for a failed query submission.
func ErrQuerySubmission(format string, args ...interface{}) *QueryError {
	return &QueryError{Kind: QueryErrorSubmission, Message: fmt.Sprintf(format, args...)}
}

// ErrQueryExecution creates a QueryError for a query the backend reported
// as FAILED or CANCELLED.
func ErrQueryExecution(format string, args ...interface{}) *QueryError {
	return &QueryError{Kind: QueryErrorExecution, Message: fmt.Sprintf(format, args...)}
}

// ErrQueryTimeout creates a QueryError for a query still pending when the
// wait budget ran out.
func ErrQueryTimeout(format string, args ...interface{}) *QueryError {
	return &QueryError{Kind: QueryErrorTimeout, Message: fmt.Sprintf(format, args...)}
}

// ErrQueryTransport creates a QueryError for a transport-level failure while
// polling or fetching results.
func ErrQueryTransport(format string, args ...interface{}) *QueryError {
	return &QueryError{Kind: QueryErrorTransport, Message: fmt.Sprintf(format, args...)}
}
