package errors

// ErrorCode represents a unique error identifier
type ErrorCode int

// Error code ranges allocation:
// 10000-10999: Common & transport errors
// 11000-11999: Auth errors
// 12000-12999: Problem catalog errors
// 13000-13999: Submission & live stream errors

const (
	// ========== Common & Transport Errors (10000-10999) ==========

	// Success
	Success ErrorCode = 10000

	// Generic errors (10000-10099)
	InternalError ErrorCode = 10001
	InvalidParams ErrorCode = 10002
	NotFound      ErrorCode = 10003
	Unauthorized  ErrorCode = 10004
	Forbidden     ErrorCode = 10005
	Timeout       ErrorCode = 10008

	// Transport errors (10100-10199)
	TransportFailed  ErrorCode = 10100
	ConnectionClosed ErrorCode = 10101
	DecodeFailed     ErrorCode = 10102
	ServerError      ErrorCode = 10103

	// Validation errors (10300-10399)
	ValidationFailed   ErrorCode = 10300
	InvalidFormat      ErrorCode = 10301
	RequiredFieldEmpty ErrorCode = 10303

	// ========== Auth Errors (11000-11999) ==========

	TokenExpired       ErrorCode = 11003
	TokenInvalid       ErrorCode = 11004
	InvalidCredentials ErrorCode = 11005

	// ========== Problem Catalog Errors (12000-12999) ==========

	ProblemNotFound ErrorCode = 12000

	// ========== Submission & Live Stream Errors (13000-13999) ==========

	// Submission (13000-13099)
	SubmissionNotFound      ErrorCode = 13000
	SubmissionCreateFailed  ErrorCode = 13001
	LanguageNotSupported    ErrorCode = 13003
	SubmissionNotCancelable ErrorCode = 13004

	// Live stream (13100-13199)
	StreamExhausted   ErrorCode = 13100
	StreamAlreadyOpen ErrorCode = 13101
	StreamClosed      ErrorCode = 13102
	WatchdogExpired   ErrorCode = 13103
)

// errorMessages maps error codes to their default English messages
var errorMessages = map[ErrorCode]string{
	// Common & transport
	Success:       "Success",
	InternalError: "Internal client error",
	InvalidParams: "Invalid parameters",
	NotFound:      "Resource not found",
	Unauthorized:  "Unauthorized access",
	Forbidden:     "Access forbidden",
	Timeout:       "Request timeout",

	TransportFailed:  "Network request failed",
	ConnectionClosed: "Connection closed",
	DecodeFailed:     "Failed to decode server response",
	ServerError:      "Server returned an error",

	ValidationFailed:   "Validation failed",
	InvalidFormat:      "Invalid format",
	RequiredFieldEmpty: "Required field is empty",

	// Auth
	TokenExpired:       "Token has expired",
	TokenInvalid:       "Invalid token",
	InvalidCredentials: "Invalid username or password",

	// Problem catalog
	ProblemNotFound: "Problem not found",

	// Submission & stream
	SubmissionNotFound:      "Submission not found",
	SubmissionCreateFailed:  "Failed to create submission",
	LanguageNotSupported:    "Programming language not supported",
	SubmissionNotCancelable: "Submission can no longer be canceled",

	StreamExhausted:   "Event stream reconnection attempts exhausted",
	StreamAlreadyOpen: "Event stream is already open for this submission",
	StreamClosed:      "Event stream is closed",
	WatchdogExpired:   "Submission did not reach a terminal state in time",
}

// Message returns the default message for the error code
func (c ErrorCode) Message() string {
	if msg, ok := errorMessages[c]; ok {
		return msg
	}
	return "Unknown error"
}

// Retryable reports whether a request that failed with this code is safe to
// retry. Validation, auth and not-found failures are never retried.
func (c ErrorCode) Retryable() bool {
	switch c {
	case TransportFailed, ConnectionClosed, Timeout, ServerError:
		return true
	default:
		return false
	}
}

// FromHTTPStatus maps a platform HTTP status code to an error code.
func FromHTTPStatus(status int) ErrorCode {
	switch {
	case status >= 200 && status < 300:
		return Success
	case status == 400, status == 422:
		return ValidationFailed
	case status == 401:
		return Unauthorized
	case status == 403:
		return Forbidden
	case status == 404:
		return NotFound
	case status == 408:
		return Timeout
	case status >= 500:
		return ServerError
	default:
		return TransportFailed
	}
}
