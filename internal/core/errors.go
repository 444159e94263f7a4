package core

// Error codes surfaced to clients in error events.
const (
	ErrCodeValidation       = "validation_error"
	ErrCodePermissionDenied = "permission_denied"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeUpstream         = "upstream_failure"
	ErrCodeProtocol         = "protocol_error"
	ErrCodeProtected        = "protected"
)

// RelayError wraps a code and a human-readable message. Every failure is
// scoped to the offending request; nothing here is fatal to the process.
type RelayError struct {
	Code    string
	Message string
}

func (e *RelayError) Error() string {
	return e.Message
}

func validationError(msg string) *RelayError {
	return &RelayError{Code: ErrCodeValidation, Message: msg}
}

func permissionDenied() *RelayError {
	return &RelayError{Code: ErrCodePermissionDenied, Message: "Permission denied for this action"}
}

func notFoundError(msg string) *RelayError {
	return &RelayError{Code: ErrCodeNotFound, Message: msg}
}

func conflictError(msg string) *RelayError {
	return &RelayError{Code: ErrCodeConflict, Message: msg}
}

// upstreamFailure deliberately carries a generic message; the detail goes
// to the log, not to the client.
func upstreamFailure() *RelayError {
	return &RelayError{Code: ErrCodeUpstream, Message: "A backend service is temporarily unavailable"}
}

func protectedError(msg string) *RelayError {
	return &RelayError{Code: ErrCodeProtected, Message: msg}
}
