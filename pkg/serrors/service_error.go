package serrors

import "fmt"

// ServiceError carries an HTTP status alongside a stable error code so
// controllers can translate service failures without inspecting causes.
type ServiceError struct {
	Status  int
	Code    string
	Message string
	Meta    map[string]string
	Cause   error
}

func (e *ServiceError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *ServiceError) Unwrap() error { return e.Cause }

func NewServiceError(status int, code, message string, cause error) *ServiceError {
	return &ServiceError{Status: status, Code: code, Message: message, Cause: cause}
}
