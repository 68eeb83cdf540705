package services

import "fmt"

// NotFoundError indicates a lookup miss on a client, product, order,
// payment, or promo code. Always surfaced to the caller.
type NotFoundError struct {
	Code    string
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

// BusinessError indicates a business rule violation: inactive client, empty
// cart, deleted or understocked product, invalid state transition, payment
// exceeding remaining or the cash ceiling, invalid promo code.
type BusinessError struct {
	Code    string
	Message string
}

func (e *BusinessError) Error() string {
	return e.Message
}

// ConflictError indicates a concurrent stock or usage-cap exhaustion
// detected at mutation time. Callers may retry the whole operation.
type ConflictError struct {
	Code    string
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

func notFound(code, format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func businessError(code, format string, args ...interface{}) *BusinessError {
	return &BusinessError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func conflict(code, format string, args ...interface{}) *ConflictError {
	return &ConflictError{Code: code, Message: fmt.Sprintf(format, args...)}
}
