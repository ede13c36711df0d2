/*
Copyright 2026 Nscale.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package errors defines the error taxonomy surfaced by the search client.
// Every error returned by the client either is, or wraps, one of the types
// defined here, and can be matched with errors.As or the Is* helpers.
package errors

import (
	goerrors "errors"
	"fmt"
	"net/http"
	"time"
)

// TransportError is raised when a request fails below the HTTP layer,
// e.g. connection refused, TLS failure or a request timeout.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: transport error: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ServiceError is raised when the service answers with a non-success status
// code, or reports an explicit error e.g. an errored task.
type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("service error: %s", e.Message)
	}

	return fmt.Sprintf("service error (status %d): %s", e.StatusCode, e.Message)
}

// NotFound reports whether the service said the resource does not exist.
func (e *ServiceError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// TimeoutError is raised when a task is not published before the polling
// deadline elapses.
type TimeoutError struct {
	Index   string
	TaskID  int64
	Elapsed time.Duration
	Err     error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("task %d on index %q not published after %s", e.TaskID, e.Index, e.Elapsed.Round(time.Millisecond))
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// ValidationError is raised before any request is made when local input is
// malformed.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewServiceError returns a service error for the given status code.
func NewServiceError(statusCode int, message string) *ServiceError {
	if message == "" {
		message = http.StatusText(statusCode)
	}

	return &ServiceError{
		StatusCode: statusCode,
		Message:    message,
	}
}

// NewValidationError returns a validation error for the named field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{
		Field:  field,
		Reason: reason,
	}
}

// IsTransport reports whether err is or wraps a TransportError.
func IsTransport(err error) bool {
	var target *TransportError

	return goerrors.As(err, &target)
}

// IsService reports whether err is or wraps a ServiceError.
func IsService(err error) bool {
	var target *ServiceError

	return goerrors.As(err, &target)
}

// IsNotFound reports whether err is or wraps a ServiceError with a 404 status.
func IsNotFound(err error) bool {
	var target *ServiceError

	return goerrors.As(err, &target) && target.NotFound()
}

// IsTimeout reports whether err is or wraps a TimeoutError.
func IsTimeout(err error) bool {
	var target *TimeoutError

	return goerrors.As(err, &target)
}

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError

	return goerrors.As(err, &target)
}
