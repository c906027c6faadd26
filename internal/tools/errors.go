// Package tools provides the tool registry and dispatch for the
// assistant's LLM-facing operations.
//
// This file defines sentinel error types for tool execution.
package tools

import (
	"fmt"
	"strings"
)

// ValidationError is returned when a tool call carries malformed or
// missing arguments. The model can usually recover by re-issuing the
// call with corrected arguments.
type ValidationError struct {
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.Message
}

// MissingArgs builds the validation error for absent required
// arguments, naming each one.
func MissingArgs(names ...string) *ValidationError {
	return &ValidationError{
		Message: fmt.Sprintf("Missing required arguments: %s", strings.Join(names, ", ")),
	}
}

// NotFoundError is returned when a tool call targets a device or
// schedule item that does not exist.
type NotFoundError struct {
	Message string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return e.Message
}

// ConflictError is returned when a schedule operation is ambiguous,
// such as changing a time slot that holds more than one item.
type ConflictError struct {
	Message string
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	return e.Message
}

// PastDateError is returned when a schedule operation targets a date
// that has already passed.
type PastDateError struct {
	Date string
}

// Error implements the error interface.
func (e *PastDateError) Error() string {
	return fmt.Sprintf("Cannot schedule items for past dates. Date '%s' is in the past.", e.Date)
}

// UnavailableError is returned when a tool depends on a subsystem that
// is not wired in this deployment, such as the knowledge base.
type UnavailableError struct {
	Subsystem string
}

// Error implements the error interface.
func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s not available", e.Subsystem)
}

// SuppressedError is returned when chat_message tries to deliver a
// reminder the user asked to silence.
type SuppressedError struct {
	Item string
}

// Error implements the error interface.
func (e *SuppressedError) Error() string {
	return fmt.Sprintf("Reminder prevented: '%s' is in do_not_remind list", e.Item)
}
