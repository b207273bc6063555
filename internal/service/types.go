// Package service defines the backend-agnostic interface for task operations.
package service

import (
	"errors"
	"fmt"
	"net/url"
)

// Updatable task fields.
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldCompleted   = "completed"
	FieldPriority    = "priority"
)

// Priorities accepted by the server.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// UpdateRequest is the body of a single-field update.
// Value is a string, or a bool for the completed field.
type UpdateRequest struct {
	TaskID string `json:"task_id"`
	Field  string `json:"field"`
	Value  any    `json:"value"`
}

// UpdateResult is the server's answer to an UpdateRequest.
type UpdateResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Form is a classic form submission: the browser posts the fields and
// navigates to whatever page the server answers with.
type Form struct {
	Method string
	Action string
	Fields url.Values
}

// RejectedError is an application-level failure: the server answered
// with success false.
type RejectedError struct {
	Message string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return "update rejected"
	}
	return fmt.Sprintf("update rejected: %s", e.Message)
}

// ErrNoToken is returned when no anti-forgery token can be found.
var ErrNoToken = errors.New("no security token available")

// IsRejected reports whether err is an application-level failure.
func IsRejected(err error) bool {
	var re *RejectedError
	return errors.As(err, &re)
}
