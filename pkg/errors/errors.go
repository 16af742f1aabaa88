package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeInput represents a missing or structurally malformed input document
	ErrorTypeInput ErrorType = "input"
	// ErrorTypeValidation represents a rejected item (no usable price, contaminated field)
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeOutput represents a failure writing the catalog or its sidecar
	ErrorTypeOutput ErrorType = "output"
	// ErrorTypeCache represents cache-related errors
	ErrorTypeCache ErrorType = "cache"
	// ErrorTypePublisher represents publisher-related errors
	ErrorTypePublisher ErrorType = "publisher"
	// ErrorTypeStorage represents optional export sink errors (sqlite, xlsx, postgres)
	ErrorTypeStorage ErrorType = "storage"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// PipelineError represents an error raised by one stage of the catalog pipeline
type PipelineError struct {
	Type    ErrorType
	Stage   string
	Message string
	Err     error
	Time    time.Time
}

// Error implements the error interface
func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Stage, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Stage, e.Message)
}

// Unwrap returns the underlying error
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// IsFatal returns true if the error must stop the whole run
func (e *PipelineError) IsFatal() bool {
	switch e.Type {
	case ErrorTypeInput, ErrorTypeOutput, ErrorTypeConfiguration:
		return true
	default:
		return false
	}
}

// New creates a new PipelineError
func New(errType ErrorType, stage, message string, err error) *PipelineError {
	return &PipelineError{
		Type:    errType,
		Stage:   stage,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewInput creates a new input error
func NewInput(stage, message string, err error) *PipelineError {
	return New(ErrorTypeInput, stage, message, err)
}

// NewValidation creates a new validation error
func NewValidation(stage, message string) *PipelineError {
	return New(ErrorTypeValidation, stage, message, nil)
}

// NewOutput creates a new output error
func NewOutput(stage, message string, err error) *PipelineError {
	return New(ErrorTypeOutput, stage, message, err)
}

// NewCache creates a new cache error
func NewCache(stage, message string, err error) *PipelineError {
	return New(ErrorTypeCache, stage, message, err)
}

// NewPublisher creates a new publisher error
func NewPublisher(stage, message string, err error) *PipelineError {
	return New(ErrorTypePublisher, stage, message, err)
}

// NewStorage creates a new storage error
func NewStorage(stage, message string, err error) *PipelineError {
	return New(ErrorTypeStorage, stage, message, err)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *PipelineError {
	return New(ErrorTypeConfiguration, "config", message, err)
}

// TypeOf returns the ErrorType of the first PipelineError in err's chain, or "" if there is none
func TypeOf(err error) ErrorType {
	if pe, ok := As(err); ok {
		return pe.Type
	}
	return ""
}

// IsFatal reports whether err carries a fatal PipelineError. Untyped errors are treated as fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if pe, ok := As(err); ok {
		return pe.IsFatal()
	}
	return true
}

// As returns the first PipelineError in err's chain
func As(err error) (*PipelineError, bool) {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
