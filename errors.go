package icykv

import (
	"errors"
	"fmt"
)

// ErrorClass classifies an InternalError along the axis that decides whether
// a caller can recover from it. It never depends on the message text.
type ErrorClass string

const (
	ClassInternal           ErrorClass = "internal"
	ClassInvariantViolation ErrorClass = "invariant_violation"
	ClassCorruption         ErrorClass = "corruption"
	ClassUnsupported        ErrorClass = "unsupported"
	ClassNotFound           ErrorClass = "not_found"
)

// ErrorOrigin names the subsystem that raised the error.
type ErrorOrigin string

const (
	OriginStore     ErrorOrigin = "store"
	OriginIndex     ErrorOrigin = "index"
	OriginQuery     ErrorOrigin = "query"
	OriginSerialize ErrorOrigin = "serialize"
	OriginPlanner   ErrorOrigin = "planner"
	OriginExecutor  ErrorOrigin = "executor"
	OriginCursor    ErrorOrigin = "cursor"
)

// InternalError is the core's single error type, carrying a class/origin
// taxonomy so callers classify failures without string-matching messages.
type InternalError struct {
	Class   ErrorClass
	Origin  ErrorOrigin
	Message string
	Entity  string
	Field   string
	Details map[string]any
	Cause   error
}

func NewInternalError(class ErrorClass, origin ErrorOrigin, message string) *InternalError {
	return &InternalError{Class: class, Origin: origin, Message: message}
}

func (e *InternalError) Error() string {
	if e.Entity != "" {
		return fmt.Sprintf("[%s/%s] %s (entity=%s)", e.Class, e.Origin, e.Message, e.Entity)
	}
	return fmt.Sprintf("[%s/%s] %s", e.Class, e.Origin, e.Message)
}

func (e *InternalError) Unwrap() error { return e.Cause }

func (e *InternalError) WithEntity(entity string) *InternalError {
	e.Entity = entity
	return e
}

func (e *InternalError) WithField(field string) *InternalError {
	e.Field = field
	return e
}

func (e *InternalError) WithCause(cause error) *InternalError {
	e.Cause = cause
	return e
}

func (e *InternalError) WithDetail(key string, value any) *InternalError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

func (e *InternalError) WithDetails(details map[string]any) *InternalError {
	if e.Details == nil {
		e.Details = make(map[string]any, len(details))
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// IsClass reports whether err is an *InternalError of the given class.
func IsClass(err error, class ErrorClass) bool {
	var ie *InternalError
	if errors.As(err, &ie) {
		return ie.Class == class
	}
	return false
}

func IsInvariantViolation(err error) bool { return IsClass(err, ClassInvariantViolation) }
func IsCorruption(err error) bool         { return IsClass(err, ClassCorruption) }
func IsUnsupported(err error) bool        { return IsClass(err, ClassUnsupported) }
func IsNotFound(err error) bool           { return IsClass(err, ClassNotFound) }

// IntentError reports caller misuse detected before planning even starts
// (e.g. a cursor supplied without a limit, or a grouped terminal called on a
// scalar query). Surfaced strictly before PlanError.
type IntentError struct {
	*InternalError
}

func NewIntentError(message string) *IntentError {
	return &IntentError{NewInternalError(ClassInvariantViolation, OriginQuery, message)}
}

// PlanError reports failures discovered while lowering intent into a
// LogicalPlan: unknown fields, invalid ordering, invalid or mismatched
// cursor tokens.
type PlanError struct {
	*InternalError
}

func NewPlanError(class ErrorClass, origin ErrorOrigin, message string) *PlanError {
	return &PlanError{NewInternalError(class, origin, message)}
}

// ValidationErrors aggregates multiple field-level validation failures
// produced while type-checking a row against its entity model.
type ValidationErrors struct {
	Errors []*InternalError
}

func (v *ValidationErrors) Add(err *InternalError) {
	v.Errors = append(v.Errors, err)
}

func (v *ValidationErrors) HasErrors() bool { return len(v.Errors) > 0 }

func (v *ValidationErrors) ToError() error {
	if !v.HasErrors() {
		return nil
	}
	return v
}

func (v *ValidationErrors) Error() string {
	if len(v.Errors) == 1 {
		return v.Errors[0].Error()
	}
	return fmt.Sprintf("%d validation errors, first: %s", len(v.Errors), v.Errors[0].Error())
}

// BatchErrors accumulates per-item failures for a non-atomic batch save or
// delete, alongside the count of items that committed successfully before
// the batch as a whole is reported.
type BatchErrors struct {
	Succeeded int
	Failed    int
	ItemErrors map[int]*InternalError
}

func NewBatchErrors() *BatchErrors {
	return &BatchErrors{ItemErrors: make(map[int]*InternalError)}
}

func (b *BatchErrors) RecordSuccess() { b.Succeeded++ }

func (b *BatchErrors) RecordFailure(index int, err *InternalError) {
	b.Failed++
	b.ItemErrors[index] = err
}

func (b *BatchErrors) HasPartialSuccess() bool {
	return b.Succeeded > 0 && b.Failed > 0
}

func (b *BatchErrors) IsCompleteFailure() bool { return b.Succeeded == 0 && b.Failed > 0 }

func (b *BatchErrors) IsCompleteSuccess() bool { return b.Failed == 0 }

func (b *BatchErrors) Error() string {
	return fmt.Sprintf("batch: %d succeeded, %d failed", b.Succeeded, b.Failed)
}
