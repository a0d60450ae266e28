package errors

import (
	"fmt"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeGraph represents graph database errors
	ErrorTypeGraph ErrorType = "graph"
	// ErrorTypeStore represents relational store errors
	ErrorTypeStore ErrorType = "store"
	// ErrorTypeSearch represents search index errors
	ErrorTypeSearch ErrorType = "search"
	// ErrorTypeCache represents cache/KV store errors
	ErrorTypeCache ErrorType = "cache"
	// ErrorTypeValidation represents client input validation errors
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
)

// BaseError is the base error type with common fields
type BaseError struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error // Wrapped error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// Graph Errors

// ErrGraphConnectionFailed is returned when the Neo4j connection fails
type ErrGraphConnectionFailed struct {
	*BaseError
	URI string
}

func NewGraphConnectionFailed(uri string, err error) *ErrGraphConnectionFailed {
	return &ErrGraphConnectionFailed{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("failed to connect to Neo4j: %s", uri), err),
		URI:       uri,
	}
}

// ErrGraphQueryFailed is returned when a graph query fails
type ErrGraphQueryFailed struct {
	*BaseError
	Query string
}

func NewGraphQueryFailed(query string, err error) *ErrGraphQueryFailed {
	return &ErrGraphQueryFailed{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("query failed: %s", query), err),
		Query:     query,
	}
}

// ErrStoryNodeNotFound is returned when a story's graph node is missing on the
// write path. Sync cannot proceed safely without it.
type ErrStoryNodeNotFound struct {
	*BaseError
	StoryID int64
}

func NewStoryNodeNotFound(storyID int64) *ErrStoryNodeNotFound {
	return &ErrStoryNodeNotFound{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("story node not found: %d", storyID), nil),
		StoryID:   storyID,
	}
}

// ErrParentNodeNotFound is returned when a child story references a parent
// whose graph node does not exist yet. Callers must guarantee
// parent-before-child ordering.
type ErrParentNodeNotFound struct {
	*BaseError
	StoryID       int64
	ParentStoryID int64
}

func NewParentNodeNotFound(storyID, parentStoryID int64) *ErrParentNodeNotFound {
	return &ErrParentNodeNotFound{
		BaseError:     NewBaseError(ErrorTypeGraph, fmt.Sprintf("parent story node not found: %d (child: %d)", parentStoryID, storyID), nil),
		StoryID:       storyID,
		ParentStoryID: parentStoryID,
	}
}

// ErrStorylineNotResolved is returned when a parent node's storyline
// membership is not the expected singleton.
type ErrStorylineNotResolved struct {
	*BaseError
	StoryID int64
	Found   int
}

func NewStorylineNotResolved(storyID int64, found int) *ErrStorylineNotResolved {
	return &ErrStorylineNotResolved{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("expected exactly one storyline for story %d, found %d", storyID, found), nil),
		StoryID:   storyID,
		Found:     found,
	}
}

// Store Errors

// ErrStoreQueryFailed is returned when a relational query fails
type ErrStoreQueryFailed struct {
	*BaseError
	Operation string
}

func NewStoreQueryFailed(operation string, err error) *ErrStoreQueryFailed {
	return &ErrStoreQueryFailed{
		BaseError: NewBaseError(ErrorTypeStore, fmt.Sprintf("store query failed: %s", operation), err),
		Operation: operation,
	}
}

// Search Errors

// ErrEmptyQuery is returned when a search is attempted with no query string
var ErrEmptyQuery = NewBaseError(ErrorTypeValidation, "search query must not be empty", nil)

// ErrSearchUnavailable is returned when the search index or cache backend
// fails. Callers receive this uniform error, never backend-specific detail.
type ErrSearchUnavailable struct {
	*BaseError
	Backend string
}

func NewSearchUnavailable(backend string, err error) *ErrSearchUnavailable {
	return &ErrSearchUnavailable{
		BaseError: NewBaseError(ErrorTypeSearch, "search service unavailable", err),
		Backend:   backend,
	}
}

// Cache Errors

// ErrCacheOperationFailed is returned when a Redis operation fails
type ErrCacheOperationFailed struct {
	*BaseError
	Operation string
}

func NewCacheOperationFailed(operation string, err error) *ErrCacheOperationFailed {
	return &ErrCacheOperationFailed{
		BaseError: NewBaseError(ErrorTypeCache, fmt.Sprintf("cache operation failed: %s", operation), err),
		Operation: operation,
	}
}

// Validation Errors

// ErrInvalidInput is returned for malformed client input
type ErrInvalidInput struct {
	*BaseError
	Field  string
	Reason string
}

func NewInvalidInput(field, reason string) *ErrInvalidInput {
	return &ErrInvalidInput{
		BaseError: NewBaseError(ErrorTypeValidation, fmt.Sprintf("invalid %s: %s", field, reason), nil),
		Field:     field,
		Reason:    reason,
	}
}

// Config Errors

// ErrConfigMissingRequired is returned when a required config value is missing
type ErrConfigMissingRequired struct {
	*BaseError
	Field string
}

func NewConfigMissingRequired(field string) *ErrConfigMissingRequired {
	return &ErrConfigMissingRequired{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("missing required config: %s", field), nil),
		Field:     field,
	}
}

// Helper functions

// IsErrorType checks if an error is of a specific type
func IsErrorType(err error, errType ErrorType) bool {
	if baseErr, ok := err.(*BaseError); ok {
		return baseErr.Type == errType
	}
	if typed, ok := err.(interface{ Base() *BaseError }); ok {
		return typed.Base().Type == errType
	}
	// Check wrapped errors
	if wrapped, ok := err.(interface{ Unwrap() error }); ok {
		if inner := wrapped.Unwrap(); inner != nil {
			return IsErrorType(inner, errType)
		}
	}
	return false
}

// Base exposes the embedded BaseError so IsErrorType works on concrete types
func (e *BaseError) Base() *BaseError { return e }

// IsNotFound reports whether an error is one of the write-path not-found
// errors. Read paths never return these; they degrade to empty results.
func IsNotFound(err error) bool {
	switch err.(type) {
	case *ErrStoryNodeNotFound, *ErrParentNodeNotFound:
		return true
	}
	return false
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	// Validation errors are never retryable
	if IsErrorType(err, ErrorTypeValidation) {
		return false
	}
	// Write-path not-found cannot succeed on retry until the parent exists
	if IsNotFound(err) {
		return false
	}
	// Backend connectivity errors are retryable
	if IsErrorType(err, ErrorTypeGraph) || IsErrorType(err, ErrorTypeCache) || IsErrorType(err, ErrorTypeSearch) {
		return true
	}
	return false
}
