package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrPostNotFound is returned when the referenced post does not exist.
var ErrPostNotFound = errors.New("post not found")

// ValidationError carries one message per offending input field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// AuthorizationError means the caller may not perform the operation.
type AuthorizationError struct {
	// Authenticated is false when no caller identity was supplied at all.
	Authenticated bool
	Reason        string
}

func (e *AuthorizationError) Error() string {
	return e.Reason
}

var (
	ErrUnauthenticated = &AuthorizationError{Authenticated: false, Reason: "authentication required"}
	ErrNotOwner        = &AuthorizationError{Authenticated: true, Reason: "only the owner may modify this post"}
)

// StorageError wraps a failure of the image store.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
