// Package fault defines the error kinds surfaced by the document graph.
//
// Every failure of a core operation is one of five kinds. All of them are
// local, synchronous and non-retryable by the core: retry policy belongs
// to the host. Callers classify with the Is* helpers, which see through
// wrapping.
package fault

import (
	"errors"
	"fmt"
)

// Code categorizes a document graph error.
type Code string

const (
	// CodeEncoding indicates a malformed value, tag or payload.
	CodeEncoding Code = "ENCODING"

	// CodeDuplicateContent indicates the content hash is already stored.
	CodeDuplicateContent Code = "DUPLICATE_CONTENT"

	// CodeNotFound indicates an unknown id or hash.
	CodeNotFound Code = "NOT_FOUND"

	// CodeUnauthorized indicates certify without delegated permission.
	CodeUnauthorized Code = "UNAUTHORIZED"

	// CodeRecursionDepth indicates reconstruction exceeded max depth.
	CodeRecursionDepth Code = "RECURSION_DEPTH_EXCEEDED"
)

// Error is the structured error returned by the core.
type Error struct {
	// Code identifies the error category.
	Code Code

	// Message is a human-readable description.
	Message string

	// DocumentID identifies the affected document, when known.
	DocumentID uint64

	// Hash is the hex digest involved, when known.
	Hash string

	// Details contains additional context.
	Details map[string]string
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.DocumentID != 0 && e.Hash != "":
		return fmt.Sprintf("%s: %s (id=%d, hash=%s)", e.Code, e.Message, e.DocumentID, e.Hash)
	case e.DocumentID != 0:
		return fmt.Sprintf("%s: %s (id=%d)", e.Code, e.Message, e.DocumentID)
	case e.Hash != "":
		return fmt.Sprintf("%s: %s (hash=%s)", e.Code, e.Message, e.Hash)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// CodeOf returns the Code of err, or "" if err is not an *Error.
func CodeOf(err error) Code {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return ""
}

func is(err error, code Code) bool {
	return CodeOf(err) == code
}

// IsEncodingError reports whether err is an encoding error.
func IsEncodingError(err error) bool { return is(err, CodeEncoding) }

// IsDuplicateContent reports whether err is a content-addressed collision.
func IsDuplicateContent(err error) bool { return is(err, CodeDuplicateContent) }

// IsNotFound reports whether err is a lookup miss.
func IsNotFound(err error) bool { return is(err, CodeNotFound) }

// IsUnauthorized reports whether err is an authorization failure.
func IsUnauthorized(err error) bool { return is(err, CodeUnauthorized) }

// IsRecursionDepthExceeded reports whether err is a reconstruction depth failure.
func IsRecursionDepthExceeded(err error) bool { return is(err, CodeRecursionDepth) }

// Encodingf creates an encoding error.
func Encodingf(format string, args ...any) *Error {
	return &Error{Code: CodeEncoding, Message: fmt.Sprintf(format, args...)}
}

// NewDuplicateContent creates an error for a hash that is already stored.
// DocumentID is the existing document.
func NewDuplicateContent(hash string, existingID uint64) *Error {
	e := &Error{
		Code:       CodeDuplicateContent,
		Message:    "document with identical content already exists",
		DocumentID: existingID,
		Hash:       hash,
	}
	if existingID != 0 {
		e.Details = map[string]string{"existing_id": fmt.Sprintf("%d", existingID)}
	}
	return e
}

// NewNotFoundID creates a lookup error for a document id.
func NewNotFoundID(id uint64) *Error {
	return &Error{Code: CodeNotFound, Message: "document not found", DocumentID: id}
}

// NewNotFoundHash creates a lookup error for a content hash.
func NewNotFoundHash(hash string) *Error {
	return &Error{Code: CodeNotFound, Message: "document not found", Hash: hash}
}

// NewUnauthorized creates an authorization error for a certifier.
func NewUnauthorized(certifier string, documentID uint64) *Error {
	return &Error{
		Code:       CodeUnauthorized,
		Message:    fmt.Sprintf("certifier %q is not authorized", certifier),
		DocumentID: documentID,
		Details:    map[string]string{"certifier": certifier},
	}
}

// NewRecursionDepth creates an error for a walk that hit its depth bound.
// hash is the node whose back-edge would have been traversed next.
func NewRecursionDepth(documentID uint64, hash string, maxDepth int, reason string) *Error {
	return &Error{
		Code:       CodeRecursionDepth,
		Message:    fmt.Sprintf("ancestry walk exceeded max depth %d: %s", maxDepth, reason),
		DocumentID: documentID,
		Hash:       hash,
		Details: map[string]string{
			"max_depth": fmt.Sprintf("%d", maxDepth),
			"reason":    reason,
		},
	}
}
