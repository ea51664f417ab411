// Package errors defines kind-tagged errors returned across component boundaries.
// Components never panic on expected failures; they return a *E whose Kind lets
// the HTTP layer pick a status code without inspecting message text.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind is a machine-readable error category.
type Kind string

const (
	// KindValidation indicates a missing or empty request field.
	KindValidation Kind = "validation"
	// KindConnectivity indicates no connection, a lost connection or a failed connect.
	KindConnectivity Kind = "connectivity"
	// KindIntrospection indicates schema introspection failed on a live connection.
	KindIntrospection Kind = "introspection"
	// KindSynthesis indicates the question could not be turned into a statement.
	KindSynthesis Kind = "synthesis"
	// KindExecution indicates the database rejected or failed the statement.
	KindExecution Kind = "execution"
	// KindInternal is anything unclassified.
	KindInternal Kind = "internal"
)

// E wraps an error with kind and human-friendly message.
type E struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *E) Error() string {
	if e.Err != nil && e.Err.Error() != e.Message {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *E) Unwrap() error { return e.Err }

func Wrap(kind Kind, msg string, err error) *E { return &E{Kind: kind, Message: msg, Err: err} }
func New(kind Kind, msg string) *E             { return &E{Kind: kind, Message: msg} }

// KindOf returns the kind of the first *E in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *E
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the human-friendly message of the first *E in err's chain.
// For other errors it returns err.Error().
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var e *E
	if stderrors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var e *E
	return stderrors.As(err, &e) && e.Kind == kind
}
