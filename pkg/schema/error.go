package schema

import (
	"errors"
	"fmt"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// ErrorKind classifies a workflow failure by the stage which produced it.
type ErrorKind int

// Error is a failure of one workflow stage. Op names the remote operation
// (for example "resource_create" or "batch") and Err is the underlying cause.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	_ ErrorKind = iota
	KindAuthorization
	KindStorageTransfer
	KindPersistence
	KindFinalization
	KindCancelled
)

var (
	// Sentinels which match any *Error of the same kind with errors.Is
	ErrAuthorization   = &Error{Kind: KindAuthorization}
	ErrStorageTransfer = &Error{Kind: KindStorageTransfer}
	ErrPersistence     = &Error{Kind: KindPersistence}
	ErrFinalization    = &Error{Kind: KindFinalization}
	ErrCancelled       = &Error{Kind: KindCancelled}

	// ErrNothingSelected is returned when save is requested without a file
	ErrNothingSelected = CancelledError("select", errors.New("no file selected"))

	// ErrEditDataset is returned when the user leaves for the dataset edit page
	ErrEditDataset = CancelledError("go-dataset", errors.New("returned to dataset"))

	// ErrScopeNotGranted is the cause when a token lacks a requested scope
	ErrScopeNotGranted = errors.New("requested scope was not granted")
)

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

func AuthorizationError(op string, err error) error {
	return &Error{Kind: KindAuthorization, Op: op, Err: err}
}

func StorageTransferError(op string, err error) error {
	return &Error{Kind: KindStorageTransfer, Op: op, Err: err}
}

func PersistenceError(op string, err error) error {
	return &Error{Kind: KindPersistence, Op: op, Err: err}
}

func FinalizationError(op string, err error) error {
	return &Error{Kind: KindFinalization, Op: op, Err: err}
}

func CancelledError(op string, err error) error {
	return &Error{Kind: KindCancelled, Op: op, Err: err}
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

func (e *Error) Error() string {
	switch {
	case e.Op == "" && e.Err == nil:
		return e.Kind.String()
	case e.Err == nil:
		return fmt.Sprintf("%s: %s", e.Kind, e.Op)
	case e.Op == "":
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error sentinel of the same kind
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Op == "" && t.Err == nil && t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in the chain, or zero
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func (k ErrorKind) String() string {
	switch k {
	case KindAuthorization:
		return "authorization error"
	case KindStorageTransfer:
		return "storage transfer error"
	case KindPersistence:
		return "persistence error"
	case KindFinalization:
		return "finalization error"
	case KindCancelled:
		return "cancelled"
	default:
		return "unknown error"
	}
}
