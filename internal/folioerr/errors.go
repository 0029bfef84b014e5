package folioerr

import (
	"errors"
	"fmt"
)

var (
	// ErrDecode marks a cache envelope that could not be decoded.
	ErrDecode = errors.New("cache envelope malformed")
	// ErrFetchFailed marks an enrichment or refresh source that failed.
	ErrFetchFailed = errors.New("fetch failed")
	// ErrMutationFailed marks a create, update, delete or approve call that failed.
	ErrMutationFailed = errors.New("mutation failed")
	// ErrStoreWriteFailed marks a persistent store write that was dropped.
	ErrStoreWriteFailed = errors.New("store write failed")
)

// Op names a user-initiated mutation.
type Op string

const (
	OpCreate  Op = "create"
	OpUpdate  Op = "update"
	OpDelete  Op = "delete"
	OpApprove Op = "approve"
)

// MutationError reports a failed mutation after local recovery has run.
type MutationError struct {
	Op  Op
	ID  int64
	Err error
}

func (e *MutationError) Error() string {
	if e.Op == OpCreate {
		return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %d failed: %v", e.Op, e.ID, e.Err)
}

func (e *MutationError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrMutationFailed) match any MutationError.
func (e *MutationError) Is(target error) bool {
	return target == ErrMutationFailed
}

// IsMutationFailed reports whether err is a mutation failure.
func IsMutationFailed(err error) bool {
	return errors.Is(err, ErrMutationFailed)
}

// FetchError wraps a per-entity enrichment failure.
type FetchError struct {
	Key string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Key, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool {
	return target == ErrFetchFailed
}

// UserMessage returns a short human-readable message for a mutation error.
func UserMessage(err error) string {
	var me *MutationError
	if !errors.As(err, &me) {
		return "Something went wrong"
	}
	switch me.Op {
	case OpCreate:
		return "Failed to create item"
	case OpUpdate:
		return "Failed to update item"
	case OpDelete:
		return "Failed to delete item"
	case OpApprove:
		return "Failed to approve comment"
	default:
		return "Something went wrong"
	}
}
