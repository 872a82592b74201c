package credentials

import (
	"errors"
	"fmt"
)

// ErrStorage is matched by every error coming out of the store.
var ErrStorage = errors.New("credential storage error")

// ErrNoSession is returned by ReplaceUser when no token is stored.
var ErrNoSession = errors.New("no stored session")

var errNilUser = errors.New("nil user profile")

// StorageError reports which store operation failed.
type StorageError struct {
	Op  string
	Err error
}

func storageError(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("credential store: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() []error {
	return []error{ErrStorage, e.Err}
}
