// Package securestore persists the handful of small secrets the client keeps
// between runs: the auth token, the serialized user, the guest marker and the
// theme preference.
//
// A missing key is not an error: Get reports it with ok == false. Anything
// else that goes wrong in a backend is returned as *Error, which matches
// ErrBackend, so callers can log it and carry on.
package securestore

import (
	"context"
	"errors"
	"fmt"
)

// Persisted keys.
const (
	KeyUserToken       = "userToken"
	KeyUserData        = "userData"
	KeyIsGuest         = "isGuest"
	KeyThemePreference = "themePreference"
)

var ErrBackend = errors.New("secure store backend failure")

// Store is the contract every backend implements.
type Store interface {
	Save(ctx context.Context, key, value string) error
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Delete(ctx context.Context, key string) error
}

// Error describes a failed backend operation.
type Error struct {
	Op  string
	Key string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("securestore %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return target == ErrBackend }

func wrap(op, key string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Key: key, Err: err}
}
