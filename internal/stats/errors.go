package stats

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidUserID   = errors.New("user id is required and may not contain ':'")
	ErrInvalidUsername = errors.New("username must be 3 to 30 letters, digits or underscores")
	ErrUsernameTaken   = errors.New("username is already taken")
	ErrProfileExists   = errors.New("profile is already set up")
)

// PersistenceError means a computed result could not be read from or
// written to the profile store. The result it accompanies is still valid.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("profile %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
