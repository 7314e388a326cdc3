package service

import (
	"errors"
	"fmt"
)

// Service errors. Handlers map these to HTTP statuses; anything else
// escaping a service is a bug.
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidTarget    = errors.New("invalid target user")
	ErrSelfMessage      = errors.New("cannot message yourself")
	ErrDuplicateRequest = errors.New("request already sent")
	ErrAlreadyContacts  = errors.New("already in contacts")
	ErrNotContacts      = errors.New("user is not in your contacts")
	ErrAccessDenied     = errors.New("access denied")
	ErrEmptyContent     = errors.New("message content required")
	ErrNoImage          = errors.New("no image uploaded")
	ErrUnavailable      = errors.New("service unavailable")
)

// unavailable wraps a storage failure so callers see ErrUnavailable
// instead of a raw driver error
func unavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
