// internal/services/errors.go
package services

import (
	"errors"
	"fmt"
)

var (
	// ErrNotAuthenticated means no matching, active profile backs the caller.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrPermissionDenied means the caller's role does not grant the capability.
	ErrPermissionDenied = errors.New("insufficient role")

	// ErrNotFound means the referenced row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict means the row moved under us between validation and write,
	// typically two admins racing on the same order.
	ErrConflict = errors.New("resource was modified concurrently, please retry")

	// ErrInvalid marks business-rule rejections whose message names the
	// offending values and is safe to surface to the client. Match with
	// errors.Is; construct with invalidf.
	ErrInvalid = errors.New("invalid request")
)

type invalidError struct {
	msg string
}

func (e *invalidError) Error() string { return e.msg }

func (e *invalidError) Is(target error) bool { return target == ErrInvalid }

func invalidf(format string, args ...interface{}) error {
	return &invalidError{msg: fmt.Sprintf(format, args...)}
}
