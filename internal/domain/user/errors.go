package user

import "errors"

var (
	// ErrUserNotFound indicates the user doesn't exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrBadCredentials indicates a failed login attempt.
	ErrBadCredentials = errors.New("invalid username or password")
	// ErrProtectedUser indicates an attempt to delete the primary admin.
	ErrProtectedUser = errors.New("the primary admin account cannot be deleted")
	// ErrInvalidInput indicates invalid input for user operations.
	ErrInvalidInput = errors.New("invalid user input")
)
