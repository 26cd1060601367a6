package letter

import "errors"

var (
	// ErrLetterNotFound indicates the letter doesn't exist.
	ErrLetterNotFound = errors.New("letter not found")
	// ErrInvalidInput indicates invalid input for letter operations.
	ErrInvalidInput = errors.New("invalid letter input")
)
