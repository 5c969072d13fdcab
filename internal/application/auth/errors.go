package auth

import "errors"

// ErrInvalidEmail and ErrIncorrectPassword share a message so login does not
// reveal which emails are registered.
var (
	ErrEmailPasswordRequired = errors.New("Email and password are required")
	ErrInvalidEmail          = errors.New("Invalid email or password")
	ErrIncorrectPassword     = errors.New("Invalid email or password")
	ErrNotAuthenticated      = errors.New("Not authenticated")
)
