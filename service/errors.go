package service

import "github.com/biosecret/todo-auth/apperrors"

var (
	ErrValidation = apperrors.Validation("username and password are required")
	// ErrPasswordTooLong is a validation failure; bcrypt only reads 72 bytes.
	ErrPasswordTooLong    = apperrors.Validation("password must be at most 72 bytes")
	ErrUsernameTaken      = apperrors.Conflict("username already taken")
	ErrInvalidCredentials = apperrors.Unauthorized("invalid credentials")
	ErrAuthRequired       = apperrors.Unauthorized("authentication required")
)
