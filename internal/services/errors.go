package services

import "errors"

var (
	// ErrNotFound covers both missing rows and rows owned by another user.
	ErrNotFound           = errors.New("not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)
