package services

import "errors"

var (
	// ErrDuplicateEmail is returned when registering an email that already has an account.
	ErrDuplicateEmail = errors.New("an account with this email already exists")
	// ErrAuthFailure covers both an unknown email and a wrong password.
	ErrAuthFailure = errors.New("invalid email or password")
	// ErrNotAuthenticated is returned when a request carries no live session.
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrUserNotFound     = errors.New("user not found")
	ErrInvalidInput     = errors.New("invalid input")
	// ErrPredictionUnavailable wraps failures of the external price model.
	ErrPredictionUnavailable = errors.New("price prediction is unavailable")
)
