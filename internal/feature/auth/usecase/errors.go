package usecase

import "errors"

var (
	// ErrUserNotFound is returned when a user cannot be found by email or ID.
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailAlreadyExists is returned when attempting to create a user with an email that already exists.
	ErrEmailAlreadyExists = errors.New("email already exists")

	// ErrUsernameTaken is returned by a UserRepository when the derived username collides.
	ErrUsernameTaken = errors.New("username already taken")

	// ErrInvalidCredentials is returned by Signin for both an unknown email and a wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrInvalidInput is returned when signup or signin input fails basic validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSessionNotFound is returned by a SessionRepository when a session is absent or expired.
	ErrSessionNotFound = errors.New("session not found")

	// ErrUnauthenticated is returned when a session token does not resolve to a live user.
	ErrUnauthenticated = errors.New("not authenticated")
)
