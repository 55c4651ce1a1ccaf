package domain

import "errors"

var (
	// ErrInvalidConfig is returned when a round configuration cannot produce a playable round.
	ErrInvalidConfig = errors.New("invalid round configuration")
	// ErrRoundNotFound is returned when a round id is unknown or was abandoned.
	ErrRoundNotFound = errors.New("round not found")
	// ErrSessionNotFound is returned when a session token is unknown or expired.
	ErrSessionNotFound = errors.New("session not found")
	// ErrAccountNotFound indicates no account exists for the username in that mode.
	ErrAccountNotFound = errors.New("account not found")
	// ErrAccountExists indicates an account was created concurrently.
	ErrAccountExists = errors.New("account already exists")
	// ErrInvalidCredentials indicates the username/password/mode failed validation.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrWrongPassword indicates the password does not match the stored account.
	ErrWrongPassword = errors.New("wrong password")
)
