package model

import "errors"

var (
	// ErrUserNotFound is returned by user stores when no row matches.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidToken marks a token that failed signature or expiry checks.
	ErrInvalidToken = errors.New("invalid or expired token")
)
