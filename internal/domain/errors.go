package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without
// leaking infrastructure details.
var (
	// Store-level outcomes.
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrStoreUnavailable = errors.New("store unavailable")

	// Business-rule failures (mapped to 400).
	ErrMissingFields        = errors.New("required fields missing")
	ErrUsernameTaken        = errors.New("username already taken")
	ErrEmailTaken           = errors.New("email already registered")
	ErrInvalidCredentials   = errors.New("invalid username or password")
	ErrEmailNotRegistered   = errors.New("email is not registered")
	ErrInvalidOrExpiredCode = errors.New("verification code is invalid or expired")

	// Authenticated lookup for a user that no longer exists (404).
	ErrUserNotFound = errors.New("user not found")

	// Structurally invalid stored password hash (500).
	ErrHashFormat = errors.New("malformed password hash")
)
