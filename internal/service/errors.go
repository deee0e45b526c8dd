package service

import "errors"

// Expected, user-facing outcomes. Handlers map these to 4xx responses
// with generic wording; anything else is treated as an internal failure.
var (
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrAccountInactive       = errors.New("account inactive")
	ErrUnauthenticated       = errors.New("authentication required")
	ErrForbidden             = errors.New("access restricted")
	ErrDuplicateEmail        = errors.New("email already registered")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	ErrPasswordMismatch      = errors.New("passwords do not match")
	ErrMalformedInput        = errors.New("malformed input")
	ErrNotFound              = errors.New("not found")
	ErrBootstrapProtected    = errors.New("bootstrap account is protected")
	ErrSelfDelete            = errors.New("cannot delete own account")
)
