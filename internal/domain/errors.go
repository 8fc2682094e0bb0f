package domain

import "errors"

// ErrUnauthorized is returned when the API responds with HTTP 401.
// Callers can check for it using errors.Is to tell a rejected credential apart
// from other request failures.
var ErrUnauthorized = errors.New("unauthorized")

// ErrSessionExpired is returned once the refresh credential has been rejected
// and the stored session has been purged. Re-authentication is required.
var ErrSessionExpired = errors.New("session expired")

// ErrForbidden is returned when the API responds with HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrNotFound is returned when the API responds with HTTP 404.
var ErrNotFound = errors.New("not found")
