// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrValidation indicates invalid input. Wrap it with the field detail:
// fmt.Errorf("%w: email is required", domain.ErrValidation).
var ErrValidation = errors.New("validation error")

// ErrBackendUnavailable indicates the marketplace backend could not serve a
// call (timeout, network error, non-2xx status or undecodable body).
var ErrBackendUnavailable = errors.New("backend unavailable")

// ErrInvalidToken indicates a session token that is malformed, forged or expired.
var ErrInvalidToken = errors.New("invalid session token")
