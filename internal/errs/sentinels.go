// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a unique constraint violation (e.g., email taken, post already rated).
	ErrConflict = errors.New("conflict")

	// ErrValidation indicates missing or malformed input. Wrap it to carry the detail:
	//	fmt.Errorf("%w: email is required", errs.ErrValidation)
	ErrValidation = errors.New("validation failed")

	// ErrIncomplete indicates a post payload lacking required fields.
	ErrIncomplete = errors.New("insufficient data")

	// ErrUnauthorized indicates missing or invalid credentials or token.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates an authenticated caller that is not permitted
	// (wrong owner, wrong role, revoked or rotated refresh token).
	ErrForbidden = errors.New("forbidden")

	// ErrAccountDisabled indicates a login attempt on a terminated account.
	ErrAccountDisabled = errors.New("account disabled")

	// ErrTokenExpired indicates a structurally valid access token past its expiry.
	ErrTokenExpired = errors.New("token expired")

	// ErrRateLimited indicates temporary login lock due to rate limiting.
	ErrRateLimited = errors.New("rate limited")
)
