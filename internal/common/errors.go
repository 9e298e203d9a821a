// Package common defines shared constants and sentinel errors used across
// trustkeeper components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Storage failures. Distinct from every domain error below so callers can
	// tell "rejected" from "could not determine".
	ErrStorageUnavailable = errors.New("storage unavailable")

	// Identity errors.
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrDuplicateEmail     = errors.New("duplicate email")
	ErrInvalidPermission  = errors.New("invalid permission")
	ErrInvalidArgument    = errors.New("invalid argument")

	// Verification code errors.
	ErrInvalidVerificationCode = errors.New("invalid verification code")
	ErrAlreadyVerified         = errors.New("email already verified")

	// Credential errors.
	ErrMalformedCredential  = errors.New("malformed credential")
	ErrCredentialExpired    = errors.New("credential expired")
	ErrRefreshTokenRequired = errors.New("refresh token required")
	ErrAccessTokenRequired  = errors.New("access token required")
	ErrRevokedToken         = errors.New("token has been revoked")
)
