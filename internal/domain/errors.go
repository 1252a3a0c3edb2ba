package domain

import "errors"

var (
	// ErrClientNotFound is returned when a client id is unknown
	ErrClientNotFound = errors.New("client not found")

	// ErrUserNotFound is returned when no user matches the lookup
	ErrUserNotFound = errors.New("user not found")

	// ErrUserExists is returned when creating a user that already exists
	ErrUserExists = errors.New("user already exists")

	// ErrCodeNotFound is returned when an authorization code is unknown or
	// already consumed
	ErrCodeNotFound = errors.New("authorization code not found")

	// ErrCodeExists is returned when a generated code collides with one in use
	ErrCodeExists = errors.New("authorization code already in use")

	// ErrTokenNotFound is returned when a token value is unknown
	ErrTokenNotFound = errors.New("token not found")

	// ErrTokenExpired is returned when an access token is past its expiry
	ErrTokenExpired = errors.New("token expired")

	// ErrStorageUnavailable is returned when a storage adapter failed for a
	// reason other than the record being absent
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrInternal is returned when there is an internal server error
	ErrInternal = errors.New("internal server error")
)
