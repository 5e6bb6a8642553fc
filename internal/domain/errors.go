package domain

import "errors"

var (
	// ErrInvalidInput indicates a malformed or missing request field,
	// detected before any store call.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnauthorized indicates a failed credential check or a missing
	// session. The message never reveals which part of the credential was
	// wrong.
	ErrUnauthorized = errors.New("invalid email or password")
	// ErrConflict indicates a violation of the email uniqueness constraint.
	ErrConflict = errors.New("user already exists")
	// ErrDuplicateEmail is reported by repositories when the store rejects a
	// write with a duplicate key. Services map it to ErrConflict.
	ErrDuplicateEmail = errors.New("duplicate email")
)
