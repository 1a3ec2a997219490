package shared

import "errors"

var (
	// ErrNotFound indicates a referenced business, member or record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden indicates the acting user lacks the required role.
	ErrForbidden = errors.New("forbidden")
	// ErrValidation indicates malformed or rule-violating input.
	ErrValidation = errors.New("validation failed")
	// ErrConflict indicates a uniqueness conflict (duplicate member, invite code).
	ErrConflict = errors.New("conflict")
)
