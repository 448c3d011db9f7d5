// Package models contains domain models for usageref.
package models

import "errors"

var (
	// ErrInvalidArgument reports a construction-time contract violation
	// (missing required field, out-of-range value).
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrConflict reports an illegal state transition such as a duplicate
	// team join or a duplicate roster entry.
	ErrConflict = errors.New("conflict")
)
