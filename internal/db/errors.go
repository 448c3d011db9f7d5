// Package db defines database interfaces for the usageref stores.
package db

import "errors"

var (
	// ErrNotFound indicates a single-result query matched no rows.
	ErrNotFound = errors.New("db: not found")

	// ErrNonUniqueResult indicates a single-result query matched more than one row.
	ErrNonUniqueResult = errors.New("db: non-unique result")
)

// SingleResult enforces single-result semantics over a query result set.
func SingleResult[T any](results []T) (T, error) {
	var zero T
	switch len(results) {
	case 0:
		return zero, ErrNotFound
	case 1:
		return results[0], nil
	default:
		return zero, ErrNonUniqueResult
	}
}
