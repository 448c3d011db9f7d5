// Package gorm provides GORM-based database operations for usageref.
package gorm

import (
	"net/http"
	"strconv"

	"github.com/thebtf/usageref/internal/db"
)

// DefaultPageSize is used when a page carries no positive limit.
const DefaultPageSize = 20

// MaxPaginationLimit is the maximum allowed limit for pagination queries.
// This protects against resource exhaustion from excessively large requests.
const MaxPaginationLimit = 1000

// NormalizePage clamps a page to a non-negative offset and a limit in
// [1, MaxPaginationLimit], substituting DefaultPageSize for a missing limit.
func NormalizePage(page db.Page) db.Page {
	if page.Offset < 0 {
		page.Offset = 0
	}
	if page.Limit <= 0 {
		page.Limit = DefaultPageSize
	}
	if page.Limit > MaxPaginationLimit {
		page.Limit = MaxPaginationLimit
	}
	return page
}

// ParseLimitParam parses the "limit" query parameter from an HTTP request.
// Returns defaultLimit if the parameter is missing or invalid.
func ParseLimitParam(r *http.Request, defaultLimit int) int {
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultLimit
}

// ParseOffsetParam parses the "offset" query parameter from an HTTP request.
// Returns 0 if the parameter is missing or invalid.
func ParseOffsetParam(r *http.Request) int {
	if o := r.URL.Query().Get("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			return parsed
		}
	}
	return 0
}

// ParsePageParams parses both limit and offset from an HTTP request.
func ParsePageParams(r *http.Request, defaultLimit int) db.Page {
	return NormalizePage(db.Page{
		Limit:  ParseLimitParam(r, defaultLimit),
		Offset: ParseOffsetParam(r),
	})
}
