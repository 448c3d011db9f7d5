package gorm

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/thebtf/usageref/internal/db"
)

func TestNormalizePage(t *testing.T) {
	tests := []struct {
		name string
		in   db.Page
		want db.Page
	}{
		{name: "zero value", in: db.Page{}, want: db.Page{Limit: DefaultPageSize}},
		{name: "negative offset", in: db.Page{Offset: -5, Limit: 10}, want: db.Page{Limit: 10}},
		{name: "over max", in: db.Page{Offset: 3, Limit: MaxPaginationLimit + 1}, want: db.Page{Offset: 3, Limit: MaxPaginationLimit}},
		{name: "unchanged", in: db.Page{Offset: 10, Limit: 10}, want: db.Page{Offset: 10, Limit: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePage(tt.in))
		})
	}
}

func TestParsePageParams(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  db.Page
	}{
		{name: "defaults", query: "", want: db.Page{Limit: 25}},
		{name: "explicit", query: "?limit=10&offset=30", want: db.Page{Offset: 30, Limit: 10}},
		{name: "invalid values", query: "?limit=abc&offset=-1", want: db.Page{Limit: 25}},
		{name: "clamped", query: "?limit=5000", want: db.Page{Limit: MaxPaginationLimit}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/api/members"+tt.query, nil)
			assert.Equal(t, tt.want, ParsePageParams(r, 25))
		})
	}
}
