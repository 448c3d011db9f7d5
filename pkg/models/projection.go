// Package models contains domain models for usageref.
package models

import "database/sql"

// MemberItem is a constructor-style projection of a member.
type MemberItem struct {
	Name string `json:"name"`
	ID   int64  `json:"id"`
}

// NewMemberItem builds a MemberItem projection.
func NewMemberItem(id int64, name string) MemberItem {
	return MemberItem{ID: id, Name: name}
}

// NameAge is a multi-value projection over member name and age.
type NameAge struct {
	Name string `json:"name"`
	Age  int    `json:"age"`
}

// OrderLine is a multi-value projection joining an order to its member and product.
type OrderLine struct {
	MemberName  string `json:"member_name"`
	ProductName string `json:"product_name"`
	OrderID     int64  `json:"order_id"`
}

// AgeStats holds aggregate functions over member ages.
// Count is 0 on an empty set while the other values are NULL.
type AgeStats struct {
	Sum   sql.NullInt64   `json:"sum"`
	Avg   sql.NullFloat64 `json:"avg"`
	Min   sql.NullInt64   `json:"min"`
	Max   sql.NullInt64   `json:"max"`
	Count int64           `json:"count"`
}

// TeamAgeStats holds per-team aggregates. TeamName is NULL for members
// without a team.
type TeamAgeStats struct {
	TeamName sql.NullString `json:"team_name"`
	AgeStats
}
