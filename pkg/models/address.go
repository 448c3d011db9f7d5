// Package models contains domain models for usageref.
package models

// Address is an embeddable value object. Two addresses are equal when both
// city and street are equal.
type Address struct {
	City   string `json:"city"`
	Street string `json:"street"`
}

// NewAddress creates an address value.
func NewAddress(city, street string) Address {
	return Address{City: city, Street: street}
}

// Equal reports whether both addresses hold the same city and street.
func (a Address) Equal(other Address) bool {
	return a == other
}

// IsZero reports whether the address carries no data.
func (a Address) IsZero() bool {
	return a == Address{}
}
