// Package models contains domain models for usageref.
package models

import "fmt"

// Product is an orderable item.
type Product struct {
	name string
	id   int64
}

// NewProduct creates a validated product.
func NewProduct(id int64, name string) (*Product, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: product name is required", ErrInvalidArgument)
	}
	return &Product{id: id, name: name}, nil
}

// ID returns the product identifier, 0 when unassigned.
func (p *Product) ID() int64 { return p.id }

// Name returns the product name.
func (p *Product) Name() string { return p.name }

// AssignID records the identifier handed out by a store.
func (p *Product) AssignID(id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: product id must be positive", ErrInvalidArgument)
	}
	if p.id != 0 && p.id != id {
		return fmt.Errorf("%w: product already has id %d", ErrConflict, p.id)
	}
	p.id = id
	return nil
}
