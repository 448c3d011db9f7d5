// Package models contains domain models for usageref.
package models

import "fmt"

// Orders records one member ordering one product. Both references are fixed
// at construction.
type Orders struct {
	member  *Member
	product *Product
	id      int64
}

// NewOrders creates a validated order.
func NewOrders(id int64, member *Member, product *Product) (*Orders, error) {
	if member == nil {
		return nil, fmt.Errorf("%w: order member is required", ErrInvalidArgument)
	}
	if product == nil {
		return nil, fmt.Errorf("%w: order product is required", ErrInvalidArgument)
	}
	return &Orders{id: id, member: member, product: product}, nil
}

// ID returns the order identifier, 0 when unassigned.
func (o *Orders) ID() int64 { return o.id }

// Member returns the ordering member.
func (o *Orders) Member() *Member { return o.member }

// Product returns the ordered product.
func (o *Orders) Product() *Product { return o.product }

// AssignID records the identifier handed out by a store.
func (o *Orders) AssignID(id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: order id must be positive", ErrInvalidArgument)
	}
	if o.id != 0 && o.id != id {
		return fmt.Errorf("%w: order already has id %d", ErrConflict, o.id)
	}
	o.id = id
	return nil
}
