// Package gorm provides GORM-based database operations for usageref.
package gorm

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/thebtf/usageref/internal/db"
	"github.com/thebtf/usageref/pkg/models"
)

// OrderStore provides order operations using GORM.
type OrderStore struct {
	db *gorm.DB
}

var _ db.OrderStore = (*OrderStore)(nil)

// NewOrderStore creates a new order store.
func NewOrderStore(store *Store) *OrderStore {
	return &OrderStore{db: store.DB}
}

// Persist inserts a new order. Its member and product must already be persisted.
func (s *OrderStore) Persist(ctx context.Context, order *models.Orders) error {
	if order == nil {
		return fmt.Errorf("persist order: %w: order is required", models.ErrInvalidArgument)
	}
	if order.ID() != 0 {
		return fmt.Errorf("persist order: %w: order %d is already persisted", models.ErrConflict, order.ID())
	}
	if order.Member().ID() == 0 {
		return fmt.Errorf("persist order: %w: member %q must be persisted first", models.ErrInvalidArgument, order.Member().Name())
	}
	if order.Product().ID() == 0 {
		return fmt.Errorf("persist order: %w: product %q must be persisted first", models.ErrInvalidArgument, order.Product().Name())
	}

	row := &Order{MemberID: order.Member().ID(), ProductID: order.Product().ID()}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("persist order: %w", translateWriteError(err))
	}
	return order.AssignID(row.ID)
}

// Find loads an order with its member and product.
func (s *OrderStore) Find(ctx context.Context, id int64) (*models.Orders, error) {
	var row Order
	err := s.db.WithContext(ctx).
		Preload("Member.Team").
		Preload("Product").
		First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find order %d: %w", id, db.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find order %d: %w", id, err)
	}
	return row.toModel()
}

// ListByMember returns a member's orders ordered by identifier.
func (s *OrderStore) ListByMember(ctx context.Context, memberID int64) ([]*models.Orders, error) {
	var rows []Order
	err := s.db.WithContext(ctx).
		Preload("Member.Team").
		Preload("Product").
		Where("member_id = ?", memberID).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list orders of member %d: %w", memberID, err)
	}

	orders := make([]*models.Orders, 0, len(rows))
	for i := range rows {
		o, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}
