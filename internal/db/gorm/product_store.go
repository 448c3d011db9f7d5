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

// ProductStore provides product operations using GORM.
type ProductStore struct {
	db *gorm.DB
}

var _ db.ProductStore = (*ProductStore)(nil)

// NewProductStore creates a new product store.
func NewProductStore(store *Store) *ProductStore {
	return &ProductStore{db: store.DB}
}

// Persist inserts a new product and assigns its identifier.
func (s *ProductStore) Persist(ctx context.Context, product *models.Product) error {
	if product == nil {
		return fmt.Errorf("persist product: %w: product is required", models.ErrInvalidArgument)
	}
	if product.ID() != 0 {
		return fmt.Errorf("persist product: %w: product %d is already persisted", models.ErrConflict, product.ID())
	}

	row := &Product{Name: product.Name()}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("persist product: %w", translateWriteError(err))
	}
	return product.AssignID(row.ID)
}

// Find loads a product by identifier.
func (s *ProductStore) Find(ctx context.Context, id int64) (*models.Product, error) {
	var row Product
	err := s.db.WithContext(ctx).First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find product %d: %w", id, db.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find product %d: %w", id, err)
	}
	return row.toModel()
}

// FindByName returns the only product with the given name.
func (s *ProductStore) FindByName(ctx context.Context, name string) (*models.Product, error) {
	var rows []Product
	if err := s.db.WithContext(ctx).Where("name = ?", name).Limit(2).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find product by name: %w", err)
	}
	row, err := db.SingleResult(rows)
	if err != nil {
		return nil, fmt.Errorf("product with name %s: %w", name, err)
	}
	return row.toModel()
}
