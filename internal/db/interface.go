// Package db defines database interfaces for the usageref stores.
package db

import (
	"context"

	"github.com/thebtf/usageref/pkg/models"
)

// Page selects a window of an ordered result set.
type Page struct {
	Offset int
	Limit  int
}

// MemberReader defines read operations for members.
type MemberReader interface {
	Find(ctx context.Context, id int64) (*models.Member, error)
	Contains(ctx context.Context, id int64) (bool, error)
	List(ctx context.Context, page Page) ([]*models.Member, error)
	FindByName(ctx context.Context, name string) (*models.Member, error)
	FindByNameAndAge(ctx context.Context, name string, age int) (*models.Member, error)
	FindByAge(ctx context.Context, age int) ([]*models.Member, error)
}

// MemberWriter defines write operations for members.
type MemberWriter interface {
	Persist(ctx context.Context, member *models.Member) error
	Merge(ctx context.Context, member *models.Member) (*models.Member, error)
	Remove(ctx context.Context, id int64) error
	JoinTeam(ctx context.Context, memberID, teamID int64) (*models.Member, error)
}

// MemberStore combines read and write operations for members.
type MemberStore interface {
	MemberReader
	MemberWriter
}

// TeamStore defines operations for teams and their rosters.
type TeamStore interface {
	Persist(ctx context.Context, team *models.Team) error
	Find(ctx context.Context, id int64) (*models.Team, error)
	FindByName(ctx context.Context, name string) (*models.Team, error)
	List(ctx context.Context, page Page) ([]*models.Team, error)
	AddMember(ctx context.Context, teamID, memberID int64) (*models.Team, error)
}

// ProductStore defines operations for products.
type ProductStore interface {
	Persist(ctx context.Context, product *models.Product) error
	Find(ctx context.Context, id int64) (*models.Product, error)
	FindByName(ctx context.Context, name string) (*models.Product, error)
}

// OrderStore defines operations for orders.
type OrderStore interface {
	Persist(ctx context.Context, order *models.Orders) error
	Find(ctx context.Context, id int64) (*models.Orders, error)
	ListByMember(ctx context.Context, memberID int64) ([]*models.Orders, error)
}

// QueryStore defines projection and aggregate queries.
type QueryStore interface {
	MemberItems(ctx context.Context, page Page) ([]models.MemberItem, error)
	MemberItem(ctx context.Context, id int64) (models.MemberItem, error)
	NameAges(ctx context.Context) ([]models.NameAge, error)
	Addresses(ctx context.Context) ([]models.Address, error)
	Ages(ctx context.Context) ([]int, error)
	DistinctAges(ctx context.Context, age int) ([]int, error)
	AverageAge(ctx context.Context) (float64, error)
	AgeStats(ctx context.Context) (models.AgeStats, error)
	TeamAgeStats(ctx context.Context, minAvgAge float64) ([]models.TeamAgeStats, error)
	OrderLines(ctx context.Context) ([]models.OrderLine, error)
}
