// Package gorm provides GORM-based database operations for usageref.
package gorm

import (
	"context"
	"database/sql"
	"fmt"

	"gorm.io/gorm"

	"github.com/thebtf/usageref/internal/db"
	"github.com/thebtf/usageref/pkg/models"
)

// QueryStore runs projection and aggregate queries over members, teams and orders.
type QueryStore struct {
	db *gorm.DB
}

var _ db.QueryStore = (*QueryStore)(nil)

// NewQueryStore creates a new query store.
func NewQueryStore(store *Store) *QueryStore {
	return &QueryStore{db: store.DB}
}

// ageStatsColumns selects the aggregate functions over member ages.
const ageStatsColumns = "COUNT(m.age) AS count, SUM(m.age) AS sum_age, AVG(m.age) AS avg_age, MIN(m.age) AS min_age, MAX(m.age) AS max_age"

// ageStatsRow receives aggregate columns. Everything but count is NULL on an empty set.
type ageStatsRow struct {
	TeamName sql.NullString
	SumAge   sql.NullInt64
	AvgAge   sql.NullFloat64
	MinAge   sql.NullInt64
	MaxAge   sql.NullInt64
	Count    int64
}

func (r ageStatsRow) toModel() models.AgeStats {
	return models.AgeStats{
		Count: r.Count,
		Sum:   r.SumAge,
		Avg:   r.AvgAge,
		Min:   r.MinAge,
		Max:   r.MaxAge,
	}
}

type memberItemRow struct {
	Name string
	ID   int64
}

// MemberItems projects members onto MemberItem values, ordered by identifier.
func (s *QueryStore) MemberItems(ctx context.Context, page db.Page) ([]models.MemberItem, error) {
	page = NormalizePage(page)

	var rows []memberItemRow
	err := s.db.WithContext(ctx).
		Model(&Member{}).
		Select("id, name").
		Order("id").
		Offset(page.Offset).
		Limit(page.Limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("member items: %w", err)
	}

	items := make([]models.MemberItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, models.NewMemberItem(r.ID, r.Name))
	}
	return items, nil
}

// MemberItem projects a single member onto a MemberItem.
func (s *QueryStore) MemberItem(ctx context.Context, id int64) (models.MemberItem, error) {
	var rows []memberItemRow
	err := s.db.WithContext(ctx).
		Model(&Member{}).
		Select("id, name").
		Where("id = @id", sql.Named("id", id)).
		Limit(2).
		Scan(&rows).Error
	if err != nil {
		return models.MemberItem{}, fmt.Errorf("member item %d: %w", id, err)
	}

	row, err := db.SingleResult(rows)
	if err != nil {
		return models.MemberItem{}, fmt.Errorf("member item %d: %w", id, err)
	}
	return models.NewMemberItem(row.ID, row.Name), nil
}

// NameAges projects every member onto its (name, age) pair.
func (s *QueryStore) NameAges(ctx context.Context) ([]models.NameAge, error) {
	var out []models.NameAge
	err := s.db.WithContext(ctx).Model(&Member{}).Select("name, age").Order("id").Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("name ages: %w", err)
	}
	return out, nil
}

// Addresses projects the embedded address of every member.
func (s *QueryStore) Addresses(ctx context.Context) ([]models.Address, error) {
	var out []models.Address
	err := s.db.WithContext(ctx).Model(&Member{}).Select("city, street").Order("id").Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("addresses: %w", err)
	}
	return out, nil
}

// Ages projects every member age, ordered by member identifier.
func (s *QueryStore) Ages(ctx context.Context) ([]int, error) {
	var ages []int
	if err := s.db.WithContext(ctx).Model(&Member{}).Order("id").Pluck("age", &ages).Error; err != nil {
		return nil, fmt.Errorf("ages: %w", err)
	}
	return ages, nil
}

// DistinctAges returns the distinct ages equal to age: one element when any
// member has that age, none otherwise.
func (s *QueryStore) DistinctAges(ctx context.Context, age int) ([]int, error) {
	var ages []int
	err := s.db.WithContext(ctx).
		Model(&Member{}).
		Distinct().
		Where("age = ?", age).
		Pluck("age", &ages).Error
	if err != nil {
		return nil, fmt.Errorf("distinct ages: %w", err)
	}
	return ages, nil
}

// AverageAge returns the average member age, or db.ErrNotFound when there
// are no members.
func (s *QueryStore) AverageAge(ctx context.Context) (float64, error) {
	var avg sql.NullFloat64
	if err := s.db.WithContext(ctx).Model(&Member{}).Select("AVG(age)").Scan(&avg).Error; err != nil {
		return 0, fmt.Errorf("average age: %w", err)
	}
	if !avg.Valid {
		return 0, fmt.Errorf("average age: %w", db.ErrNotFound)
	}
	return avg.Float64, nil
}

// AgeStats computes COUNT, SUM, AVG, MIN and MAX over member ages.
func (s *QueryStore) AgeStats(ctx context.Context) (models.AgeStats, error) {
	var row ageStatsRow
	err := s.db.WithContext(ctx).
		Table("members AS m").
		Select(ageStatsColumns).
		Scan(&row).Error
	if err != nil {
		return models.AgeStats{}, fmt.Errorf("age stats: %w", err)
	}
	return row.toModel(), nil
}

// TeamAgeStats groups members by team name and keeps groups whose average
// age is greater than minAvgAge. Members without a team form one group with
// a NULL team name.
func (s *QueryStore) TeamAgeStats(ctx context.Context, minAvgAge float64) ([]models.TeamAgeStats, error) {
	var rows []ageStatsRow
	err := s.db.WithContext(ctx).
		Table("members AS m").
		Select("t.name AS team_name, "+ageStatsColumns).
		Joins("LEFT JOIN teams t ON t.id = m.team_id").
		Group("t.name").
		Having("AVG(m.age) > ?", minAvgAge).
		Order("t.name").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("team age stats: %w", err)
	}

	out := make([]models.TeamAgeStats, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.TeamAgeStats{TeamName: r.TeamName, AgeStats: r.toModel()})
	}
	return out, nil
}

// OrderLines projects each order onto its member and product names.
func (s *QueryStore) OrderLines(ctx context.Context) ([]models.OrderLine, error) {
	var out []models.OrderLine
	err := s.db.WithContext(ctx).
		Table("orders AS o").
		Select("o.id AS order_id, m.name AS member_name, p.name AS product_name").
		Joins("JOIN members m ON m.id = o.member_id").
		Joins("JOIN products p ON p.id = o.product_id").
		Order("o.id").
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("order lines: %w", err)
	}
	return out, nil
}
