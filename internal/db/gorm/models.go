// Package gorm provides GORM-based database operations for usageref.
package gorm

import (
	"fmt"

	"github.com/thebtf/usageref/pkg/models"
)

// GORM Models

// Team is the persisted form of models.Team.
type Team struct {
	Name string `gorm:"uniqueIndex;not null"`
	ID   int64  `gorm:"primaryKey;autoIncrement"`
}

func (Team) TableName() string { return "teams" }

// Address is embedded into Member rows as city/street columns.
type Address struct {
	City   string
	Street string
}

// Member is the persisted form of models.Member.
type Member struct {
	Team    *Team   `gorm:"foreignKey:TeamID;constraint:OnDelete:SET NULL"`
	TeamID  *int64  `gorm:"index"`
	Name    string  `gorm:"index;not null"`
	Address Address `gorm:"embedded"`
	ID      int64   `gorm:"primaryKey;autoIncrement"`
	Age     int     `gorm:"index;not null"`
}

func (Member) TableName() string { return "members" }

// TeamMember is one roster entry. The roster is kept apart from
// members.team_id so that joining a team and registering on its roster
// remain separate operations.
type TeamMember struct {
	Member   *Member `gorm:"foreignKey:MemberID;constraint:OnDelete:CASCADE"`
	TeamID   int64   `gorm:"uniqueIndex:idx_team_members_pair,priority:1;not null"`
	MemberID int64   `gorm:"uniqueIndex:idx_team_members_pair,priority:2;not null"`
	Position int     `gorm:"not null"`
	ID       int64   `gorm:"primaryKey;autoIncrement"`
}

func (TeamMember) TableName() string { return "team_members" }

// Product is the persisted form of models.Product.
type Product struct {
	Name string `gorm:"index;not null"`
	ID   int64  `gorm:"primaryKey;autoIncrement"`
}

func (Product) TableName() string { return "products" }

// Order is the persisted form of models.Orders. Each product is ordered at most once.
type Order struct {
	Member    *Member  `gorm:"foreignKey:MemberID;constraint:OnDelete:CASCADE"`
	Product   *Product `gorm:"foreignKey:ProductID"`
	ID        int64    `gorm:"primaryKey;autoIncrement"`
	MemberID  int64    `gorm:"index;not null"`
	ProductID int64    `gorm:"uniqueIndex;not null"`
}

func (Order) TableName() string { return "orders" }

// toModel rebuilds a domain team through its validated constructor.
func (t *Team) toModel() (*models.Team, error) {
	return models.NewTeam(t.ID, t.Name)
}

// toModel rebuilds a domain member, binding its team when one is loaded.
func (m *Member) toModel() (*models.Member, error) {
	member, err := models.NewMember(m.ID, m.Age, m.Name,
		models.WithAddress(models.NewAddress(m.Address.City, m.Address.Street)))
	if err != nil {
		return nil, fmt.Errorf("member row %d: %w", m.ID, err)
	}
	if m.Team != nil {
		team, err := m.Team.toModel()
		if err != nil {
			return nil, fmt.Errorf("team row %d: %w", m.Team.ID, err)
		}
		if err := member.JoinTeam(team); err != nil {
			return nil, err
		}
	}
	return member, nil
}

// memberRow converts a domain member to its row form.
func memberRow(m *models.Member) *Member {
	row := &Member{
		ID:   m.ID(),
		Age:  m.Age(),
		Name: m.Name(),
		Address: Address{
			City:   m.Address().City,
			Street: m.Address().Street,
		},
	}
	if team := m.Team(); team != nil && team.ID() != 0 {
		teamID := team.ID()
		row.TeamID = &teamID
	}
	return row
}

func (p *Product) toModel() (*models.Product, error) {
	return models.NewProduct(p.ID, p.Name)
}

func (o *Order) toModel() (*models.Orders, error) {
	if o.Member == nil || o.Product == nil {
		return nil, fmt.Errorf("order row %d: member and product must be loaded", o.ID)
	}
	member, err := o.Member.toModel()
	if err != nil {
		return nil, err
	}
	product, err := o.Product.toModel()
	if err != nil {
		return nil, err
	}
	return models.NewOrders(o.ID, member, product)
}

func membersToModels(rows []Member) ([]*models.Member, error) {
	out := make([]*models.Member, 0, len(rows))
	for i := range rows {
		m, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}
