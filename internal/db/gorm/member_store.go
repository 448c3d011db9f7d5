// Package gorm provides GORM-based database operations for usageref.
package gorm

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/thebtf/usageref/internal/db"
	"github.com/thebtf/usageref/pkg/models"
)

// MemberStore provides member-related database operations using GORM.
type MemberStore struct {
	db *gorm.DB
}

var _ db.MemberStore = (*MemberStore)(nil)

// NewMemberStore creates a new member store.
func NewMemberStore(store *Store) *MemberStore {
	return &MemberStore{db: store.DB}
}

// Persist inserts a new member and assigns its identifier.
// A referenced team must already be persisted.
func (s *MemberStore) Persist(ctx context.Context, member *models.Member) error {
	if member == nil {
		return fmt.Errorf("persist member: %w: member is required", models.ErrInvalidArgument)
	}
	if member.ID() != 0 {
		return fmt.Errorf("persist member: %w: member %d is already persisted", models.ErrConflict, member.ID())
	}
	if team := member.Team(); team != nil && team.ID() == 0 {
		return fmt.Errorf("persist member: %w: team %q must be persisted first", models.ErrInvalidArgument, team.Name())
	}

	row := memberRow(member)
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("persist member: %w", translateWriteError(err))
	}
	return member.AssignID(row.ID)
}

// Find loads a member and its team by identifier.
func (s *MemberStore) Find(ctx context.Context, id int64) (*models.Member, error) {
	row, err := s.findRow(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	return row.toModel()
}

func (s *MemberStore) findRow(ctx context.Context, tx *gorm.DB, id int64) (*Member, error) {
	var row Member
	err := tx.WithContext(ctx).Preload("Team").First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find member %d: %w", id, db.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find member %d: %w", id, err)
	}
	return &row, nil
}

// Contains reports whether a member row with the identifier exists.
func (s *MemberStore) Contains(ctx context.Context, id int64) (bool, error) {
	if id == 0 {
		return false, nil
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&Member{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("contains member %d: %w", id, err)
	}
	return count > 0, nil
}

// Merge copies the member's state into the store and returns the stored copy.
// A member with an unknown or unassigned identifier is inserted as a new row;
// the argument itself is left untouched. A stored team binding is kept when
// the argument carries no team, and a different team is a conflict.
func (s *MemberStore) Merge(ctx context.Context, member *models.Member) (*models.Member, error) {
	if member == nil {
		return nil, fmt.Errorf("merge member: %w: member is required", models.ErrInvalidArgument)
	}
	if team := member.Team(); team != nil && team.ID() == 0 {
		return nil, fmt.Errorf("merge member: %w: team %q must be persisted first", models.ErrInvalidArgument, team.Name())
	}

	row := memberRow(member)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stored Member
		err := tx.Select("id", "team_id").Where("id = ?", row.ID).Limit(1).Find(&stored).Error
		if err != nil {
			return fmt.Errorf("merge member %d: %w", row.ID, err)
		}

		if row.ID == 0 || stored.ID == 0 {
			row.ID = 0
			if err := tx.Create(row).Error; err != nil {
				return fmt.Errorf("merge member: %w", translateWriteError(err))
			}
			return nil
		}

		switch {
		case row.TeamID == nil:
			row.TeamID = stored.TeamID
		case stored.TeamID != nil && *stored.TeamID != *row.TeamID:
			return fmt.Errorf("merge member %d: %w: bound to team %d, not %d",
				row.ID, models.ErrConflict, *stored.TeamID, *row.TeamID)
		}
		if err := tx.Save(row).Error; err != nil {
			return fmt.Errorf("merge member %d: %w", row.ID, translateWriteError(err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.Find(ctx, row.ID)
}

// Remove deletes a member together with its roster entries and orders.
func (s *MemberStore) Remove(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("member_id = ?", id).Delete(&TeamMember{}).Error; err != nil {
			return fmt.Errorf("remove member %d roster entries: %w", id, err)
		}
		if err := tx.Where("member_id = ?", id).Delete(&Order{}).Error; err != nil {
			return fmt.Errorf("remove member %d orders: %w", id, err)
		}
		result := tx.Delete(&Member{}, id)
		if result.Error != nil {
			return fmt.Errorf("remove member %d: %w", id, result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("remove member %d: %w", id, db.ErrNotFound)
		}
		return nil
	})
}

// JoinTeam binds a stored member to a stored team. The team roster is not
// changed; use TeamStore.AddMember for that.
func (s *MemberStore) JoinTeam(ctx context.Context, memberID, teamID int64) (*models.Member, error) {
	var joined *models.Member
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := s.findRow(ctx, tx, memberID)
		if err != nil {
			return err
		}
		member, err := row.toModel()
		if err != nil {
			return err
		}

		var teamRow Team
		err = tx.First(&teamRow, teamID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("find team %d: %w", teamID, db.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("find team %d: %w", teamID, err)
		}
		team, err := teamRow.toModel()
		if err != nil {
			return err
		}

		if err := member.JoinTeam(team); err != nil {
			return err
		}
		if err := tx.Model(&Member{}).Where("id = ?", memberID).Update("team_id", teamID).Error; err != nil {
			return fmt.Errorf("join team: %w", err)
		}
		joined = member
		return nil
	})
	if err != nil {
		return nil, err
	}
	return joined, nil
}

// List returns members ordered by identifier within the page window.
func (s *MemberStore) List(ctx context.Context, page db.Page) ([]*models.Member, error) {
	page = NormalizePage(page)

	var rows []Member
	err := s.db.WithContext(ctx).
		Preload("Team").
		Order("id").
		Offset(page.Offset).
		Limit(page.Limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return membersToModels(rows)
}

// FindByName returns the only member with the given name, bound as a named parameter.
func (s *MemberStore) FindByName(ctx context.Context, name string) (*models.Member, error) {
	var rows []Member
	err := s.db.WithContext(ctx).
		Preload("Team").
		Where("name = @name", sql.Named("name", name)).
		Limit(2).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("find member by name: %w", err)
	}
	return singleMember(rows, "name "+name)
}

// FindByNameAndAge returns the only member matching both positional parameters.
func (s *MemberStore) FindByNameAndAge(ctx context.Context, name string, age int) (*models.Member, error) {
	var rows []Member
	err := s.db.WithContext(ctx).
		Preload("Team").
		Where("name = ? AND age = ?", name, age).
		Limit(2).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("find member by name and age: %w", err)
	}
	return singleMember(rows, fmt.Sprintf("name %s age %d", name, age))
}

// FindByAge returns all members of the given age ordered by identifier.
func (s *MemberStore) FindByAge(ctx context.Context, age int) ([]*models.Member, error) {
	var rows []Member
	err := s.db.WithContext(ctx).
		Preload("Team").
		Where("age = @age", sql.Named("age", age)).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("find members by age: %w", err)
	}
	return membersToModels(rows)
}

func singleMember(rows []Member, what string) (*models.Member, error) {
	row, err := db.SingleResult(rows)
	if err != nil {
		return nil, fmt.Errorf("member with %s: %w", what, err)
	}
	return row.toModel()
}
