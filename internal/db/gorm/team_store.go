// Package gorm provides GORM-based database operations for usageref.
package gorm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/thebtf/usageref/internal/db"
	"github.com/thebtf/usageref/pkg/models"
)

// TeamStore provides team and roster operations using GORM.
type TeamStore struct {
	db *gorm.DB
}

var _ db.TeamStore = (*TeamStore)(nil)

// NewTeamStore creates a new team store.
func NewTeamStore(store *Store) *TeamStore {
	return &TeamStore{db: store.DB}
}

// Persist inserts a new team together with its current roster.
// Every rostered member must already be persisted.
func (s *TeamStore) Persist(ctx context.Context, team *models.Team) error {
	if team == nil {
		return fmt.Errorf("persist team: %w: team is required", models.ErrInvalidArgument)
	}
	if team.ID() != 0 {
		return fmt.Errorf("persist team: %w: team %d is already persisted", models.ErrConflict, team.ID())
	}

	roster := team.Members()
	for _, m := range roster {
		if m.ID() == 0 {
			return fmt.Errorf("persist team: %w: member %q must be persisted first", models.ErrInvalidArgument, m.Name())
		}
	}

	row := &Team{Name: team.Name()}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(row).Error; err != nil {
			return translateWriteError(err)
		}
		for i, m := range roster {
			entry := &TeamMember{TeamID: row.ID, MemberID: m.ID(), Position: i}
			if err := tx.Create(entry).Error; err != nil {
				return translateWriteError(err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("persist team %q: %w", team.Name(), err)
	}
	return team.AssignID(row.ID)
}

// Find loads a team and its ordered roster.
func (s *TeamStore) Find(ctx context.Context, id int64) (*models.Team, error) {
	return s.loadTeam(ctx, s.db, "id = ?", id)
}

// FindByName loads a team by its unique name.
func (s *TeamStore) FindByName(ctx context.Context, name string) (*models.Team, error) {
	return s.loadTeam(ctx, s.db, "name = ?", name)
}

// List returns teams ordered by identifier, each with its roster.
func (s *TeamStore) List(ctx context.Context, page db.Page) ([]*models.Team, error) {
	page = NormalizePage(page)

	var rows []Team
	err := s.db.WithContext(ctx).Order("id").Offset(page.Offset).Limit(page.Limit).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}

	teams := make([]*models.Team, 0, len(rows))
	for i := range rows {
		team, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		if err := s.loadRoster(ctx, s.db, team); err != nil {
			return nil, err
		}
		teams = append(teams, team)
	}
	return teams, nil
}

// AddMember appends a stored member to a stored team's roster. The member's
// own team reference is not changed; use MemberStore.JoinTeam for that.
func (s *TeamStore) AddMember(ctx context.Context, teamID, memberID int64) (*models.Team, error) {
	var updated *models.Team
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		team, err := s.loadTeam(ctx, tx, "id = ?", teamID)
		if err != nil {
			return err
		}

		var mRow Member
		err = tx.Preload("Team").First(&mRow, memberID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("find member %d: %w", memberID, db.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("find member %d: %w", memberID, err)
		}
		member, err := rosterMember(&mRow, team)
		if err != nil {
			return err
		}

		if err := team.AddMember(member); err != nil {
			return err
		}
		entry := &TeamMember{TeamID: teamID, MemberID: memberID, Position: len(team.Members()) - 1}
		if err := tx.Create(entry).Error; err != nil {
			return fmt.Errorf("add member %d to team %d: %w", memberID, teamID, translateWriteError(err))
		}
		updated = team
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *TeamStore) loadTeam(ctx context.Context, tx *gorm.DB, query string, arg any) (*models.Team, error) {
	var row Team
	err := tx.WithContext(ctx).Where(query, arg).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find team (%s %v): %w", strings.TrimSuffix(query, " = ?"), arg, db.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find team: %w", err)
	}

	team, err := row.toModel()
	if err != nil {
		return nil, err
	}
	if err := s.loadRoster(ctx, tx, team); err != nil {
		return nil, err
	}
	return team, nil
}

// loadRoster replays the stored roster onto the team in position order.
func (s *TeamStore) loadRoster(ctx context.Context, tx *gorm.DB, team *models.Team) error {
	var entries []TeamMember
	err := tx.WithContext(ctx).
		Preload("Member.Team").
		Where("team_id = ?", team.ID()).
		Order("position").
		Find(&entries).Error
	if err != nil {
		return fmt.Errorf("load roster of team %d: %w", team.ID(), err)
	}

	for i := range entries {
		if entries[i].Member == nil {
			continue
		}
		member, err := rosterMember(entries[i].Member, team)
		if err != nil {
			return err
		}
		if err := team.AddMember(member); err != nil {
			return err
		}
	}
	return nil
}

// rosterMember rebuilds a member row, reusing the team instance when the
// member is bound to that same team.
func rosterMember(row *Member, team *models.Team) (*models.Member, error) {
	if row.TeamID == nil || *row.TeamID != team.ID() {
		return row.toModel()
	}
	bare := *row
	bare.Team = nil
	member, err := bare.toModel()
	if err != nil {
		return nil, err
	}
	if err := member.JoinTeam(team); err != nil {
		return nil, err
	}
	return member, nil
}

// translateWriteError maps unique-constraint violations to models.ErrConflict
// and foreign-key violations to db.ErrNotFound. Both the SQLite and
// PostgreSQL messages are recognised.
func translateWriteError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", models.ErrConflict, err)
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return fmt.Errorf("%w: %v", db.ErrNotFound, err)
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "unique constraint"), strings.Contains(msg, "duplicate key"):
		return fmt.Errorf("%w: %v", models.ErrConflict, err)
	case strings.Contains(msg, "foreign key constraint"):
		return fmt.Errorf("referenced row missing: %w: %v", db.ErrNotFound, err)
	}
	return err
}
