// Package models contains domain models for usageref.
package models

import (
	"fmt"
	"strings"
)

// Team is a named group holding an ordered, duplicate-free roster.
type Team struct {
	name    string
	members []*Member
	id      int64
}

// NewTeam creates a validated team. The name must contain non-whitespace text.
func NewTeam(id int64, name string) (*Team, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: team name is required", ErrInvalidArgument)
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: team name cannot be blank", ErrInvalidArgument)
	}
	return &Team{id: id, name: name}, nil
}

// ID returns the team identifier, 0 when unassigned.
func (t *Team) ID() int64 { return t.id }

// Name returns the team name.
func (t *Team) Name() string { return t.name }

// AssignID records the identifier handed out by a store.
func (t *Team) AssignID(id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: team id must be positive", ErrInvalidArgument)
	}
	if t.id != 0 && t.id != id {
		return fmt.Errorf("%w: team already has id %d", ErrConflict, t.id)
	}
	t.id = id
	return nil
}

// Members returns a copy of the roster in insertion order.
func (t *Team) Members() []*Member {
	out := make([]*Member, len(t.members))
	copy(out, t.members)
	return out
}

// HasMember reports whether the member is on the roster.
func (t *Team) HasMember(member *Member) bool {
	for _, m := range t.members {
		if m.Equal(member) {
			return true
		}
	}
	return false
}

// AddMember appends a member to the roster. It does not set the member's
// team reference; see Member.JoinTeam.
func (t *Team) AddMember(member *Member) error {
	if member == nil {
		return fmt.Errorf("%w: member is required", ErrInvalidArgument)
	}
	if t.HasMember(member) {
		return fmt.Errorf("%w: member %q already on team %q", ErrConflict, member.Name(), t.name)
	}
	t.members = append(t.members, member)
	return nil
}

// Equal reports whether both teams share identifier and name.
func (t *Team) Equal(other *Team) bool {
	if t == nil || other == nil {
		return t == other
	}
	return t.id == other.id && t.name == other.name
}

// String implements fmt.Stringer.
func (t *Team) String() string {
	return fmt.Sprintf("Team(id=%d, name=%s, members=%d)", t.id, t.name, len(t.members))
}
