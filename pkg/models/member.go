// Package models contains domain models for usageref.
package models

import (
	"fmt"
)

// Member is a person that may belong to at most one team.
type Member struct {
	team    *Team
	name    string
	address Address
	id      int64
	age     int
}

// MemberOption configures optional Member fields at construction.
type MemberOption func(*Member)

// WithAddress sets the member's embedded address.
func WithAddress(addr Address) MemberOption {
	return func(m *Member) {
		m.address = addr
	}
}

// NewMember creates a validated member. An id of 0 means the identifier has
// not been assigned by a store yet.
func NewMember(id int64, age int, name string, opts ...MemberOption) (*Member, error) {
	if err := validateAge(age); err != nil {
		return nil, err
	}
	if err := validateMemberName(name); err != nil {
		return nil, err
	}

	m := &Member{id: id, age: age, name: name}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

func validateAge(age int) error {
	if age < 0 {
		return fmt.Errorf("%w: age cannot be less than zero", ErrInvalidArgument)
	}
	return nil
}

func validateMemberName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: member name is required", ErrInvalidArgument)
	}
	return nil
}

// ID returns the member identifier, 0 when unassigned.
func (m *Member) ID() int64 { return m.id }

// Age returns the member age.
func (m *Member) Age() int { return m.age }

// Name returns the member name.
func (m *Member) Name() string { return m.name }

// Address returns the embedded address.
func (m *Member) Address() Address { return m.address }

// Team returns the team the member joined, or nil.
func (m *Member) Team() *Team { return m.team }

// AssignID records the identifier handed out by a store.
func (m *Member) AssignID(id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: member id must be positive", ErrInvalidArgument)
	}
	if m.id != 0 && m.id != id {
		return fmt.Errorf("%w: member already has id %d", ErrConflict, m.id)
	}
	m.id = id
	return nil
}

// Rename replaces the member name.
func (m *Member) Rename(name string) error {
	if err := validateMemberName(name); err != nil {
		return err
	}
	m.name = name
	return nil
}

// JoinTeam binds the member to a team. It does not touch the team's roster;
// callers register the member there with Team.AddMember.
func (m *Member) JoinTeam(team *Team) error {
	if team == nil {
		return fmt.Errorf("%w: team is required", ErrInvalidArgument)
	}
	if m.team != nil {
		if m.team.Equal(team) {
			return fmt.Errorf("%w: member already joined team %q", ErrConflict, team.Name())
		}
		return fmt.Errorf("%w: member already belongs to team %q", ErrConflict, m.team.Name())
	}
	m.team = team
	return nil
}

// Equal reports identifier equality. A member without an assigned identifier
// is only equal to itself.
func (m *Member) Equal(other *Member) bool {
	if m == nil || other == nil {
		return m == other
	}
	if m.id == 0 || other.id == 0 {
		return m == other
	}
	return m.id == other.id
}

// String implements fmt.Stringer.
func (m *Member) String() string {
	return fmt.Sprintf("Member(id=%d, age=%d, name=%s)", m.id, m.age, m.name)
}
