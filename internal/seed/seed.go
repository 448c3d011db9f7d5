// Package seed loads YAML fixtures and persists them through the stores.
package seed

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/thebtf/usageref/internal/db"
	"github.com/thebtf/usageref/pkg/models"
)

// Fixture is the YAML document shape.
type Fixture struct {
	Teams    []string        `yaml:"teams"`
	Products []string        `yaml:"products"`
	Members  []MemberFixture `yaml:"members"`
	Orders   []OrderFixture  `yaml:"orders"`
}

// MemberFixture describes one member. Team is optional and must name a team
// listed under teams.
type MemberFixture struct {
	Address *AddressFixture `yaml:"address,omitempty"`
	Name    string          `yaml:"name"`
	Team    string          `yaml:"team,omitempty"`
	Age     int             `yaml:"age"`
}

// AddressFixture describes an embedded address.
type AddressFixture struct {
	City   string `yaml:"city"`
	Street string `yaml:"street"`
}

// OrderFixture links a member to a product by name.
type OrderFixture struct {
	Member  string `yaml:"member"`
	Product string `yaml:"product"`
}

// Stores bundles the stores a fixture is applied to.
type Stores struct {
	Members  db.MemberStore
	Teams    db.TeamStore
	Products db.ProductStore
	Orders   db.OrderStore
}

// Result counts what Apply persisted.
type Result struct {
	Teams    int
	Members  int
	Products int
	Orders   int
}

// Load reads and parses a fixture file.
func Load(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML fixture.
func Parse(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	return &f, nil
}

// Apply builds every entity through its validated constructor and persists
// it. Members with a team are both bound (JoinTeam) and registered on the
// roster (AddMember). Orders refer to members by name, so member names must
// be unique within a fixture. The first error aborts.
func Apply(ctx context.Context, stores Stores, f *Fixture) (Result, error) {
	var res Result

	teams := make(map[string]*models.Team, len(f.Teams))
	for _, name := range f.Teams {
		team, err := models.NewTeam(0, name)
		if err != nil {
			return res, fmt.Errorf("team %q: %w", name, err)
		}
		if err := stores.Teams.Persist(ctx, team); err != nil {
			return res, err
		}
		teams[name] = team
		res.Teams++
	}

	products := make(map[string]*models.Product, len(f.Products))
	for _, name := range f.Products {
		product, err := models.NewProduct(0, name)
		if err != nil {
			return res, fmt.Errorf("product %q: %w", name, err)
		}
		if err := stores.Products.Persist(ctx, product); err != nil {
			return res, err
		}
		products[name] = product
		res.Products++
	}

	members := make(map[string]*models.Member, len(f.Members))
	for _, mf := range f.Members {
		if _, dup := members[mf.Name]; dup {
			return res, fmt.Errorf("member %q: %w: duplicate member name", mf.Name, models.ErrInvalidArgument)
		}
		var opts []models.MemberOption
		if mf.Address != nil {
			opts = append(opts, models.WithAddress(models.NewAddress(mf.Address.City, mf.Address.Street)))
		}
		member, err := models.NewMember(0, mf.Age, mf.Name, opts...)
		if err != nil {
			return res, fmt.Errorf("member %q: %w", mf.Name, err)
		}
		if err := stores.Members.Persist(ctx, member); err != nil {
			return res, err
		}

		if mf.Team != "" {
			team, ok := teams[mf.Team]
			if !ok {
				return res, fmt.Errorf("member %q: %w: unknown team %q", mf.Name, models.ErrInvalidArgument, mf.Team)
			}
			if _, err := stores.Members.JoinTeam(ctx, member.ID(), team.ID()); err != nil {
				return res, err
			}
			if _, err := stores.Teams.AddMember(ctx, team.ID(), member.ID()); err != nil {
				return res, err
			}
		}
		members[mf.Name] = member
		res.Members++
	}

	for _, of := range f.Orders {
		order, err := models.NewOrders(0, members[of.Member], products[of.Product])
		if err != nil {
			return res, fmt.Errorf("order %s/%s: %w", of.Member, of.Product, err)
		}
		if err := stores.Orders.Persist(ctx, order); err != nil {
			return res, err
		}
		res.Orders++
	}

	log.Info().
		Int("teams", res.Teams).
		Int("members", res.Members).
		Int("products", res.Products).
		Int("orders", res.Orders).
		Msg("Fixture applied")

	return res, nil
}
