// Package gorm provides GORM-based database operations for usageref.
package gorm

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// migrations lists every schema step in order.
func migrations() []*gormigrate.Migration {
	return []*gormigrate.Migration{
		// Migration 001: teams and members
		{
			ID: "001_teams_members",
			Migrate: func(tx *gorm.DB) error {
				// AutoMigrate creates tables with all indexes from struct tags
				if err := tx.AutoMigrate(&Team{}); err != nil {
					return err
				}
				return tx.AutoMigrate(&Member{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("members", "teams")
			},
		},

		// Migration 002: team roster
		{
			ID: "002_team_members",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&TeamMember{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("team_members")
			},
		},

		// Migration 003: products and orders
		{
			ID: "003_products_orders",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&Product{}); err != nil {
					return err
				}
				return tx.AutoMigrate(&Order{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("orders", "products")
			},
		},
	}
}

// runMigrations runs all database migrations using gormigrate.
func runMigrations(db *gorm.DB) error {
	return gormigrate.New(db, gormigrate.DefaultOptions, migrations()).Migrate()
}

// rollbackLast undoes the most recent migration.
func rollbackLast(db *gorm.DB) error {
	return gormigrate.New(db, gormigrate.DefaultOptions, migrations()).RollbackLast()
}
