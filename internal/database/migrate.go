// internal/database/migrate.go
package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dangerclosesec/agiletrack/internal/model"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Migrate creates or updates every table. On postgres the configured
// search_path schema is created first.
func Migrate(ctx context.Context, db *gorm.DB, schema string) error {
	if db.Dialector.Name() == "postgres" && schema != "" && schema != "public" {
		stmt := "CREATE SCHEMA IF NOT EXISTS " + pq.QuoteIdentifier(schema)
		if err := db.WithContext(ctx).Exec(stmt).Error; err != nil {
			return fmt.Errorf("creating schema %s: %w", schema, err)
		}
	}

	models := model.All()
	if err := db.WithContext(ctx).AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto-migrating: %w", err)
	}

	slog.Info("database migrated", "dialect", db.Dialector.Name(), "tables", len(models))
	return nil
}
