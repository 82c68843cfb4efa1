package infra

import (
	"fmt"

	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate
// for all tables, then applies the idempotent SQL patches that GORM cannot
// express (extensions, partial indexes).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		// Unique violations surface as gorm.ErrDuplicatedKey so callers
		// can tell a redelivered webhook from a real failure.
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations creates or updates the schema. Shared with the integration
// tests so they run against exactly what production boots with.
func RunMigrations(db *gorm.DB) error {
	// id columns default to gen_random_uuid(); present by default only on
	// Postgres 13+, so make sure the extension is there first.
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error; err != nil {
		return fmt.Errorf("pgcrypto extension: %w", err)
	}

	if err := db.AutoMigrate(
		&model.User{},
		&model.Company{},
		&model.Document{},
		&model.DocumentItem{},
		&model.InboundMessage{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}

	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL that GORM AutoMigrate cannot
// handle on its own. Each statement uses IF NOT EXISTS semantics so
// re-running on an already-patched DB is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		// DB-level backstop for webhook redelivery: the Redis dedup check
		// is best-effort, this index is the hard guarantee. Partial so the
		// many rows without a provider id stay unconstrained.
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'uni_inbound_messages_provider_id') THEN
		    CREATE UNIQUE INDEX uni_inbound_messages_provider_id
		        ON inbound_messages (channel_id, provider_message_id)
		        WHERE provider_message_id IS NOT NULL;
		  END IF;
		END $$`,
		// The audit listing filters by company and outcome together.
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_inbound_messages_company_outcome') THEN
		    CREATE INDEX idx_inbound_messages_company_outcome
		        ON inbound_messages (company_id, outcome);
		  END IF;
		END $$`,
	}

	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", sql[:min(len(sql), 60)], err)
		}
	}
	return nil
}
