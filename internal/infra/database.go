package infra

import (
	"fmt"

	"knitmes/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate
// to create / update all tables, then applies the idempotent SQL patches that
// GORM cannot express (partial indexes).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
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

// RunMigrations applies the schema. Also used by integration setups that
// bring their own connection.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Lot{},
		&model.MachineAllocation{},
		&model.RollAssignment{},
		&model.GeneratedBarcode{},
		&model.RollConfirmation{},
		&model.Location{},
		&model.StorageCapture{},
		&model.DispatchPlanning{},
		&model.DispatchedRoll{},
		&model.Shift{},
		&model.User{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL that AutoMigrate cannot express.
// Each statement uses IF NOT EXISTS semantics so re-running is safe.
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		// Occupancy scans filter on dispatched=false; a partial index keeps
		// the location search cheap as dispatched captures accumulate.
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_captures_occupancy') THEN
		    CREATE INDEX idx_captures_occupancy
		        ON storage_captures (location_code)
		        WHERE dispatched = false;
		  END IF;
		END $$`,
		// Captures waiting for a hand-assigned location.
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_captures_manual') THEN
		    CREATE INDEX idx_captures_manual
		        ON storage_captures (created_at)
		        WHERE manual_assignment = true;
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
