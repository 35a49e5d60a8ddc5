package infra

import (
	"fmt"

	"github.com/DigitalTwins-IS/MS-PRODUCT-PY/internal/config"
	"github.com/DigitalTwins-IS/MS-PRODUCT-PY/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase opens the Postgres connection, reconciles a products table left
// by the previous service generation, runs AutoMigrate and then applies the
// constraints GORM tags cannot express.
func NewDatabase(cfg *config.Config) (*gorm.DB, error) {
	logLevel := logger.Silent
	if cfg.Debug {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		// Surfaces unique violations as gorm.ErrDuplicatedKey.
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

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate brings the products table to the current schema. Idempotent.
func Migrate(db *gorm.DB) error {
	if err := applyPreMigrationPatches(db); err != nil {
		return fmt.Errorf("pre-migration patches: %w", err)
	}
	if err := db.AutoMigrate(&model.Product{}); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	if err := applySchemaPatches(db); err != nil {
		return fmt.Errorf("schema patches: %w", err)
	}
	return nil
}

// applyPreMigrationPatches adapts a products table created by the SQLAlchemy
// version of this service so AutoMigrate can take it over:
//   - its unique index is named ix_products_name; GORM expects uni_products_name.
//   - updated_at was nullable; the model declares it NOT NULL.
func applyPreMigrationPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		{"rename ix_products_name → uni_products_name", `
DO $$ BEGIN
  IF EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'ix_products_name')
     AND NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'uni_products_name') THEN
    ALTER INDEX ix_products_name RENAME TO uni_products_name;
  END IF;
END $$`},
		{"backfill products.updated_at", `
DO $$ BEGIN
  IF EXISTS (SELECT 1 FROM information_schema.columns
             WHERE table_name = 'products' AND column_name = 'updated_at') THEN
    UPDATE products SET updated_at = COALESCE(created_at, now()) WHERE updated_at IS NULL;
    UPDATE products SET created_at = updated_at WHERE created_at IS NULL;
  END IF;
END $$`},
	}
	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("pre-patch %q: %w", p.descr, err)
		}
	}
	return nil
}

// applySchemaPatches adds CHECK constraints for the product invariants.
// Each statement is guarded so re-running is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_products_price_positive') THEN
		    ALTER TABLE products ADD CONSTRAINT chk_products_price_positive CHECK (price > 0);
		  END IF;
		END $$`,
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_products_timestamps') THEN
		    ALTER TABLE products ADD CONSTRAINT chk_products_timestamps CHECK (updated_at >= created_at);
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
