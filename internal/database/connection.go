package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/thereayou/warbler/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the Postgres database behind dsn and migrates the schema.
func (d *Database) Connect(dsn string) error {
	if dsn == "" {
		return errors.New("DATABASE_URL is not set")
	}

	if err := d.Open(postgres.Open(dsn)); err != nil {
		return err
	}

	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return nil
}

// Open connects through any GORM dialector and migrates the schema.
func (d *Database) Open(dialector gorm.Dialector) error {
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	d.db = db
	return d.Migrate()
}

func (d *Database) Migrate() error {
	err := d.db.AutoMigrate(&models.User{}, &models.Message{}, &models.Follow{}, &models.Like{})
	if err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	return nil
}
