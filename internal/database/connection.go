package database

import (
	"errors"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"openchat/internal/models"
)

func (d *Database) Connect(dsn string) error {
	if dsn == "" {
		return errors.New("DATABASE_URL is not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return err
	}

	err = db.AutoMigrate(&models.User{}, &models.Conversation{}, &models.Participant{})
	if err != nil {
		return err
	}

	d.db = db

	return nil
}

// Ping проверяет доступность Postgres для health check
func (d *Database) Ping() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
