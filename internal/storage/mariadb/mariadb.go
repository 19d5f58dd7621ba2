package mariadb

import (
	"fmt"

	"iruka_console/internal/config"
	"iruka_console/internal/models"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

type Storage struct {
	DB *gorm.DB
}

func New(cfg config.Database) (*Storage, error) {
	const op = "storage.mariadb.New"

	db, err := gorm.Open(mysql.Open(cfg.GetDSN()), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{DB: db}, nil
}

func (s *Storage) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Storage) Migrate() error {
	const op = "storage.mariadb.Migrate"

	if err := s.DB.AutoMigrate(
		&models.Game{},
		&models.GameVersion{},
		&models.AuditEntry{},
		&models.HistoryEntry{},
	); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
