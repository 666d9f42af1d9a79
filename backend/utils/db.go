package utils

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"academy/backend/config"
	"academy/backend/models"
)

// InitDB открывает соединение с Postgres и выполняет миграции
func InitDB(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := MigrateDB(db); err != nil {
		return nil, err
	}

	return db, nil
}

// MigrateDB auto-migrates every model; handler tests reuse it against an
// in-memory database.
func MigrateDB(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Course{},
		&models.Chapter{},
		&models.ChapterVideo{},
		&models.UserProgress{},
		&models.Quiz{},
		&models.QuizQuestion{},
		&models.QuizAttempt{},
		&models.Assignment{},
		&models.Submission{},
		&models.Purchase{},
		&models.FinalExam{},
		&models.FinalExamQuestion{},
		&models.FinalExamAttempt{},
		&models.CertificateTemplate{},
		&models.Certificate{},
	)
}
