package db

import (
	"log"

	"ripple/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Open connects to PostgreSQL and runs the schema migration.
func Open(dsn string) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	log.Println("Database connection established")

	err = gdb.AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.Vote{},
		&models.Follow{},
		&models.Comment{},
		&models.CommentLike{},
		&models.Notification{},
	)
	if err != nil {
		return nil, err
	}
	log.Println("Database migration completed")
	return gdb, nil
}
