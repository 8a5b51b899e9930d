package db

import (
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"ecocritique/internal/article"
	"ecocritique/internal/auth"
	"ecocritique/internal/config"
	"ecocritique/internal/conversation"
	"ecocritique/internal/knowledge"
	"ecocritique/internal/user"
)

var DB *gorm.DB

func Init(cfg *config.Config) error {
	db, err := gorm.Open(postgres.Open(cfg.Postgres.DSN), &gorm.Config{})
	if err != nil {
		return err
	}

	// Auto-migrate account and access-code models
	if err := db.AutoMigrate(&user.User{}, &auth.AccessCode{}); err != nil {
		return err
	}

	// Auto-migrate course content models
	if err := db.AutoMigrate(&article.Article{}, &knowledge.Snippet{}); err != nil {
		return err
	}

	// Auto-migrate conversation history
	if err := db.AutoMigrate(&conversation.Conversation{}, &conversation.Turn{}); err != nil {
		return err
	}

	DB = db
	log.Printf("Database connected and migrated")
	return nil
}
