package main

import (
	"fmt"
	"log"

	assistantdomain "betterish-backend/internal/assistant/domain"
	authdomain "betterish-backend/internal/auth/domain"
	chatdomain "betterish-backend/internal/chat/domain"
	profiledomain "betterish-backend/internal/profile/domain"
	statsdomain "betterish-backend/internal/stats/domain"
	taskdomain "betterish-backend/internal/task/domain"
	"betterish-backend/pkg/config"
	"betterish-backend/pkg/database"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := database.NewConnection(config.Load())
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			if err := migrate(db); err != nil {
				return err
			}
			log.Println("Database schema is up to date")
			return nil
		},
	}
}

// migrate brings every table up to date
func migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&authdomain.User{},
		&authdomain.RefreshToken{},
		&authdomain.FCMToken{},
		&taskdomain.Task{},
		&statsdomain.UserStats{},
		&chatdomain.ChatMessage{},
		&chatdomain.MessageConversion{},
		&profiledomain.UserProfile{},
		&assistantdomain.DailyTip{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
