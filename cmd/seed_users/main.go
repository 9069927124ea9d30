// Command seed_users creates development accounts. Existing emails are
// skipped; "admin" is promoted to staff.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

var testUsers = []struct {
	first, last, email, username string
	staff                        bool
}{
	{"John", "Doe", "john.doe@example.com", "johndoe", false},
	{"Jane", "Smith", "jane.smith@example.com", "janesmith", false},
	{"Bob", "Wilson", "bob.wilson@example.com", "bobwilson", false},
	{"Alice", "Cooper", "alice.cooper@example.com", "alicecooper", false},
	{"Admin", "User", "admin@example.com", "admin", true},
}

func main() {
	password := flag.String("password", "testpassword123", "Password of every seeded user")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	db, err := database.New(cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to database", "error", err)
	}
	if err := database.RunMigrations(db, "migrations", log); err != nil {
		log.Fatal("Failed to run migrations", "error", err)
	}

	ctx := context.Background()
	auth := service.NewAuthService(db, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, service.NewMemoryBlocklist(), log)

	created := 0
	for _, u := range testUsers {
		// Check if user already exists
		var existing models.User
		err := db.WithContext(ctx).Where("email = ?", u.email).First(&existing).Error
		if err == nil {
			log.Info("User already exists, skipping", "email", u.email)
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Fatal("Failed to look up user", "email", u.email, "error", err)
		}

		user, err := auth.Register(ctx, &types.RegisterRequest{
			Email:     u.email,
			Username:  u.username,
			FirstName: u.first,
			LastName:  u.last,
			Password:  *password,
		})
		if err != nil {
			log.Error("Failed to create user", "email", u.email, "error", err)
			continue
		}
		if u.staff {
			if err := db.WithContext(ctx).Model(user).Update("is_staff", true).Error; err != nil {
				log.Error("Failed to promote user", "email", u.email, "error", err)
			}
		}
		log.Info("Created user", "email", u.email, "username", u.username, "staff", u.staff)
		created++
	}

	var total int64
	db.Model(&models.User{}).Count(&total)
	log.Info("Seeding finished", "created", created, "total_users", total)
}
