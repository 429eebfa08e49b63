// Command seed creates a development user account so pages can be created
// against a local database. Production accounts come from the auth service.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/saasvalidator/page-service/internal/config"
	"github.com/saasvalidator/page-service/internal/database"
	"github.com/saasvalidator/page-service/internal/models"
)

func main() {
	os.Exit(run())
}

func run() int {
	var configPath string
	var email string
	var fullName string
	var planName string

	flag.StringVar(&configPath, "config", "config.yml", "Path to configuration file")
	flag.StringVar(&email, "email", "dev@example.com", "Email for the seeded user")
	flag.StringVar(&fullName, "name", "Dev User", "Full name for the seeded user")
	flag.StringVar(&planName, "plan", "free", "Subscription plan (free|pro|team)")
	flag.Parse()

	plan := models.Plan(planName)
	if !plan.Valid() {
		fmt.Fprintf(os.Stderr, "Invalid plan: %q (must be free, pro or team)\n", planName)
		return 1
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	db, err := database.NewPostgresConnection(cfg.Database.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		return 1
	}
	defer func() { _ = db.Close() }()

	users := database.NewUserRepository(db)
	ctx := context.Background()

	exists, err := users.ExistsByEmail(ctx, email)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to check existing user: %v\n", err)
		return 1
	}
	if exists {
		fmt.Printf("User %q already exists. Skipping creation.\n", email)
		return 0
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:        uuid.New(),
		Email:     email,
		FullName:  &fullName,
		Plan:      plan,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := users.Create(ctx, user); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create user: %v\n", err)
		return 1
	}

	fmt.Printf("Created %s user %s (%s)\n", plan, email, user.ID)
	return 0
}
