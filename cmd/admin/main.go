// Package main provides admin management utilities for civicboard.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"civicboard/internal/config"
	"civicboard/internal/database"
	"civicboard/internal/models"
	"civicboard/internal/repository"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	users := repository.NewUserRepository(db)
	ctx := context.Background()

	switch command := os.Args[1]; command {
	case "promote", "demote":
		if len(os.Args) < 3 {
			fmt.Printf("Usage: admin %s <user_id|email>\n", command)
			os.Exit(1)
		}
		role := models.RoleAdmin
		if command == "demote" {
			role = models.RoleUser
		}
		setRole(ctx, users, os.Args[2], role)

	case "list-admins":
		listAdmins(ctx, users)

	default:
		fmt.Printf("Unknown command: %s\n", command)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  admin promote <user_id|email>   - Promote user to admin")
	fmt.Println("  admin demote <user_id|email>    - Demote admin to user")
	fmt.Println("  admin list-admins               - List all admins")
}

// lookup resolves a numeric ID or an email address to a user.
func lookup(ctx context.Context, users repository.UserRepository, ref string) (*models.User, error) {
	if id, err := strconv.ParseUint(ref, 10, 32); err == nil {
		return users.GetByID(ctx, uint(id))
	}
	user, err := users.GetByEmail(ctx, ref)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User", ref)
	}
	return user, nil
}

func setRole(ctx context.Context, users repository.UserRepository, ref string, role models.Role) {
	user, err := lookup(ctx, users, ref)
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Code == models.CodeNotFound {
			fmt.Printf("User %s not found\n", ref)
			os.Exit(1)
		}
		log.Fatalf("Database error: %v", err)
	}

	if user.Role == role {
		fmt.Printf("User %s (ID: %d) already has role %s\n", user.Username, user.ID, role)
		return
	}

	if err := users.UpdateRole(ctx, user.ID, role); err != nil {
		log.Fatalf("Failed to update role: %v", err)
	}

	fmt.Printf("✅ %s (ID: %d) is now %s\n", user.Username, user.ID, role)
}

func listAdmins(ctx context.Context, users repository.UserRepository) {
	admins, err := users.ListByRole(ctx, models.RoleAdmin)
	if err != nil {
		log.Fatalf("Failed to fetch admins: %v", err)
	}

	if len(admins) == 0 {
		fmt.Println("No admins found in the system")
		return
	}

	fmt.Printf("Admins (%d):\n", len(admins))
	for _, admin := range admins {
		status := "active"
		if !admin.IsActive {
			status = "banned"
		}
		fmt.Printf("  - %s (ID: %d, Email: %s, %s)\n", admin.Username, admin.ID, admin.Email, status)
	}
}
