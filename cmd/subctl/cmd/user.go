package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"github.com/good-yellow-bee/subhub/internal/models"
	"github.com/good-yellow-bee/subhub/internal/storage"
	"github.com/good-yellow-bee/subhub/internal/web/auth"
)

var (
	userUsername string
	userEmail    string
)

// userCmd represents the user command group
var userCmd = &cobra.Command{
	Use:   "user",
	Short: "User management commands",
	Long: `Commands for managing SubHub accounts directly in the database.

Examples:
  # List all users
  subctl user list

  # Verify an account so it can manage projects
  subctl user verify --username alice

  # Create an admin account (prompts for password)
  subctl user create-admin --username root --email root@example.com`,
}

// userListCmd lists all users
var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all users",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openDB()
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := context.Background()
		users, err := store.Users().List(ctx)
		if err != nil {
			return fmt.Errorf("list users: %w", err)
		}

		if len(users) == 0 {
			fmt.Println("No users found.")
			return nil
		}

		fmt.Printf("\n%-20s  %-30s  %-8s  %-8s  %s\n",
			"USERNAME", "EMAIL", "ROLE", "VERIFIED", "CREATED")
		fmt.Println(strings.Repeat("-", 90))

		for _, u := range users {
			fmt.Printf("%-20s  %-30s  %-8s  %-8t  %s\n",
				truncate(u.Username, 20),
				truncate(u.Email, 30),
				u.Role,
				u.Verified,
				u.CreatedAt.Format("2006-01-02 15:04"),
			)
		}
		fmt.Printf("\nTotal: %d user(s)\n", len(users))

		return nil
	},
}

// userVerifyCmd marks an account as verified
var userVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Mark an account as verified",
	Long: `Mark an account as verified. Only verified admin accounts may
manage projects through the site.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if userUsername == "" {
			return fmt.Errorf("--username is required")
		}

		store, err := openDB()
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := context.Background()
		user, err := store.Users().GetByUsername(ctx, userUsername)
		if err != nil {
			return fmt.Errorf("get user: %w", err)
		}
		if user == nil {
			return fmt.Errorf("user not found: %s", userUsername)
		}
		if user.Verified {
			fmt.Printf("User %s is already verified.\n", user.Username)
			return nil
		}

		if err := store.Users().SetVerified(ctx, user.ID, true); err != nil {
			return fmt.Errorf("verify user: %w", err)
		}

		fmt.Printf("User verified: %s\n", user.Username)
		return nil
	},
}

// userCreateAdminCmd creates a verified admin account
var userCreateAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create a verified admin account",
	RunE: func(cmd *cobra.Command, args []string) error {
		if userUsername == "" || userEmail == "" {
			return fmt.Errorf("--username and --email are required")
		}

		fmt.Print("Password: ")
		password, err := term.ReadPassword(0)
		fmt.Println()
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}

		if err := auth.ValidatePasswordOrError(string(password)); err != nil {
			return err
		}

		store, err := openDB()
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := context.Background()
		existing, err := store.Users().GetByUsername(ctx, userUsername)
		if err != nil {
			return fmt.Errorf("check existing user: %w", err)
		}
		if existing != nil {
			return fmt.Errorf("username already exists: %s", userUsername)
		}

		hash, err := bcrypt.GenerateFromPassword(password, bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}

		now := time.Now()
		user := &models.User{
			ID:           uuid.New().String(),
			Username:     strings.TrimSpace(userUsername),
			Email:        strings.TrimSpace(userEmail),
			PasswordHash: string(hash),
			Role:         models.RoleAdmin,
			Verified:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		if err := store.Users().Create(ctx, user); err != nil {
			if errors.Is(err, storage.ErrDuplicateName) {
				return fmt.Errorf("username or email already exists")
			}
			return fmt.Errorf("create user: %w", err)
		}

		fmt.Printf("\nAdmin account created:\n")
		fmt.Printf("  Username: %s\n", user.Username)
		fmt.Printf("  Email:    %s\n", user.Email)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userListCmd)
	userCmd.AddCommand(userVerifyCmd)
	userCmd.AddCommand(userCreateAdminCmd)

	userVerifyCmd.Flags().StringVar(&userUsername, "username", "", "username to verify (required)")
	userVerifyCmd.MarkFlagRequired("username")

	userCreateAdminCmd.Flags().StringVar(&userUsername, "username", "", "username (required)")
	userCreateAdminCmd.Flags().StringVar(&userEmail, "email", "", "email address (required)")
	userCreateAdminCmd.MarkFlagRequired("username")
	userCreateAdminCmd.MarkFlagRequired("email")
}
