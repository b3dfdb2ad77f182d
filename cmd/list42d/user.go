package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dukerupert/list42/internal/config"
	"github.com/dukerupert/list42/internal/database"
	"github.com/dukerupert/list42/internal/store"
)

var (
	userEmail    string
	userName     string
	userPassword string
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user who can sign in",
	RunE:  runUserCreate,
}

func init() {
	userCreateCmd.Flags().StringVar(&userEmail, "email", "", "email address (required)")
	userCreateCmd.Flags().StringVar(&userName, "name", "", "display name")
	userCreateCmd.Flags().StringVar(&userPassword, "password", "", "password (required)")
	userCreateCmd.MarkFlagRequired("email")
	userCreateCmd.MarkFlagRequired("password")
	userCmd.AddCommand(userCreateCmd)
}

func runUserCreate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadServer(configFile)
	if err != nil {
		return err
	}
	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	us := store.NewUserStore(db)
	existing, err := us.GetByEmail(userEmail)
	if err != nil {
		return err
	}
	if existing != nil {
		return errors.New("a user with that email already exists")
	}

	user, err := us.Create(userEmail, userName, userPassword)
	if err != nil {
		return err
	}
	if _, err := store.NewListStore(db).EnsureOwn(user.ID); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (%s)\n", user.Email, user.ID)
	return nil
}
