package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"clinicbook/internal/database"
	"clinicbook/internal/models"

	"github.com/rs/zerolog"
)

// bootstrap_admin grants the admin role to an email, creating the user first
// when needed. Promotion over HTTP requires an existing admin.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	var (
		dbPath = flag.String("db", "./data/clinicbook.db", "path to sqlite db")
		email  = flag.String("email", "", "email of the admin")
		name   = flag.String("name", "", "display name when the user is created")
	)
	flag.Parse()

	addr := strings.TrimSpace(*email)
	if addr == "" {
		return fmt.Errorf("-email is required")
	}

	db, err := database.NewDB(*dbPath, &logger)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	created := false
	user, err := db.GetUserByEmail(ctx, addr)
	if errors.Is(err, database.ErrNotFound) {
		user = &models.User{Email: addr, Name: strings.TrimSpace(*name)}
		if err = db.CreateUser(ctx, user); err != nil {
			return fmt.Errorf("create %s: %w", addr, err)
		}
		created = true
	} else if err != nil {
		return fmt.Errorf("get %s: %w", addr, err)
	}

	if user.IsAdmin() {
		fmt.Printf("done: %s is already an admin\n", addr)
		return nil
	}
	if _, err = db.SetUserRole(ctx, user.ID, models.RoleAdmin); err != nil {
		return fmt.Errorf("promote %s: %w", addr, err)
	}

	fmt.Printf("done: user=%s created=%t promoted=true\n", user.ID, created)
	return nil
}
