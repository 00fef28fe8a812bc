package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/vitalink/vitalink/internal/auth"
	"github.com/vitalink/vitalink/internal/repository"
)

type output struct {
	Email  string `json:"email"`
	Status string `json:"status"`
}

// Provisions an admin account that still carries the bootstrap sentinel:
// replaces the sentinel with an Argon2id hash of the supplied password.
// Already-provisioned accounts are left untouched.
func main() {
	_ = godotenv.Load()

	var (
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		email       = flag.String("email", "", "Admin account email")
		password    = flag.String("password", "", "New admin password")
		format      = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	if *databaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}
	if *email == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "-email and -password are required")
		os.Exit(1)
	}
	if len(*password) < 12 {
		fmt.Fprintln(os.Stderr, "password must be at least 12 characters")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := repository.New(ctx, *databaseURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect database:", err)
		os.Exit(1)
	}
	defer repo.Close()

	hash, err := auth.HashPassword(*password)
	if err != nil {
		fmt.Fprintln(os.Stderr, "hash password:", err)
		os.Exit(1)
	}

	if err := repo.ProvisionAdminPassword(ctx, *email, hash); err != nil {
		switch {
		case errors.Is(err, repository.ErrAdminNotFound):
			fmt.Fprintf(os.Stderr, "no admin account for %s\n", *email)
		case errors.Is(err, repository.ErrAdminProvisioned):
			fmt.Fprintf(os.Stderr, "admin %s is already provisioned\n", *email)
		default:
			fmt.Fprintln(os.Stderr, "provision admin:", err)
		}
		os.Exit(1)
	}

	result := output{
		Email:  *email,
		Status: "provisioned",
	}

	if *format == "json" {
		json.NewEncoder(os.Stdout).Encode(result)
		return
	}

	fmt.Printf("admin %s provisioned\n", result.Email)
}
