package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vitalink/vitalink/internal/model"
)

// Common errors for admin repository operations.
var (
	ErrAdminNotFound    = errors.New("admin not found")
	ErrAdminProvisioned = errors.New("admin already provisioned")
)

// GetActiveAdminByEmail retrieves an active admin account by case-insensitive
// email match. Inactive accounts are indistinguishable from missing ones.
func (r *Repository) GetActiveAdminByEmail(ctx context.Context, email string) (*model.Admin, error) {
	query := `
		SELECT id, email, password_hash, is_active, first_name, last_name, created_at, last_login_at
		FROM admins
		WHERE lower(email) = lower($1) AND is_active = true
	`

	var admin model.Admin
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&admin.ID,
		&admin.Email,
		&admin.PasswordHash,
		&admin.IsActive,
		&admin.FirstName,
		&admin.LastName,
		&admin.CreatedAt,
		&admin.LastLoginAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAdminNotFound
		}
		return nil, fmt.Errorf("failed to get admin by email: %w", err)
	}

	return &admin, nil
}

// TouchAdminLastLogin records a successful login. Timestamps are stored UTC.
func (r *Repository) TouchAdminLastLogin(ctx context.Context, id string, at time.Time) error {
	query := `
		UPDATE admins
		SET last_login_at = $2
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, id, at.UTC())
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAdminNotFound
	}

	return nil
}

// ProvisionAdminPassword replaces the bootstrap sentinel with a real
// credential hash. Only rows still carrying the sentinel are updated, so the
// operation is one-time per account: re-running it against a provisioned
// account returns ErrAdminProvisioned.
func (r *Repository) ProvisionAdminPassword(ctx context.Context, email, passwordHash string) error {
	query := `
		UPDATE admins
		SET password_hash = $2
		WHERE lower(email) = lower($1) AND password_hash = $3
	`

	tag, err := r.pool.Exec(ctx, query, email, passwordHash, model.PlaceholderHash)
	if err != nil {
		return fmt.Errorf("failed to provision admin password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a missing account from an already-provisioned one.
		if _, lookupErr := r.GetActiveAdminByEmail(ctx, email); lookupErr != nil {
			return lookupErr
		}
		return ErrAdminProvisioned
	}

	return nil
}
