package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/vitalink/vitalink/internal/auth"
	"github.com/vitalink/vitalink/internal/metrics"
	"github.com/vitalink/vitalink/internal/model"
	"github.com/vitalink/vitalink/internal/repository"
)

// Admin service errors.
var (
	ErrMissingCredentials = errors.New("email and password are required")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// AdminStore is the data-store contract for admin accounts.
type AdminStore interface {
	GetActiveAdminByEmail(ctx context.Context, email string) (*model.Admin, error)
	TouchAdminLastLogin(ctx context.Context, id string, at time.Time) error
}

// AdminService is the authentication gateway for administrator accounts.
type AdminService struct {
	store   AdminStore
	tokens  *auth.TokenIssuer
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewAdminService creates a new AdminService.
func NewAdminService(store AdminStore, tokens *auth.TokenIssuer, logger *slog.Logger, recorder metrics.Recorder) *AdminService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &AdminService{
		store:   store,
		tokens:  tokens,
		logger:  logger,
		metrics: recorder,
	}
}

// Login validates administrator credentials and mints a session token.
//
// Lookup failures, inactive accounts, unprovisioned accounts and wrong
// passwords are all reported as ErrInvalidCredentials so responses never
// reveal which half of the credential pair was wrong.
//
// On success the last-login timestamp is written best-effort: a failed write
// is logged and the login still succeeds.
func (s *AdminService) Login(ctx context.Context, email, password string) (*model.Admin, string, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		s.metrics.IncLoginFailure("invalid_request")
		return nil, "", ErrMissingCredentials
	}

	admin, err := s.store.GetActiveAdminByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrAdminNotFound) {
			s.metrics.IncLoginFailure("invalid_credentials")
			return nil, "", ErrInvalidCredentials
		}
		s.metrics.IncLoginFailure("error")
		return nil, "", fmt.Errorf("lookup admin: %w", err)
	}

	// Accounts still carrying the bootstrap sentinel have never been
	// provisioned and cannot log in.
	if !admin.Provisioned() {
		s.metrics.IncLoginFailure("invalid_credentials")
		return nil, "", ErrInvalidCredentials
	}

	ok, err := auth.VerifyPassword(password, admin.PasswordHash)
	if err != nil || !ok {
		// A malformed stored hash is indistinguishable from a wrong
		// password to the caller.
		s.metrics.IncLoginFailure("invalid_credentials")
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Mint(admin.ID, admin.Email)
	if err != nil {
		s.metrics.IncLoginFailure("error")
		return nil, "", fmt.Errorf("mint session token: %w", err)
	}

	now := time.Now().UTC()
	admin.LastLoginAt = &now
	if err := s.store.TouchAdminLastLogin(ctx, admin.ID, now); err != nil {
		s.logger.Warn("failed to record last login",
			slog.String("admin_id", admin.ID),
			slog.String("error", err.Error()),
		)
	}

	s.metrics.IncLoginSuccess()
	return admin, token, nil
}
