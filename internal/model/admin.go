// Package model defines domain entities for the application.
package model

import "time"

// PlaceholderHash is the provisioning sentinel stored in place of a real
// credential. An account still carrying it has never been provisioned and
// cannot log in; scripts/bootstrap-admin replaces it with an Argon2id hash.
const PlaceholderHash = "PLACEHOLDER"

// Admin represents an administrator account.
// Accounts are created out of band; this service only reads them and
// maintains last_login_at.
type Admin struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	IsActive     bool       `json:"-"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLoginAt  *time.Time `json:"last_login_at"`
}

// Provisioned reports whether the account holds a real credential hash
// rather than the bootstrap sentinel.
func (a *Admin) Provisioned() bool {
	return a.PasswordHash != "" && a.PasswordHash != PlaceholderHash
}
