// Package identity adapts the external identity provider: account lookups,
// session token verification and the client-safe user shape.
package identity

import (
	"context"
)

// EmailAddress is one address attached to a provider account
type EmailAddress struct {
	ID           string `json:"id"`
	EmailAddress string `json:"email_address"`
}

// User is an account as returned by the provider's backend API
type User struct {
	ID             string         `json:"id"`
	Username       *string        `json:"username"`
	FirstName      *string        `json:"first_name"`
	LastName       *string        `json:"last_name"`
	ImageURL       string         `json:"image_url"`
	EmailAddresses []EmailAddress `json:"email_addresses"`
}

// PrimaryEmail returns the first email address, or "" when the account has none
func (u *User) PrimaryEmail() string {
	if len(u.EmailAddresses) == 0 {
		return ""
	}
	return u.EmailAddresses[0].EmailAddress
}

// ClientUser is the only user shape ever returned to clients
type ClientUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	ImageURL string `json:"imageUrl"`
}

// FilterForClient strips a provider account down to id, username and image
func FilterForClient(u User) ClientUser {
	c := ClientUser{ID: u.ID, ImageURL: u.ImageURL}
	if u.Username != nil {
		c.Username = *u.Username
	}
	return c
}

// Provider looks up accounts in the identity provider
type Provider interface {
	// GetUserList returns the accounts among ids that exist, at most limit of them
	GetUserList(ctx context.Context, ids []string, limit int) ([]User, error)
	// GetUser returns nil, nil when the account does not exist
	GetUser(ctx context.Context, id string) (*User, error)
	GetUsersByUsername(ctx context.Context, username string) ([]User, error)
}

type contextKey struct{}

// NewContext returns a copy of ctx carrying the caller's identity id
func NewContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the caller's identity id, if any
func FromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(contextKey{}).(string)
	return id, ok && id != ""
}
