// Package identitytest provides an in-memory identity provider and session
// token signing for tests.
package identitytest

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/emojiblog/emojiblog/internal/identity"
)

// Provider is an in-memory identity.Provider
type Provider struct {
	mu    sync.Mutex
	users map[string]identity.User
	// Err, when set, is returned by every lookup
	Err error
	// ListCalls counts GetUserList invocations
	ListCalls int
}

func NewProvider(users ...identity.User) *Provider {
	p := &Provider{users: make(map[string]identity.User)}
	for _, u := range users {
		p.users[u.ID] = u
	}
	return p
}

// User builds an account with a username, image and one email address
func User(id, username string) identity.User {
	name := username
	return identity.User{
		ID:             id,
		Username:       &name,
		ImageURL:       "https://img.test/" + id + ".png",
		EmailAddresses: []identity.EmailAddress{{ID: "idn_" + id, EmailAddress: username + "@example.test"}},
	}
}

func (p *Provider) Add(u identity.User) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.users[u.ID] = u
}

func (p *Provider) Remove(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.users, id)
}

func (p *Provider) GetUserList(_ context.Context, ids []string, limit int) ([]identity.User, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ListCalls++
	if p.Err != nil {
		return nil, p.Err
	}
	var out []identity.User
	for _, id := range ids {
		if len(out) == limit {
			break
		}
		if u, ok := p.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (p *Provider) GetUser(_ context.Context, id string) (*identity.User, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return nil, p.Err
	}
	u, ok := p.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (p *Provider) GetUsersByUsername(_ context.Context, username string) ([]identity.User, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return nil, p.Err
	}
	var out []identity.User
	for _, u := range p.users {
		if u.Username != nil && *u.Username == username {
			out = append(out, u)
		}
	}
	return out, nil
}

// Signer issues RS256 session tokens for a freshly generated key
type Signer struct {
	key *rsa.PrivateKey
	// PublicKeyPEM verifies the tokens issued by Sign
	PublicKeyPEM string
}

func NewSigner(t testing.TB) *Signer {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("marshal public key: %v", err)
	}
	pub := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})
	return &Signer{key: key, PublicKeyPEM: string(pub)}
}

// Sign issues a token for subject valid for ttl (negative ttl yields an expired token)
func (s *Signer) Sign(t testing.TB, subject string, ttl time.Duration) string {
	t.Helper()
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now.Add(-time.Minute)),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(s.key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}
