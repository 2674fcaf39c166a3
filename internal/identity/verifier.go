package identity

import (
	"crypto/rsa"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier validates session tokens issued by the identity provider
type Verifier struct {
	key *rsa.PublicKey
}

// NewVerifier parses a PEM encoded RSA public key
func NewVerifier(pemKey string) (*Verifier, error) {
	key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pemKey))
	if err != nil {
		return nil, fmt.Errorf("invalid session verification key: %w", err)
	}
	return &Verifier{key: key}, nil
}

// Verify checks the token signature and expiry and returns its subject
func (v *Verifier) Verify(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return v.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return "", err
	}
	if !parsed.Valid {
		return "", errors.New("invalid session token")
	}
	if claims.Subject == "" {
		return "", errors.New("session token has no subject")
	}
	return claims.Subject, nil
}
