package auth

import (
	"fmt"

	"github.com/google/uuid"
)

// Issuer mints opaque session token values.
type Issuer interface {
	Issue() (string, error)
}

// IssuerFunc adapts a function to Issuer.
type IssuerFunc func() (string, error)

func (f IssuerFunc) Issue() (string, error) { return f() }

// RandomIssuer issues version 4 UUIDs drawn from crypto/rand.
type RandomIssuer struct{}

func (RandomIssuer) Issue() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return id.String(), nil
}
