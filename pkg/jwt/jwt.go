package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const Issuer = "go-inventory-ledger"

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrMissingToken = errors.New("missing authorization token")
	ErrNoSecret     = errors.New("JWT secret is not configured")
)

// Claims is the bearer token issued by the identity provider. Subject is the
// user id recorded on ledger rows.
type Claims struct {
	Email      string   `json:"email,omitempty"`
	Name       string   `json:"name,omitempty"`
	Privileges []string `json:"privileges"`
	jwt.RegisteredClaims
}

// Has reports whether the token grants privilege.
func (c *Claims) Has(privilege string) bool {
	for _, p := range c.Privileges {
		if p == privilege {
			return true
		}
	}
	return false
}

// Signer issues and verifies HS256 tokens with a shared secret.
type Signer struct {
	secret []byte
	ttl    time.Duration
}

func NewSigner(secret string, ttl time.Duration) (*Signer, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Signer{secret: []byte(secret), ttl: ttl}, nil
}

// GenerateToken signs a token for subject with the given privileges.
func (s *Signer) GenerateToken(subject, email, name string, privileges []string) (string, error) {
	now := time.Now()
	claims := &Claims{
		Email:      email,
		Name:       name,
		Privileges: privileges,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    Issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ValidateToken parses and validates a token string
func (s *Signer) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithIssuer(Issuer))

	if err != nil {
		return nil, ErrInvalidToken
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid && claims.Subject != "" {
		return claims, nil
	}

	return nil, ErrInvalidToken
}
