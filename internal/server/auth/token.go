package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/bookmarker/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

var ErrEmptySecret = errors.New("auth: empty signing secret")

// Claims is the signed token payload: registered claims plus the user email.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// Identity returns the request-scoped view of the claims.
func (c *Claims) Identity() Identity {
	id := Identity{UserID: c.Subject, Email: c.Email}
	if c.IssuedAt != nil {
		id.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		id.ExpiresAt = c.ExpiresAt.Time
	}
	return id
}

// TokenIssuer signs and validates HS256 access tokens. It is immutable after
// construction and safe for concurrent use.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret []byte, ttl time.Duration) (*TokenIssuer, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("auth: token ttl must be positive, got %s", ttl)
	}
	key := make([]byte, len(secret))
	copy(key, secret)
	return &TokenIssuer{secret: key, ttl: ttl, now: time.Now}, nil
}

// TTL is the default token lifetime.
func (i *TokenIssuer) TTL() time.Duration {
	return i.ttl
}

// Issue signs a token for subject. A non-positive ttl means the issuer default.
func (i *TokenIssuer) Issue(subject, email string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = i.ttl
	}
	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email: email,
	})

	tokenString, err := token.SignedString(i.secret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// Validate checks signature and expiry. Every failure matches
// common.ErrInvalidToken; the second wrapped sentinel tells why.
func (i *TokenIssuer) Validate(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, invalid(common.ErrTokenMissing, nil)
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) {
			return i.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, invalid(reason(err), err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, invalid(common.ErrTokenMalformed, nil)
	}

	return claims, nil
}

func reason(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return common.ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return common.ErrTokenSignature
	default:
		return common.ErrTokenMalformed
	}
}

func invalid(why, cause error) error {
	if cause == nil {
		return fmt.Errorf("%w: %w", common.ErrInvalidToken, why)
	}
	return fmt.Errorf("%w: %w: %v", common.ErrInvalidToken, why, cause)
}
