package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrTokenExpired is returned for a well-formed token past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid is returned for a malformed, tampered, or
	// wrongly-signed token.
	ErrTokenInvalid = errors.New("invalid token")
)

// Claims is the payload embedded in every issued token. Subject carries the
// account ID, ID (jti) identifies the token itself for revocation.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// AccountID parses the subject claim back into an account ID.
func (c *Claims) AccountID() (uuid.UUID, error) {
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return uuid.Nil, ErrTokenInvalid
	}
	return id, nil
}

// TokenService issues and verifies HS256-signed identity tokens. It holds
// the only copy of the signing secret and keeps no per-token state:
// verification never consults storage, so account existence must be
// re-checked by callers of sensitive operations.
type TokenService struct {
	secret []byte
	expiry time.Duration
}

func NewTokenService(secret string, expiry time.Duration) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		expiry: expiry,
	}
}

// Issue signs a token asserting the given account identity. The returned
// claims carry the generated jti and expiry, which callers need for
// revocation bookkeeping.
func (s *TokenService) Issue(accountID uuid.UUID, email string) (string, *Claims, error) {
	now := time.Now()
	claims := &Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID.String(),
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, claims, nil
}

// Verify parses and validates a token string. Expired tokens return
// ErrTokenExpired; anything else wrong (bad signature, tampered payload,
// unexpected algorithm, garbage input) returns ErrTokenInvalid.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}
	if _, err := claims.AccountID(); err != nil {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// Expiry reports the configured validity window.
func (s *TokenService) Expiry() time.Duration {
	return s.expiry
}
