package services

import (
	"errors"
	"fmt"
	"time"

	"task-tracker/backend/internal/apperr"

	"github.com/gofrs/uuid"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenExpired = errors.New("token expired")
)

const invalidTokenMessage = "Invalid or expired token"

type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 bearer tokens. Tokens are not
// persisted, so they cannot be revoked before they expire.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

func NewTokenService(secret string, ttl time.Duration, issuer string) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: issuer,
		now:    time.Now,
	}
}

func (s *TokenService) Issue(owner uuid.UUID) (string, time.Time, error) {
	if owner.IsNil() {
		return "", time.Time{}, errors.New("issue token: empty owner")
	}

	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := Claims{
		UserID: owner.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   owner.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify returns the owner named by a valid token. Expired and otherwise
// invalid tokens produce the same client-facing message; the wrapped cause
// tells them apart.
func (s *TokenService) Verify(token string) (uuid.UUID, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (interface{}, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return uuid.Nil, apperr.Unauthorized(invalidTokenMessage, ErrTokenExpired)
		}
		return uuid.Nil, apperr.Unauthorized(invalidTokenMessage, fmt.Errorf("%w: %w", ErrTokenInvalid, err))
	}

	owner, err := uuid.FromString(claims.UserID)
	if err != nil || owner.IsNil() {
		return uuid.Nil, apperr.Unauthorized(invalidTokenMessage, ErrTokenInvalid)
	}
	return owner, nil
}
