// Package token issues and verifies the signed session token carried in the
// jwt cookie.
package token

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// CookieName is the cookie that carries the session token.
const CookieName = "jwt"

// DefaultTTL is the lifetime of an issued token and of its cookie.
const DefaultTTL = 15 * 24 * time.Hour

const blocklistPrefix = "blacklist:"

// ErrInvalidToken covers every verification failure: missing, malformed,
// expired, wrong signature, wrong issuer/audience or revoked.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the verified content of a session token.
type Claims struct {
	UserID    uint
	ID        string
	ExpiresAt time.Time
}

// Options configures a Service.
type Options struct {
	Secret   string
	Issuer   string
	Audience string
	TTL      time.Duration
	// SecureCookie marks the cookie Secure. Off only for local development.
	SecureCookie bool
}

// Service signs, verifies and revokes session tokens. The Redis client is
// optional; without it revocation is a no-op.
type Service struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	secure   bool
	rdb      *redis.Client
	now      func() time.Time
}

// NewService returns a token Service.
func NewService(opts Options, rdb *redis.Client) *Service {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		secret:   []byte(opts.Secret),
		issuer:   opts.Issuer,
		audience: opts.Audience,
		ttl:      ttl,
		secure:   opts.SecureCookie,
		rdb:      rdb,
		now:      time.Now,
	}
}

// TTL returns the lifetime of issued tokens.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// Issue creates a signed token for userID.
func (s *Service) Issue(userID uint) (string, error) {
	if len(s.secret) == 0 {
		return "", fmt.Errorf("JWT secret not configured")
	}

	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		Issuer:    s.issuer,
		Audience:  jwt.ClaimStrings{s.audience},
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ID:        uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Parse validates signature, time claims, issuer and audience without
// consulting the blocklist.
func (s *Service) Parse(raw string) (*Claims, error) {
	if raw == "" {
		return nil, ErrInvalidToken
	}

	var rc jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &rc, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	userID, err := strconv.ParseUint(rc.Subject, 10, 64)
	if err != nil || userID == 0 {
		return nil, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}

	return &Claims{
		UserID:    uint(userID),
		ID:        rc.ID,
		ExpiresAt: rc.ExpiresAt.Time,
	}, nil
}

// Verify parses raw and rejects tokens whose id is blocklisted. A Redis
// failure is not treated as revocation.
func (s *Service) Verify(ctx context.Context, raw string) (*Claims, error) {
	claims, err := s.Parse(raw)
	if err != nil {
		return nil, err
	}

	if s.rdb != nil && claims.ID != "" {
		n, err := s.rdb.Exists(ctx, blocklistPrefix+claims.ID).Result()
		if err == nil && n > 0 {
			return nil, fmt.Errorf("%w: revoked", ErrInvalidToken)
		}
	}

	return claims, nil
}

// Revoke blocklists the token id until the token would have expired anyway.
func (s *Service) Revoke(ctx context.Context, claims *Claims) error {
	if s.rdb == nil || claims == nil || claims.ID == "" {
		return nil
	}
	remaining := claims.ExpiresAt.Sub(s.now())
	if remaining <= 0 {
		return nil
	}
	return s.rdb.Set(ctx, blocklistPrefix+claims.ID, "1", remaining).Err()
}

// SetCookie attaches token to the response.
func (s *Service) SetCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.ttl.Seconds()),
		Expires:  s.now().Add(s.ttl),
		HTTPOnly: true,
		Secure:   s.secure,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

// ClearCookie overwrites the session cookie with an empty value and a zero max-age.
func (s *Service) ClearCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   s.secure,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}
