package token

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

func newTestService(t *testing.T) (*Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	svc := NewService(Options{
		Secret:       testSecret,
		Issuer:       "murmur",
		Audience:     "murmur-web",
		SecureCookie: true,
	}, rdb)
	return svc, mr
}

func TestService_IssueAndVerify(t *testing.T) {
	svc, _ := newTestService(t)

	raw, err := svc.Issue(42)
	require.NoError(t, err)

	claims, err := svc.Verify(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(DefaultTTL), claims.ExpiresAt, time.Minute)
}

func TestService_VerifyRejects(t *testing.T) {
	svc, _ := newTestService(t)
	now := time.Now()

	sign := func(secret string, method jwt.SigningMethod, claims jwt.RegisteredClaims) string {
		tok := jwt.NewWithClaims(method, claims)
		s, err := tok.SignedString([]byte(secret))
		require.NoError(t, err)
		return s
	}
	base := func() jwt.RegisteredClaims {
		return jwt.RegisteredClaims{
			Subject:   "7",
			Issuer:    "murmur",
			Audience:  jwt.ClaimStrings{"murmur-web"},
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        "jti-1",
		}
	}

	tests := []struct {
		name string
		raw  func() string
	}{
		{"empty", func() string { return "" }},
		{"malformed", func() string { return "not.a.token" }},
		{"wrong secret", func() string {
			return sign("another-secret-another-secret-another", jwt.SigningMethodHS256, base())
		}},
		{"expired", func() string {
			c := base()
			c.ExpiresAt = jwt.NewNumericDate(now.Add(-time.Minute))
			return sign(testSecret, jwt.SigningMethodHS256, c)
		}},
		{"missing expiry", func() string {
			c := base()
			c.ExpiresAt = nil
			return sign(testSecret, jwt.SigningMethodHS256, c)
		}},
		{"wrong issuer", func() string {
			c := base()
			c.Issuer = "someone-else"
			return sign(testSecret, jwt.SigningMethodHS256, c)
		}},
		{"wrong audience", func() string {
			c := base()
			c.Audience = jwt.ClaimStrings{"mobile"}
			return sign(testSecret, jwt.SigningMethodHS256, c)
		}},
		{"non numeric subject", func() string {
			c := base()
			c.Subject = "ada"
			return sign(testSecret, jwt.SigningMethodHS256, c)
		}},
		{"none algorithm", func() string {
			tok := jwt.NewWithClaims(jwt.SigningMethodNone, base())
			s, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
			require.NoError(t, err)
			return s
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Verify(context.Background(), tt.raw())
			assert.True(t, errors.Is(err, ErrInvalidToken), "got %v", err)
		})
	}
}

func TestService_Revoke(t *testing.T) {
	svc, mr := newTestService(t)
	ctx := context.Background()

	raw, err := svc.Issue(9)
	require.NoError(t, err)
	claims, err := svc.Verify(ctx, raw)
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(ctx, claims))
	assert.True(t, mr.Exists("blacklist:"+claims.ID))
	ttl := mr.TTL("blacklist:" + claims.ID)
	assert.Greater(t, ttl, DefaultTTL-time.Minute)

	_, err = svc.Verify(ctx, raw)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other, err := svc.Issue(9)
	require.NoError(t, err)
	_, err = svc.Verify(ctx, other)
	assert.NoError(t, err)
}

func TestService_VerifyWithoutRedis(t *testing.T) {
	svc := NewService(Options{Secret: testSecret, Issuer: "i", Audience: "a"}, nil)
	raw, err := svc.Issue(3)
	require.NoError(t, err)

	claims, err := svc.Verify(context.Background(), raw)
	require.NoError(t, err)
	assert.NoError(t, svc.Revoke(context.Background(), claims))
	assert.Equal(t, uint(3), claims.UserID)
}

func TestService_Cookies(t *testing.T) {
	svc, _ := newTestService(t)
	app := fiber.New()
	app.Get("/set", func(c *fiber.Ctx) error {
		svc.SetCookie(c, "abc")
		return c.SendStatus(fiber.StatusOK)
	})
	app.Get("/clear", func(c *fiber.Ctx) error {
		svc.ClearCookie(c)
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/set", nil))
	require.NoError(t, err)
	set := strings.ToLower(resp.Header.Get("Set-Cookie"))
	assert.Contains(t, set, "jwt=abc")
	assert.Contains(t, set, "max-age=1296000")
	assert.Contains(t, set, "httponly")
	assert.Contains(t, set, "secure")
	assert.Contains(t, set, "samesite=strict")

	resp, err = app.Test(httptest.NewRequest("GET", "/clear", nil))
	require.NoError(t, err)
	cleared := strings.ToLower(resp.Header.Get("Set-Cookie"))
	assert.Contains(t, cleared, "jwt=;")
	assert.Contains(t, cleared, "max-age=0")
	assert.Contains(t, cleared, "httponly")
	assert.Contains(t, cleared, "samesite=strict")
}

func TestService_InsecureCookieInDevelopment(t *testing.T) {
	svc := NewService(Options{Secret: testSecret}, nil)
	app := fiber.New()
	app.Get("/set", func(c *fiber.Ctx) error {
		svc.SetCookie(c, "abc")
		return nil
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/set", nil))
	require.NoError(t, err)
	assert.NotContains(t, strings.ToLower(resp.Header.Get("Set-Cookie")), "secure")
}
