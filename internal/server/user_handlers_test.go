package server

import (
	"fmt"
	"net/http"
	"testing"

	"murmur/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) me(t *testing.T, session string) accountBody {
	t.Helper()
	resp, body := e.do(t, http.MethodGet, "/api/auth/me", nil, session)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))
	return decode[accountBody](t, body)
}

func TestGetUserProfile(t *testing.T) {
	env := newTestEnv(t)
	session := env.signup(t, "ada")

	for _, s := range []string{"", session} {
		resp, body := env.do(t, http.MethodGet, "/api/users/ada", nil, s)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, "ada", decode[accountBody](t, body).Username)
	}

	resp, body := env.do(t, http.MethodGet, "/api/users/nobody", nil, "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "User not found", decode[errorBody](t, body).Error)
}

func TestFollowUnfollow(t *testing.T) {
	env := newTestEnv(t)
	a := env.signup(t, "alice")
	b := env.signup(t, "bob")
	bob := env.me(t, b)
	alice := env.me(t, a)

	path := fmt.Sprintf("/api/users/follow/%d", bob.ID)

	resp, body := env.do(t, http.MethodPost, path, nil, a)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, "User followed successfully", decode[map[string]string](t, body)["message"])
	assert.Equal(t, []uint{bob.ID}, env.me(t, a).Following)
	assert.Equal(t, []uint{alice.ID}, env.me(t, b).Followers)

	var notes []models.Notification
	require.NoError(t, env.db.Where("to_id = ?", bob.ID).Find(&notes).Error)
	require.Len(t, notes, 1)
	assert.Equal(t, models.NotificationFollow, notes[0].Type)
	assert.Equal(t, alice.ID, notes[0].FromID)

	resp, body = env.do(t, http.MethodPost, path, nil, a)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "User unfollowed successfully", decode[map[string]string](t, body)["message"])
	assert.Equal(t, []uint{}, env.me(t, a).Following)
	assert.Equal(t, []uint{}, env.me(t, b).Followers)
}

func TestFollowUnfollow_Errors(t *testing.T) {
	env := newTestEnv(t)
	a := env.signup(t, "alice")
	alice := env.me(t, a)

	tests := []struct {
		name    string
		path    string
		status  int
		message string
	}{
		{"self", fmt.Sprintf("/api/users/follow/%d", alice.ID), fiber.StatusBadRequest, "You can't follow/unfollow yourself"},
		{"missing target", "/api/users/follow/9999", fiber.StatusNotFound, "User not found"},
		{"bad id", "/api/users/follow/abc", fiber.StatusBadRequest, "Invalid ID"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := env.do(t, http.MethodPost, tt.path, nil, a)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.message, decode[errorBody](t, body).Error)
		})
	}

	resp, _ := env.do(t, http.MethodPost, "/api/users/follow/1", nil, "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, []uint{}, env.me(t, a).Following)
}

func TestSuggestedUsers(t *testing.T) {
	env := newTestEnv(t)
	a := env.signup(t, "alice")
	var ids []uint
	for i := 0; i < 6; i++ {
		s := env.signup(t, fmt.Sprintf("user%d", i))
		ids = append(ids, env.me(t, s).ID)
	}
	for _, id := range ids[:3] {
		resp, _ := env.do(t, http.MethodPost, fmt.Sprintf("/api/users/follow/%d", id), nil, a)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
	}
	alice := env.me(t, a)

	resp, body := env.do(t, http.MethodGet, "/api/users/suggested", nil, a)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))
	suggested := decode[[]accountBody](t, body)

	assert.LessOrEqual(t, len(suggested), 4)
	assert.NotEmpty(t, suggested)
	for _, u := range suggested {
		assert.NotEqual(t, alice.ID, u.ID)
		assert.NotContains(t, alice.Following, u.ID)
	}
}

func TestUpdateUser(t *testing.T) {
	env := newTestEnv(t)
	a := env.signup(t, "alice")
	env.signup(t, "bob")

	t.Run("profile fields", func(t *testing.T) {
		resp, body := env.do(t, http.MethodPost, "/api/users/update", map[string]string{
			"bio":  "hello",
			"link": "https://example.com",
		}, a)
		require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))
		account := decode[accountBody](t, body)
		assert.Equal(t, "hello", account.Bio)
		assert.Equal(t, "alice", account.Username)
	})

	t.Run("username collision", func(t *testing.T) {
		resp, body := env.do(t, http.MethodPost, "/api/users/update", map[string]string{"username": "bob"}, a)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "CONFLICT", decode[errorBody](t, body).Code)
	})

	t.Run("password change", func(t *testing.T) {
		resp, body := env.do(t, http.MethodPost, "/api/users/update", map[string]string{
			"currentPassword": "wrong1",
			"newPassword":     "secret2",
		}, a)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Current password is incorrect", decode[errorBody](t, body).Error)

		resp, _ = env.do(t, http.MethodPost, "/api/users/update", map[string]string{
			"currentPassword": "secret1",
			"newPassword":     "secret2",
		}, a)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		resp, _ = env.do(t, http.MethodPost, "/api/auth/login", map[string]string{"username": "alice", "password": "secret2"}, "")
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("cover image stored as cover", func(t *testing.T) {
		resp, body := env.do(t, http.MethodPost, "/api/users/update", map[string]string{
			"coverImg": pngDataURI(t),
		}, a)
		require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))
		account := decode[accountBody](t, body)
		assert.Empty(t, account.ProfileImg)
		assert.Regexp(t, `^/media/[0-9a-f-]{36}\.webp$`, account.CoverImg)

		resp, _ = env.do(t, http.MethodGet, account.CoverImg, nil, "")
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})
}
