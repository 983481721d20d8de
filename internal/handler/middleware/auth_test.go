package middleware

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeoDhali007/TaskVerse/internal/domain"
	"github.com/LeoDhali007/TaskVerse/internal/repository"
	"github.com/LeoDhali007/TaskVerse/pkg/token"
)

type stubUserRepo struct {
	users map[uuid.UUID]*domain.User
}

func (r *stubUserRepo) Create(context.Context, *domain.User) error { return nil }

func (r *stubUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *stubUserRepo) GetByEmail(context.Context, string) (*domain.User, error) {
	return nil, repository.ErrNotFound
}

func (r *stubUserRepo) ExistsByEmailOrUsername(context.Context, string, string) (bool, error) {
	return false, nil
}

func (r *stubUserRepo) Update(context.Context, *domain.User) error { return nil }

func (r *stubUserRepo) UpdatePassword(context.Context, uuid.UUID, string) error { return nil }

func (r *stubUserRepo) UpdateLastLogin(context.Context, uuid.UUID) error { return nil }

func (r *stubUserRepo) Deactivate(context.Context, uuid.UUID, string, string) error { return nil }

func (r *stubUserRepo) Search(context.Context, string, int, int) ([]*domain.PublicUser, int, error) {
	return nil, 0, nil
}

func newTestApp(t *testing.T, accessTTL time.Duration) (*fiber.App, *token.Codec, *stubUserRepo) {
	t.Helper()

	codec, err := token.NewCodec(
		[]byte("access-secret-for-middleware-test"),
		[]byte("refresh-secret-for-middleware-test"),
		accessTTL, time.Hour, "taskverse", "taskverse-api")
	require.NoError(t, err)

	repo := &stubUserRepo{users: make(map[uuid.UUID]*domain.User)}

	app := fiber.New()
	app.Get("/protected", Protected(codec, repo), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"userId":   c.Locals("user_id").(uuid.UUID).String(),
			"username": c.Locals("username").(string),
		})
	})
	return app, codec, repo
}

func TestProtectedRejectsMissingToken(t *testing.T) {
	app, _, _ := newTestApp(t, time.Minute)

	req := httptest.NewRequest("GET", "/protected", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "missing_token", body.Error)
}

func TestProtectedRejectsMalformedHeader(t *testing.T) {
	app, _, _ := newTestApp(t, time.Minute)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestProtectedDistinguishesExpiredFromInvalid(t *testing.T) {
	app, codec, repo := newTestApp(t, -time.Minute)

	userID := uuid.New()
	repo.users[userID] = &domain.User{ID: userID, Username: "kara", IsActive: true}

	expired, _, err := codec.IssueAccess(userID)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+expired)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "token_expired", body.Error)

	req = httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	resp, err = app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "invalid_token", body.Error)
}

func TestProtectedRejectsRefreshTokenOnAPIRoutes(t *testing.T) {
	app, codec, repo := newTestApp(t, time.Minute)

	userID := uuid.New()
	repo.users[userID] = &domain.User{ID: userID, Username: "kara", IsActive: true}

	refresh, _, err := codec.IssueRefresh(userID)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+refresh)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestProtectedRejectsDeactivatedAndUnknownUsers(t *testing.T) {
	app, codec, repo := newTestApp(t, time.Minute)

	inactive := uuid.New()
	repo.users[inactive] = &domain.User{ID: inactive, Username: "ghost", IsActive: false}

	tok, _, err := codec.IssueAccess(inactive)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "account_inactive", body.Error)

	// Token for a user that no longer exists in the store.
	tok, _, err = codec.IssueAccess(uuid.New())
	require.NoError(t, err)

	req = httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err = app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "invalid_token", body.Error)
}

func TestProtectedSetsRequestLocals(t *testing.T) {
	app, codec, repo := newTestApp(t, time.Minute)

	userID := uuid.New()
	repo.users[userID] = &domain.User{ID: userID, Username: "kara", Email: "kara@example.com", IsActive: true}

	tok, _, err := codec.IssueAccess(userID)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		UserID   string `json:"userId"`
		Username string `json:"username"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, userID.String(), body.UserID)
	assert.Equal(t, "kara", body.Username)
}

func newOptionalApp(t *testing.T, accessTTL time.Duration) (*fiber.App, *token.Codec, *stubUserRepo) {
	t.Helper()

	codec, err := token.NewCodec(
		[]byte("access-secret-for-middleware-test"),
		[]byte("refresh-secret-for-middleware-test"),
		accessTTL, time.Hour, "taskverse", "taskverse-api")
	require.NoError(t, err)

	repo := &stubUserRepo{users: make(map[uuid.UUID]*domain.User)}

	app := fiber.New()
	app.Get("/feed", Optional(codec, repo), func(c *fiber.Ctx) error {
		if id, ok := c.Locals("user_id").(uuid.UUID); ok {
			return c.JSON(fiber.Map{"userId": id.String()})
		}
		return c.JSON(fiber.Map{"userId": ""})
	})
	return app, codec, repo
}

func TestOptionalPassesThroughWithoutToken(t *testing.T) {
	app, _, _ := newOptionalApp(t, time.Minute)

	req := httptest.NewRequest("GET", "/feed", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		UserID string `json:"userId"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Empty(t, body.UserID)
}

func TestOptionalTreatsBadCredentialsAsAnonymous(t *testing.T) {
	app, codec, repo := newOptionalApp(t, -time.Minute)

	userID := uuid.New()
	repo.users[userID] = &domain.User{ID: userID, Username: "kara", IsActive: true}

	expired, _, err := codec.IssueAccess(userID)
	require.NoError(t, err)

	for _, header := range []string{"Bearer " + expired, "Bearer not.a.token"} {
		req := httptest.NewRequest("GET", "/feed", nil)
		req.Header.Set("Authorization", header)
		resp, err := app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		var body struct {
			UserID string `json:"userId"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Empty(t, body.UserID)
		resp.Body.Close()
	}
}

func TestOptionalResolvesValidPrincipal(t *testing.T) {
	app, codec, repo := newOptionalApp(t, time.Minute)

	userID := uuid.New()
	repo.users[userID] = &domain.User{ID: userID, Username: "kara", IsActive: true}

	tok, _, err := codec.IssueAccess(userID)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/feed", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		UserID string `json:"userId"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, userID.String(), body.UserID)
}
