package identity

import (
	"context"
	"testing"
	"time"

	"github.com/ech/backend/internal/domain/identity"
	"github.com/ech/backend/internal/domain/shared"
	"github.com/ech/backend/internal/infrastructure/auth"
	"github.com/ech/backend/internal/infrastructure/persistence"
	"github.com/ech/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newUserService(t *testing.T) (*UserService, *AuthService, *auth.MemoryRevocationStore) {
	t.Helper()
	repo := persistence.NewGormUserRepository(testutil.NewSQLiteDB(t))
	revocations := auth.NewMemoryRevocationStore()
	authService := NewAuthService(repo, newTestJWTService(), revocations, zap.NewNop())
	return NewUserService(repo, authService, zap.NewNop()), authService, revocations
}

func TestUserService_CreateAndLogin(t *testing.T) {
	users, authService, _ := newUserService(t)
	ctx := context.Background()

	created, err := users.Create(ctx, CreateUserInput{
		Username: "nadia",
		Password: "s3cretpass",
		Email:    "nadia@example.dz",
		Groups:   []string{identity.GroupManager},
	})
	require.NoError(t, err)
	assert.True(t, created.IsActive)

	_, err = users.Create(ctx, CreateUserInput{Username: "nadia", Password: "s3cretpass"})
	assert.ErrorIs(t, err, shared.ErrDuplicateCode)

	_, err = users.Create(ctx, CreateUserInput{Username: "omar", Password: "s3cretpass", Groups: []string{"Root"}})
	assert.ErrorIs(t, err, shared.ErrValidation)

	login, err := authService.Login(ctx, LoginInput{Username: "nadia", Password: "s3cretpass"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, login.User.ID)
	assert.NotNil(t, login.User.LastLoginAt)
}

func TestUserService_DeactivationEndsSessions(t *testing.T) {
	users, authService, _ := newUserService(t)
	ctx := context.Background()

	created, err := users.Create(ctx, CreateUserInput{Username: "karim", Password: "s3cretpass"})
	require.NoError(t, err)
	login, err := authService.Login(ctx, LoginInput{Username: "karim", Password: "s3cretpass"})
	require.NoError(t, err)

	// Token issued-at has second precision
	time.Sleep(10 * time.Millisecond)
	updated, err := users.SetActive(ctx, created.ID, false)
	require.NoError(t, err)
	assert.False(t, updated.IsActive)

	_, err = authService.Authenticate(ctx, login.AccessToken)
	assert.ErrorIs(t, err, auth.ErrTokenRevoked)

	_, err = authService.Login(ctx, LoginInput{Username: "karim", Password: "s3cretpass"})
	assert.ErrorIs(t, err, shared.ErrUnauthorized)

	reactivated, err := users.SetActive(ctx, created.ID, true)
	require.NoError(t, err)
	assert.True(t, reactivated.IsActive)
}

func TestUserService_SetGroupsAndList(t *testing.T) {
	users, _, _ := newUserService(t)
	ctx := context.Background()

	created, err := users.Create(ctx, CreateUserInput{Username: "lina", Password: "s3cretpass"})
	require.NoError(t, err)

	updated, err := users.SetGroups(ctx, created.ID, []string{identity.GroupAccountant, identity.GroupManager})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{identity.GroupAccountant, identity.GroupManager}, updated.Groups)

	page, err := users.List(ctx, shared.Filter{Search: "LIN"})
	require.NoError(t, err)
	require.Equal(t, int64(1), page.Total)
	assert.ElementsMatch(t, updated.Groups, page.Items[0].Groups)
}

func TestUserService_Bootstrap(t *testing.T) {
	users, authService, _ := newUserService(t)
	ctx := context.Background()

	require.NoError(t, users.Bootstrap(ctx, "", "ignored"))
	require.NoError(t, users.Bootstrap(ctx, "admin", "adm1n-pass"))
	// Second call is a no-op
	require.NoError(t, users.Bootstrap(ctx, "admin2", "adm1n-pass"))

	page, err := users.List(ctx, shared.Filter{})
	require.NoError(t, err)
	require.Equal(t, int64(1), page.Total)
	assert.True(t, page.Items[0].IsSuperuser)

	login, err := authService.Login(ctx, LoginInput{Username: "admin", Password: "adm1n-pass"})
	require.NoError(t, err)
	claims, err := authService.Authenticate(ctx, login.AccessToken)
	require.NoError(t, err)
	assert.True(t, claims.InAnyGroup(identity.GroupAccountant))
}
